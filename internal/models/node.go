package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Level 行政层级
// 数值即为报表接口prm参数中的level值
type Level int

const (
	LevelYear         Level = 1 // 年度入口(全国页面)
	LevelRegion       Level = 2 // 大区
	LevelProvince     Level = 3 // 省
	LevelMunicipality Level = 4 // 市镇(最深层级)
)

// String 返回层级名称(用于日志与报告)
func (l Level) String() string {
	switch l {
	case LevelYear:
		return "Year"
	case LevelRegion:
		return "Region"
	case LevelProvince:
		return "Province"
	case LevelMunicipality:
		return "Municipality"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Valid 是否为已知层级
func (l Level) Valid() bool {
	return l >= LevelYear && l <= LevelMunicipality
}

// IsLeaf 是否为最深层级(不再展开下拉框)
func (l Level) IsLeaf() bool {
	return l >= LevelMunicipality
}

// Next 返回下一层级
// 已是最深层级时返回false
func (l Level) Next() (Level, bool) {
	if !l.Valid() || l.IsLeaf() {
		return l, false
	}
	return l + 1, true
}

// Option 下拉框中的一个可选项
type Option struct {
	Value string // 提交给表单的机器值
	Label string // 显示名称
}

// HierarchyNode 层级树中的一个爬取单元
// 创建后不可变: 所有方法都是值接收者,路径切片在创建和读取时复制
type HierarchyNode struct {
	ID         string   // 节点唯一ID (UUID, 用于日志关联)
	Year       int      // 报表年度
	Level      Level    // 所在层级
	Value      string   // 下拉框提交值(根节点为空)
	Label      string   // 显示名称(根节点为年份字符串)
	ParentPath []string // 祖先标签,从年份开始
}

// NewRootNode 创建年度根节点
// 根节点不经过网络请求,其页面由入口文件提供
func NewRootNode(year int) HierarchyNode {
	return HierarchyNode{
		ID:         generateID(),
		Year:       year,
		Level:      LevelYear,
		Label:      strconv.Itoa(year),
		ParentPath: []string{},
	}
}

// Child 基于下拉选项创建下一层级的子节点
func (n HierarchyNode) Child(opt Option) (HierarchyNode, error) {
	next, ok := n.Level.Next()
	if !ok {
		return HierarchyNode{}, fmt.Errorf("层级 %s 没有子层级", n.Level)
	}

	return HierarchyNode{
		ID:         generateID(),
		Year:       n.Year,
		Level:      next,
		Value:      opt.Value,
		Label:      opt.Label,
		ParentPath: n.Path(),
	}, nil
}

// Path 返回从年份到当前节点的完整标签路径
func (n HierarchyNode) Path() []string {
	path := make([]string, 0, len(n.ParentPath)+1)
	path = append(path, n.ParentPath...)
	return append(path, n.Label)
}

// PathString 以 " / " 连接的路径(用于日志)
func (n HierarchyNode) PathString() string {
	return strings.Join(n.Path(), " / ")
}

// generateID 生成节点和运行ID
func generateID() string {
	return uuid.New().String()
}
