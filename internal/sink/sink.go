// Package sink 负责表格记录的持久化
//
// 支持两种存储:
//   - CSVSink: 每个表格一个CSV文件,目录结构对应层级路径
//   - SQLiteSink: 所有表格写入同一个SQLite数据库
//
// 两者都会记录本次运行中写入过的位置,同一位置被重复写入时记录警告(后写覆盖先写)
package sink

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

// 存储类型
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// Key 表格的存储位置
type Key struct {
	Segments []string // 目录分段 (年度/大区/省/市镇)
	Name     string   // 表格名称(不含扩展名)
}

// String 以/连接的位置,用于日志和冲突检测
func (k Key) String() string {
	return path.Join(append(append([]string{}, k.Segments...), k.Name)...)
}

// Validate 检查位置是否可用
func (k Key) Validate() error {
	if strings.TrimSpace(k.Name) == "" {
		return fmt.Errorf("表格名称不能为空")
	}
	for _, seg := range k.Segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return fmt.Errorf("无效的路径分段: %q", seg)
		}
	}
	return nil
}

// Sink 表格存储
// 实现必须支持多个工作协程并发调用Save
type Sink interface {
	// Save 保存一个表格
	Save(ctx context.Context, key Key, rec models.TableRecord) error

	// Collisions 本次运行中重复写入同一位置的次数
	Collisions() int

	// Close 释放资源
	Close() error
}

// Options 存储配置
type Options struct {
	Kind       string // csv 或 sqlite
	OutputDir  string // CSV根目录 / SQLite数据库所在目录
	SQLiteFile string // SQLite数据库文件名
}

// Open 按配置创建存储
func Open(opts Options) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindCSV:
		s, err := NewCSVSink(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindSQLite:
		s, err := OpenSQLite(opts.OutputDir, opts.SQLiteFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s (有效值: csv, sqlite)", opts.Kind)
	}
}

// tracker 记录本次运行写入过的位置
type tracker struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	collisions int
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]struct{})}
}

// mark 登记位置,重复时返回true
func (t *tracker) mark(key Key) bool {
	id := key.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		t.collisions++
		utils.Warnf("输出位置重复,后写入的表格将覆盖之前的内容: %s", id)
		return true
	}
	t.seen[id] = struct{}{}
	return false
}

func (t *tracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collisions
}
