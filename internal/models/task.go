package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TablePolicy 表格筛选策略
type TablePolicy string

const (
	PolicyAll      TablePolicy = "all"      // 不过滤,接受页面上的所有表格
	PolicyCategory TablePolicy = "category" // 仅接受 table.RepT#treport[A-Z] 分类表格
)

// ParseTablePolicy 解析表格策略
func ParseTablePolicy(s string) (TablePolicy, error) {
	switch TablePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAll:
		return PolicyAll, nil
	case PolicyCategory:
		return PolicyCategory, nil
	default:
		return "", fmt.Errorf("无效的表格策略: %s (有效值: all, category)", s)
	}
}

const (
	// DefaultWorkers 默认工作协程数
	DefaultWorkers = 14

	// MaxWorkers 工作协程数上限
	MaxWorkers = 100
)

// CrawlConfig 单个爬取配置(一个profile)
type CrawlConfig struct {
	Profile      string      `json:"profile"`       // 配置名称 (ownership/complete)
	Workers      int         `json:"workers"`       // 工作协程数 (默认:14)
	HTMLDir      string      `json:"html_dir"`      // 年度入口页面目录
	OutputDir    string      `json:"output_dir"`    // 输出根目录
	ReportSubset string      `json:"report_subset"` // 报表子集代码 (sbrep)
	TablePolicy  TablePolicy `json:"table_policy"`  // 表格筛选策略
	ShowProgress bool        `json:"show_progress"` // 是否显示进度条
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("工作协程数必须在1-%d之间,当前值: %d", MaxWorkers, c.Workers)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	if strings.TrimSpace(c.HTMLDir) == "" {
		return fmt.Errorf("入口页面目录不能为空")
	}
	if strings.TrimSpace(c.ReportSubset) == "" {
		return fmt.Errorf("报表子集代码不能为空")
	}
	if _, err := ParseTablePolicy(string(c.TablePolicy)); err != nil {
		return err
	}
	return nil
}

// OutcomeStatus 节点处理结果
type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "ok"      // 完整展开
	OutcomeFailed  OutcomeStatus = "failed"  // 分支终止
	OutcomeSkipped OutcomeStatus = "skipped" // 因取消未执行
)

// NodeOutcome 单个节点的处理结果
// 仅用于日志和报告,不参与完成判定
type NodeOutcome struct {
	Node     HierarchyNode `json:"-"`
	Status   OutcomeStatus `json:"status"`
	Err      error         `json:"-"`
	Tables   int           `json:"tables"`   // 保存的表格数
	Children int           `json:"children"` // 入队的子节点数
	Duration time.Duration `json:"duration"`
}

// Failed 是否失败
func (o NodeOutcome) Failed() bool {
	return o.Status == OutcomeFailed
}

// ToJSON 序列化为JSON
func (c *CrawlConfig) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
