package models

import (
	"encoding/json"
	"time"
)

// RunStats 一次爬取的统计
type RunStats struct {
	YearsSeeded    int `json:"years_seeded"`    // 成功播种的年度数
	YearsFailed    int `json:"years_failed"`    // 播种失败的年度数
	NodesQueued    int `json:"nodes_queued"`    // 入队节点数
	NodesCompleted int `json:"nodes_completed"` // 完整展开的节点数
	NodesFailed    int `json:"nodes_failed"`    // 失败节点数
	NodesSkipped   int `json:"nodes_skipped"`   // 因取消跳过的节点数
	TablesSaved    int `json:"tables_saved"`    // 保存的表格数
	EmptyPages     int `json:"empty_pages"`     // 没有表格的页面数
	Collisions     int `json:"collisions"`      // 输出路径冲突次数
}

// FailedNode 失败节点信息
type FailedNode struct {
	Year  int    `json:"year"`
	Level string `json:"level"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RunReport 单个profile的爬取报告
type RunReport struct {
	// 运行信息
	RunID   string `json:"run_id"`
	Profile string `json:"profile"`
	Years   []int  `json:"years"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats RunStats `json:"stats"`

	// 失败节点
	Failures []FailedNode `json:"failures"`

	// 是否被取消
	Cancelled bool `json:"cancelled"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// NewRunReport 创建报告
func NewRunReport(config CrawlConfig, years []int) *RunReport {
	return &RunReport{
		RunID:     generateID(),
		Profile:   config.Profile,
		Years:     append([]int(nil), years...),
		StartTime: time.Now(),
		Failures:  make([]FailedNode, 0),
		Config:    config,
	}
}

// Finish 记录结束时间
func (r *RunReport) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime).Seconds()
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
