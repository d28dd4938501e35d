package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{reportsDir: reportsDir}
}

// Dir 返回某个profile的报告目录
func (r *Reporter) Dir(profile string) string {
	return filepath.Join(r.reportsDir, SanitizeFilename(profile))
}

// GenerateReport 生成爬取报告
// 输出: <reports_dir>/<profile>/run_report.json 与 failed_nodes.json
func (r *Reporter) GenerateReport(report *models.RunReport) error {
	dir := r.Dir(report.Profile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 保存主报告
	if err := r.saveJSONReport(dir, "run_report.json", report); err != nil {
		return err
	}

	// 保存失败节点列表
	if err := r.saveJSONReport(dir, "failed_nodes.json", report.Failures); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", dir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// PrintSummary 输出运行摘要
func PrintSummary(report *models.RunReport) {
	s := report.Stats
	Infof("📊 [%s] 年度: %s (成功 %d, 失败 %d)", report.Profile, FormatYears(report.Years), s.YearsSeeded, s.YearsFailed)
	Infof("📊 [%s] 节点: 入队 %d, 完成 %d, 失败 %d, 跳过 %d", report.Profile, s.NodesQueued, s.NodesCompleted, s.NodesFailed, s.NodesSkipped)
	Infof("📊 [%s] 表格: 保存 %d, 空页面 %d, 位置冲突 %d", report.Profile, s.TablesSaved, s.EmptyPages, s.Collisions)
	Infof("📊 [%s] 耗时: %.2f秒", report.Profile, report.Duration)

	for _, f := range report.Failures {
		Warnf("❌ [%s] %s %s: %s", report.Profile, f.Level, f.Path, f.Error)
	}
}

// NewProgressBar 创建进度条
// max为-1时显示为未知总量
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Progress 总量随子节点发现而增长的进度条
// nil值可以安全调用,所有方法为空操作
type Progress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	max int
}

// NewProgress 创建进度显示
// enabled为false时返回nil
func NewProgress(enabled bool, description string) *Progress {
	if !enabled {
		return nil
	}
	return &Progress{bar: NewProgressBar(0, description)}
}

// Grow 增加总量
func (p *Progress) Grow(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.max += n
	p.bar.ChangeMax(p.max)
}

// Step 完成一个节点
func (p *Progress) Step() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Add(1)
}

// Finish 结束进度显示
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
