package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/hrhcrawl/internal/crawlers"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/sink"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

// ProfileRunner 依次执行多个profile的爬取
type ProfileRunner struct {
	config        *Config
	years         models.YearTable
	headers       models.HeaderProvider
	reporter      *utils.Reporter
	continueOnErr bool
}

// ProfileResult 单个profile的执行结果
type ProfileResult struct {
	Profile  string
	Success  bool
	Error    error
	Report   *models.RunReport
	Duration float64
}

// RunSummary 所有profile的执行摘要
type RunSummary struct {
	TotalProfiles int
	SuccessCount  int
	FailCount     int
	TotalTables   int
	FailedNodes   int
	TotalDuration float64
	Results       []ProfileResult
}

// NewProfileRunner 创建profile执行器
func NewProfileRunner(config *Config, years models.YearTable, headers models.HeaderProvider) *ProfileRunner {
	return &ProfileRunner{
		config:        config,
		years:         years,
		headers:       headers,
		reporter:      utils.NewReporter(config.Output.ReportsDir),
		continueOnErr: config.Crawl.ContinueOnError,
	}
}

// Run 依次执行crawl.profiles中的每个profile
// profile无法启动(配置、存储、取消)时视为失败; 节点失败只记录在报告中
// continue_on_error为false时,第一个失败的profile会中止执行并返回错误
func (pr *ProfileRunner) Run(ctx context.Context, years []int) (*RunSummary, error) {
	profiles := pr.config.Crawl.Profiles
	utils.Infof("🚀 开始执行: %d个profile", len(profiles))

	summary := &RunSummary{
		TotalProfiles: len(profiles),
		Results:       make([]ProfileResult, 0, len(profiles)),
	}
	startTime := time.Now()

	var runErr error
	for i, profile := range profiles {
		utils.Infof("\n==================== [%d/%d] %s ====================", i+1, len(profiles), profile)

		result := pr.runProfile(ctx, profile, years)
		summary.Results = append(summary.Results, result)

		if result.Report != nil {
			summary.TotalTables += result.Report.Stats.TablesSaved
			summary.FailedNodes += result.Report.Stats.NodesFailed
		}

		if result.Success {
			summary.SuccessCount++
			continue
		}

		summary.FailCount++
		utils.Errorf("❌ profile %s 失败: %v", profile, result.Error)

		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		if !pr.continueOnErr {
			utils.Warn("执行中止 (--continue-on-error=false)")
			runErr = fmt.Errorf("profile %s: %w", profile, result.Error)
			break
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	pr.printSummary(summary)

	return summary, runErr
}

// runProfile 执行单个profile
func (pr *ProfileRunner) runProfile(ctx context.Context, profile string, years []int) ProfileResult {
	result := ProfileResult{Profile: profile}
	startTime := time.Now()
	defer func() {
		result.Duration = time.Since(startTime).Seconds()
	}()

	crawlConfig, err := pr.config.GetCrawlConfig(profile)
	if err != nil {
		result.Error = err
		return result
	}
	if err := crawlConfig.Validate(); err != nil {
		result.Error = err
		return result
	}

	out, err := sink.Open(sink.Options{
		Kind:       pr.config.Output.Sink,
		OutputDir:  crawlConfig.OutputDir,
		SQLiteFile: pr.config.Output.SQLiteFile,
	})
	if err != nil {
		result.Error = fmt.Errorf("打开输出存储失败: %w", err)
		return result
	}
	defer func() {
		if err := out.Close(); err != nil {
			utils.Warnf("关闭输出存储失败: %v", err)
		}
	}()

	site := pr.config.GetSiteConfig()
	crawler := NewCrawler(
		crawlConfig,
		pr.years,
		crawlers.NewPageFetcher(site, crawlConfig.ReportSubset, pr.years, pr.headers),
		crawlers.NewFileEntryLoader(crawlConfig.HTMLDir),
		crawlers.NewTableMaterializer(out, crawlConfig.TablePolicy),
	)

	report, err := crawler.Run(ctx, years)
	result.Report = report
	if report != nil {
		report.Stats.Collisions = out.Collisions()
		if rerr := pr.reporter.GenerateReport(report); rerr != nil {
			utils.Warnf("保存运行报告失败: %v", rerr)
		}
		utils.PrintSummary(report)
	}
	if err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}

// printSummary 打印执行摘要
func (pr *ProfileRunner) printSummary(summary *RunSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 爬取摘要")
	utils.Info("==================================================")
	utils.Infof("profile数: %d", summary.TotalProfiles)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 保存表格: %d", summary.TotalTables)
	utils.Infof("⚠️  失败节点: %d", summary.FailedNodes)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("\n失败的profile:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.Profile, result.Error)
			}
		}
	}
}
