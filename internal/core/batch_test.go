package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/crawlers"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/sink"
)

// runnerConfig 指向测试服务器的两个profile配置
func runnerConfig(t *testing.T, baseURL, sinkKind string) (*Config, string) {
	t.Helper()
	root := t.TempDir()

	htmlDir := filepath.Join(root, "html")
	if err := os.MkdirAll(htmlDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(htmlDir, fmt.Sprintf(crawlers.EntryFilePattern, 2020)), []byte(e2eEntry), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.Site.BaseURL = baseURL
	cfg.Site.RequestDelayMs = 0
	cfg.Site.Timeout = 5
	cfg.Crawl.Workers = 3
	cfg.Crawl.Profiles = []string{"ownership"}
	cfg.Output.Sink = sinkKind
	cfg.Output.ReportsDir = filepath.Join(root, "reports")
	cfg.Profiles["ownership"] = ProfileConfig{
		HTMLDir:      htmlDir,
		OutputDir:    filepath.Join(root, "out"),
		ReportSubset: "E",
		TablePolicy:  "all",
	}
	return cfg, root
}

func TestProfileRunner_Run(t *testing.T) {
	server := reportServer(t, e2ePages())
	defer server.Close()

	cfg, root := runnerConfig(t, server.URL, sink.KindCSV)
	runner := NewProfileRunner(cfg, testYears, staticHeaders{})

	summary, err := runner.Run(context.Background(), []int{2020})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.SuccessCount != 1 || summary.FailCount != 0 || summary.TotalTables != 3 {
		t.Errorf("摘要错误: %+v", summary)
	}

	if files := countFiles(t, filepath.Join(root, "out"), ".csv"); len(files) != 3 {
		t.Errorf("期望3个CSV文件, 实际: %v", files)
	}

	data, err := os.ReadFile(filepath.Join(root, "reports", "ownership", "run_report.json"))
	if err != nil {
		t.Fatalf("运行报告未生成: %v", err)
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("解析运行报告失败: %v", err)
	}
	if report.Profile != "ownership" || report.Stats.TablesSaved != 3 {
		t.Errorf("运行报告内容错误: %+v", report)
	}
}

func TestProfileRunner_SQLite(t *testing.T) {
	server := reportServer(t, e2ePages())
	defer server.Close()

	cfg, root := runnerConfig(t, server.URL, sink.KindSQLite)
	runner := NewProfileRunner(cfg, testYears, staticHeaders{})

	if _, err := runner.Run(context.Background(), []int{2020}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	db, err := sink.OpenSQLite(filepath.Join(root, "out"), cfg.Output.SQLiteFile)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("期望3个记录集, 实际: %d", n)
	}
}

func TestProfileRunner_ContinueOnError(t *testing.T) {
	server := reportServer(t, e2ePages())
	defer server.Close()

	tests := []struct {
		name          string
		continueOnErr bool
		wantErr       bool
		wantResults   int
	}{
		{"继续执行", true, false, 2},
		{"立即中止", false, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := runnerConfig(t, server.URL, sink.KindCSV)
			cfg.Crawl.Profiles = []string{"missing", "ownership"}
			cfg.Crawl.ContinueOnError = tt.continueOnErr

			summary, err := NewProfileRunner(cfg, testYears, staticHeaders{}).Run(context.Background(), []int{2020})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(summary.Results) != tt.wantResults {
				t.Errorf("期望%d个结果, 实际: %d", tt.wantResults, len(summary.Results))
			}
			if summary.FailCount != 1 || summary.Results[0].Success {
				t.Errorf("未知profile应失败: %+v", summary)
			}
		})
	}
}
