package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

func TestReporter_GenerateReport(t *testing.T) {
	dir := t.TempDir()
	reporter := NewReporter(dir)

	report := models.NewRunReport(models.CrawlConfig{Profile: "ownership", Workers: 14}, []int{2020})
	report.Stats.NodesFailed = 1
	report.Failures = append(report.Failures, models.FailedNode{
		Year:  2020,
		Level: "Province",
		Path:  "2020 / Region I / Ilocos Norte",
		Error: "HTTP 500",
	})
	report.Finish()

	if err := reporter.GenerateReport(report); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ownership", "failed_nodes.json"))
	if err != nil {
		t.Fatalf("期望生成failed_nodes.json: %v", err)
	}

	var failures []models.FailedNode
	if err := json.Unmarshal(data, &failures); err != nil {
		t.Fatalf("解析失败节点列表失败: %v", err)
	}
	if len(failures) != 1 || failures[0].Level != "Province" {
		t.Errorf("失败节点列表内容错误: %+v", failures)
	}

	if _, err := os.Stat(filepath.Join(dir, "ownership", "run_report.json")); err != nil {
		t.Errorf("期望生成run_report.json: %v", err)
	}
}

func TestProgress_NilSafe(t *testing.T) {
	var p *Progress
	p.Grow(3)
	p.Step()
	p.Finish()

	if NewProgress(false, "x") != nil {
		t.Error("禁用时应该返回nil")
	}
}
