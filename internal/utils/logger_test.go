package utils

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

func initTestLogger(t *testing.T, level string) string {
	t.Helper()
	config := DefaultLogConfig()
	config.Level = level
	config.LogDir = t.TempDir()
	config.Compress = false

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	return config.LogDir
}

// readLogLines 读取JSON格式的日志行
func readLogLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("打开日志文件失败: %v", err)
	}
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("日志行不是JSON: %s", scanner.Text())
		}
		lines = append(lines, entry)
	}
	return lines
}

func messages(lines []map[string]interface{}) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if msg, ok := l["message"].(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()
	want := LogConfig{Level: "info", LogDir: "logs", MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
	if config != want {
		t.Errorf("DefaultLogConfig() = %+v, want %+v", config, want)
	}
}

func TestInitLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"无效级别", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			dir := initTestLogger(t, tt.level)

			Infof("年度已播种: %d", 2020)
			Debugf("POST %s", "/system.bcall.page.php")
			Warn("页面没有可用的表格")

			got := strings.Join(messages(readLogLines(t, filepath.Join(dir, MainLogFile))), "\n")
			if !strings.Contains(got, "年度已播种: 2020") || !strings.Contains(got, "页面没有可用的表格") {
				t.Errorf("主日志缺少info/warn日志:\n%s", got)
			}
			if strings.Contains(got, "POST") != tt.wantDebug {
				t.Errorf("debug日志输出与级别 %s 不符:\n%s", tt.level, got)
			}
		})
	}
}

func TestErrorLogOnlyContainsErrors(t *testing.T) {
	dir := initTestLogger(t, "info")

	Infof("节点完成: %s", "2020 / Region I")
	Errorf("节点失败: %s", "2020 / Region I / Ilocos Norte")

	content, err := os.ReadFile(filepath.Join(dir, ErrorLogFile))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}

	if !strings.Contains(string(content), "节点失败") {
		t.Error("错误日志应该包含error级别的日志")
	}
	if strings.Contains(string(content), "节点完成") {
		t.Error("错误日志不应该包含info级别的日志")
	}
}

func TestRunLogger_NodeFields(t *testing.T) {
	dir := initTestLogger(t, "info")

	region, err := models.NewRootNode(2020).Child(models.Option{Value: "01", Label: "Región I"})
	if err != nil {
		t.Fatal(err)
	}

	logger := RunLogger("run-1", "ownership")
	NodeFields(logger.Error(), region).Int("tables", 2).Msg("节点失败")

	var entry map[string]interface{}
	for _, l := range readLogLines(t, filepath.Join(dir, ErrorLogFile)) {
		if l["message"] == "节点失败" {
			entry = l
		}
	}
	if entry == nil {
		t.Fatal("错误日志中没有节点日志")
	}

	want := map[string]interface{}{
		"run":        "run-1",
		"profile":    "ownership",
		"year":       float64(2020),
		"level":      "error",
		"node_level": "Region",
		"path":       "2020 / Región I",
		"tables":     float64(2),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("字段 %s = %v, want %v", k, entry[k], v)
		}
	}
}
