package core

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

func newTestHeaderManager(t *testing.T, cli []string) (*HeaderManager, error) {
	t.Helper()
	return NewHeaderManager(models.DefaultSiteConfig(), filepath.Join(t.TempDir(), "headers.yaml"), cli)
}

func TestHeaderManager_Defaults(t *testing.T) {
	hm, err := newTestHeaderManager(t, nil)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("GetHeaders失败: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"User-Agent", "Mozilla/5.0"},
		{"Referer", "https://ndhrhis.doh.gov.ph/RPA0001b.php"},
		{"Origin", "https://ndhrhis.doh.gov.ph"},
		{"Content-Type", "application/x-www-form-urlencoded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headers.Get(tt.name); got != tt.want {
				t.Errorf("期望%s='%s', 实际='%s'", tt.name, tt.want, got)
			}
		})
	}
}

func TestHeaderManager_Priority(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "headers.yaml")
	content := "headers:\n  User-Agent: \"ConfigBot/1.0\"\n  Accept-Language: \"en-PH\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHeaderManager(models.DefaultSiteConfig(), configPath, []string{"User-Agent: CliBot/2.0"})
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("GetHeaders失败: %v", err)
	}

	if headers.Get("User-Agent") != "CliBot/2.0" {
		t.Errorf("命令行应覆盖配置文件, 实际='%s'", headers.Get("User-Agent"))
	}
	if headers.Get("Accept-Language") != "en-PH" {
		t.Errorf("配置文件头部应生效, 实际='%s'", headers.Get("Accept-Language"))
	}
	if headers.Get("Origin") != "https://ndhrhis.doh.gov.ph" {
		t.Error("未覆盖的默认头部应保留")
	}
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	hm, err := newTestHeaderManager(t, []string{
		"Authorization: Bearer secret-token-12345",
		"X-API-Key: api-key-67890",
	})
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	safe := hm.GetSafeHeaders()

	if safe["User-Agent"] != "Mozilla/5.0" {
		t.Error("普通头部不应该被脱敏")
	}
	if safe["Authorization"] != "Bearer ***" {
		t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safe["Authorization"])
	}
	if safe["X-Api-Key"] == "api-key-67890" {
		t.Error("X-API-Key应该被脱敏")
	}
}

func TestHeaderManager_Errors(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		if _, err := newTestHeaderManager(t, []string{"InvalidFormat"}); err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		hm, err := newTestHeaderManager(t, []string{"Host: example.com"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if _, err := hm.GetHeaders(); err == nil {
			t.Error("期望返回验证错误, 但成功了")
		}
	})
}

func TestHeaderManager_ConcurrentGetHeaders(t *testing.T) {
	hm, err := newTestHeaderManager(t, []string{"X-Run: 1"})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 14; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			headers, err := hm.GetHeaders()
			if err != nil {
				t.Errorf("GetHeaders失败: %v", err)
				return
			}
			// 返回的是副本
			headers.Set("X-Run", "modified")
		}()
	}
	wg.Wait()

	headers, _ := hm.GetHeaders()
	if headers.Get("X-Run") != "1" {
		t.Errorf("修改返回值不应影响管理器, 实际='%s'", headers.Get("X-Run"))
	}
}
