package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SiteConfig 报表站点参数
type SiteConfig struct {
	BaseURL       string        `json:"base_url"`       // 站点根地址
	Endpoint      string        `json:"endpoint"`       // 报表调用入口
	ReportPage    string        `json:"report_page"`    // 报表页面 (xcrs参数, 同时用于Referer)
	SelectorParam string        `json:"selector_param"` // 下拉框表单字段名
	Timeout       time.Duration `json:"timeout"`        // 单次请求超时
	RequestDelay  time.Duration `json:"request_delay"`  // 请求前后的固定间隔
}

// DefaultSiteConfig 返回NDHRHIS站点的默认参数
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		BaseURL:       "https://ndhrhis.doh.gov.ph",
		Endpoint:      "/system.bcall.page.php",
		ReportPage:    "RPA0001b.php",
		SelectorParam: "ddparams",
		Timeout:       60 * time.Second,
		RequestDelay:  10 * time.Millisecond,
	}
}

// Validate 验证站点参数
func (s SiteConfig) Validate() error {
	if err := ValidateBaseURL(s.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if !strings.HasPrefix(s.Endpoint, "/") {
		return fmt.Errorf("site.endpoint必须以/开头: %q", s.Endpoint)
	}
	if strings.TrimSpace(s.ReportPage) == "" {
		return fmt.Errorf("site.report_page不能为空")
	}
	if strings.TrimSpace(s.SelectorParam) == "" {
		return fmt.Errorf("site.selector_param不能为空")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("site.timeout必须大于0")
	}
	if s.RequestDelay < 0 {
		return fmt.Errorf("site.request_delay_ms不能为负数")
	}
	return nil
}

// Origin 返回站点Origin (协议+主机)
func (s SiteConfig) Origin() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// Referer 返回报表页面地址
func (s SiteConfig) Referer() string {
	return s.Origin() + "/" + strings.TrimLeft(s.ReportPage, "/")
}

// ValidateBaseURL 验证站点根地址
func ValidateBaseURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}
