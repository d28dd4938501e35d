package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/hrhcrawl/internal/config"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0"

	// FormContentType 表单提交的Content-Type
	FormContentType = "application/x-www-form-urlencoded"
)

// HeaderManager 管理表单请求头部的生命周期
// 实现 HeaderProvider 接口; 配置只加载和验证一次,之后多个工作协程并发读取
type HeaderManager struct {
	// defaults 站点默认头部
	defaults http.Header

	// config 从配置文件加载的头部
	config http.Header

	// cli 从命令行参数解析的头部
	cli http.Header

	validator    *utils.HeaderValidator
	redactor     *utils.HeaderRedactor
	configLoader *config.HeaderConfigLoader

	once    sync.Once
	merged  http.Header
	loadErr error
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - site: 站点参数 (用于生成Referer和Origin)
//   - configFile: 配置文件路径 (如为空则使用默认路径)
//   - cliHeaders: 命令行传递的头部字符串列表
//
// 命令行参数格式错误时返回error
func NewHeaderManager(site models.SiteConfig, configFile string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:     DefaultHeaders(site),
		config:       make(http.Header),
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
	}

	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	hm.cli = cli

	return hm, nil
}

// DefaultHeaders 返回站点默认头部
func DefaultHeaders(site models.SiteConfig) http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Referer":         []string{site.Referer()},
		"Origin":          []string{site.Origin()},
		"Content-Type":    []string{FormContentType},
		"Accept":          []string{"text/html,application/xhtml+xml,*/*;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// load 加载配置文件并验证全部头部
func (hm *HeaderManager) load() {
	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		hm.loadErr = err
		return
	}

	for name, value := range headerConfig.Headers {
		hm.config.Set(name, value)
	}

	if len(headerConfig.Headers) > 0 {
		utils.Debugf("成功加载%d个HTTP头部配置: %s", len(headerConfig.Headers), hm.redactor.RedactToString(hm.config))
	}

	if err := hm.Validate(); err != nil {
		hm.loadErr = err
		return
	}

	hm.merged = hm.GetMergedHeaders()
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		utils.Errorf("默认头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)

	for name, values := range hm.defaults {
		result[name] = values
	}
	for name, values := range hm.config {
		result[name] = values
	}
	for name, values := range hm.cli {
		result[name] = values
	}

	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	headers, err := hm.GetHeaders()
	if err != nil {
		headers = hm.GetMergedHeaders()
	}
	return hm.redactor.Redact(headers)
}

// GetHeaders 实现 HeaderProvider 接口
// 首次调用时加载并验证配置; 返回副本,调用方可以修改
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(hm.load)
	if hm.loadErr != nil {
		return nil, hm.loadErr
	}
	return hm.merged.Clone(), nil
}
