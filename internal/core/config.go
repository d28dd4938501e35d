package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Site     SiteConfig               `mapstructure:"site"`
	Crawl    CrawlSection             `mapstructure:"crawl"`
	Profiles map[string]ProfileConfig `mapstructure:"profiles"`
	Output   OutputConfig             `mapstructure:"output"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// SiteConfig 站点配置
type SiteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Endpoint       string `mapstructure:"endpoint"`
	ReportPage     string `mapstructure:"report_page"`
	SelectorParam  string `mapstructure:"selector_param"`
	Timeout        int    `mapstructure:"timeout"`          // 秒
	RequestDelayMs int    `mapstructure:"request_delay_ms"` // 毫秒
}

// CrawlSection 爬取配置
type CrawlSection struct {
	Workers         int      `mapstructure:"workers"`
	Profiles        []string `mapstructure:"profiles"`
	ContinueOnError bool     `mapstructure:"continue_on_error"`
	ShowProgress    bool     `mapstructure:"show_progress"`
}

// ProfileConfig 单个爬取配置(对应一组入口页面和输出目录)
type ProfileConfig struct {
	HTMLDir      string `mapstructure:"html_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	ReportSubset string `mapstructure:"report_subset"`
	TablePolicy  string `mapstructure:"table_policy"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Sink       string `mapstructure:"sink"`
	SQLiteFile string `mapstructure:"sqlite_file"`
	ReportsDir string `mapstructure:"reports_dir"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
// 配置文件不存在时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hrhcrawl"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	site := models.DefaultSiteConfig()

	// 站点配置默认值
	v.SetDefault("site.base_url", site.BaseURL)
	v.SetDefault("site.endpoint", site.Endpoint)
	v.SetDefault("site.report_page", site.ReportPage)
	v.SetDefault("site.selector_param", site.SelectorParam)
	v.SetDefault("site.timeout", int(site.Timeout/time.Second))
	v.SetDefault("site.request_delay_ms", int(site.RequestDelay/time.Millisecond))

	// 爬取配置默认值
	v.SetDefault("crawl.workers", models.DefaultWorkers)
	v.SetDefault("crawl.profiles", []string{"ownership", "complete"})
	v.SetDefault("crawl.continue_on_error", true)
	v.SetDefault("crawl.show_progress", false)

	// 两个内置profile
	v.SetDefault("profiles.ownership.html_dir", "uploaded_html")
	v.SetDefault("profiles.ownership.output_dir", "output_csv")
	v.SetDefault("profiles.ownership.report_subset", "E")
	v.SetDefault("profiles.ownership.table_policy", string(models.PolicyAll))
	v.SetDefault("profiles.complete.html_dir", "complete_html")
	v.SetDefault("profiles.complete.output_dir", "complete_csv")
	v.SetDefault("profiles.complete.report_subset", "A B C D E")
	v.SetDefault("profiles.complete.table_policy", string(models.PolicyCategory))

	// 输出配置默认值
	v.SetDefault("output.sink", "csv")
	v.SetDefault("output.sqlite_file", "records.db")
	v.SetDefault("output.reports_dir", "reports")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// GetSiteConfig 转换为站点参数
func (c *Config) GetSiteConfig() models.SiteConfig {
	return models.SiteConfig{
		BaseURL:       c.Site.BaseURL,
		Endpoint:      c.Site.Endpoint,
		ReportPage:    c.Site.ReportPage,
		SelectorParam: c.Site.SelectorParam,
		Timeout:       time.Duration(c.Site.Timeout) * time.Second,
		RequestDelay:  time.Duration(c.Site.RequestDelayMs) * time.Millisecond,
	}
}

// GetLogConfig 转换为日志配置
func (c *Config) GetLogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// ProfileNames 返回已配置的profile名称(排序)
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetCrawlConfig 生成某个profile的爬取配置
func (c *Config) GetCrawlConfig(profile string) (models.CrawlConfig, error) {
	p, ok := c.Profiles[strings.ToLower(profile)]
	if !ok {
		return models.CrawlConfig{}, fmt.Errorf("未知的profile: %s (已配置: %s)", profile, strings.Join(c.ProfileNames(), ", "))
	}

	policy, err := models.ParseTablePolicy(p.TablePolicy)
	if err != nil {
		return models.CrawlConfig{}, fmt.Errorf("profile %s: %w", profile, err)
	}

	return models.CrawlConfig{
		Profile:      strings.ToLower(profile),
		Workers:      c.Crawl.Workers,
		HTMLDir:      p.HTMLDir,
		OutputDir:    p.OutputDir,
		ReportSubset: p.ReportSubset,
		TablePolicy:  policy,
		ShowProgress: c.Crawl.ShowProgress,
	}, nil
}

// CLIOverrides 命令行参数覆盖项
// 零值表示未指定
type CLIOverrides struct {
	Workers         int
	OutputDir       string
	HTMLDir         string
	TablePolicy     string
	ReportSubset    string
	Sink            string
	ShowProgress    bool
	ContinueOnError *bool
	Profiles        []string
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件; 目录、策略、子集覆盖所有选中的profile
// 输出目录按profile名分子目录,多个profile不会写入同一位置
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Workers > 0 {
		c.Crawl.Workers = o.Workers
	}
	if o.ShowProgress {
		c.Crawl.ShowProgress = true
	}
	if o.ContinueOnError != nil {
		c.Crawl.ContinueOnError = *o.ContinueOnError
	}
	if len(o.Profiles) > 0 {
		c.Crawl.Profiles = o.Profiles
	}
	if o.Sink != "" {
		c.Output.Sink = o.Sink
	}

	for _, name := range c.Crawl.Profiles {
		key := strings.ToLower(name)
		p, ok := c.Profiles[key]
		if !ok {
			continue
		}
		if o.OutputDir != "" {
			p.OutputDir = filepath.Join(o.OutputDir, key)
		}
		if o.HTMLDir != "" {
			p.HTMLDir = o.HTMLDir
		}
		if o.TablePolicy != "" {
			p.TablePolicy = o.TablePolicy
		}
		if o.ReportSubset != "" {
			p.ReportSubset = o.ReportSubset
		}
		c.Profiles[key] = p
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.GetSiteConfig().Validate(); err != nil {
		return err
	}
	if len(c.Crawl.Profiles) == 0 {
		return fmt.Errorf("crawl.profiles不能为空")
	}
	for _, name := range c.Crawl.Profiles {
		cfg, err := c.GetCrawlConfig(name)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}
	switch strings.ToLower(c.Output.Sink) {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("output.sink无效: %s (有效值: csv, sqlite)", c.Output.Sink)
	}
	return nil
}
