package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/hrhcrawl/internal/config"
	"github.com/RecoveryAshes/hrhcrawl/internal/core"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile  string
	yearsFile   string
	headersFile string
	verbose     bool
	logLevel    string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 爬取参数
	profiles        []string
	yearsExpr       string
	workers         int
	outputDir       string
	htmlDir         string
	tablePolicy     string
	reportSubset    string
	sinkKind        string
	showProgress    bool
	continueOnError bool
)

// appConfig 由PersistentPreRunE加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "hrhcrawl",
	Short: "NDHRHIS卫生人力报表层级爬取工具",
	Long: `hrhcrawl - NDHRHIS卫生人力资源报表爬取工具

从每个年度的全国入口页面开始,逐级展开 大区 → 省 → 市镇,
把每个页面上的数据表格保存为CSV文件(或SQLite数据库):
  • 固定数量的并发工作协程 (默认14)
  • 单个分支失败不影响其他分支
  • 两个内置profile: ownership (sbrep=E) 与 complete (sbrep=A B C D E)
  • 自定义HTTP请求头

示例:
  # 爬取所有配置的年度和profile
  hrhcrawl

  # 只爬取2019-2020年的ownership报表
  hrhcrawl crawl -p ownership -y 2019-2020

  # 输出到SQLite
  hrhcrawl --sink sqlite -o data

  # 验证配置文件
  hrhcrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		cfg, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = cfg

		// 初始化日志系统
		logConfig := cfg.GetLogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		} else if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: runCrawl,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "执行层级爬取",
	RunE:  runCrawl,
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "显示年度参数表",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := config.NewYearConfigLoader(yearsFile).LoadConfig()
		if err != nil {
			return fmt.Errorf("加载年度参数失败: %w", err)
		}

		for _, year := range table.Years() {
			p, _ := table.Lookup(year)
			fmt.Printf("%d  seqn=%s  gdate=%s  title=%s\n", year, p.Sequence, p.GenerationDate, p.Title)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hrhcrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runCrawl 执行爬取
func runCrawl(cmd *cobra.Command, args []string) error {
	// Ctrl+C / SIGTERM 取消爬取,已入队的节点计为跳过
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	yearTable, err := config.NewYearConfigLoader(yearsFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("加载年度参数失败: %w", err)
	}

	// 创建HTTP头部管理器
	headerManager, err := core.NewHeaderManager(appConfig.GetSiteConfig(), headersFile, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	// 如果用户请求验证配置
	if validateConfig {
		return runValidate(headerManager, yearTable)
	}

	// 头部无效时直接退出,而不是在每个请求上失败
	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}

	// 验证参数
	flags := cmd.Flags()
	if err := ValidateFlags(flags.Changed("workers"), workers, tablePolicy, sinkKind); err != nil {
		return err
	}
	years, err := ParseYearsFlag(yearsExpr, yearTable)
	if err != nil {
		return err
	}

	overrides := core.CLIOverrides{
		Workers:      workers,
		OutputDir:    outputDir,
		HTMLDir:      htmlDir,
		TablePolicy:  tablePolicy,
		ReportSubset: reportSubset,
		Sink:         sinkKind,
		ShowProgress: showProgress,
		Profiles:     profiles,
	}
	if flags.Changed("continue-on-error") {
		overrides.ContinueOnError = &continueOnError
	}
	appConfig.MergeCLIFlags(overrides)

	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	runner := core.NewProfileRunner(appConfig, yearTable, headerManager)
	if _, err := runner.Run(ctx, years); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("爬取已取消")
			return nil
		}
		return err
	}

	utils.Info("✨ 爬取任务完成!")
	return nil
}

// runValidate 验证配置并显示有效值
func runValidate(headerManager *core.HeaderManager, yearTable models.YearTable) error {
	utils.Info("🔍 验证配置...")
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置验证失败: %w", err)
	}

	utils.Info("✅ 配置验证通过!")
	utils.Infof("已配置年度: %s", utils.FormatYears(yearTable.Years()))
	utils.Infof("profile: %v", appConfig.Crawl.Profiles)

	// 显示合并后的头部(脱敏)
	safeHeaders := headerManager.GetSafeHeaders()
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// addCrawlFlags 根命令与crawl子命令共用的爬取参数
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&profiles, "profile", "p", nil, "要执行的profile,可多次指定 (默认: crawl.profiles)")
	cmd.Flags().StringVarP(&yearsExpr, "years", "y", "", "年度, 如 2019,2020 或 2017-2024 (默认: 所有已配置年度)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, fmt.Sprintf("并发工作协程数 (1-%d, 默认: %d)", models.MaxWorkers, models.DefaultWorkers))
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出根目录, 每个profile写入其下同名子目录 (覆盖profile配置)")
	cmd.Flags().StringVar(&htmlDir, "html-dir", "", "年度入口页面目录 (覆盖profile配置)")
	cmd.Flags().StringVar(&tablePolicy, "policy", "", "表格策略 (all|category)")
	cmd.Flags().StringVar(&reportSubset, "subset", "", "报表子集代码 sbrep (如 E 或 \"A B C D E\")")
	cmd.Flags().StringVar(&sinkKind, "sink", "", "输出存储 (csv|sqlite)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "显示进度条")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "profile失败后继续执行下一个")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&yearsFile, "years-config", config.DefaultYearsFile, "年度参数文件路径")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-config", config.DefaultConfigFile, "HTTP头部配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	addCrawlFlags(rootCmd)
	addCrawlFlags(crawlCmd)

	// 添加子命令
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(yearsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
