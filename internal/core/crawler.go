package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/hrhcrawl/internal/crawlers"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PageSource 按层级获取报表页面
type PageSource interface {
	Fetch(ctx context.Context, level models.Level, year int, value string) (*goquery.Document, error)
}

// EntrySource 加载年度入口页面
type EntrySource interface {
	Load(year int) (*goquery.Document, error)
}

// Materializer 保存页面上的表格
type Materializer interface {
	Materialize(ctx context.Context, doc *goquery.Document, node models.HierarchyNode) (int, error)
}

// Crawler 层级爬取协调器
// 职责:
//   - 播种: 每个年度读取入口页面,为每个大区选项入队一个任务
//   - 固定数量的工作协程从共享队列取任务: 获取 → 保存表格 → 提取下拉框 → 子任务入队
//   - 单个节点失败只终止该分支,不影响兄弟节点和其他年度
//   - 待完成计数归零时结束
type Crawler struct {
	config       models.CrawlConfig
	years        models.YearTable
	pages        PageSource
	entries      EntrySource
	materializer Materializer

	// 以下字段每次Run重置
	log      zerolog.Logger
	progress *utils.Progress
	counters runCounters
	mu       sync.Mutex
	failures []models.FailedNode
}

// runCounters 运行统计(原子计数)
type runCounters struct {
	yearsSeeded    atomic.Int64
	yearsFailed    atomic.Int64
	nodesCompleted atomic.Int64
	nodesFailed    atomic.Int64
	nodesSkipped   atomic.Int64
	tablesSaved    atomic.Int64
	emptyPages     atomic.Int64
}

// NewCrawler 创建爬取协调器
func NewCrawler(config models.CrawlConfig, years models.YearTable, pages PageSource, entries EntrySource, materializer Materializer) *Crawler {
	if config.Workers < 1 {
		config.Workers = models.DefaultWorkers
	}
	return &Crawler{
		config:       config,
		years:        years,
		pages:        pages,
		entries:      entries,
		materializer: materializer,
	}
}

// Run 爬取给定年度的完整层级
// years为空时爬取参数表中的所有年度
// 阻塞直到所有可达节点处理完毕或ctx取消; 节点失败记录在报告中,不作为错误返回
// 只有ctx取消时返回非nil错误(报告仍然返回)
func (c *Crawler) Run(ctx context.Context, years []int) (*models.RunReport, error) {
	if len(years) == 0 {
		years = c.years.Years()
	}
	years = append([]int(nil), years...)
	sort.Ints(years)

	report := models.NewRunReport(c.config, years)
	c.reset(report)

	c.log.Info().
		Ints("years", years).
		Int("workers", c.config.Workers).
		Str("policy", string(c.config.TablePolicy)).
		Msg("🚀 开始爬取")

	queue := crawlers.NewTaskQueue()

	var g errgroup.Group
	for i := 0; i < c.config.Workers; i++ {
		g.Go(func() error {
			c.worker(ctx, queue)
			return nil
		})
	}

	// 播种期间持有令牌,防止较早年度的任务全部完成时误判结束
	queue.Track()
	for _, year := range years {
		if ctx.Err() != nil {
			break
		}
		if err := c.seedYear(ctx, queue, year); err != nil {
			if ctx.Err() != nil {
				break
			}
			c.counters.yearsFailed.Add(1)
			c.log.Error().Err(err).Int("year", year).Msg("❌ 年度初始化失败")
			continue
		}
		c.counters.yearsSeeded.Add(1)
	}
	queue.Done()

	select {
	case <-queue.Idle():
	case <-ctx.Done():
	}

	// 广播关闭,取代逐个发送结束标记
	remaining := queue.Close()
	c.counters.nodesSkipped.Add(int64(len(remaining)))
	_ = g.Wait()

	c.progress.Finish()
	c.fillReport(report, queue)

	if err := ctx.Err(); err != nil {
		report.Cancelled = true
		c.log.Warn().Int("skipped", report.Stats.NodesSkipped).Msg("⚠️  爬取被取消")
		return report, err
	}

	c.log.Info().
		Int("completed", report.Stats.NodesCompleted).
		Int("failed", report.Stats.NodesFailed).
		Int("tables", report.Stats.TablesSaved).
		Float64("duration", report.Duration).
		Msg("✅ 爬取完成")

	return report, nil
}

// reset 为新的运行重置状态
func (c *Crawler) reset(report *models.RunReport) {
	c.log = utils.RunLogger(report.RunID, report.Profile)
	c.progress = utils.NewProgress(c.config.ShowProgress, report.Profile)
	c.counters = runCounters{}
	c.failures = make([]models.FailedNode, 0)
}

// seedYear 加载年度入口页面并为每个大区入队
// 根节点不保存表格
func (c *Crawler) seedYear(ctx context.Context, queue *crawlers.TaskQueue, year int) error {
	if _, err := c.years.Lookup(year); err != nil {
		return err
	}

	doc, err := c.entries.Load(year)
	if err != nil {
		return err
	}

	root := models.NewRootNode(year)
	options := crawlers.ExtractDropdown(doc)
	if len(options) == 0 {
		c.log.Warn().Int("year", year).Err(models.ErrEmptyResult).Msg("入口页面没有大区选项")
		return nil
	}

	pushed, err := c.pushChildren(ctx, queue, root, options)
	c.log.Info().Int("year", year).Int("children", pushed).Msg("🔍 年度已播种")
	return err
}

// worker 工作协程主循环
func (c *Crawler) worker(ctx context.Context, queue *crawlers.TaskQueue) {
	for {
		task, ok := queue.Pop(ctx)
		if !ok {
			return
		}

		outcome := c.process(ctx, queue, task)
		c.record(outcome)

		// 必须在全部子任务入队之后
		queue.Done()
	}
}

// process 处理单个节点,所有错误和panic都转换为结果
func (c *Crawler) process(ctx context.Context, queue *crawlers.TaskQueue, task models.CrawlTask) (outcome models.NodeOutcome) {
	node := task.Node
	start := time.Now()
	outcome = models.NodeOutcome{Node: node, Status: models.OutcomeOK}

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.OutcomeFailed
			outcome.Err = fmt.Errorf("panic: %v", r)
		}
		outcome.Duration = time.Since(start)
	}()

	if ctx.Err() != nil {
		outcome.Status = models.OutcomeSkipped
		return outcome
	}

	doc, err := c.pages.Fetch(ctx, node.Level, node.Year, node.Value)
	if err != nil {
		if ctx.Err() != nil {
			outcome.Status = models.OutcomeSkipped
			return outcome
		}
		outcome.Status = models.OutcomeFailed
		outcome.Err = err
		return outcome
	}

	tables, err := c.materializer.Materialize(ctx, doc, node)
	outcome.Tables = tables
	if err != nil && !errors.Is(err, context.Canceled) {
		utils.NodeFields(c.log.Warn(), node).Err(err).Msg("部分表格保存失败")
	}

	if node.Level.IsLeaf() {
		return outcome
	}

	children, err := c.pushChildren(ctx, queue, node, crawlers.ExtractDropdown(doc))
	outcome.Children = children
	if err != nil && ctx.Err() == nil {
		outcome.Status = models.OutcomeFailed
		outcome.Err = err
	}
	return outcome
}

// pushChildren 为每个选项入队一个子任务,返回入队数量
// 每次入队前检查ctx
func (c *Crawler) pushChildren(ctx context.Context, queue *crawlers.TaskQueue, parent models.HierarchyNode, options []models.Option) (int, error) {
	pushed := 0
	defer func() { c.progress.Grow(pushed) }()

	for _, opt := range options {
		if err := ctx.Err(); err != nil {
			return pushed, err
		}

		child, err := parent.Child(opt)
		if err != nil {
			return pushed, err
		}
		if err := queue.Push(models.NewCrawlTask(child)); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

// record 记录节点结果
func (c *Crawler) record(o models.NodeOutcome) {
	node := o.Node
	c.progress.Step()

	switch o.Status {
	case models.OutcomeOK:
		c.counters.nodesCompleted.Add(1)
		c.counters.tablesSaved.Add(int64(o.Tables))
		if o.Tables == 0 {
			c.counters.emptyPages.Add(1)
		}
		utils.NodeFields(c.log.Debug(), node).
			Int("tables", o.Tables).
			Int("children", o.Children).
			Dur("took", o.Duration).
			Msg("✅ 节点完成")

	case models.OutcomeFailed:
		c.counters.nodesFailed.Add(1)
		c.counters.tablesSaved.Add(int64(o.Tables))

		c.mu.Lock()
		c.failures = append(c.failures, models.FailedNode{
			Year:  node.Year,
			Level: node.Level.String(),
			Path:  node.PathString(),
			Error: o.Err.Error(),
		})
		c.mu.Unlock()

		utils.NodeFields(c.log.Error(), node).
			Err(o.Err).
			Msg("❌ 节点失败")

	case models.OutcomeSkipped:
		c.counters.nodesSkipped.Add(1)
	}
}

// fillReport 汇总统计到报告
func (c *Crawler) fillReport(report *models.RunReport, queue *crawlers.TaskQueue) {
	report.Stats = models.RunStats{
		YearsSeeded:    int(c.counters.yearsSeeded.Load()),
		YearsFailed:    int(c.counters.yearsFailed.Load()),
		NodesQueued:    queue.Pushed(),
		NodesCompleted: int(c.counters.nodesCompleted.Load()),
		NodesFailed:    int(c.counters.nodesFailed.Load()),
		NodesSkipped:   int(c.counters.nodesSkipped.Load()),
		TablesSaved:    int(c.counters.tablesSaved.Load()),
		EmptyPages:     int(c.counters.emptyPages.Load()),
	}

	c.mu.Lock()
	failures := append([]models.FailedNode(nil), c.failures...)
	c.mu.Unlock()

	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Year != failures[j].Year {
			return failures[i].Year < failures[j].Year
		}
		return failures[i].Path < failures[j].Path
	})
	report.Failures = failures
	report.Finish()
}
