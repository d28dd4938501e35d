package crawlers

import (
	"context"
	"sync"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// TaskQueue 动态扩展的任务队列
// 职责:
//   - 无界FIFO,任何工作协程都可以在处理节点时追加子任务
//   - 维护待完成计数: 任务可见之前加一,任务完整展开之后(Done)减一
//   - 计数归零时关闭Idle通道,作为唯一的完成判定
//
// 计数归零时队列必然为空: 每个排队中的任务都持有一个计数
type TaskQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	tasks []models.CrawlTask

	// 待完成计数 (排队中 + 执行中 + 外部持有的令牌)
	pending int

	// 累计入队数
	pushed int

	closed bool

	idle     chan struct{}
	idleOnce sync.Once
}

// NewTaskQueue 创建任务队列
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{
		tasks: make([]models.CrawlTask, 0, 64),
		idle:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push 添加任务
// 计数在任务可见之前增加,因此不会出现"队列为空且计数为零"的瞬间误判
func (q *TaskQueue) Push(task models.CrawlTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return models.ErrQueueClosed
	}

	q.pending++
	q.pushed++
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	return nil
}

// Track 获取一个不对应任务的令牌
// 播种阶段持有该令牌,防止第一个年度的任务在其他年度入队前就把计数降为零
func (q *TaskQueue) Track() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending++
}

// Done 释放一个令牌
// 工作协程必须在该任务的全部子任务Push完成之后调用
func (q *TaskQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending <= 0 {
		panic("crawlers: TaskQueue.Done 调用次数多于 Push/Track")
	}
	q.pending--
	if q.pending == 0 {
		q.idleOnce.Do(func() { close(q.idle) })
	}
}

// Pop 取出下一个任务,队列为空时阻塞
// 队列关闭或ctx取消时返回false
func (q *TaskQueue) Pop(ctx context.Context) (models.CrawlTask, bool) {
	// ctx取消时唤醒所有等待者
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	if q.closed || ctx.Err() != nil {
		return models.CrawlTask{}, false
	}

	task := q.tasks[0]
	q.tasks[0] = models.CrawlTask{}
	q.tasks = q.tasks[1:]
	return task, true
}

// Idle 返回在待完成计数归零时关闭的通道
func (q *TaskQueue) Idle() <-chan struct{} {
	return q.idle
}

// Pending 返回当前待完成计数
func (q *TaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Len 返回排队中的任务数
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Pushed 返回累计入队数
func (q *TaskQueue) Pushed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Close 关闭队列并唤醒所有等待的工作协程
// 之后的Push返回ErrQueueClosed,Pop返回false
// 返回尚未被取出的任务(取消时由调用方记为跳过)
func (q *TaskQueue) Close() []models.CrawlTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	remaining := q.tasks
	q.tasks = nil
	q.cond.Broadcast()
	return remaining
}
