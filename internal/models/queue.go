package models

import "time"

// CrawlTask 队列中的一个任务
// 用途:
//   - 包装恰好一个HierarchyNode
//   - 每个任务最多入队一次、最多执行一次
//   - 层级是树而不是图,每个子节点只会被一个父节点发现,因此无需去重
type CrawlTask struct {
	// Node 要处理的节点
	Node HierarchyNode

	// EnqueuedAt 入队时间(用于统计排队耗时)
	EnqueuedAt time.Time
}

// NewCrawlTask 创建任务
func NewCrawlTask(node HierarchyNode) CrawlTask {
	return CrawlTask{
		Node:       node,
		EnqueuedAt: time.Now(),
	}
}
