// Package crawlers 提供层级报表的页面获取与解析
//
// # 概述
//
// 报表站点以表单POST的方式逐层展开: 全国入口页面(本地文件) → 大区 → 省 → 市镇。
// 每个页面包含一个 name=ddparams 的下拉框(下一层级的选项)和若干数据表格。
//
// # 核心组件
//
// ## TaskQueue
//
// 动态扩展的任务队列,内置待完成计数。任务在可见之前计数加一,
// 处理完成(包括全部子任务入队)之后调用Done减一,计数归零时Idle通道关闭。
//
//	q := NewTaskQueue()
//	q.Track()                      // 播种阶段持有令牌
//	_ = q.Push(models.NewCrawlTask(node))
//	q.Done()                       // 释放播种令牌
//
//	task, ok := q.Pop(ctx)         // 工作协程
//	...
//	q.Done()
//
//	<-q.Idle()
//	q.Close()
//
// ## PageFetcher
//
// 基于Colly的页面获取器,每次调用创建独立的collector:
//
//	fetcher := NewPageFetcher(site, "E", years, headerManager)
//	doc, err := fetcher.Fetch(ctx, models.LevelProvince, 2020, "0128")
//
// 请求地址的prm参数由年度参数表(序号、标题、生成日期)拼接而成。
// 非2xx响应和连接失败返回TransportError,年度不存在返回ConfigurationError。
//
// ## FileEntryLoader
//
// 加载 "<html_dir>/Distribution-Nationwide <年度>.html",按BOM和meta识别字符集。
//
// ## ExtractDropdown
//
// 提取下拉框选项,丢弃空值、空标签和 "null" 占位项。
//
// ## TableMaterializer
//
// 按表格策略提取表格并写入sink.Sink:
//   - all: 页面上所有至少有两行的表格,同名表格追加 _2、_3
//   - category: 仅 table.RepT 且id为 treport<大写字母> 的表格,名称为 <名称>_TABLE_<字母>
package crawlers
