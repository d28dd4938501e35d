package crawlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/sink"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

// categoryTablePattern 分类表格的id格式: treport + 大写字母
var categoryTablePattern = regexp.MustCompile(`^treport([A-Z])`)

// ExtractTables 按策略从页面提取表格
// label为节点显示名称,用于生成表格输出名称
func ExtractTables(doc *goquery.Document, policy models.TablePolicy, label string) []models.TableRecord {
	records := make([]models.TableRecord, 0)
	if doc == nil {
		return records
	}

	base := utils.SanitizeFilename(label)
	used := make(map[string]int)

	var selection *goquery.Selection
	if policy == models.PolicyCategory {
		selection = doc.Find("table.RepT")
	} else {
		selection = doc.Find("table")
	}

	selection.Each(func(i int, table *goquery.Selection) {
		name := base
		category := ""

		if policy == models.PolicyCategory {
			id, _ := table.Attr("id")
			match := categoryTablePattern.FindStringSubmatch(id)
			if match == nil {
				return
			}
			category = match[1]
			name = base + "_TABLE_" + category
		}

		rows := tableRows(table)
		if len(rows) < 2 {
			return
		}

		header := rows[0]
		data := rows[1:]
		if !padRows(header, data) {
			utils.Warnf("表格 #%d [%s] 存在比表头更宽的行,已跳过", i+1, label)
			return
		}

		// 同一页面内的同名表格追加序号
		used[name]++
		if n := used[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}

		records = append(records, models.TableRecord{
			Name:     name,
			Category: category,
			Header:   header,
			Rows:     data,
		})
	})

	return records
}

// tableRows 提取表格的所有行
// 只保留至少包含一个td/th的行,单元格文本去除首尾空白
func tableRows(table *goquery.Selection) [][]string {
	rows := make([][]string, 0)
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, row)
	})
	return rows
}

// padRows 将短于表头的行补齐为表头宽度
// 存在比表头更宽的行时返回false
func padRows(header []string, rows [][]string) bool {
	width := len(header)
	for i, row := range rows {
		if len(row) > width {
			return false
		}
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return true
}

// TableMaterializer 表格落地器
// 把页面上的表格写入Sink,目标位置由节点路径决定
type TableMaterializer struct {
	sink   sink.Sink
	policy models.TablePolicy
}

// NewTableMaterializer 创建表格落地器
func NewTableMaterializer(s sink.Sink, policy models.TablePolicy) *TableMaterializer {
	return &TableMaterializer{sink: s, policy: policy}
}

// Policy 返回表格策略
func (m *TableMaterializer) Policy() models.TablePolicy {
	return m.policy
}

// Materialize 提取并保存页面上的表格,返回成功保存的数量
// 页面没有可用表格时只记录警告,返回0和nil
// 单个表格保存失败不影响其他表格,所有失败合并后返回
func (m *TableMaterializer) Materialize(ctx context.Context, doc *goquery.Document, node models.HierarchyNode) (int, error) {
	records := ExtractTables(doc, m.policy, node.Label)
	if len(records) == 0 {
		utils.NodeFields(utils.Logger.Warn(), node).Msg("页面没有可用的表格")
		return 0, nil
	}

	segments := SegmentsFor(node)

	saved := 0
	var errs []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		key := sink.Key{Segments: segments, Name: rec.Name}
		if err := m.sink.Save(ctx, key, rec); err != nil {
			errs = append(errs, fmt.Errorf("保存表格 %s 失败: %w", key, err))
			continue
		}
		saved++
		utils.Debugf("已保存表格: %s (%d 行)", key, rec.RowCount())
	}

	return saved, errors.Join(errs...)
}

// SegmentsFor 节点路径对应的输出目录分段
func SegmentsFor(node models.HierarchyNode) []string {
	path := node.Path()
	segments := make([]string, len(path))
	for i, label := range path {
		segments[i] = utils.SanitizeFilename(label)
	}
	return segments
}
