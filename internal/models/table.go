package models

// TableRecord 从页面提取出的一个表格
// 第一行作为表头,其余为数据行; 至少包含一行数据
type TableRecord struct {
	Name     string     // 输出名称(已做文件名安全处理)
	Category string     // 分类字母(仅category策略)
	Header   []string   // 表头
	Rows     [][]string // 数据行,保持页面顺序
}

// RowCount 数据行数
func (t TableRecord) RowCount() int {
	return len(t.Rows)
}

// Width 列数(以表头为准)
func (t TableRecord) Width() int {
	return len(t.Header)
}
