package models

import "sort"

// YearParams 单个年度的报表版本参数
type YearParams struct {
	Sequence       string `mapstructure:"sequence" yaml:"sequence" json:"sequence"`                      // 报表序号 (seqn)
	Title          string `mapstructure:"title" yaml:"title" json:"title"`                               // 报表标题 (title)
	GenerationDate string `mapstructure:"generation_date" yaml:"generation_date" json:"generation_date"` // 生成日期 (gdate)
}

// YearTable 不可变的年度参数表
// 在构造时复制输入,之后只读,可在多个协程间共享
type YearTable struct {
	entries map[int]YearParams
}

// NewYearTable 创建年度参数表
func NewYearTable(entries map[int]YearParams) YearTable {
	copied := make(map[int]YearParams, len(entries))
	for year, params := range entries {
		copied[year] = params
	}
	return YearTable{entries: copied}
}

// Lookup 查询年度参数
// 年度不存在时返回ConfigurationError
func (t YearTable) Lookup(year int) (YearParams, error) {
	params, ok := t.entries[year]
	if !ok {
		return YearParams{}, &ConfigurationError{Year: year, Reason: "年度参数表中没有该年度"}
	}
	return params, nil
}

// Has 是否包含某年度
func (t YearTable) Has(year int) bool {
	_, ok := t.entries[year]
	return ok
}

// Years 按升序返回所有年度
func (t YearTable) Years() []int {
	years := make([]int, 0, len(t.entries))
	for year := range t.entries {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Len 年度数量
func (t YearTable) Len() int {
	return len(t.entries)
}
