package crawlers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// DefaultSelectorName 报表页面中层级下拉框的name属性
const DefaultSelectorName = "ddparams"

// ExtractDropdown 提取层级下拉框的选项
func ExtractDropdown(doc *goquery.Document) []models.Option {
	return ExtractSelectOptions(doc, DefaultSelectorName)
}

// ExtractSelectOptions 提取指定name的select中的选项,保持页面顺序
// 过滤规则:
//   - value和label都做首尾空白裁剪
//   - 丢弃空value、空label
//   - 丢弃value为"null"(不区分大小写)的占位项
//
// 页面中没有该select时返回空切片
func ExtractSelectOptions(doc *goquery.Document, name string) []models.Option {
	options := make([]models.Option, 0)
	if doc == nil {
		return options
	}

	sel := doc.Find("select").FilterFunction(func(_ int, s *goquery.Selection) bool {
		n, _ := s.Attr("name")
		return n == name
	}).First()
	if sel.Length() == 0 {
		return options
	}

	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		value = strings.TrimSpace(value)
		label := strings.TrimSpace(opt.Text())

		if value == "" || label == "" || strings.EqualFold(value, "null") {
			return
		}
		options = append(options, models.Option{Value: value, Label: label})
	})

	return options
}
