package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// unsafeFilenameChars 文件名中不保留的字符: 字母、数字、下划线、空白和连字符以外的所有字符
var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// SanitizeFilename 把显示名称转换为安全的文件名
// 删除标点等字符,空格替换为下划线; 结果为空时返回"unnamed"
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	if strings.TrimSpace(cleaned) == "" {
		return "unnamed"
	}
	return cleaned
}

// ParseYears 解析年度列表
// 支持逗号分隔和区间,如 "2019,2020"、"2017-2024"、"2017-2019,2022"
// 返回去重并升序排列的年度
func ParseYears(expr string) ([]int, error) {
	seen := make(map[int]struct{})

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if from, to, isRange := strings.Cut(part, "-"); isRange {
			start, err := parseYear(from)
			if err != nil {
				return nil, err
			}
			end, err := parseYear(to)
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, fmt.Errorf("年度区间无效: %s (起始年度大于结束年度)", part)
			}
			for y := start; y <= end; y++ {
				seen[y] = struct{}{}
			}
			continue
		}

		year, err := parseYear(part)
		if err != nil {
			return nil, err
		}
		seen[year] = struct{}{}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("年度列表为空")
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("无效的年度: %q", s)
	}
	if year < 1900 || year > 9999 {
		return 0, fmt.Errorf("年度超出范围: %d", year)
	}
	return year, nil
}

// FormatYears 把年度列表格式化为逗号分隔的字符串
func FormatYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}
