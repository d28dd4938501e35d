package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// DefaultYearsFile 默认年度参数文件路径
const DefaultYearsFile = "configs/years.yaml"

//go:embed years_template.yaml
var defaultYearsTemplate string

// yearEntry years.yaml中的一项
type yearEntry struct {
	Year              int `mapstructure:"year"`
	models.YearParams `mapstructure:",squash"`
}

// yearsFile years.yaml的结构
type yearsFile struct {
	Years []yearEntry `mapstructure:"years"`
}

// YearConfigLoader 年度参数表加载器
type YearConfigLoader struct {
	file templateFile
}

// NewYearConfigLoader 创建年度参数表加载器
func NewYearConfigLoader(configPath string) *YearConfigLoader {
	if configPath == "" {
		configPath = DefaultYearsFile
	}
	return &YearConfigLoader{
		file: templateFile{path: configPath, template: defaultYearsTemplate},
	}
}

// Path 返回配置文件路径
func (l *YearConfigLoader) Path() string {
	return l.file.path
}

// LoadConfig 加载年度参数表
// 文件被锁定时降级为内置的年度参数
func (l *YearConfigLoader) LoadConfig() (models.YearTable, error) {
	v, err := l.file.read()
	if errors.Is(err, errFileLocked) {
		return DefaultYearTable(), nil
	}
	if err != nil {
		return models.YearTable{}, err
	}

	var parsed yearsFile
	if err := v.Unmarshal(&parsed); err != nil {
		return models.YearTable{}, &models.ConfigError{
			FilePath: l.file.path,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	entries, err := buildYearEntries(parsed.Years)
	if err != nil {
		return models.YearTable{}, &models.ConfigError{FilePath: l.file.path, Cause: err}
	}
	return models.NewYearTable(entries), nil
}

// buildYearEntries 校验并转换年度参数
func buildYearEntries(list []yearEntry) (map[int]models.YearParams, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("年度参数表为空")
	}

	entries := make(map[int]models.YearParams, len(list))
	for i, e := range list {
		if e.Year < 1900 || e.Year > 9999 {
			return nil, fmt.Errorf("第%d项: 无效的年度 %d", i+1, e.Year)
		}
		if _, dup := entries[e.Year]; dup {
			return nil, fmt.Errorf("第%d项: 年度 %d 重复", i+1, e.Year)
		}
		if strings.TrimSpace(e.Sequence) == "" || strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.GenerationDate) == "" {
			return nil, fmt.Errorf("年度 %d: sequence、title、generation_date 都不能为空", e.Year)
		}
		if strings.Contains(e.Title, "^") {
			return nil, fmt.Errorf("年度 %d: title不能包含 '^'", e.Year)
		}
		entries[e.Year] = e.YearParams
	}
	return entries, nil
}

// DefaultYearTable 返回内置模板中的年度参数
func DefaultYearTable() models.YearTable {
	return models.NewYearTable(map[int]models.YearParams{
		2024: {Sequence: "02", Title: "As of December 31, 2024", GenerationDate: "2025-01-03"},
		2023: {Sequence: "02", Title: "As of December 2023", GenerationDate: "2024-01-02"},
		2022: {Sequence: "02", Title: "As of December 2022", GenerationDate: "2023-01-04"},
		2021: {Sequence: "03", Title: "As of December 2021", GenerationDate: "2022-01-03"},
		2020: {Sequence: "01", Title: "As of December 31, 2020", GenerationDate: "2020-07-22"},
		2019: {Sequence: "01", Title: "As Of December 31, 2019", GenerationDate: "2020-01-24"},
		2018: {Sequence: "01", Title: "As of December 31, 2018", GenerationDate: "2018-09-07"},
		2017: {Sequence: "03", Title: "As of December 31, 2017 - Third set of test data", GenerationDate: "2018-06-10"},
	})
}
