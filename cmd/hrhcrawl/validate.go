package main

import (
	"fmt"
	"strings"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

// ValidateFlags 验证命令行标志
// 空值表示沿用配置文件
func ValidateFlags(workersSet bool, workers int, policy string, sinkKind string) error {
	// 验证并发数
	if workersSet && (workers < 1 || workers > models.MaxWorkers) {
		return fmt.Errorf("并发数必须在1-%d之间,当前值: %d", models.MaxWorkers, workers)
	}

	// 验证表格策略
	if policy != "" {
		if _, err := models.ParseTablePolicy(policy); err != nil {
			return err
		}
	}

	// 验证存储类型
	validSinks := map[string]bool{
		"csv":    true,
		"sqlite": true,
	}
	if sinkKind != "" && !validSinks[strings.ToLower(sinkKind)] {
		return fmt.Errorf("无效的存储类型: %s (有效值: csv, sqlite)", sinkKind)
	}

	return nil
}

// ParseYearsFlag 解析 --years 参数
// 为空时返回nil(爬取所有已配置年度); 未配置的年度只警告,由爬取器跳过
func ParseYearsFlag(expr string, table models.YearTable) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	years, err := utils.ParseYears(expr)
	if err != nil {
		return nil, fmt.Errorf("无效的年度参数: %w", err)
	}

	for _, year := range years {
		if !table.Has(year) {
			utils.Warnf("年度 %d 没有配置参数,将被跳过", year)
		}
	}
	return years, nil
}
