package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderConfig 表示headers.yaml配置文件的结构
// 这些头部会附加到每一次表单POST请求上
type HeaderConfig struct {
	// Headers 自定义HTTP头部 (键: 头部名称, 值: 头部值)
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// CliHeaders 命令行 -H 参数列表
// 每一项格式为 "Name: Value"
type CliHeaders []string

// Parse 将参数列表解析为 http.Header
// 同名头部以最后一次出现为准
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, err := parseHeaderString(s)
		if err != nil {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: %w", i+1, err)
		}
		result.Set(name, value)
	}
	return result, nil
}

// parseHeaderString 解析单个 "Name: Value"
// 只在第一个冒号处分割,值中可以包含冒号(如URL)
func parseHeaderString(s string) (name, value string, err error) {
	name, value, found := strings.Cut(s, ":")
	if !found {
		return "", "", fmt.Errorf("格式错误: 缺少冒号分隔符,应为 'Name: Value'")
	}

	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if name == "" {
		return "", "", fmt.Errorf("头部名称不能为空")
	}

	return name, value, nil
}

// HeaderProvider 请求头部提供者
// 页面获取器在每次请求前调用,返回已按优先级合并的头部(默认 < 配置 < 命令行)
type HeaderProvider interface {
	// GetHeaders 返回当前有效的请求头部
	// 配置文件不可读或头部验证失败时返回错误
	GetHeaders() (http.Header, error)
}
