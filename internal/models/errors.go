package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult 页面没有可用的表格或下拉选项
	// 属于警告级别: 合法的叶子状态,不作为节点失败
	ErrEmptyResult = errors.New("页面没有可提取的数据")

	// ErrQueueClosed 队列已关闭,不再接受新任务
	ErrQueueClosed = errors.New("任务队列已关闭")
)

// TransportError 请求失败(连接失败或非成功状态码)
type TransportError struct {
	URL        string
	StatusCode int // 0表示没有收到响应
	Err        error
}

// Error 实现error接口
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("请求失败 [%s]: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("请求失败 [%s]: %v", e.URL, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError 页面结构不符合预期
type ParseError struct {
	Context string // 出错位置(如 "region页面")
	Err     error
}

// Error 实现error接口
func (e *ParseError) Error() string {
	return fmt.Sprintf("页面解析失败 [%s]: %v", e.Context, e.Err)
}

// Unwrap 支持errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigurationError 年度参数缺失或无效
// 只影响该年度的种子任务
type ConfigurationError struct {
	Year   int
	Reason string
}

// Error 实现error接口
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("年度配置错误 [%d]: %s", e.Year, e.Reason)
}

// ValidationError 头部验证错误
// 表示头部验证失败的详细信息
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
// 表示headers.yaml/years.yaml等配置文件解析失败
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
