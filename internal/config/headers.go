package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
	"github.com/RecoveryAshes/hrhcrawl/internal/utils"
)

// DefaultConfigFile 默认头部配置文件路径
const DefaultConfigFile = "configs/headers.yaml"

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// HeaderConfigLoader 头部配置文件加载器
// 负责加载、验证和解析附加到表单请求上的HTTP头部
type HeaderConfigLoader struct {
	file templateFile
}

// NewHeaderConfigLoader 创建配置文件加载器
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{
		file: templateFile{path: configPath, template: defaultHeaderTemplate},
	}
}

// Path 返回配置文件路径
func (hcl *HeaderConfigLoader) Path() string {
	return hcl.file.path
}

// EnsureConfigExists 确保配置文件存在,如不存在则自动生成模板
func (hcl *HeaderConfigLoader) EnsureConfigExists() error {
	return hcl.file.ensureExists()
}

// LoadConfig 加载配置文件并解析为HeaderConfig
// 执行流程:
//  1. 确保配置文件存在 (不存在则自动创建)
//  2. 验证文件大小是否在限制内
//  3. 使用Viper解析YAML
//  4. 绑定到HeaderConfig结构体
//
// 文件被锁定时降级为空配置,只使用默认头部
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	v, err := hcl.file.read()
	if errors.Is(err, errFileLocked) {
		utils.Warnf("配置文件被锁定 [%s], 使用默认配置", hcl.file.path)
		return &models.HeaderConfig{Headers: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, err
	}

	var config models.HeaderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.file.path,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}

	// 配置文件存在但headers为空
	if config.Headers == nil {
		config.Headers = make(map[string]string)
	}

	return &config, nil
}
