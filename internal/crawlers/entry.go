package crawlers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// EntryFilePattern 年度入口页面的文件名格式
const EntryFilePattern = "Distribution-Nationwide %d.html"

// FileEntryLoader 从本地目录加载预先保存的全国入口页面
// 根节点不发起网络请求,入口页面由用户事先下载
type FileEntryLoader struct {
	dir string
}

// NewFileEntryLoader 创建入口页面加载器
func NewFileEntryLoader(dir string) *FileEntryLoader {
	return &FileEntryLoader{dir: dir}
}

// Path 返回某年度入口页面的路径
func (l *FileEntryLoader) Path(year int) string {
	return filepath.Join(l.dir, fmt.Sprintf(EntryFilePattern, year))
}

// Load 加载并解析某年度的入口页面
// 字符集按BOM和meta声明识别,没有声明时按UTF-8检测
func (l *FileEntryLoader) Load(year int) (*goquery.Document, error) {
	path := l.Path(year)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取入口页面失败 [%s]: %w", path, err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &models.ParseError{Context: "入口页面", Err: fmt.Errorf("文件为空: %s", path)}
	}

	return parseDocument(content, "text/html", "入口页面")
}
