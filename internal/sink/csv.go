package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// CSVSink 把表格写成CSV文件
// 文件位置: <root>/<segments...>/<name>.csv
type CSVSink struct {
	root    string
	tracker *tracker
}

// NewCSVSink 创建CSV存储
func NewCSVSink(root string) (*CSVSink, error) {
	if root == "" {
		return nil, fmt.Errorf("输出目录不能为空")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	return &CSVSink{root: root, tracker: newTracker()}, nil
}

// Root 返回输出根目录
func (s *CSVSink) Root() string {
	return s.root
}

// PathFor 返回位置对应的文件路径
func (s *CSVSink) PathFor(key Key) string {
	parts := append([]string{s.root}, key.Segments...)
	parts = append(parts, key.Name+".csv")
	return filepath.Join(parts...)
}

// Save 写入CSV文件,第一行为表头
func (s *CSVSink) Save(ctx context.Context, key Key, rec models.TableRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}

	s.tracker.mark(key)

	filePath := s.PathFor(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	// 先写临时文件再改名,同一位置的并发写入只会留下某一个完整的表格
	file, err := os.CreateTemp(filepath.Dir(filePath), "."+key.Name+"-*.csv.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := file.Name()

	if err := file.Chmod(0644); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := writeRecord(file, rec); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("关闭文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("替换文件失败: %w", err)
	}
	return nil
}

// writeRecord 写入表头和数据行
func writeRecord(file *os.File, rec models.TableRecord) error {
	w := csv.NewWriter(file)
	if err := w.Write(rec.Header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	if err := w.WriteAll(rec.Rows); err != nil {
		return fmt.Errorf("写入数据行失败: %w", err)
	}
	return nil
}

// Collisions 重复写入次数
func (s *CSVSink) Collisions() int {
	return s.tracker.count()
}

// Close CSV存储没有需要释放的资源
func (s *CSVSink) Close() error {
	return nil
}
