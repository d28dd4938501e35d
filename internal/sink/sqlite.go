package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite驱动

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

// DefaultSQLiteFile 默认数据库文件名
const DefaultSQLiteFile = "records.db"

// SQLiteSink 把表格写入SQLite数据库
// 表结构:
//   - record_sets: 每个表格一行,(path, name) 唯一
//   - record_rows: 数据行,单元格以JSON数组保存
type SQLiteSink struct {
	db      *sql.DB
	dbPath  string
	tracker *tracker
}

// OpenSQLite 打开或创建数据库
func OpenSQLite(dir, file string) (*SQLiteSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("输出目录不能为空")
	}
	if file == "" {
		file = DefaultSQLiteFile
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	dbPath := filepath.Join(dir, file)
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// SQLite只支持单个写入者
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("启用WAL模式失败: %w", err)
	}

	s := &SQLiteSink{db: db, dbPath: dbPath, tracker: newTracker()}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("创建数据表失败: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS record_sets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		header TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(path, name)
	);

	CREATE INDEX IF NOT EXISTS idx_sets_path ON record_sets(path);

	CREATE TABLE IF NOT EXISTS record_rows (
		set_id INTEGER NOT NULL REFERENCES record_sets(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		cells TEXT NOT NULL,
		PRIMARY KEY (set_id, row_index)
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Path 返回数据库文件路径
func (s *SQLiteSink) Path() string {
	return s.dbPath
}

// Save 保存表格,同一位置已存在时替换
func (s *SQLiteSink) Save(ctx context.Context, key Key, rec models.TableRecord) error {
	if err := key.Validate(); err != nil {
		return err
	}

	header, err := json.Marshal(rec.Header)
	if err != nil {
		return fmt.Errorf("序列化表头失败: %w", err)
	}

	s.tracker.mark(key)
	dir := path.Join(key.Segments...)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 先删除旧行,INSERT OR REPLACE会生成新的id
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_rows WHERE set_id IN (SELECT id FROM record_sets WHERE path = ? AND name = ?)`,
		dir, key.Name); err != nil {
		return fmt.Errorf("删除旧数据行失败: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO record_sets (path, name, category, header, row_count) VALUES (?, ?, ?, ?, ?)`,
		dir, key.Name, rec.Category, string(header), len(rec.Rows))
	if err != nil {
		return fmt.Errorf("写入表格失败: %w", err)
	}

	setID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取表格ID失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO record_rows (set_id, row_index, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	for i, row := range rec.Rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("序列化第%d行失败: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, setID, i, string(cells)); err != nil {
			return fmt.Errorf("写入第%d行失败: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// Load 读取已保存的表格
// 位置不存在时返回sql.ErrNoRows
func (s *SQLiteSink) Load(ctx context.Context, key Key) (models.TableRecord, error) {
	dir := path.Join(key.Segments...)

	var (
		id       int64
		category sql.NullString
		header   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category, header FROM record_sets WHERE path = ? AND name = ?`,
		dir, key.Name).Scan(&id, &category, &header)
	if err != nil {
		return models.TableRecord{}, err
	}

	rec := models.TableRecord{Name: key.Name, Category: category.String}
	if err := json.Unmarshal([]byte(header), &rec.Header); err != nil {
		return models.TableRecord{}, fmt.Errorf("解析表头失败: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM record_rows WHERE set_id = ? ORDER BY row_index`, id)
	if err != nil {
		return models.TableRecord{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return models.TableRecord{}, err
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return models.TableRecord{}, fmt.Errorf("解析数据行失败: %w", err)
		}
		rec.Rows = append(rec.Rows, row)
	}
	return rec, rows.Err()
}

// Count 已保存的表格数量
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM record_sets`).Scan(&n)
	return n, err
}

// Collisions 重复写入次数
func (s *SQLiteSink) Collisions() int {
	return s.tracker.count()
}

// Close 关闭数据库连接
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
