package sink

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

func sampleRecord(name string) models.TableRecord {
	return models.TableRecord{
		Name:   name,
		Header: []string{"Facility", "Doctors", "Nurses"},
		Rows: [][]string{
			{"Adams RHU", "1", "3"},
			{"Bangui RHU", "2", ""},
		},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		want    string
		wantErr bool
	}{
		{"正常路径", Key{Segments: []string{"2020", "Region_I"}, Name: "Region_I"}, "2020/Region_I/Region_I", false},
		{"无分段", Key{Name: "x"}, "x", false},
		{"空名称", Key{Segments: []string{"2020"}}, "2020", true},
		{"上级目录", Key{Segments: []string{"2020", ".."}, Name: "x"}, "", true},
		{"包含斜杠", Key{Segments: []string{"a/b"}, Name: "x"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.key.String() != tt.want {
				t.Errorf("String() = %q, want %q", tt.key.String(), tt.want)
			}
		})
	}
}

func TestCSVSink_Save(t *testing.T) {
	root := t.TempDir()
	s, err := NewCSVSink(root)
	if err != nil {
		t.Fatalf("NewCSVSink() error = %v", err)
	}
	defer s.Close()

	key := Key{Segments: []string{"2020", "Region_I", "Ilocos_Norte"}, Name: "Ilocos_Norte"}
	if err := s.Save(context.Background(), key, sampleRecord("Ilocos_Norte")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := filepath.Join(root, "2020", "Region_I", "Ilocos_Norte", "Ilocos_Norte.csv")
	if s.PathFor(key) != path {
		t.Errorf("PathFor() = %q, want %q", s.PathFor(key), path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("期望生成CSV文件: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("读取CSV失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("期望3行(表头+2行数据), 实际: %d", len(records))
	}
	if records[0][0] != "Facility" || records[2][0] != "Bangui RHU" {
		t.Errorf("行顺序错误: %v", records)
	}
	if s.Collisions() != 0 {
		t.Errorf("首次写入不应计为冲突")
	}
}

func TestCSVSink_Collision(t *testing.T) {
	s, err := NewCSVSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVSink() error = %v", err)
	}

	key := Key{Segments: []string{"2020", "R"}, Name: "R"}
	first := sampleRecord("R")
	second := models.TableRecord{Name: "R", Header: []string{"only"}, Rows: [][]string{{"last"}}}

	if err := s.Save(context.Background(), key, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), key, second); err != nil {
		t.Fatal(err)
	}

	if s.Collisions() != 1 {
		t.Errorf("期望冲突次数1, 实际: %d", s.Collisions())
	}

	data, err := os.ReadFile(s.PathFor(key))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "only\nlast\n" {
		t.Errorf("后写入的内容应覆盖之前的内容, 实际: %q", data)
	}
}

func TestCSVSink_ConcurrentSameKey(t *testing.T) {
	s, err := NewCSVSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVSink() error = %v", err)
	}

	big := models.TableRecord{Name: "R", Header: []string{"Facility", "Doctors"}}
	for i := 0; i < 2000; i++ {
		big.Rows = append(big.Rows, []string{fmt.Sprintf("RHU %d", i), "1"})
	}
	small := models.TableRecord{Name: "R", Header: []string{"only"}, Rows: [][]string{{"last"}}}

	for round := 0; round < 50; round++ {
		key := Key{Segments: []string{"2020", fmt.Sprintf("round_%d", round)}, Name: "R"}

		var wg sync.WaitGroup
		for _, rec := range []models.TableRecord{big, small} {
			wg.Add(1)
			go func(rec models.TableRecord) {
				defer wg.Done()
				if err := s.Save(context.Background(), key, rec); err != nil {
					t.Errorf("Save() error = %v", err)
				}
			}(rec)
		}
		wg.Wait()

		f, err := os.Open(s.PathFor(key))
		if err != nil {
			t.Fatalf("读取CSV失败: %v", err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("第%d轮CSV损坏: %v", round, err)
		}

		switch {
		case len(rows) == 2 && rows[0][0] == "only" && rows[1][0] == "last":
		case len(rows) == len(big.Rows)+1 && rows[0][0] == "Facility" && rows[len(rows)-1][0] == "RHU 1999":
		default:
			t.Fatalf("第%d轮文件内容不属于任何一次写入: %d 行", round, len(rows))
		}

		entries, err := os.ReadDir(filepath.Dir(s.PathFor(key)))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("第%d轮残留临时文件: %d 个文件", round, len(entries))
		}
	}

	if s.Collisions() != 50 {
		t.Errorf("期望冲突次数50, 实际: %d", s.Collisions())
	}
}

func TestCSVSink_CancelledContext(t *testing.T) {
	s, err := NewCSVSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Save(ctx, Key{Segments: []string{"2020"}, Name: "x"}, sampleRecord("x"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("期望context.Canceled, 实际: %v", err)
	}
}

func TestSQLiteSink(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLite(dir, "")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	if filepath.Base(s.Path()) != DefaultSQLiteFile {
		t.Errorf("默认文件名错误: %s", s.Path())
	}

	ctx := context.Background()
	key := Key{Segments: []string{"2020", "Region_I"}, Name: "Region_I_TABLE_A"}
	rec := sampleRecord(key.Name)
	rec.Category = "A"

	if err := s.Save(ctx, key, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Run("读取已保存的表格", func(t *testing.T) {
		got, err := s.Load(ctx, key)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Category != "A" || len(got.Header) != 3 || len(got.Rows) != 2 {
			t.Errorf("Load() = %+v", got)
		}
		if got.Rows[1][0] != "Bangui RHU" {
			t.Errorf("行顺序错误: %v", got.Rows)
		}
	})

	t.Run("重复写入替换旧数据", func(t *testing.T) {
		replacement := models.TableRecord{Name: key.Name, Header: []string{"h"}, Rows: [][]string{{"v"}}}
		if err := s.Save(ctx, key, replacement); err != nil {
			t.Fatal(err)
		}

		got, err := s.Load(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Rows) != 1 || got.Rows[0][0] != "v" {
			t.Errorf("期望替换为新数据, 实际: %+v", got)
		}

		n, err := s.Count(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("期望1个表格, 实际: %d", n)
		}
		if s.Collisions() != 1 {
			t.Errorf("期望冲突次数1, 实际: %d", s.Collisions())
		}
	})

	t.Run("不存在的位置", func(t *testing.T) {
		_, err := s.Load(ctx, Key{Segments: []string{"1999"}, Name: "none"})
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("期望sql.ErrNoRows, 实际: %v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"默认CSV", "", false},
		{"CSV", "csv", false},
		{"SQLite", "SQLite", false},
		{"未知类型", "parquet", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(Options{Kind: tt.kind, OutputDir: t.TempDir()})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
