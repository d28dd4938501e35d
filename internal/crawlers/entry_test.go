package crawlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/hrhcrawl/internal/models"
)

func TestFileEntryLoader_Load(t *testing.T) {
	dir := t.TempDir()
	loader := NewFileEntryLoader(dir)

	if got := filepath.Base(loader.Path(2020)); got != "Distribution-Nationwide 2020.html" {
		t.Errorf("Path() = %q", got)
	}

	nationwide := `<html><body><select name="ddparams">
		<option value="null">--</option>
		<option value="01">Region I</option>
		<option value="13">NCR</option>
	</select></body></html>`
	if err := os.WriteFile(loader.Path(2020), []byte(nationwide), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("正常加载", func(t *testing.T) {
		doc, err := loader.Load(2020)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if opts := ExtractDropdown(doc); len(opts) != 2 {
			t.Errorf("期望2个大区, 实际: %d", len(opts))
		}
	})

	t.Run("Latin-1页面", func(t *testing.T) {
		// "Las Piñas" 以ISO-8859-1编码
		latin := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body><select name=\"ddparams\"><option value=\"1\">Las Pi\xf1as</option></select></body></html>")
		if err := os.WriteFile(loader.Path(2019), latin, 0644); err != nil {
			t.Fatal(err)
		}

		doc, err := loader.Load(2019)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		opts := ExtractDropdown(doc)
		if len(opts) != 1 || opts[0].Label != "Las Piñas" {
			t.Errorf("字符集解码错误: %+v", opts)
		}
	})

	t.Run("文件不存在", func(t *testing.T) {
		if _, err := loader.Load(2017); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("期望os.ErrNotExist, 实际: %v", err)
		}
	})

	t.Run("空文件", func(t *testing.T) {
		if err := os.WriteFile(loader.Path(2018), []byte("  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := loader.Load(2018)
		var parseErr *models.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("期望ParseError, 实际: %v", err)
		}
	})
}
