package csvfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead_HeaderNormalization(t *testing.T) {
	input := "\ufeffTitle, Content ,STATUS\nHello,Body,draft\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	r := rows[0]
	if r.Get("title") != "Hello" {
		t.Errorf("title = %q, want Hello (BOM stripped, lowercased)", r.Get("title"))
	}
	if r.Get("content") != "Body" {
		t.Errorf("content = %q, want Body (header trimmed)", r.Get("content"))
	}
	if r.Get("status") != "draft" {
		t.Errorf("status = %q, want draft", r.Get("status"))
	}
}

func TestRead_RowsNumberedFromOne(t *testing.T) {
	input := "title\nA\nB\nC\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if r.Number != i+1 {
			t.Errorf("row %d has number %d", i, r.Number)
		}
	}
}

func TestRead_ShortRecordPadded(t *testing.T) {
	input := "title,content,status\nOnly Title\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	r := rows[0]
	if _, ok := r.Fields["content"]; !ok {
		t.Error("short record must still carry the content column")
	}
	if r.Get("content") != "" || r.Get("status") != "" {
		t.Errorf("padded fields must be blank, got content=%q status=%q", r.Get("content"), r.Get("status"))
	}
}

func TestRead_QuotedFieldsWithCommasAndNewlines(t *testing.T) {
	input := "title,content\n\"Brunch, Revisited\",\"Line one\nLine two\"\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0].Get("title"); got != "Brunch, Revisited" {
		t.Errorf("title = %q", got)
	}
	if got := rows[0].Get("content"); got != "Line one\nLine two" {
		t.Errorf("content = %q", got)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	rows, err := Read(strings.NewReader("title,content\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.csv")
	if err := os.WriteFile(path, []byte("title\nHello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Get("title") != "Hello" {
		t.Errorf("rows = %v", rows)
	}

	if _, err := Load(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing file must fail")
	}
}
