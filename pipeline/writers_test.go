package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aluiziolira/go-site-scraper/models"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return lines
}

func TestJSONWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "output.json")
	writer := NewJSONWriter(path)

	records := []*models.Record{
		{Content: "Hello"},
		{Content: `quotes " and <tags> & "unicode" é`},
		{Content: ""},
	}
	if err := writer.Write(records); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != len(records) {
		t.Fatalf("json lines=%d, want %d", len(lines), len(records))
	}
	for i, line := range lines {
		var decoded models.Record
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		if decoded.Content != records[i].Content {
			t.Fatalf("line %d content=%q, want %q", i, decoded.Content, records[i].Content)
		}
	}
	if lines[0] != `{"content":"Hello"}` {
		t.Fatalf("unexpected encoding: %s", lines[0])
	}
}

func TestJSONWriterAppendsAcrossWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")

	for i := 0; i < 2; i++ {
		writer := NewJSONWriter(path)
		if err := writer.Write([]*models.Record{{Content: fmt.Sprintf("run-%d", i)}}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("lines=%d, want 2 (existing content must not be truncated)", len(lines))
	}
}

func TestJSONWriterNoFileWithoutWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")
	if err := NewJSONWriter(path).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not exist, stat err=%v", err)
	}
}

func TestJSONWriterConcurrentLinesIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")
	writer := NewJSONWriter(path)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				content := fmt.Sprintf("%d-%d-%s", g, i, strings.Repeat("x", 200))
				if err := writer.Write([]*models.Record{{Content: content}}); err != nil {
					t.Errorf("write: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 400 {
		t.Fatalf("lines=%d, want 400", len(lines))
	}
	for _, line := range lines {
		var decoded models.Record
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("interleaved or partial line %q: %v", line, err)
		}
	}
}

func TestCSVWriterHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")

	for i := 0; i < 2; i++ {
		writer := NewCSVWriter(path)
		if err := writer.Write([]*models.Record{{Content: "a, b"}, {Content: "c"}}); err != nil {
			t.Fatalf("write csv: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("close csv: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("records=%d, want 5", len(records))
	}
	if records[0][0] != "content" || records[1][0] != "a, b" {
		t.Fatalf("unexpected rows: %v", records)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "output.json")

	writer, err := NewOutputWriter("dual", jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.Record{{Content: "Test"}}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(filepath.Join(dir, "output.csv")); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestNewOutputWriterUnknownFormat(t *testing.T) {
	if _, err := NewOutputWriter("xml", "out.xml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLineWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Results", "20240101120000_selectors.txt")
	writer := NewLineWriter(path)

	if err := writer.WriteLines("body", "title"); err != nil {
		t.Fatalf("write lines: %v", err)
	}
	if err := writer.WriteLines(); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	if err := writer.WriteLines("footer"); err != nil {
		t.Fatalf("write line: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, path)
	if strings.Join(lines, ",") != "body,title,footer" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestWriteErrorOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	writer := NewLineWriter(filepath.Join(blocker, "links.txt"))
	err := writer.WriteLines("https://example.com/")
	var werr WriteError
	if err == nil || !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
}

func TestPageFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/", want: "https___example.com__file.html"},
		{url: "https://example.com/docs/guide.pdf", want: "https___example.com_docs_guide.pdf_file.pdf"},
		{url: "http://example.com:8080/a", want: "http___example.com_8080_a_file.html"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := PageFileName(tt.url); got != tt.want {
				t.Fatalf("PageFileName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestPageStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	store := NewPageStore(dir)

	target, err := store.Save("https://example.com/index.html", []byte("<html></html>"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(target) != "https___example.com_index.html_file.html" {
		t.Fatalf("target = %s", target)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "<html></html>" {
		t.Fatalf("read back: %q, %v", data, err)
	}
}
