package pipeline

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aluiziolira/go-site-scraper/models"
)

type mockWriter struct {
	mu       sync.Mutex
	records  []*models.Record
	closed   bool
	writeErr error
}

func (mw *mockWriter) Write(records []*models.Record) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	mw.records = append(mw.records, records...)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func TestPipelineEmitAndMetrics(t *testing.T) {
	dir := t.TempDir()
	writer := &mockWriter{}
	p := NewPipeline(Options{
		Records:       writer,
		LinksFile:     filepath.Join(dir, "Results", "ts_crawl_results.txt"),
		SelectorsFile: filepath.Join(dir, "Results", "ts_selectors.txt"),
		DownloadDir:   filepath.Join(dir, "downloads"),
	})

	if err := p.EmitRecord(models.Record{Content: "one"}); err != nil {
		t.Fatalf("emit record: %v", err)
	}
	if err := p.EmitLink("https://example.com/a"); err != nil {
		t.Fatalf("emit link: %v", err)
	}
	if err := p.EmitSelectors([]string{"body", "title"}); err != nil {
		t.Fatalf("emit selectors: %v", err)
	}
	if _, err := p.SavePage("https://example.com/a", []byte("<p>a</p>")); err != nil {
		t.Fatalf("save page: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	m := p.GetMetrics()
	if m["records"].(int64) != 1 || m["links"].(int64) != 1 || m["pages"].(int64) != 1 {
		t.Fatalf("unexpected metrics: %v", m)
	}
	if !writer.closed {
		t.Fatalf("record writer should be closed")
	}
	if got := readLines(t, filepath.Join(dir, "Results", "ts_selectors.txt")); len(got) != 2 {
		t.Fatalf("selectors file lines = %v", got)
	}
}

func TestPipelineWriteErrorCounted(t *testing.T) {
	p := NewPipeline(Options{Records: &mockWriter{writeErr: errors.New("disk full")}})

	if err := p.EmitRecord(models.Record{Content: "x"}); err == nil {
		t.Fatalf("expected write error")
	}
	errs := p.GetMetrics()["write_errors"].(map[string]int)
	if errs["records"] != 1 {
		t.Fatalf("write_errors = %v", errs)
	}
}

func TestPipelineDisabledOutputs(t *testing.T) {
	p := NewPipeline(Options{})
	if err := p.EmitLink("https://example.com/"); err != nil {
		t.Fatalf("links disabled should be a no-op: %v", err)
	}
	target, err := p.SavePage("https://example.com/", []byte("x"))
	if err != nil || target != "" {
		t.Fatalf("downloads disabled: target=%q err=%v", target, err)
	}
}

func TestPipelineClosed(t *testing.T) {
	p := NewPipeline(Options{Records: &mockWriter{}})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.EmitRecord(models.Record{Content: "late"}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("got %v, want ErrPipelineClosed", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
