package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aluiziolira/go-site-scraper/models"
)

// OutputWriter defines the interface for record output.
type OutputWriter interface {
	Write(records []*models.Record) error
	Close() error
}

// NewOutputWriter returns the record writer for format: json, csv, or dual.
// Dual writes CSV next to the JSON file, swapping its extension.
func NewOutputWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case "json":
		return NewJSONWriter(filename), nil
	case "csv":
		return NewCSVWriter(filename), nil
	case "dual":
		csvFilename := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".csv"
		return NewDualWriter(csvFilename, filename), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// appendFile is an append-only file that is opened on first use.
// Every write is a single call on an O_APPEND descriptor so lines never interleave.
type appendFile struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// openLocked opens the file and reports whether it was empty. Callers hold mu.
func (af *appendFile) openLocked() (bool, error) {
	if af.file != nil {
		return false, nil
	}
	if err := ensureDir(af.path); err != nil {
		return false, WriteError{Path: af.path, Op: "create directory", Err: err}
	}
	f, err := os.OpenFile(af.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, WriteError{Path: af.path, Op: "open", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return false, WriteError{Path: af.path, Op: "stat", Err: err}
	}
	af.file = f
	return info.Size() == 0, nil
}

func (af *appendFile) writeLocked(p []byte) error {
	if _, err := af.file.Write(p); err != nil {
		return WriteError{Path: af.path, Op: "append", Err: err}
	}
	return nil
}

func (af *appendFile) closeLocked() error {
	if af.file == nil {
		return nil
	}
	err := af.file.Close()
	af.file = nil
	if err != nil {
		return WriteError{Path: af.path, Op: "close", Err: err}
	}
	return nil
}

// JSONWriter appends newline-delimited JSON records.
type JSONWriter struct {
	out appendFile
}

// NewJSONWriter creates a JSON lines writer. The file is created on the first write.
func NewJSONWriter(filename string) *JSONWriter {
	return &JSONWriter{out: appendFile{path: filename}}
}

// Write appends each record as its own line.
func (jw *JSONWriter) Write(records []*models.Record) error {
	jw.out.mu.Lock()
	defer jw.out.mu.Unlock()

	if _, err := jw.out.openLocked(); err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, rec := range records {
		buf.Reset()
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
		if err := jw.out.writeLocked(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.out.mu.Lock()
	defer jw.out.mu.Unlock()
	return jw.out.closeLocked()
}

// CSVWriter appends records to a CSV file, writing the header only into a new file.
type CSVWriter struct {
	out appendFile
}

// NewCSVWriter creates a CSV writer. The file is created on the first write.
func NewCSVWriter(filename string) *CSVWriter {
	return &CSVWriter{out: appendFile{path: filename}}
}

// Write appends records as CSV rows.
func (cw *CSVWriter) Write(records []*models.Record) error {
	cw.out.mu.Lock()
	defer cw.out.mu.Unlock()

	empty, err := cw.out.openLocked()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if empty {
		if err := writer.Write([]string{"content"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, rec := range records {
		if err := writer.Write([]string{rec.Content}); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush csv record: %w", err)
		}
		if err := cw.out.writeLocked(buf.Bytes()); err != nil {
			return err
		}
		buf.Reset()
	}
	return nil
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.out.mu.Lock()
	defer cw.out.mu.Unlock()
	return cw.out.closeLocked()
}

// LineWriter appends plain text lines, such as discovered links or stylesheet identifiers.
type LineWriter struct {
	out appendFile
}

// NewLineWriter creates a line writer. The file is created on the first write.
func NewLineWriter(filename string) *LineWriter {
	return &LineWriter{out: appendFile{path: filename}}
}

// WriteLines appends each line followed by a newline in one write.
func (lw *LineWriter) WriteLines(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	lw.out.mu.Lock()
	defer lw.out.mu.Unlock()

	if _, err := lw.out.openLocked(); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return lw.out.writeLocked(buf.Bytes())
}

// Close closes the underlying file.
func (lw *LineWriter) Close() error {
	lw.out.mu.Lock()
	defer lw.out.mu.Unlock()
	return lw.out.closeLocked()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
