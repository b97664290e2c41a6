// Package pipeline is the persistence side of a run: scraped records, discovered links,
// stylesheet identifiers, and downloaded pages all leave the process through it.
package pipeline

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-site-scraper/models"
)

// Options selects the outputs of one run. Empty paths disable the matching output.
type Options struct {
	Records       OutputWriter
	LinksFile     string
	SelectorsFile string
	DownloadDir   string
}

// Pipeline appends a run's results to their files as they are produced.
// All methods are safe for concurrent use.
type Pipeline struct {
	records   OutputWriter
	links     *LineWriter
	selectors *LineWriter
	pages     *PageStore

	metrics metrics

	mu     sync.Mutex // guards closed
	closed bool

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline for one run.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		records:  opts.Records,
		metrics:  newMetrics(),
		shutdown: make(chan struct{}),
	}
	if opts.LinksFile != "" {
		p.links = NewLineWriter(opts.LinksFile)
	}
	if opts.SelectorsFile != "" {
		p.selectors = NewLineWriter(opts.SelectorsFile)
	}
	if opts.DownloadDir != "" {
		p.pages = NewPageStore(opts.DownloadDir)
	}
	return p
}

// EmitRecord appends one scraped record.
func (p *Pipeline) EmitRecord(rec models.Record) error {
	if p.isClosed() {
		return ErrPipelineClosed
	}
	if p.records == nil {
		return nil
	}
	if err := p.records.Write([]*models.Record{&rec}); err != nil {
		p.metrics.addWriteError("records")
		return err
	}
	p.metrics.incrementRecords()
	return nil
}

// EmitLink appends one discovered link.
func (p *Pipeline) EmitLink(link string) error {
	if p.isClosed() {
		return ErrPipelineClosed
	}
	if p.links == nil {
		return nil
	}
	if err := p.links.WriteLines(link); err != nil {
		p.metrics.addWriteError("links")
		return err
	}
	p.metrics.incrementLinks()
	return nil
}

// EmitSelectors appends a selector listing.
func (p *Pipeline) EmitSelectors(selectors []string) error {
	if p.isClosed() {
		return ErrPipelineClosed
	}
	if p.selectors == nil {
		return nil
	}
	if err := p.selectors.WriteLines(selectors...); err != nil {
		p.metrics.addWriteError("selectors")
		return err
	}
	return nil
}

// SavePage stores a full page body when downloads are enabled.
// It returns the written path, or "" when downloads are off.
func (p *Pipeline) SavePage(rawURL string, body []byte) (string, error) {
	if p.isClosed() {
		return "", ErrPipelineClosed
	}
	if p.pages == nil {
		return "", nil
	}
	target, err := p.pages.Save(rawURL, body)
	if err != nil {
		p.metrics.addWriteError("pages")
		return "", err
	}
	p.metrics.incrementPages()
	return target, nil
}

// Close flushes and closes every output and prevents more writes.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})

	var errs []error
	if p.records != nil {
		errs = append(errs, p.records.Close())
	}
	if p.links != nil {
		errs = append(errs, p.links.Close())
	}
	if p.selectors != nil {
		errs = append(errs, p.selectors.Close())
	}
	return errors.Join(errs...)
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs until Close.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Int64("records", m["records"].(int64)),
					slog.Int64("links", m["links"].(int64)),
					slog.Int64("pages", m["pages"].(int64)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type metrics struct {
	mu          sync.Mutex
	records     int64
	links       int64
	pages       int64
	writeErrors map[string]int
}

func newMetrics() metrics {
	return metrics{
		writeErrors: make(map[string]int),
	}
}

func (m *metrics) incrementRecords() {
	m.mu.Lock()
	m.records++
	m.mu.Unlock()
}

func (m *metrics) incrementLinks() {
	m.mu.Lock()
	m.links++
	m.mu.Unlock()
}

func (m *metrics) incrementPages() {
	m.mu.Lock()
	m.pages++
	m.mu.Unlock()
}

func (m *metrics) addWriteError(output string) {
	m.mu.Lock()
	m.writeErrors[output]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyErrors := make(map[string]int, len(m.writeErrors))
	for k, v := range m.writeErrors {
		copyErrors[k] = v
	}

	return map[string]interface{}{
		"records":      m.records,
		"links":        m.links,
		"pages":        m.pages,
		"write_errors": copyErrors,
	}
}
