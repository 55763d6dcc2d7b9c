// Package scanner recovers hidden payloads from the text of an already saved document.
//
// Only the secret survives a save, so recovered markers get a deterministic position
// from the Layout. Hosts that keep a placement sidecar restore the real positions.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/stegonotes/stegonotes/internal/codec"
	"github.com/stegonotes/stegonotes/internal/document"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/pkg/core"
)

// ErrPageUnreadable marks a page whose text could not be extracted.
var ErrPageUnreadable = errors.New("page unreadable")

// Layout is where recovered markers are placed: the n-th marker of a page
// goes to (X, Y + n*Spacing).
type Layout struct {
	X       float64
	Y       float64
	Spacing float64
}

// DefaultLayout stacks recovered markers in the top-left corner.
var DefaultLayout = Layout{X: 50, Y: 50, Spacing: 24}

// Position returns the default position of the ordinal-th recovered marker.
func (l Layout) Position(ordinal int) (x, y float64) {
	return l.X, l.Y + float64(ordinal)*l.Spacing
}

// PageResult is the outcome of scanning one page.
type PageResult struct {
	Page       int
	Markers    []core.Marker
	Candidates int
	Dropped    int
}

// Report summarises a whole-document scan.
type Report struct {
	Pages      int
	Unreadable []int
	Candidates int
	Dropped    int
	Recovered  map[core.PayloadType]int
	Duration   time.Duration
}

// Total returns the number of recovered markers.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Recovered {
		n += c
	}
	return n
}

// Summary converts the report to its storage form.
func (r Report) Summary() core.ScanSummary {
	return core.ScanSummary{
		Pages:      r.Pages,
		Unreadable: slices.Clone(r.Unreadable),
		Candidates: r.Candidates,
		Dropped:    r.Dropped,
		Recovered:  r.Recovered,
		DurationMs: r.Duration.Milliseconds(),
	}
}

func (r *Report) add(res PageResult) {
	r.Candidates += res.Candidates
	r.Dropped += res.Dropped
	for _, m := range res.Markers {
		r.Recovered[m.Type]++
	}
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLayout sets the default position policy.
func WithLayout(l Layout) Option {
	return func(s *Scanner) {
		s.layout = l
	}
}

// WithWorkers sets how many pages are scanned at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = max(n, 1)
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// Scanner finds, decodes and classifies symbol runs. It holds no per-document state
// and may be shared.
type Scanner struct {
	layout  Layout
	workers int
	logger  *slog.Logger
	metrics *instruments
}

// New creates a Scanner. Metrics go to the global OTel meter provider (no-op unless set).
func New(opts ...Option) (*Scanner, error) {
	ins, err := newInstruments()
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		layout:  DefaultLayout,
		workers: 1,
		logger:  slog.Default(),
		metrics: ins,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScanPage decodes every candidate run in text. Runs that do not decode are dropped
// and counted; the rest become markers whose Secret is the run itself.
func (s *Scanner) ScanPage(page int, text string) PageResult {
	ctx := context.Background()
	candidates := FindCandidates(text)
	res := PageResult{Page: page, Candidates: len(candidates)}

	for _, c := range candidates {
		decoded, err := codec.DecodeBytes(c.Run)
		if err != nil {
			res.Dropped++
			s.logger.Debug("dropping symbol run", "page", page, "offset", c.Start, "error", err)
			continue
		}

		t := Classify(decoded)
		x, y := s.layout.Position(len(res.Markers))
		res.Markers = append(res.Markers, core.Marker{Page: page, X: x, Y: y, Type: t, Secret: c.Run})
		s.metrics.recovered.Add(ctx, 1, metric.WithAttributes(attribute.String("type", t.String())))
	}

	s.metrics.found.Add(ctx, int64(res.Candidates))
	s.metrics.dropped.Add(ctx, int64(res.Dropped))
	return res
}

// RunScanAndPopulate scans one page and appends what it finds to store.
func (s *Scanner) RunScanAndPopulate(store *marker.Store, page int, text string) PageResult {
	res := s.ScanPage(page, text)
	store.AddAll(page, res.Markers)
	return res
}

// ScanDocument scans every page of src into store. A page whose text cannot be read is
// logged, listed in Report.Unreadable and skipped. Only context cancellation stops the scan.
func (s *Scanner) ScanDocument(ctx context.Context, src document.Source, store *marker.Store) (Report, error) {
	start := time.Now()
	report := Report{
		Pages:     src.NumPages(),
		Recovered: make(map[core.PayloadType]int),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for page := 1; page <= report.Pages; page++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			text, err := src.PageText(page)
			if err != nil {
				err = fmt.Errorf("%w: page %d: %w", ErrPageUnreadable, page, err)
				s.logger.Warn("skipping page", "page", page, "error", err)
				s.metrics.unreadable.Add(gctx, 1)

				mu.Lock()
				report.Unreadable = append(report.Unreadable, page)
				mu.Unlock()
				return nil
			}

			res := s.RunScanAndPopulate(store, page, text)

			mu.Lock()
			report.add(res)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	slices.Sort(report.Unreadable)
	report.Duration = time.Since(start)

	if err != nil {
		return report, fmt.Errorf("scan cancelled: %w", err)
	}

	s.logger.Info("document scanned",
		"pages", report.Pages,
		"recovered", report.Total(),
		"dropped", report.Dropped,
		"unreadable", len(report.Unreadable),
		"duration", report.Duration)
	return report, nil
}
