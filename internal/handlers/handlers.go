// Package handlers binds session operations to dispatcher commands.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stegonotes/stegonotes/internal/dispatcher"
	"github.com/stegonotes/stegonotes/internal/document"
	"github.com/stegonotes/stegonotes/internal/document/pdfdoc"
	"github.com/stegonotes/stegonotes/internal/document/textdoc"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/internal/session"
	"github.com/stegonotes/stegonotes/pkg/core"
)

// ErrNotEditable is returned by :SAVE: for documents that can only be read.
var ErrNotEditable = errors.New("document cannot be saved")

// Opener opens a document for reading.
type Opener func(path string) (document.Source, error)

// OpenDocument opens .pdf files read-only and everything else as paged text.
func OpenDocument(path string) (document.Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc, err := pdfdoc.Open(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	doc, err := textdoc.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session *session.Session
	Open    Opener
	Logger  *slog.Logger
}

// Service provides handler methods for the session commands.
type Service struct {
	deps Dependencies
	log  *slog.Logger

	mu     sync.Mutex
	path   string
	closer io.Closer
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Open == nil {
		deps.Open = OpenDocument
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{deps: deps, log: log}
}

// RegisterHandlers registers every session command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":LOAD:", s.handleLoad, dispatcher.Logged())
	d.Register(":STATUS:", s.handleStatus)
	d.Register(":PLACE:", s.handlePlace, dispatcher.Logged())
	d.Register(":REVEAL:", s.handleReveal, dispatcher.Logged())
	d.Register(":MOVE:", s.handleMove)
	d.Register(":REMOVEALL:", s.handleRemoveAll, dispatcher.Logged())
	d.Register(":PLACEMENTS:", s.handlePlacements)
	d.Register(":SAVE:", s.handleSave, dispatcher.Logged())
	d.Register(":ENCODE:", s.handleEncode)
	d.Register(":DECODE:", s.handleDecode)
}

// Close releases the loaded document.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// LoadArgs are the arguments of :LOAD:.
type LoadArgs struct {
	Path string `json:"path"`
}

// LoadResult reports what a load recovered.
type LoadResult struct {
	Document   string         `json:"document"`
	Pages      int            `json:"pages"`
	Unreadable []int          `json:"unreadable,omitempty"`
	Candidates int            `json:"candidates"`
	Dropped    int            `json:"dropped"`
	Recovered  map[string]int `json:"recovered"`
	DurationMs int64          `json:"durationMs"`
}

func newLoadResult(docKey string, sum core.ScanSummary) LoadResult {
	recovered := make(map[string]int, len(sum.Recovered))
	for t, n := range sum.Recovered {
		recovered[t.String()] = n
	}
	return LoadResult{
		Document:   docKey,
		Pages:      sum.Pages,
		Unreadable: sum.Unreadable,
		Candidates: sum.Candidates,
		Dropped:    sum.Dropped,
		Recovered:  recovered,
		DurationMs: sum.DurationMs,
	}
}

func (s *Service) handleLoad(ctx context.Context, e dispatcher.Event) (any, error) {
	var args LoadArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, errors.New("path is required")
	}

	src, err := s.deps.Open(args.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening document: %w", err)
	}

	report, err := s.deps.Session.Load(ctx, args.Path, src)
	if err != nil {
		if c, ok := src.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}

	s.mu.Lock()
	prev := s.closer
	s.path = args.Path
	s.closer, _ = src.(io.Closer)
	s.mu.Unlock()
	if prev != nil {
		if err := prev.Close(); err != nil {
			s.log.Warn("could not close previous document", "error", err)
		}
	}

	return newLoadResult(args.Path, report.Summary()), nil
}

// StatusResult describes the loaded document.
type StatusResult struct {
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	Markers  int    `json:"markers"`
}

func (s *Service) handleStatus(_ context.Context, _ dispatcher.Event) (any, error) {
	store := s.deps.Session.Store()
	return StatusResult{
		Document: s.deps.Session.Document(),
		Pages:    store.Pages(),
		Markers:  store.Len(),
	}, nil
}

// PlaceArgs are the arguments of :PLACE:. File, when set, is read instead of Value.
type PlaceArgs struct {
	Page  int              `json:"page"`
	X     float64          `json:"x"`
	Y     float64          `json:"y"`
	Type  core.PayloadType `json:"type"`
	Value string           `json:"value"`
	File  string           `json:"file,omitempty"`
}

// MarkerView is a marker as reported to the host, without its secret.
type MarkerView struct {
	Page   int              `json:"page"`
	Index  int              `json:"index"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Type   core.PayloadType `json:"type"`
	Digest string           `json:"digest"`
	Length int              `json:"length"`
}

func newMarkerView(index int, m core.Marker) MarkerView {
	return MarkerView{
		Page:   m.Page,
		Index:  index,
		X:      m.X,
		Y:      m.Y,
		Type:   m.Type,
		Digest: m.Digest(),
		Length: len(m.Secret),
	}
}

func (s *Service) handlePlace(_ context.Context, e dispatcher.Event) (any, error) {
	var args PlaceArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}

	raw := args.Value
	if args.File != "" {
		data, err := os.ReadFile(args.File)
		if err != nil {
			return nil, fmt.Errorf("error reading payload file: %w", err)
		}
		if raw, err = marker.RawFromFile(args.Type, data); err != nil {
			return nil, err
		}
	}

	m, err := s.deps.Session.Place(args.Page, args.X, args.Y, args.Type, raw)
	if err != nil {
		return nil, err
	}
	index := len(s.deps.Session.Placements(args.Page)) - 1
	return newMarkerView(index, m), nil
}

// MarkerRef addresses one marker.
type MarkerRef struct {
	Page  int `json:"page"`
	Index int `json:"index"`
}

func (s *Service) handleReveal(_ context.Context, e dispatcher.Event) (any, error) {
	var args MarkerRef
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	content, err := s.deps.Session.Reveal(args.Page, args.Index)
	if err != nil {
		if errors.Is(err, marker.ErrUndecodable) {
			s.log.Warn("marker could not be revealed", "page", args.Page, "index", args.Index, "error", err)
			return nil, marker.ErrUndecodable
		}
		return nil, err
	}
	return content, nil
}

// MoveArgs are the arguments of :MOVE:.
type MoveArgs struct {
	Page  int     `json:"page"`
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (s *Service) handleMove(_ context.Context, e dispatcher.Event) (any, error) {
	var args MoveArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	if err := s.deps.Session.Move(args.Page, args.Index, args.X, args.Y); err != nil {
		return nil, err
	}
	m, err := s.deps.Session.Store().At(args.Page, args.Index)
	if err != nil {
		return nil, err
	}
	return newMarkerView(args.Index, m), nil
}

// PageArgs select one page.
type PageArgs struct {
	Page int `json:"page"`
}

func (s *Service) handleRemoveAll(_ context.Context, e dispatcher.Event) (any, error) {
	var args PageArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	removed := len(s.deps.Session.Placements(args.Page))
	s.deps.Session.RemoveAll(args.Page)
	return map[string]int{"removed": removed}, nil
}

func (s *Service) handlePlacements(_ context.Context, e dispatcher.Event) (any, error) {
	var args PageArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	markers := s.deps.Session.Placements(args.Page)
	views := make([]MarkerView, len(markers))
	for i, m := range markers {
		views[i] = newMarkerView(i, m)
	}
	return views, nil
}

// SaveArgs are the arguments of :SAVE:. An empty Path overwrites the loaded file.
type SaveArgs struct {
	Path string `json:"path"`
}

// SaveResult reports where the document went.
type SaveResult struct {
	Path    string `json:"path"`
	Markers int    `json:"markers"`
}

func (s *Service) handleSave(ctx context.Context, e dispatcher.Event) (any, error) {
	var args SaveArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}

	src := s.deps.Session.Source()
	if src == nil {
		return nil, session.ErrNoDocument
	}
	doc, ok := src.(*textdoc.Doc)
	if !ok {
		return nil, ErrNotEditable
	}

	path := args.Path
	if path == "" {
		s.mu.Lock()
		path = s.path
		s.mu.Unlock()
	}

	out := doc.Clean()
	drawn, err := s.deps.Session.Persist(ctx, out)
	if err != nil {
		return nil, err
	}
	if err := out.Save(path); err != nil {
		return nil, fmt.Errorf("error writing document: %w", err)
	}
	return SaveResult{Path: path, Markers: drawn}, nil
}

// CodecArgs are the arguments of :ENCODE: and :DECODE:.
type CodecArgs struct {
	Type  core.PayloadType `json:"type"`
	Value string           `json:"value"`
}

func (s *Service) handleEncode(_ context.Context, e dispatcher.Event) (any, error) {
	var args CodecArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	return s.deps.Session.Store().Encode(args.Type, args.Value)
}

func (s *Service) handleDecode(_ context.Context, e dispatcher.Event) (any, error) {
	var args CodecArgs
	if err := e.Bind(&args); err != nil {
		return nil, err
	}
	content, err := s.deps.Session.Store().Reveal(core.Marker{Type: args.Type, Secret: args.Value})
	if err != nil {
		return nil, marker.ErrUndecodable
	}
	return content.Value, nil
}
