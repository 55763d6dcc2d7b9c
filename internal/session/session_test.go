package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stegonotes/stegonotes/internal/document/textdoc"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/internal/scanner"
	"github.com/stegonotes/stegonotes/internal/storage/memory"
	"github.com/stegonotes/stegonotes/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportSpy struct {
	docs      []string
	summaries []core.ScanSummary
	err       error
}

func (r *reportSpy) WriteScanReport(_ context.Context, docKey string, s core.ScanSummary) error {
	r.docs = append(r.docs, docKey)
	r.summaries = append(r.summaries, s)
	return r.err
}

func newSession(t *testing.T, backend *memory.Backend, reporter Reporter) *Session {
	t.Helper()
	sc, err := scanner.New()
	require.NoError(t, err)

	deps := Dependencies{Store: marker.NewStore(), Scanner: sc}
	if backend != nil {
		deps.Backend = backend
	}
	if reporter != nil {
		deps.Reporter = reporter
	}
	return New(deps)
}

func TestPlace_RequiresDocument(t *testing.T) {
	s := newSession(t, nil, nil)
	_, err := s.Place(1, 0, 0, core.Text, "x")
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = s.Persist(context.Background(), textdoc.Parse(""))
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestPersistAndReload_RestoresPositions(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	doc := textdoc.Parse("first page text\fsecond page text")

	s := newSession(t, backend, nil)
	_, err := s.Load(ctx, "notes.txt", doc)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", s.Document())

	_, err = s.Place(1, 5, 0, core.Text, "secret note")
	require.NoError(t, err)
	_, err = s.Place(2, 3, 0, core.Image, "data:image/png;base64,AA==")
	require.NoError(t, err)

	saved := doc.Clean()
	drawn, err := s.Persist(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 2, drawn)

	reloaded := newSession(t, backend, nil)
	report, err := reloaded.Load(ctx, "notes.txt", saved)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total())

	page1 := reloaded.Placements(1)
	require.Len(t, page1, 1)
	assert.Equal(t, 5.0, page1[0].X)
	assert.Equal(t, 0.0, page1[0].Y)

	content, err := reloaded.Reveal(1, 0)
	require.NoError(t, err)
	assert.Equal(t, core.Content{Type: core.Text, Value: "secret note"}, content)

	content, err = reloaded.Reveal(2, 0)
	require.NoError(t, err)
	assert.Equal(t, core.Image, content.Type)
}

func TestReload_WithoutBackendUsesDefaultLayout(t *testing.T) {
	ctx := context.Background()
	doc := textdoc.Parse("only page")

	s := newSession(t, nil, nil)
	_, err := s.Load(ctx, "doc", doc)
	require.NoError(t, err)
	_, err = s.Place(1, 2, 0, core.Text, "a")
	require.NoError(t, err)
	_, err = s.Place(1, 4, 0, core.Text, "b")
	require.NoError(t, err)

	saved := doc.Clean()
	_, err = s.Persist(ctx, saved)
	require.NoError(t, err)

	reloaded := newSession(t, nil, nil)
	_, err = reloaded.Load(ctx, "doc", saved)
	require.NoError(t, err)

	markers := reloaded.Placements(1)
	require.Len(t, markers, 2)
	assert.Equal(t, 50.0, markers[0].X)
	assert.Equal(t, 50.0, markers[0].Y)
	assert.Equal(t, 74.0, markers[1].Y)
}

func TestMove_IsPersisted(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	doc := textdoc.Parse("some words here")

	s := newSession(t, backend, nil)
	_, err := s.Load(ctx, "doc", doc)
	require.NoError(t, err)
	_, err = s.Place(1, 1, 0, core.Text, "moving")
	require.NoError(t, err)
	require.NoError(t, s.Move(1, 0, 9, 0))

	saved := doc.Clean()
	_, err = s.Persist(ctx, saved)
	require.NoError(t, err)

	recorded, err := backend.LoadPlacements("doc", 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, 9.0, recorded[0].X)

	assert.Error(t, s.Move(1, 5, 0, 0))
}

func TestRemoveAll_ClearsRecordedPlacements(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	doc := textdoc.Parse("p1\fp2")

	s := newSession(t, backend, nil)
	_, err := s.Load(ctx, "doc", doc)
	require.NoError(t, err)
	_, err = s.Place(1, 0, 0, core.Text, "one")
	require.NoError(t, err)
	_, err = s.Place(2, 0, 0, core.Text, "two")
	require.NoError(t, err)
	_, err = s.Persist(ctx, doc.Clean())
	require.NoError(t, err)

	s.RemoveAll(1)
	saved := doc.Clean()
	drawn, err := s.Persist(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 1, drawn)

	page1, _ := backend.LoadPlacements("doc", 1)
	assert.Empty(t, page1)
	page2, _ := backend.LoadPlacements("doc", 2)
	assert.Len(t, page2, 1)

	reloaded := newSession(t, backend, nil)
	_, err = reloaded.Load(ctx, "doc", saved)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Placements(1))
	assert.Len(t, reloaded.Placements(2), 1)
}

func TestLoad_ReportsAndRecordsScan(t *testing.T) {
	backend := memory.New()
	spy := &reportSpy{err: errors.New("influx down")}
	s := newSession(t, backend, spy)

	_, err := s.Load(context.Background(), "doc", textdoc.Parse("a\fb\fc"))
	require.NoError(t, err, "reporter failures are not fatal")

	require.Len(t, spy.summaries, 1)
	assert.Equal(t, "doc", spy.docs[0])
	assert.Equal(t, 3, spy.summaries[0].Pages)
	assert.Len(t, backend.Scans("doc"), 1)
}

func TestLoad_ResetsPreviousDocument(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, nil, nil)

	_, err := s.Load(ctx, "first", textdoc.Parse("x"))
	require.NoError(t, err)
	_, err = s.Place(1, 0, 0, core.Text, "left over")
	require.NoError(t, err)

	_, err = s.Load(ctx, "second", textdoc.Parse("y"))
	require.NoError(t, err)
	assert.Zero(t, s.Store().Len())
	assert.Equal(t, "second", s.Document())
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSession(t, nil, nil)
	_, err := s.Load(ctx, "doc", textdoc.Parse("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Document())
	assert.Nil(t, s.Source())
}

func TestReveal_Errors(t *testing.T) {
	s := newSession(t, nil, nil)
	_, err := s.Reveal(1, 0)
	assert.ErrorIs(t, err, marker.ErrNotFound)
}
