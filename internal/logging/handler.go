package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// tee delivers each record to every destination that accepts its level. A failing
// destination does not keep the record from the others.
type tee []slog.Handler

func newTee(handlers ...slog.Handler) tee {
	return slices.DeleteFunc(handlers, func(h slog.Handler) bool { return h == nil })
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

// documentHandler stamps records with the key of the open document, if any.
type documentHandler struct {
	slog.Handler
	current func() string
}

func (h documentHandler) Handle(ctx context.Context, r slog.Record) error {
	if doc := h.current(); doc != "" {
		r.AddAttrs(slog.String("document", doc))
	}
	return h.Handler.Handle(ctx, r)
}

func (h documentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return documentHandler{Handler: h.Handler.WithAttrs(attrs), current: h.current}
}

func (h documentHandler) WithGroup(name string) slog.Handler {
	return documentHandler{Handler: h.Handler.WithGroup(name), current: h.current}
}
