package scanner

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	found      metric.Int64Counter
	dropped    metric.Int64Counter
	recovered  metric.Int64Counter
	unreadable metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	m := otel.Meter("github.com/stegonotes/stegonotes/internal/scanner")
	ins := &instruments{}

	var err error
	ins.found, err = m.Int64Counter(
		"scanner.candidates.found",
		metric.WithDescription("Symbol runs found in page text"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating found counter: %w", err)
	}

	ins.dropped, err = m.Int64Counter(
		"scanner.candidates.dropped",
		metric.WithDescription("Symbol runs that did not decode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	ins.recovered, err = m.Int64Counter(
		"scanner.markers.recovered",
		metric.WithDescription("Markers recovered, by payload type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recovered counter: %w", err)
	}

	ins.unreadable, err = m.Int64Counter(
		"scanner.pages.unreadable",
		metric.WithDescription("Pages whose text could not be extracted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unreadable counter: %w", err)
	}

	return ins, nil
}
