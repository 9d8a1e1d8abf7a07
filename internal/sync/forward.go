package sync

import (
	"context"
	"log"

	"github.com/davsync/davsync/internal/caldav"
	"github.com/davsync/davsync/internal/ics"
)

// forwardResult summarizes one source sync run.
type forwardResult struct {
	// ICS is the combined calendar document.
	ICS string
	// Events is the number of VEVENT blocks extracted.
	Events int
	// Calendars is the number of collections discovered, including ones
	// whose fetch failed.
	Calendars int
}

// runForward discovers every calendar collection under the source URL,
// fetches its events, and combines them into one document. A collection
// whose REPORT fails is logged and skipped; discovery failure aborts the
// run.
func (e *Engine) runForward(ctx context.Context, client *caldav.Client, baseURL string) (*forwardResult, error) {
	calendars, err := client.FindCalendars(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	var blocks []ics.Block
	for _, path := range calendars {
		docs, err := client.FetchEvents(ctx, baseURL, path)
		if err != nil {
			log.Printf("skipping calendar %s: %v", path, err)
			continue
		}
		for _, doc := range docs {
			blocks = append(blocks, ics.ExtractBlocks(doc)...)
		}
	}

	return &forwardResult{
		ICS:       ics.Combine(blocks),
		Events:    len(blocks),
		Calendars: len(calendars),
	}, nil
}
