// Package sync runs the two sync pipelines: CalDAV sources are flattened
// into a single ICS feed, and ICS feeds are pushed event by event into a
// CalDAV collection. Failures carry a retry classification the scheduler
// acts on.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/davsync/davsync/internal/caldav"
	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/storage"
)

// Engine executes sync runs against the database. A nil HTTPClient means
// each run builds its own CalDAV client with default transport settings.
type Engine struct {
	db         *db.DB
	httpClient *http.Client
	strategy   storage.Strategy
	sink       *storage.DiskSink
}

// NewEngine creates a sync engine. sink may be nil when the strategy never
// writes to disk.
func NewEngine(database *db.DB, strategy storage.Strategy, sink *storage.DiskSink) *Engine {
	return &Engine{
		db:       database,
		strategy: strategy,
		sink:     sink,
	}
}

// SetHTTPClient overrides the HTTP client used for all outbound requests.
func (e *Engine) SetHTTPClient(client *http.Client) {
	e.httpClient = client
}

func (e *Engine) caldavClient(username, password string) *caldav.Client {
	if e.httpClient != nil {
		return caldav.NewClientWithHTTP(e.httpClient, username, password)
	}
	return caldav.NewClient(username, password)
}

// SyncSource pulls every event from a source's CalDAV server and stores the
// combined calendar. It returns a human-readable summary for the caller.
func (e *Engine) SyncSource(ctx context.Context, id string) (string, error) {
	source, err := e.db.GetSourceByID(id)
	if errors.Is(err, db.ErrNotFound) {
		return "", Fatal(fmt.Errorf("source %s no longer exists", id))
	}
	if err != nil {
		return "", Retryable(fmt.Errorf("failed to load source: %w", err))
	}

	client := e.caldavClient(source.Username, source.Password)
	result, err := e.runForward(ctx, client, source.CalDAVURL)
	if err != nil {
		return "", Retryable(err)
	}

	// Disk-only clears the stored payload so a stale copy never shadows
	// the file after a strategy switch.
	payload := ""
	if e.strategy.KeepPayload() {
		payload = result.ICS
	}
	if err := e.db.SaveICSData(source.ID, payload); err != nil {
		return "", Retryable(err)
	}
	if e.strategy.WriteToDisk() && e.sink != nil {
		if err := e.sink.Write(source.ID, result.ICS); err != nil {
			return "", Retryable(err)
		}
	}

	if err := e.db.UpdateSourceLastSynced(source.ID); err != nil {
		log.Printf("source %s: failed to record sync time: %v", source.ID, err)
	}
	if err := e.db.UpdateSourceSyncStatus(source.ID, db.SyncStatusOK, ""); err != nil {
		log.Printf("source %s: failed to record sync status: %v", source.ID, err)
	}

	return fmt.Sprintf("synced %d events from %d calendars", result.Events, result.Calendars), nil
}

// SyncDestination downloads a destination's ICS feed and uploads each event
// into its CalDAV collection.
func (e *Engine) SyncDestination(ctx context.Context, id string) (string, error) {
	dest, err := e.db.GetDestinationByID(id)
	if errors.Is(err, db.ErrNotFound) {
		return "", Fatal(fmt.Errorf("destination %s no longer exists", id))
	}
	if err != nil {
		return "", Retryable(fmt.Errorf("failed to load destination: %w", err))
	}

	client := e.caldavClient(dest.Username, dest.Password)
	uploaded, total, err := e.runReverse(ctx, client, dest)
	if err != nil {
		return "", Retryable(err)
	}

	if err := e.db.UpdateDestinationLastSynced(dest.ID); err != nil {
		log.Printf("destination %s: failed to record sync time: %v", dest.ID, err)
	}
	if err := e.db.UpdateDestinationSyncStatus(dest.ID, db.SyncStatusOK, ""); err != nil {
		log.Printf("destination %s: failed to record sync status: %v", dest.ID, err)
	}

	return fmt.Sprintf("uploaded %d of %d events", uploaded, total), nil
}
