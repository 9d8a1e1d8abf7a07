package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/davsync/davsync/internal/caldav"
	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/ics"
)

// eventPreamble and eventFooter wrap a single VEVENT block for upload.
// CalDAV servers require each stored object to be a complete VCALENDAR.
// The footer's leading CRLF leaves a blank line between the block and
// END:VCALENDAR; consumers expect these exact bytes.
const (
	eventPreamble = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//CalDAV/ICS Sync//EN\r\n"
	eventFooter   = "\r\nEND:VCALENDAR\r\n"
)

// runReverse downloads the destination's ICS feed and uploads each event
// with a UID into the CalDAV collection, one PUT per event keyed by UID so
// reruns overwrite rather than duplicate. Individual upload failures are
// logged and counted but do not stop the run; the run fails afterwards if
// any upload failed.
func (e *Engine) runReverse(ctx context.Context, client *caldav.Client, dest *db.Destination) (int, int, error) {
	feed, err := e.fetchFeed(ctx, dest.ICSURL)
	if err != nil {
		return 0, 0, err
	}

	blocks := ics.FilterWithUID(ics.ExtractBlocks(feed))
	collection := caldav.CollectionURL(dest.CalDAVURL, dest.CalendarName)

	uploaded := 0
	failed := 0
	for _, block := range blocks {
		body := eventPreamble + block.Raw + eventFooter
		if err := client.PutEvent(ctx, collection+block.UID+".ics", body); err != nil {
			log.Printf("failed to upload event %s: %v", block.UID, err)
			failed++
			continue
		}
		uploaded++
	}

	if failed > 0 {
		return uploaded, len(blocks), fmt.Errorf("uploaded %d events but %d failed", uploaded, failed)
	}
	return uploaded, len(blocks), nil
}

// fetchFeed downloads the ICS feed with a plain unauthenticated GET; the
// destination credentials belong to the CalDAV server, not the feed.
func (e *Engine) fetchFeed(ctx context.Context, feedURL string) (string, error) {
	httpClient := e.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create feed request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed %s returned %d", feedURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read feed body: %w", err)
	}
	return string(data), nil
}
