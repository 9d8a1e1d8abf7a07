package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CollectionURL derives the event collection URL for uploads. When the base
// URL, trailing slash removed, already ends with the calendar name the base
// itself is the collection; otherwise the name is appended as one more path
// segment. Either way the result carries a trailing slash so event hrefs
// can be joined directly.
func CollectionURL(baseURL, calendarName string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(base, calendarName) {
		return base + "/"
	}
	return base + "/" + calendarName + "/"
}

// PutEvent uploads one calendar object to the given URL, replacing any
// existing object there. Any 2xx status counts as success.
func (c *Client) PutEvent(ctx context.Context, eventURL, icsBody string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, eventURL, strings.NewReader(icsBody))
	if err != nil {
		return fmt.Errorf("%w: failed to create PUT request: %w", ErrConnectionFailed, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: PUT %s: %w", ErrConnectionFailed, eventURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: PUT %s returned %d", ErrInvalidResponse, eventURL, resp.StatusCode)
	}
	return nil
}
