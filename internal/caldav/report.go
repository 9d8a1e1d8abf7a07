package caldav

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
)

// reportBody is the calendar-query filter restricting results to VEVENT
// components inside VCALENDAR.
const reportBody = `<?xml version="1.0" encoding="utf-8" ?>
<c:calendar-query xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:getetag />
    <c:calendar-data />
  </d:prop>
  <c:filter>
    <c:comp-filter name="VCALENDAR">
      <c:comp-filter name="VEVENT" />
    </c:comp-filter>
  </c:filter>
</c:calendar-query>`

// FetchEvents issues a REPORT (calendar-query) against one calendar
// collection and returns every calendar-data payload as a raw ICS document,
// in response order. Some servers answer REPORT with unusual status codes
// while still returning a usable multistatus body, so the body is parsed
// regardless of status; only an XML parse failure propagates.
func (c *Client) FetchEvents(ctx context.Context, baseURL, calendarPath string) ([]string, error) {
	target, err := resolveCalendarURL(baseURL, calendarPath)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, "REPORT", target, reportBody, false)
	if err != nil {
		return nil, err
	}
	return parseCalendarData(body)
}

// parseCalendarData collects the text of every calendar-data element in the
// multistatus document.
func parseCalendarData(body []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedContent, err)
	}

	var docs []string
	for _, data := range elementsByTag(&doc.Element, nsCalDAV, "calendar-data") {
		if text := data.Text(); text != "" {
			docs = append(docs, text)
		}
	}
	return docs, nil
}
