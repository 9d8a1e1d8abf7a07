package caldav

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
)

// propfindBody requests the properties needed to recognize calendar
// collections in a Depth: 1 listing.
const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<d:propfind xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
     <d:resourcetype />
     <d:displayname />
     <c:supported-calendar-component-set />
  </d:prop>
</d:propfind>`

// FindCalendars discovers calendar collections under baseURL via PROPFIND.
// A failed request is retried exactly once with the URL's trailing slash
// toggled before the error propagates. The returned hrefs preserve document
// order and are not deduplicated.
func (c *Client) FindCalendars(ctx context.Context, baseURL string) ([]string, error) {
	body, err := c.do(ctx, "PROPFIND", baseURL, propfindBody, true)
	if err != nil {
		body, err = c.do(ctx, "PROPFIND", toggleTrailingSlash(baseURL), propfindBody, true)
		if err != nil {
			return nil, err
		}
	}
	return parseCalendarHrefs(body)
}

// parseCalendarHrefs walks the multistatus document and collects the href of
// every response whose propstat/prop/resourcetype carries a CalDAV calendar
// element.
func parseCalendarHrefs(body []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedContent, err)
	}

	var hrefs []string
	for _, resp := range elementsByTag(&doc.Element, nsDAV, "response") {
		href := ""
		isCalendar := false

		for _, child := range resp.ChildElements() {
			switch {
			case matches(child, nsDAV, "href"):
				href = child.Text()
			case matches(child, nsDAV, "propstat"):
				for _, prop := range childrenByTag(child, nsDAV, "prop") {
					for _, rt := range childrenByTag(prop, nsDAV, "resourcetype") {
						if len(childrenByTag(rt, nsCalDAV, "calendar")) > 0 {
							isCalendar = true
						}
					}
				}
			}
		}

		if isCalendar && href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

// matches reports whether the element has the given namespace URI and local
// name, independent of the prefix the server chose.
func matches(e *etree.Element, ns, tag string) bool {
	return e.Tag == tag && e.NamespaceURI() == ns
}

// childrenByTag returns the direct child elements matching namespace and tag.
func childrenByTag(e *etree.Element, ns, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if matches(child, ns, tag) {
			out = append(out, child)
		}
	}
	return out
}

// elementsByTag returns all descendant elements matching namespace and tag,
// in document order.
func elementsByTag(e *etree.Element, ns, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range e.ChildElements() {
		if matches(child, ns, tag) {
			out = append(out, child)
		}
		out = append(out, elementsByTag(child, ns, tag)...)
	}
	return out
}
