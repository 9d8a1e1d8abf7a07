// Package ics extracts VEVENT components from raw iCalendar text and
// reassembles them into a single VCALENDAR document. Events are treated as
// opaque line ranges; nothing beyond the component boundaries and the UID
// line is interpreted.
package ics

import "strings"

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"
	uidPrefix  = "UID:"
)

// Block is one VEVENT component as opaque text, spanning the BEGIN line
// through the END line inclusive, with every line CRLF-terminated.
// UID is empty when the component carried no UID line.
type Block struct {
	UID string
	Raw string
}

// ExtractBlocks scans text line by line with a two-state scanner (outside /
// inside a VEVENT) and returns every well-terminated VEVENT block in input
// order. A BEGIN line starts a fresh buffer that includes the line itself;
// every buffered line is written back with a CRLF terminator regardless of
// the input's original line ending. A block still open at end of input is
// dropped without error, as is an END line seen while outside a block.
func ExtractBlocks(text string) []Block {
	var (
		blocks []Block
		buf    strings.Builder
		uid    string
		inside bool
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, beginEvent) {
			inside = true
			buf.Reset()
			uid = ""
		}
		if !inside {
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\r\n")

		if strings.HasPrefix(line, uidPrefix) {
			uid = strings.TrimSpace(strings.TrimPrefix(line, uidPrefix))
		}

		if strings.HasPrefix(line, endEvent) {
			inside = false
			blocks = append(blocks, Block{UID: uid, Raw: buf.String()})
			buf.Reset()
		}
	}

	return blocks
}

// FilterWithUID returns only the blocks carrying a UID, in input order.
// Reverse sync needs the UID to name the uploaded resource, so blocks
// without one are excluded from all later counts.
func FilterWithUID(blocks []Block) []Block {
	keyed := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.UID != "" {
			keyed = append(keyed, b)
		}
	}
	return keyed
}
