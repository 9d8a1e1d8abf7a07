package ics

import "strings"

// calendarPreamble and calendarFooter form the fixed VCALENDAR envelope of
// the combined forward-sync output. They are emitted byte for byte even when
// no events were extracted.
const (
	calendarPreamble = "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//CalDAV to ICS//EN\r\n" +
		"CALSCALE:GREGORIAN\r\n" +
		"METHOD:PUBLISH\r\n"
	calendarFooter = "END:VCALENDAR\r\n"
)

// Combine concatenates the given blocks, in order, inside the fixed
// VCALENDAR envelope. Identical input always yields byte-identical output.
func Combine(blocks []Block) string {
	var b strings.Builder
	b.WriteString(calendarPreamble)
	for _, blk := range blocks {
		b.WriteString(blk.Raw)
	}
	b.WriteString(calendarFooter)
	return b.String()
}
