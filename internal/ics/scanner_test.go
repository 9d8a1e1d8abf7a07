package ics

import (
	"strings"
	"testing"
)

func TestExtractBlocks(t *testing.T) {
	t.Run("extracts multiple events", func(t *testing.T) {
		input := "BEGIN:VCALENDAR\r\n" +
			"VERSION:2.0\r\n" +
			"BEGIN:VEVENT\r\n" +
			"UID:first@example.com\r\n" +
			"SUMMARY:First\r\n" +
			"END:VEVENT\r\n" +
			"BEGIN:VEVENT\r\n" +
			"UID:second@example.com\r\n" +
			"SUMMARY:Second\r\n" +
			"END:VEVENT\r\n" +
			"END:VCALENDAR\r\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(blocks))
		}
		if blocks[0].UID != "first@example.com" {
			t.Errorf("expected first UID, got %q", blocks[0].UID)
		}
		if blocks[1].UID != "second@example.com" {
			t.Errorf("expected second UID, got %q", blocks[1].UID)
		}
	})

	t.Run("block spans begin through end inclusive", func(t *testing.T) {
		input := "BEGIN:VEVENT\nUID:a\nSUMMARY:Test\nEND:VEVENT\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		want := "BEGIN:VEVENT\r\nUID:a\r\nSUMMARY:Test\r\nEND:VEVENT\r\n"
		if blocks[0].Raw != want {
			t.Errorf("raw block mismatch:\ngot  %q\nwant %q", blocks[0].Raw, want)
		}
	})

	t.Run("normalizes LF and CRLF input identically", func(t *testing.T) {
		lf := "BEGIN:VEVENT\nUID:x\nEND:VEVENT\n"
		crlf := strings.ReplaceAll(lf, "\n", "\r\n")

		a := ExtractBlocks(lf)
		b := ExtractBlocks(crlf)
		if len(a) != 1 || len(b) != 1 {
			t.Fatalf("expected 1 block each, got %d and %d", len(a), len(b))
		}
		if a[0].Raw != b[0].Raw {
			t.Errorf("blocks differ: %q vs %q", a[0].Raw, b[0].Raw)
		}
	})

	t.Run("lines outside events are ignored", func(t *testing.T) {
		input := "X-JUNK:value\nBEGIN:VEVENT\nUID:a\nEND:VEVENT\nX-MORE:junk\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		if strings.Contains(blocks[0].Raw, "JUNK") {
			t.Errorf("block contains outside line: %q", blocks[0].Raw)
		}
	})

	t.Run("unterminated trailing event is dropped", func(t *testing.T) {
		input := "BEGIN:VEVENT\nUID:complete\nEND:VEVENT\nBEGIN:VEVENT\nUID:dangling\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		if blocks[0].UID != "complete" {
			t.Errorf("expected completed block, got UID %q", blocks[0].UID)
		}
	})

	t.Run("stray end before any begin is ignored", func(t *testing.T) {
		input := "END:VEVENT\nBEGIN:VEVENT\nUID:a\nEND:VEVENT\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
	})

	t.Run("nested begin restarts the block", func(t *testing.T) {
		input := "BEGIN:VEVENT\nUID:lost\nBEGIN:VEVENT\nUID:kept\nEND:VEVENT\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		if blocks[0].UID != "kept" {
			t.Errorf("expected restarted block UID, got %q", blocks[0].UID)
		}
		if strings.Contains(blocks[0].Raw, "lost") {
			t.Errorf("block carries stale lines: %q", blocks[0].Raw)
		}
	})

	t.Run("uid whitespace is trimmed", func(t *testing.T) {
		input := "BEGIN:VEVENT\nUID: padded@example.com \nEND:VEVENT\n"

		blocks := ExtractBlocks(input)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		if blocks[0].UID != "padded@example.com" {
			t.Errorf("expected trimmed UID, got %q", blocks[0].UID)
		}
	})

	t.Run("empty input yields no blocks", func(t *testing.T) {
		if blocks := ExtractBlocks(""); len(blocks) != 0 {
			t.Errorf("expected no blocks, got %d", len(blocks))
		}
	})
}

func TestFilterWithUID(t *testing.T) {
	input := "BEGIN:VEVENT\nUID:has-uid\nEND:VEVENT\nBEGIN:VEVENT\nSUMMARY:No UID\nEND:VEVENT\n"

	blocks := ExtractBlocks(input)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 extracted blocks, got %d", len(blocks))
	}

	filtered := FilterWithUID(blocks)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 filtered block, got %d", len(filtered))
	}
	if filtered[0].UID != "has-uid" {
		t.Errorf("expected has-uid, got %q", filtered[0].UID)
	}
}
