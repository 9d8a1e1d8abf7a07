// Package storage controls where generated ICS payloads live. The database
// is always the source of record for configuration; the calendar payload
// itself can be kept in the database, mirrored to disk, or written to disk
// only.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Strategy selects where generated calendar payloads are persisted.
type Strategy string

const (
	// StrategyMemoryOnly keeps payloads in the database only.
	StrategyMemoryOnly Strategy = "memory-only"
	// StrategyDiskOnly writes payloads to disk and keeps nothing in the
	// database.
	StrategyDiskOnly Strategy = "disk-only"
	// StrategyMemoryAndDisk keeps payloads in the database and mirrors
	// them to disk.
	StrategyMemoryAndDisk Strategy = "memory-and-disk"
)

var ErrUnknownStrategy = errors.New("unknown storage strategy")

// ParseStrategy validates a strategy string. An empty value defaults to
// memory-only.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyMemoryOnly, nil
	case StrategyMemoryOnly, StrategyDiskOnly, StrategyMemoryAndDisk:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// KeepPayload reports whether the generated payload should be stored in the
// database.
func (s Strategy) KeepPayload() bool {
	return s != StrategyDiskOnly
}

// WriteToDisk reports whether the generated payload should be written to the
// disk sink.
func (s Strategy) WriteToDisk() bool {
	return s != StrategyMemoryOnly
}

// DiskSink writes generated calendars to a directory, one file per source.
type DiskSink struct {
	dir string
}

// NewDiskSink creates the directory if needed and returns a sink rooted at
// it.
func NewDiskSink(dir string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskSink{dir: dir}, nil
}

// Path returns the on-disk location of a source's calendar file.
func (s *DiskSink) Path(sourceID string) string {
	return filepath.Join(s.dir, sourceID+".ics")
}

// Write stores the calendar for a source, replacing any previous file.
func (s *DiskSink) Write(sourceID, data string) error {
	if err := os.WriteFile(s.Path(sourceID), []byte(data), 0640); err != nil {
		return fmt.Errorf("failed to write calendar file: %w", err)
	}
	return nil
}

// Remove deletes a source's calendar file. Missing files are not an error.
func (s *DiskSink) Remove(sourceID string) error {
	err := os.Remove(s.Path(sourceID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove calendar file: %w", err)
	}
	return nil
}

// Read returns the calendar previously written for a source.
func (s *DiskSink) Read(sourceID string) (string, error) {
	data, err := os.ReadFile(s.Path(sourceID))
	if err != nil {
		return "", fmt.Errorf("failed to read calendar file: %w", err)
	}
	return string(data), nil
}
