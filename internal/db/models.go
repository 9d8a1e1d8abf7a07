package db

import (
	"time"
)

// SyncStatus represents the recorded outcome of a resource's last sync.
// A resource is pending only before its first run; afterwards the status
// alternates between ok and error and never reverts to pending.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusOK      SyncStatus = "ok"
	SyncStatusError   SyncStatus = "error"
)

// Source is a CalDAV server whose events are combined into one ICS feed.
// A SyncIntervalSecs of zero means manual sync only; the scheduler never
// creates a loop for it.
type Source struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	CalDAVURL        string     `json:"caldav_url"`
	Username         string     `json:"username"`
	Password         string     `json:"-"` // Never include in JSON
	SyncIntervalSecs int        `json:"sync_interval_secs"`
	LastSynced       *time.Time `json:"last_synced"`
	SyncStatus       SyncStatus `json:"sync_status"`
	SyncError        string     `json:"sync_error"`
	ICSData          string     `json:"-"` // Served via the feed endpoint
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Destination is an ICS feed whose events are uploaded into a CalDAV
// collection. SyncAll and KeepLocal are accepted and persisted but reserved;
// no upload branch consumes them yet.
type Destination struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	ICSURL           string     `json:"ics_url"`
	CalDAVURL        string     `json:"caldav_url"`
	CalendarName     string     `json:"calendar_name"`
	Username         string     `json:"username"`
	Password         string     `json:"-"` // Never include in JSON
	SyncIntervalSecs int        `json:"sync_interval_secs"`
	SyncAll          bool       `json:"sync_all"`
	KeepLocal        bool       `json:"keep_local"`
	LastSynced       *time.Time `json:"last_synced"`
	SyncStatus       SyncStatus `json:"sync_status"`
	SyncError        string     `json:"sync_error"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
