package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testSource() *Source {
	return &Source{
		Name:             "home",
		CalDAVURL:        "https://dav.example.com/cal/",
		Username:         "alice",
		Password:         "secret",
		SyncIntervalSecs: 300,
	}
}

func testDestination() *Destination {
	return &Destination{
		Name:             "team",
		ICSURL:           "https://feeds.example.com/team.ics",
		CalDAVURL:        "https://dav.example.com/cal/",
		CalendarName:     "team",
		Username:         "bob",
		Password:         "secret",
		SyncIntervalSecs: 600,
	}
}

func TestSourceCRUD(t *testing.T) {
	database := newTestDB(t)

	t.Run("create assigns id and pending status", func(t *testing.T) {
		source := testSource()
		if err := database.CreateSource(source); err != nil {
			t.Fatalf("CreateSource failed: %v", err)
		}
		if source.ID == "" {
			t.Error("expected generated ID")
		}
		if source.SyncStatus != SyncStatusPending {
			t.Errorf("expected pending status, got %q", source.SyncStatus)
		}

		got, err := database.GetSourceByID(source.ID)
		if err != nil {
			t.Fatalf("GetSourceByID failed: %v", err)
		}
		if got.Name != "home" || got.CalDAVURL != source.CalDAVURL {
			t.Errorf("roundtrip mismatch: %+v", got)
		}
		if got.LastSynced != nil {
			t.Errorf("expected nil last synced, got %v", got.LastSynced)
		}
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		if err := database.CreateSource(testSource()); err == nil {
			t.Error("expected unique constraint error")
		}
	})

	t.Run("get by name", func(t *testing.T) {
		got, err := database.GetSourceByName("home")
		if err != nil {
			t.Fatalf("GetSourceByName failed: %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("wrong source: %+v", got)
		}
	})

	t.Run("update changes configuration", func(t *testing.T) {
		source, err := database.GetSourceByName("home")
		if err != nil {
			t.Fatalf("GetSourceByName failed: %v", err)
		}
		source.SyncIntervalSecs = 900
		if err := database.UpdateSource(source); err != nil {
			t.Fatalf("UpdateSource failed: %v", err)
		}
		got, _ := database.GetSourceByID(source.ID)
		if got.SyncIntervalSecs != 900 {
			t.Errorf("expected 900, got %d", got.SyncIntervalSecs)
		}
	})

	t.Run("list returns sources", func(t *testing.T) {
		sources, err := database.ListSources()
		if err != nil {
			t.Fatalf("ListSources failed: %v", err)
		}
		if len(sources) != 1 {
			t.Errorf("expected 1 source, got %d", len(sources))
		}
	})

	t.Run("delete removes the source", func(t *testing.T) {
		source, _ := database.GetSourceByName("home")
		if err := database.DeleteSource(source.ID); err != nil {
			t.Fatalf("DeleteSource failed: %v", err)
		}
		if _, err := database.GetSourceByID(source.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("operations on a missing id return ErrNotFound", func(t *testing.T) {
		if err := database.DeleteSource("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("delete: expected ErrNotFound, got %v", err)
		}
		if err := database.UpdateSourceSyncStatus("missing", SyncStatusOK, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("status: expected ErrNotFound, got %v", err)
		}
	})
}

func TestSourceStatusAndPayload(t *testing.T) {
	database := newTestDB(t)
	source := testSource()
	if err := database.CreateSource(source); err != nil {
		t.Fatalf("CreateSource failed: %v", err)
	}

	t.Run("status transitions pending to error to ok", func(t *testing.T) {
		if err := database.UpdateSourceSyncStatus(source.ID, SyncStatusError, "connection failed"); err != nil {
			t.Fatalf("UpdateSourceSyncStatus failed: %v", err)
		}
		got, _ := database.GetSourceByID(source.ID)
		if got.SyncStatus != SyncStatusError || got.SyncError != "connection failed" {
			t.Errorf("expected error status with message, got %q %q", got.SyncStatus, got.SyncError)
		}

		if err := database.UpdateSourceSyncStatus(source.ID, SyncStatusOK, ""); err != nil {
			t.Fatalf("UpdateSourceSyncStatus failed: %v", err)
		}
		got, _ = database.GetSourceByID(source.ID)
		if got.SyncStatus != SyncStatusOK || got.SyncError != "" {
			t.Errorf("expected ok status with cleared error, got %q %q", got.SyncStatus, got.SyncError)
		}
	})

	t.Run("last synced is recorded", func(t *testing.T) {
		if err := database.UpdateSourceLastSynced(source.ID); err != nil {
			t.Fatalf("UpdateSourceLastSynced failed: %v", err)
		}
		got, _ := database.GetSourceByID(source.ID)
		if got.LastSynced == nil {
			t.Error("expected last synced to be set")
		}
	})

	t.Run("payload roundtrips by name", func(t *testing.T) {
		payload := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
		if err := database.SaveICSData(source.ID, payload); err != nil {
			t.Fatalf("SaveICSData failed: %v", err)
		}
		got, err := database.GetICSDataByName(source.Name)
		if err != nil {
			t.Fatalf("GetICSDataByName failed: %v", err)
		}
		if got != payload {
			t.Errorf("payload mismatch: %q", got)
		}
	})

	t.Run("payload for unknown name is ErrNotFound", func(t *testing.T) {
		if _, err := database.GetICSDataByName("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDestinationCRUD(t *testing.T) {
	database := newTestDB(t)

	dest := testDestination()
	if err := database.CreateDestination(dest); err != nil {
		t.Fatalf("CreateDestination failed: %v", err)
	}

	t.Run("roundtrip", func(t *testing.T) {
		got, err := database.GetDestinationByID(dest.ID)
		if err != nil {
			t.Fatalf("GetDestinationByID failed: %v", err)
		}
		if got.CalendarName != "team" || got.SyncStatus != SyncStatusPending {
			t.Errorf("roundtrip mismatch: %+v", got)
		}
	})

	t.Run("update flags persist", func(t *testing.T) {
		dest.SyncAll = true
		dest.KeepLocal = true
		if err := database.UpdateDestination(dest); err != nil {
			t.Fatalf("UpdateDestination failed: %v", err)
		}
		got, _ := database.GetDestinationByID(dest.ID)
		if !got.SyncAll || !got.KeepLocal {
			t.Errorf("flags lost: %+v", got)
		}
	})

	t.Run("status and last synced", func(t *testing.T) {
		if err := database.UpdateDestinationSyncStatus(dest.ID, SyncStatusError, "upload failed"); err != nil {
			t.Fatalf("UpdateDestinationSyncStatus failed: %v", err)
		}
		if err := database.UpdateDestinationLastSynced(dest.ID); err != nil {
			t.Fatalf("UpdateDestinationLastSynced failed: %v", err)
		}
		got, _ := database.GetDestinationByID(dest.ID)
		if got.SyncStatus != SyncStatusError || got.SyncError != "upload failed" || got.LastSynced == nil {
			t.Errorf("status not recorded: %+v", got)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		dests, err := database.ListDestinations()
		if err != nil || len(dests) != 1 {
			t.Fatalf("ListDestinations: %v, %d", err, len(dests))
		}
		if err := database.DeleteDestination(dest.ID); err != nil {
			t.Fatalf("DeleteDestination failed: %v", err)
		}
		if _, err := database.GetDestinationByID(dest.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
