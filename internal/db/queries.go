package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sourceColumns = `id, name, caldav_url, username, password, sync_interval_secs,
	last_synced, sync_status, sync_error, ics_data, created_at, updated_at`

const destinationColumns = `id, name, ics_url, caldav_url, calendar_name, username, password,
	sync_interval_secs, sync_all, keep_local, last_synced, sync_status, sync_error, created_at, updated_at`

// CreateSource creates a new source with status pending.
func (db *DB) CreateSource(source *Source) error {
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	source.CreatedAt = time.Now().UTC()
	source.UpdatedAt = source.CreatedAt
	source.SyncStatus = SyncStatusPending

	query := `INSERT INTO sources (id, name, caldav_url, username, password,
		sync_interval_secs, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.Exec(query,
		source.ID, source.Name, source.CalDAVURL, source.Username, source.Password,
		source.SyncIntervalSecs, source.SyncStatus, source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	return nil
}

// GetSourceByID returns a source by its ID.
func (db *DB) GetSourceByID(id string) (*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = ?`
	return scanSource(db.conn.QueryRow(query, id))
}

// GetSourceByName returns a source by its unique name.
func (db *DB) GetSourceByName(name string) (*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE name = ?`
	return scanSource(db.conn.QueryRow(query, name))
}

// ListSources returns all configured sources ordered by name.
func (db *DB) ListSources() ([]*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources ORDER BY name`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		source, err := scanSourceRow(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}
	return sources, nil
}

// UpdateSource updates a source's configuration. Status fields are managed
// through the dedicated status operations and left untouched here.
func (db *DB) UpdateSource(source *Source) error {
	source.UpdatedAt = time.Now().UTC()

	query := `UPDATE sources SET name = ?, caldav_url = ?, username = ?, password = ?,
		sync_interval_secs = ?, updated_at = ? WHERE id = ?`

	result, err := db.conn.Exec(query,
		source.Name, source.CalDAVURL, source.Username, source.Password,
		source.SyncIntervalSecs, source.UpdatedAt, source.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return checkAffected(result)
}

// DeleteSource deletes a source by its ID.
func (db *DB) DeleteSource(id string) error {
	result, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return checkAffected(result)
}

// SaveICSData stores the generated ICS payload for a source.
func (db *DB) SaveICSData(id, data string) error {
	result, err := db.conn.Exec(
		`UPDATE sources SET ics_data = ?, updated_at = ? WHERE id = ?`,
		data, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save ICS data: %w", err)
	}
	return checkAffected(result)
}

// GetICSDataByName returns the generated payload for the named source.
func (db *DB) GetICSDataByName(name string) (string, error) {
	var data sql.NullString
	err := db.conn.QueryRow(`SELECT ics_data FROM sources WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get ICS data: %w", err)
	}
	return data.String, nil
}

// UpdateSourceLastSynced records a successful sync time for a source.
func (db *DB) UpdateSourceLastSynced(id string) error {
	result, err := db.conn.Exec(
		`UPDATE sources SET last_synced = ?, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last synced: %w", err)
	}
	return checkAffected(result)
}

// UpdateSourceSyncStatus records the outcome of a source sync. An empty
// message clears any previous error.
func (db *DB) UpdateSourceSyncStatus(id string, status SyncStatus, message string) error {
	result, err := db.conn.Exec(
		`UPDATE sources SET sync_status = ?, sync_error = ?, updated_at = ? WHERE id = ?`,
		status, nullString(message), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update source sync status: %w", err)
	}
	return checkAffected(result)
}

// CreateDestination creates a new destination with status pending.
func (db *DB) CreateDestination(dest *Destination) error {
	if dest.ID == "" {
		dest.ID = uuid.New().String()
	}
	dest.CreatedAt = time.Now().UTC()
	dest.UpdatedAt = dest.CreatedAt
	dest.SyncStatus = SyncStatusPending

	query := `INSERT INTO destinations (id, name, ics_url, caldav_url, calendar_name,
		username, password, sync_interval_secs, sync_all, keep_local, sync_status,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.Exec(query,
		dest.ID, dest.Name, dest.ICSURL, dest.CalDAVURL, dest.CalendarName,
		dest.Username, dest.Password, dest.SyncIntervalSecs, dest.SyncAll, dest.KeepLocal,
		dest.SyncStatus, dest.CreatedAt, dest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	return nil
}

// GetDestinationByID returns a destination by its ID.
func (db *DB) GetDestinationByID(id string) (*Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE id = ?`
	return scanDestination(db.conn.QueryRow(query, id))
}

// ListDestinations returns all configured destinations ordered by name.
func (db *DB) ListDestinations() ([]*Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations ORDER BY name`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	var dests []*Destination
	for rows.Next() {
		dest, err := scanDestinationRow(rows)
		if err != nil {
			return nil, err
		}
		dests = append(dests, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating destinations: %w", err)
	}
	return dests, nil
}

// UpdateDestination updates a destination's configuration.
func (db *DB) UpdateDestination(dest *Destination) error {
	dest.UpdatedAt = time.Now().UTC()

	query := `UPDATE destinations SET name = ?, ics_url = ?, caldav_url = ?,
		calendar_name = ?, username = ?, password = ?, sync_interval_secs = ?,
		sync_all = ?, keep_local = ?, updated_at = ? WHERE id = ?`

	result, err := db.conn.Exec(query,
		dest.Name, dest.ICSURL, dest.CalDAVURL, dest.CalendarName,
		dest.Username, dest.Password, dest.SyncIntervalSecs,
		dest.SyncAll, dest.KeepLocal, dest.UpdatedAt, dest.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update destination: %w", err)
	}
	return checkAffected(result)
}

// DeleteDestination deletes a destination by its ID.
func (db *DB) DeleteDestination(id string) error {
	result, err := db.conn.Exec(`DELETE FROM destinations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete destination: %w", err)
	}
	return checkAffected(result)
}

// UpdateDestinationLastSynced records a successful sync time for a destination.
func (db *DB) UpdateDestinationLastSynced(id string) error {
	result, err := db.conn.Exec(
		`UPDATE destinations SET last_synced = ?, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last synced: %w", err)
	}
	return checkAffected(result)
}

// UpdateDestinationSyncStatus records the outcome of a destination sync.
func (db *DB) UpdateDestinationSyncStatus(id string, status SyncStatus, message string) error {
	result, err := db.conn.Exec(
		`UPDATE destinations SET sync_status = ?, sync_error = ?, updated_at = ? WHERE id = ?`,
		status, nullString(message), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update destination sync status: %w", err)
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row *sql.Row) (*Source, error) {
	source, err := scanSourceFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return source, err
}

func scanSourceRow(rows *sql.Rows) (*Source, error) {
	return scanSourceFields(rows)
}

func scanSourceFields(row rowScanner) (*Source, error) {
	source := &Source{}
	var lastSynced sql.NullTime
	var syncError, icsData sql.NullString

	err := row.Scan(
		&source.ID, &source.Name, &source.CalDAVURL, &source.Username, &source.Password,
		&source.SyncIntervalSecs, &lastSynced, &source.SyncStatus, &syncError, &icsData,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}

	if lastSynced.Valid {
		source.LastSynced = &lastSynced.Time
	}
	source.SyncError = syncError.String
	source.ICSData = icsData.String
	return source, nil
}

func scanDestination(row *sql.Row) (*Destination, error) {
	dest, err := scanDestinationFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return dest, err
}

func scanDestinationRow(rows *sql.Rows) (*Destination, error) {
	return scanDestinationFields(rows)
}

func scanDestinationFields(row rowScanner) (*Destination, error) {
	dest := &Destination{}
	var lastSynced sql.NullTime
	var syncError sql.NullString

	err := row.Scan(
		&dest.ID, &dest.Name, &dest.ICSURL, &dest.CalDAVURL, &dest.CalendarName,
		&dest.Username, &dest.Password, &dest.SyncIntervalSecs, &dest.SyncAll, &dest.KeepLocal,
		&lastSynced, &dest.SyncStatus, &syncError, &dest.CreatedAt, &dest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan destination: %w", err)
	}

	if lastSynced.Valid {
		dest.LastSynced = &lastSynced.Time
	}
	dest.SyncError = syncError.String
	return dest, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
