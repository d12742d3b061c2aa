package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ SourceRepository = (*SourceRepo)(nil)

type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// UpsertSource inserts or updates a source by its unique name and returns
// the database id. Registry sync calls this on startup; last_scraped_at is
// deliberately left untouched on update.
func (r *SourceRepo) UpsertSource(source Source) (int64, error) {
	metadata, err := marshalMetadata(source.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to encode source metadata: %w", err)
	}

	var id int64
	err = r.db.QueryRow(`
		INSERT INTO sources (name, url, source_type, category, description, is_active, refresh_interval, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			source_type = excluded.source_type,
			category = excluded.category,
			description = excluded.description,
			is_active = excluded.is_active,
			refresh_interval = excluded.refresh_interval,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, source.Name, source.URL, source.SourceType, source.Category, source.Description,
		source.IsActive, source.RefreshInterval, metadata).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

func (r *SourceRepo) GetSourceByName(name string) (*Source, error) {
	row := r.db.QueryRow(`
		SELECT id, name, url, source_type, category, description, is_active,
		       refresh_interval, last_scraped_at, metadata, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, name)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by name: %w", err)
	}

	return source, nil
}

func (r *SourceRepo) GetActiveSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, source_type, category, description, is_active,
		       refresh_interval, last_scraped_at, metadata, created_at, updated_at
		FROM sources
		WHERE is_active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// UpdateLastScraped records a successful scrape pass for a source.
func (r *SourceRepo) UpdateLastScraped(sourceID int64, ts time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_scraped_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, ts.UTC(), sourceID)

	if err != nil {
		return fmt.Errorf("failed to update last scraped time: %w", err)
	}

	return nil
}

func (r *SourceRepo) SetSourceActive(sourceID int64, active bool) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, active, sourceID)

	if err != nil {
		return fmt.Errorf("failed to set source active status: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var metadata string

	err := row.Scan(
		&source.ID, &source.Name, &source.URL, &source.SourceType, &source.Category,
		&source.Description, &source.IsActive, &source.RefreshInterval,
		&source.LastScrapedAt, &metadata, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &source.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode source metadata: %w", err)
		}
	}

	return &source, nil
}

func marshalMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
