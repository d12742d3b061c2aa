package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ ContentRepository = (*ContentRepo)(nil)

type ContentRepo struct {
	db *DB
}

func NewContentRepository(db *DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// FindByURL looks up a record by the primary dedup key. Returns nil when no
// record exists.
func (r *ContentRepo) FindByURL(sourceID int64, url string) (*Content, error) {
	if url == "" {
		return nil, nil
	}

	row := r.db.QueryRow(contentSelect+` WHERE source_id = ? AND url = ? LIMIT 1`, sourceID, url)

	content, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find content by url: %w", err)
	}

	return content, nil
}

// FindByTitle is the fallback dedup lookup for entries without a usable url.
func (r *ContentRepo) FindByTitle(sourceID int64, title string) (*Content, error) {
	row := r.db.QueryRow(contentSelect+` WHERE source_id = ? AND title = ? LIMIT 1`, sourceID, title)

	content, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find content by title: %w", err)
	}

	return content, nil
}

// InsertContent stores a new content record. Existing records are never
// overwritten here; a uniqueness violation surfaces to the caller, which
// treats it as a duplicate (IsConstraintViolation).
func (r *ContentRepo) InsertContent(content Content) (int64, error) {
	tags, err := json.Marshal(content.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tags: %w", err)
	}

	engagement := []byte("{}")
	if content.Engagement != nil {
		engagement, err = json.Marshal(content.Engagement)
		if err != nil {
			return 0, fmt.Errorf("failed to encode engagement metadata: %w", err)
		}
	}

	var publishedAt any
	if content.PublishedAt != nil {
		publishedAt = content.PublishedAt.UTC()
	}

	var id int64
	err = r.db.QueryRow(`
		INSERT INTO contents (source_id, title, description, url, published_at,
			thumbnail_url, author, tags, engagement, extraction_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, content.SourceID, content.Title, content.Description, content.URL, publishedAt,
		content.ThumbnailURL, content.Author, string(tags), string(engagement),
		defaultExtractionStatus(content)).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert content: %w", err)
	}

	return id, nil
}

func defaultExtractionStatus(content Content) string {
	if content.ExtractionStatus != "" {
		return content.ExtractionStatus
	}
	if content.URL == "" {
		return "skipped"
	}
	return "pending"
}

func (r *ContentRepo) GetContent(query ContentQuery) ([]Content, error) {
	sqlQuery := contentSelect
	var conditions []string
	var args []any

	if query.SourceName != "" {
		conditions = append(conditions, "source_id IN (SELECT id FROM sources WHERE name = ?)")
		args = append(args, query.SourceName)
	}
	if query.Tag != "" {
		conditions = append(conditions, "tags LIKE ?")
		args = append(args, `%"`+query.Tag+`"%`)
	}
	if query.Search != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ? OR author LIKE ?)")
		pattern := "%" + query.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	for i, condition := range conditions {
		if i == 0 {
			sqlQuery += " WHERE " + condition
		} else {
			sqlQuery += " AND " + condition
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	sqlQuery += " ORDER BY COALESCE(published_at, created_at) DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, *content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

func (r *ContentRepo) GetStats() (*Stats, error) {
	var stats Stats

	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sources),
			(SELECT COUNT(*) FROM sources WHERE is_active = 1),
			(SELECT COUNT(*) FROM contents),
			(SELECT COUNT(*) FROM contents WHERE extraction_status = 'success')
	`).Scan(&stats.Sources, &stats.ActiveSources, &stats.Contents, &stats.Extracted)

	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}

func (r *ContentRepo) GetContentForExtraction(sourceID int64, limit int) ([]ContentForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM contents
		WHERE source_id = ? AND extraction_status = 'pending' AND url != ''
		ORDER BY created_at DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get content for extraction: %w", err)
	}
	defer rows.Close()

	var items []ContentForExtraction
	for rows.Next() {
		var item ContentForExtraction
		if err := rows.Scan(&item.ID, &item.URL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return items, nil
}

// UpdateExtractedContent records successful content-text extraction. The
// enrichment pass is an idempotent upsert over the same record.
func (r *ContentRepo) UpdateExtractedContent(contentID int64, text string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE contents
		SET content_text = ?, extraction_status = 'success', extracted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, text, extractedAt.UTC(), contentID)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *ContentRepo) UpdateExtractionStatus(contentID int64, status string, extractedAt *time.Time) error {
	_, err := r.db.Exec(`
		UPDATE contents
		SET extraction_status = ?, extracted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, extractedAt, contentID)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

const contentSelect = `
	SELECT id, source_id, title, description, url, content_text, published_at,
	       thumbnail_url, author, tags, engagement, extraction_status,
	       extracted_at, created_at, updated_at
	FROM contents`

func scanContent(row rowScanner) (*Content, error) {
	var content Content
	var tags, engagement string

	err := row.Scan(
		&content.ID, &content.SourceID, &content.Title, &content.Description,
		&content.URL, &content.ContentText, &content.PublishedAt,
		&content.ThumbnailURL, &content.Author, &tags, &engagement,
		&content.ExtractionStatus, &content.ExtractedAt,
		&content.CreatedAt, &content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &content.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if engagement != "" {
		if err := json.Unmarshal([]byte(engagement), &content.Engagement); err != nil {
			return nil, fmt.Errorf("failed to decode engagement metadata: %w", err)
		}
	}

	return &content, nil
}
