package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

const bannerColumns = `id, sequence, media_kind, media_id, url, image_type, title, source, created_at, updated_at, deleted_at`

var _ models.Repository[*models.PersistedBanner] = (*BannerRepository)(nil)

// BannerRepository implements models.Repository[*models.PersistedBanner].
//
// Rows are soft deleted; every query skips deleted banners.
type BannerRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewBannerRepository creates a new BannerRepository with the given database connection
func NewBannerRepository(db *sql.DB) *BannerRepository {
	return &BannerRepository{db: db, now: time.Now}
}

// Create inserts a new [models.PersistedBanner] with generated ID and sequence
func (r *BannerRepository) Create(banner *models.PersistedBanner) error {
	if err := banner.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "banners")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := r.now()
	banner.BannerID = shared.GenerateID()
	banner.Sequence = sequence
	banner.Created = now
	banner.Updated = now

	query := `
		INSERT INTO banners (id, sequence, media_kind, media_id, url, image_type, title, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		banner.BannerID,
		banner.Sequence,
		string(banner.Kind),
		banner.MediaID,
		banner.Banner.URL,
		banner.Banner.Type,
		banner.Banner.Title,
		banner.Banner.Source,
		banner.Created,
		banner.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert banner: %w", err)
	}

	return nil
}

// Get retrieves a banner by ID, excluding soft-deleted banners
func (r *BannerRepository) Get(id string) (*models.PersistedBanner, error) {
	query := `SELECT ` + bannerColumns + ` FROM banners WHERE id = ? AND deleted_at IS NULL`
	return scanBanner(r.db.QueryRow(query, id))
}

// Latest returns the most recently stored banner for a title.
func (r *BannerRepository) Latest(kind models.MediaKind, mediaID string) (*models.PersistedBanner, error) {
	query := `
		SELECT ` + bannerColumns + `
		FROM banners
		WHERE media_kind = ? AND media_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return scanBanner(r.db.QueryRow(query, string(kind), mediaID))
}

// Update replaces the stored image for an existing banner and bumps updated_at.
func (r *BannerRepository) Update(banner *models.PersistedBanner) error {
	if err := banner.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := r.now()
	query := `
		UPDATE banners
		SET url = ?, image_type = ?, title = ?, source = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		banner.Banner.URL,
		banner.Banner.Type,
		banner.Banner.Title,
		banner.Banner.Source,
		now,
		banner.BannerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update banner: %w", err)
	}
	if err := checkAffected(result, "banner", banner.BannerID); err != nil {
		return err
	}

	banner.Updated = now
	return nil
}

// Delete soft-deletes a banner by ID
func (r *BannerRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE banners SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}
	return checkAffected(result, "banner", id)
}

// List returns live banners, newest first.
//
// Supported criteria: "kind" (string or [models.MediaKind]), "media_id", "source" and "limit".
func (r *BannerRepository) List(criteria map[string]any) ([]*models.PersistedBanner, error) {
	query := `SELECT ` + bannerColumns + ` FROM banners WHERE deleted_at IS NULL`
	args := []any{}

	switch kind := criteria["kind"].(type) {
	case models.MediaKind:
		query += " AND media_kind = ?"
		args = append(args, string(kind))
	case string:
		if kind != "" {
			query += " AND media_kind = ?"
			args = append(args, kind)
		}
	}

	if mediaID, ok := criteria["media_id"].(string); ok && mediaID != "" {
		query += " AND media_id = ?"
		args = append(args, mediaID)
	}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	query += " ORDER BY sequence DESC"
	limit, limitArgs := limitClause(criteria)
	query += limit
	args = append(args, limitArgs...)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	defer rows.Close()

	var banners []*models.PersistedBanner
	for rows.Next() {
		banner, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, banner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return banners, nil
}

func scanBanner(row scanner) (*models.PersistedBanner, error) {
	var (
		b         models.PersistedBanner
		kind      string
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&b.BannerID, &b.Sequence, &kind, &b.MediaID,
		&b.Banner.URL, &b.Banner.Type, &b.Banner.Title, &b.Banner.Source,
		&b.Created, &b.Updated, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("banner: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan banner: %w", err)
	}

	b.Kind = models.MediaKind(kind)
	if deletedAt.Valid {
		b.DeletedAt = &deletedAt.Time
	}
	return &b, nil
}
