package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

var _ models.Repository[*models.ConfigSave] = (*ConfigSaveRepository)(nil)

// ConfigSaveRepository records every config batch the backend accepted.
//
// It also satisfies settings.SaveRecorder through [ConfigSaveRepository.RecordSave].
type ConfigSaveRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewConfigSaveRepository creates a new ConfigSaveRepository with the given database connection
func NewConfigSaveRepository(db *sql.DB) *ConfigSaveRepository {
	return &ConfigSaveRepository{db: db, now: time.Now}
}

// RecordSave stores a save entry for keys.
func (r *ConfigSaveRepository) RecordSave(keys []string) error {
	return r.Create(&models.ConfigSave{Keys: keys, ChangeCount: len(keys)})
}

func (r *ConfigSaveRepository) Create(save *models.ConfigSave) error {
	save.SaveID = shared.GenerateID()
	save.Created = r.now()

	if err := save.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(
		`INSERT INTO config_saves (id, keys, change_count, created_at) VALUES (?, ?, ?, ?)`,
		save.SaveID, save.JoinedKeys(), save.ChangeCount, save.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert config save: %w", err)
	}
	return nil
}

func (r *ConfigSaveRepository) Get(id string) (*models.ConfigSave, error) {
	row := r.db.QueryRow(`SELECT id, keys, change_count, created_at FROM config_saves WHERE id = ?`, id)
	return scanConfigSave(row)
}

// Update rewrites the key list of an existing entry.
func (r *ConfigSaveRepository) Update(save *models.ConfigSave) error {
	if err := save.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE config_saves SET keys = ?, change_count = ? WHERE id = ?`,
		save.JoinedKeys(), save.ChangeCount, save.SaveID,
	)
	if err != nil {
		return fmt.Errorf("failed to update config save: %w", err)
	}
	return checkAffected(result, "config save", save.SaveID)
}

// Delete removes an entry. The log has no soft delete.
func (r *ConfigSaveRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM config_saves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete config save: %w", err)
	}
	return checkAffected(result, "config save", id)
}

// List returns saves newest first. Supported criteria: "key" and "limit".
func (r *ConfigSaveRepository) List(criteria map[string]any) ([]*models.ConfigSave, error) {
	query := `SELECT id, keys, change_count, created_at FROM config_saves`
	args := []any{}

	if key, ok := criteria["key"].(string); ok && key != "" {
		query += ` WHERE (',' || keys || ',') LIKE ?`
		args = append(args, "%,"+key+",%")
	}

	query += " ORDER BY created_at DESC, rowid DESC"
	limit, limitArgs := limitClause(criteria)
	query += limit
	args = append(args, limitArgs...)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query config saves: %w", err)
	}
	defer rows.Close()

	var saves []*models.ConfigSave
	for rows.Next() {
		save, err := scanConfigSave(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, save)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return saves, nil
}

func scanConfigSave(row scanner) (*models.ConfigSave, error) {
	var (
		save models.ConfigSave
		keys string
	)

	err := row.Scan(&save.SaveID, &keys, &save.ChangeCount, &save.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config save: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan config save: %w", err)
	}

	if keys != "" {
		save.Keys = strings.Split(keys, ",")
	}
	return &save, nil
}
