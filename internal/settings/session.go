// Package settings implements the configuration edit session: a client-side draft
// of configuration values diffed against the backend baseline and submitted as one batch.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

// Backend is the subset of the WebDavHub API the session needs.
type Backend interface {
	GetConfig(ctx context.Context) ([]models.ConfigItem, error)
	UpdateConfig(ctx context.Context, updates []models.ConfigUpdate) error
}

// StatusBackend is implemented by backends that report configuration health.
type StatusBackend interface {
	ConfigStatus(ctx context.Context) (*models.ConfigStatus, error)
}

// SaveRecorder persists a record of each accepted batch. Failures are logged, never returned.
type SaveRecorder interface {
	RecordSave(keys []string) error
}

// Options configures a [Session]. Every field is optional.
type Options struct {
	Bus     *events.Bus
	Logger  *log.Logger
	History SaveRecorder
}

// Session tracks pending edits against the last fetched configuration.
//
// Methods are safe for concurrent use. Network calls run without holding the lock.
type Session struct {
	mu      sync.RWMutex
	backend Backend
	items   []models.ConfigItem
	index   map[string]int
	pending models.PendingChanges
	status  *models.ConfigStatus

	bus     *events.Bus
	logger  *log.Logger
	history SaveRecorder
}

// Group is one category with its sorted visible items.
type Group struct {
	Info  models.CategoryInfo
	Items []models.ConfigItem
}

// NewSession creates an empty session bound to backend. Call [Session.Load] before editing.
func NewSession(backend Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Session{
		backend: backend,
		index:   map[string]int{},
		pending: models.PendingChanges{},
		bus:     opts.Bus,
		logger:  logger,
		history: opts.History,
	}
}

// Load replaces the item list with a fresh copy from the backend.
//
// On failure the previous list is kept. Pending values that now equal the new baseline are dropped.
func (s *Session) Load(ctx context.Context) error {
	items, err := s.backend.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.index = make(map[string]int, len(items))
	for i, item := range items {
		s.index[item.Key] = i
	}
	for key, value := range s.pending {
		if value == s.baseline(key) {
			delete(s.pending, key)
		}
	}

	s.logger.Debug("configuration loaded", "items", len(items), "pending", len(s.pending))
	return nil
}

// RefreshStatus fetches the configuration health flags when the backend supports it.
func (s *Session) RefreshStatus(ctx context.Context) (*models.ConfigStatus, error) {
	sb, ok := s.backend.(StatusBackend)
	if !ok {
		return nil, shared.ErrNotImplemented
	}

	status, err := sb.ConfigStatus(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return status, nil
}

// Status returns the last fetched health flags, or nil.
func (s *Session) Status() *models.ConfigStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// baseline must be called with the lock held.
func (s *Session) baseline(key string) string {
	if i, ok := s.index[key]; ok {
		return s.items[i].Value
	}
	return ""
}

// SetFieldValue records value for key, or forgets the edit when value equals the baseline.
//
// Unknown keys have an empty baseline. No validation is performed.
func (s *Session) SetFieldValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == s.baseline(key) {
		delete(s.pending, key)
		return
	}
	s.pending[key] = value
}

// Value returns the pending value for key if any, otherwise the baseline.
func (s *Session) Value(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.pending[key]; ok {
		return v
	}
	return s.baseline(key)
}

// Item returns the baseline item for key.
func (s *Session) Item(key string) (models.ConfigItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[key]
	if !ok {
		return models.ConfigItem{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the baseline list in backend order, hidden items included.
func (s *Session) Items() []models.ConfigItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Pending returns a copy of the pending changes.
func (s *Session) Pending() models.PendingChanges {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Clone()
}

func (s *Session) IsModified(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[key]
	return ok
}

func (s *Session) HasChanges() bool { return s.ChangeCount() > 0 }

func (s *Session) ChangeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Discard drops every pending change.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pending)
}

// Batch builds the update records for the pending changes, sorted by key.
//
// Type and required come from the matching item, defaulting to string and false.
func (s *Session) Batch() []models.ConfigUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch()
}

func (s *Session) batch() []models.ConfigUpdate {
	updates := make([]models.ConfigUpdate, 0, len(s.pending))
	for _, key := range s.pending.Keys() {
		u := models.ConfigUpdate{Key: key, Value: s.pending[key], Type: models.ConfigString}
		if i, ok := s.index[key]; ok {
			if t := s.items[i].Type; t != "" {
				u.Type = t
			}
			u.Required = s.items[i].Required
		}
		updates = append(updates, u)
	}
	return updates
}

// Save submits the pending changes as one batch.
//
// With nothing pending it returns [shared.ErrNothingToSave] without touching the network.
// A rejected batch leaves the pending changes untouched. An accepted batch is followed by a
// full reload, the submitted edits are cleared and a [events.ConfigChanged] event is published.
// If only the reload fails the edits are still cleared and the error wraps [shared.ErrReloadFailed].
func (s *Session) Save(ctx context.Context) error {
	s.mu.RLock()
	updates := s.batch()
	s.mu.RUnlock()

	if len(updates) == 0 {
		return shared.ErrNothingToSave
	}

	if err := s.backend.UpdateConfig(ctx, updates); err != nil {
		s.logger.Error("failed to save configuration", "changes", len(updates), "error", err)
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	keys := make([]string, len(updates))
	for i, u := range updates {
		keys[i] = u.Key
	}

	s.mu.Lock()
	for _, u := range updates {
		if s.pending[u.Key] == u.Value {
			delete(s.pending, u.Key)
		}
	}
	s.mu.Unlock()

	reloadErr := s.Load(ctx)

	if _, err := s.RefreshStatus(ctx); err != nil && !errors.Is(err, shared.ErrNotImplemented) {
		s.logger.Warn("failed to refresh configuration status", "error", err)
	}

	if s.history != nil {
		if err := s.history.RecordSave(keys); err != nil {
			s.logger.Warn("failed to record configuration save", "error", err)
		}
	}

	s.bus.Publish(events.NewConfigChanged(keys))
	s.logger.Info("configuration saved", "changes", len(keys))

	if reloadErr != nil {
		return fmt.Errorf("%w: %w", shared.ErrReloadFailed, reloadErr)
	}
	return nil
}

// Groups returns the visible items grouped by category in display order.
func (s *Session) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := map[string][]models.ConfigItem{}
	for _, item := range s.items {
		if item.Hidden {
			continue
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}

	groups := make([]Group, 0, len(names))
	for _, name := range OrderCategories(names) {
		items := byCategory[name]
		SortItems(name, items)
		groups = append(groups, Group{Info: DescribeCategory(name, items, s.pending), Items: items})
	}
	return groups
}

// Categories returns the category summaries in display order.
func (s *Session) Categories() []models.CategoryInfo {
	groups := s.Groups()
	infos := make([]models.CategoryInfo, len(groups))
	for i, g := range groups {
		infos[i] = g.Info
	}
	return infos
}
