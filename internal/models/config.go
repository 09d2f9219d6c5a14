package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ConfigType is the declared value type of a [ConfigItem].
//
// Values outside the known set are carried through unchanged.
type ConfigType string

const (
	ConfigString  ConfigType = "string"
	ConfigBoolean ConfigType = "boolean"
	ConfigInteger ConfigType = "integer"
	ConfigArray   ConfigType = "array"
)

// ConfigItem is one configuration entry as served by GET /api/config.
type ConfigItem struct {
	Key         string     `json:"key"`
	Value       string     `json:"value"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Type        ConfigType `json:"type"`
	Required    bool       `json:"required"`
	Beta        bool       `json:"beta,omitempty"`
	Disabled    bool       `json:"disabled,omitempty"`
	Locked      bool       `json:"locked,omitempty"`
	LockedBy    string     `json:"lockedBy,omitempty"`
	Hidden      bool       `json:"hidden,omitempty"`
}

// ConfigUpdate is one record of the batch sent to POST /api/config/update.
type ConfigUpdate struct {
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Type     ConfigType `json:"type"`
	Required bool       `json:"required"`
}

// ConfigUpdateRequest is the body of POST /api/config/update.
type ConfigUpdateRequest struct {
	Updates []ConfigUpdate `json:"updates"`
}

// ConfigResponse is the body of GET /api/config.
type ConfigResponse struct {
	Config []ConfigItem `json:"config"`
	Status string       `json:"status"`
}

// ConfigStatus is the body of GET /api/config-status.
type ConfigStatus struct {
	IsPlaceholder      bool   `json:"isPlaceholder"`
	DestinationDir     string `json:"destinationDir"`
	EffectiveRootDir   string `json:"effectiveRootDir"`
	NeedsConfiguration bool   `json:"needsConfiguration"`
}

// PendingChanges maps a configuration key to its proposed value.
type PendingChanges map[string]string

// Keys returns the changed keys in sorted order.
func (p PendingChanges) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Clone returns an independent copy.
func (p PendingChanges) Clone() PendingChanges {
	out := make(PendingChanges, len(p))
	maps.Copy(out, p)
	return out
}

// CategoryInfo is the aggregate view over the items sharing a category.
//
// It is derived from the current items and pending changes every time it is requested.
type CategoryInfo struct {
	Category      string
	Name          string
	Description   string
	Icon          string
	Color         string
	ItemCount     int
	RequiredCount int
	ModifiedCount int
}

// ConfigSave records one successfully submitted configuration batch.
type ConfigSave struct {
	SaveID      string
	Keys        []string
	ChangeCount int
	Created     time.Time
}

func (c *ConfigSave) ID() string           { return c.SaveID }
func (c *ConfigSave) CreatedAt() time.Time { return c.Created }
func (c *ConfigSave) UpdatedAt() time.Time { return c.Created }

func (c *ConfigSave) Validate() error {
	if c.SaveID == "" {
		return fmt.Errorf("config save id is required")
	}
	if len(c.Keys) == 0 {
		return fmt.Errorf("config save must reference at least one key")
	}
	if c.ChangeCount != len(c.Keys) {
		return fmt.Errorf("change count %d does not match %d keys", c.ChangeCount, len(c.Keys))
	}
	return nil
}

// JoinedKeys returns the keys as stored in the database.
func (c *ConfigSave) JoinedKeys() string {
	return strings.Join(c.Keys, ",")
}
