package settings

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

// KindPassword is the presentation kind of sensitive fields.
const KindPassword = "password"

// DisabledReason is shown for fields the backend marks as disabled.
const DisabledReason = "This feature is currently in beta testing and is disabled for usage."

var resolutionStructures = []string{"none", "year", "resolution", "year_resolution"}

// IsSensitive reports whether key names a secret.
func IsSensitive(key string) bool {
	return strings.Contains(key, "PASSWORD") || strings.Contains(key, "TOKEN") || strings.Contains(key, "KEY")
}

// FieldKind returns how a field is edited: [KindPassword] for sensitive keys, otherwise its declared type.
func FieldKind(item models.ConfigItem) string {
	if IsSensitive(item.Key) {
		return KindPassword
	}
	if item.Type == "" {
		return string(models.ConfigString)
	}
	return string(item.Type)
}

// FieldOptions returns the fixed choices for enumerated fields, or nil for free text.
func FieldOptions(item models.ConfigItem) []string {
	switch {
	case item.Key == "SHOW_RESOLUTION_STRUCTURE", item.Key == "MOVIE_RESOLUTION_STRUCTURE":
		return append([]string(nil), resolutionStructures...)
	case strings.Contains(item.Key, "_ENABLED"), item.Type == models.ConfigBoolean:
		return []string{"true", "false"}
	}
	return nil
}

// FieldLabel turns SOURCE_DIR into "Source Dir".
func FieldLabel(key string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(key), "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// MaskValue hides the value of sensitive fields.
func MaskValue(item models.ConfigItem, value string) string {
	if FieldKind(item) != KindPassword {
		return value
	}
	return shared.MaskSecret(value)
}

// ItemState describes whether a field may be edited.
type ItemState struct {
	Beta           bool
	Disabled       bool
	DisabledReason string
	Locked         bool
	LockedBy       string
}

// StateOf reports the editability flags of item.
func StateOf(item models.ConfigItem) ItemState {
	s := ItemState{Beta: item.Beta, Disabled: item.Disabled, Locked: item.Locked, LockedBy: item.LockedBy}
	if s.Disabled {
		s.DisabledReason = DisabledReason
	}
	return s
}

// Editable reports whether the field accepts edits.
func (s ItemState) Editable() bool {
	return !s.Disabled && !s.Locked
}

// Err returns [shared.ErrFieldLocked] with a reason when the field is not editable.
func (s ItemState) Err(key string) error {
	switch {
	case s.Locked && s.LockedBy != "":
		return fmt.Errorf("%w: %s is locked by %s", shared.ErrFieldLocked, key, s.LockedBy)
	case s.Locked:
		return fmt.Errorf("%w: %s", shared.ErrFieldLocked, key)
	case s.Disabled:
		return fmt.Errorf("%w: %s: %s", shared.ErrFieldLocked, key, s.DisabledReason)
	}
	return nil
}
