package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind distinguishes movies from shows when looking up artwork.
type MediaKind string

const (
	MediaMovie MediaKind = "movie"
	MediaTV    MediaKind = "tv"
)

// ParseMediaKind accepts "movie", "tv" and "show" in any case.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaMovie, nil
	case "tv", "show", "shows":
		return MediaTV, nil
	default:
		return "", fmt.Errorf("unknown media kind %q (want movie or tv)", s)
	}
}

func (k MediaKind) String() string { return string(k) }

// BannerTarget identifies a title by its external (TMDB) id.
type BannerTarget struct {
	Kind MediaKind
	ID   string
	Name string // optional display name, used when the provider omits one
}

// DisplayName falls back to "<kind> <id>" when no name is known.
func (t BannerTarget) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s %s", t.Kind, t.ID)
}

// BannerResult is the outcome of a successful banner lookup.
type BannerResult struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// PersistedBanner is a resolved banner stored locally.
type PersistedBanner struct {
	BannerID  string
	Sequence  int
	Kind      MediaKind
	MediaID   string
	Banner    BannerResult
	Created   time.Time
	Updated   time.Time
	DeletedAt *time.Time
}

func (b *PersistedBanner) ID() string           { return b.BannerID }
func (b *PersistedBanner) CreatedAt() time.Time { return b.Created }
func (b *PersistedBanner) UpdatedAt() time.Time { return b.Updated }

func (b *PersistedBanner) Validate() error {
	if b.Kind != MediaMovie && b.Kind != MediaTV {
		return fmt.Errorf("invalid media kind %q", b.Kind)
	}
	if b.MediaID == "" {
		return fmt.Errorf("media id is required")
	}
	if b.Banner.URL == "" {
		return fmt.Errorf("banner url is required")
	}
	return nil
}

// Target returns the lookup target this banner was resolved for.
func (b *PersistedBanner) Target() BannerTarget {
	return BannerTarget{Kind: b.Kind, ID: b.MediaID, Name: b.Banner.Title}
}
