package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
)

// BannerCacheAdapter implements tasks.BannerCache using [BannerRepository].
//
// Each title keeps a single live row that is refreshed in place.
type BannerCacheAdapter struct {
	repo *BannerRepository
}

// NewBannerCacheAdapter creates a new BannerCacheAdapter with the given repository
func NewBannerCacheAdapter(repo *BannerRepository) *BannerCacheAdapter {
	return &BannerCacheAdapter{repo: repo}
}

// CachedBanner returns the stored banner for target, or nil when there is none
// or it was last refreshed more than maxAge ago. A non-positive maxAge never expires.
func (a *BannerCacheAdapter) CachedBanner(target models.BannerTarget, maxAge time.Duration) (*models.BannerResult, error) {
	stored, err := a.repo.Latest(target.Kind, target.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if maxAge > 0 && a.repo.now().Sub(stored.Updated) > maxAge {
		return nil, nil
	}

	banner := stored.Banner
	return &banner, nil
}

// CacheBanner stores banner for target, replacing any earlier entry.
func (a *BannerCacheAdapter) CacheBanner(target models.BannerTarget, banner models.BannerResult) error {
	existing, err := a.repo.Latest(target.Kind, target.ID)
	switch {
	case err == nil:
		existing.Banner = banner
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached banner: %w", err)
		}
		return nil
	case errors.Is(err, ErrNotFound):
	default:
		return err
	}

	stored := &models.PersistedBanner{Kind: target.Kind, MediaID: target.ID, Banner: banner}
	if err := a.repo.Create(stored); err != nil {
		return fmt.Errorf("failed to cache banner: %w", err)
	}
	return nil
}
