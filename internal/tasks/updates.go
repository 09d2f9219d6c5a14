package tasks

import (
	"fmt"

	"github.com/desertthunder/cinesync/internal/models"
)

// ProgressUpdate represents a progress event during a banner refresh.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPopular Phase = iota
	ResolveBanner
	BannerFound
	BannerMissing
)

func (p Phase) String() string {
	switch p {
	case FetchPopular:
		return "fetch_popular"
	case ResolveBanner:
		return "resolve_banner"
	case BannerFound:
		return "banner_found"
	case BannerMissing:
		return "banner_missing"
	default:
		return ""
	}
}

func fetchPopularUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPopular,
		Step:    1,
		Total:   1,
		Message: "Fetching popular movies and shows from TMDB...",
	}
}

func popularFetchedUpdate(movies, shows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPopular,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d movies and %d shows", movies, shows),
	}
}

func resolveAttemptUpdate(step, total int, target models.BannerTarget) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveBanner,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s %s)", step, total, target.DisplayName(), target.Kind, target.ID),
		Data:    target,
	}
}

func bannerFoundUpdate(step, total int, rot Rotation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BannerFound,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s banner for %s", rot.Banner.Type, rot.Banner.Title),
		Data:    rot,
	}
}

func bannerMissingUpdate(attempts int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BannerMissing,
		Step:    attempts,
		Total:   attempts,
		Message: fmt.Sprintf("✗ no banner found after %d attempts", attempts),
	}
}
