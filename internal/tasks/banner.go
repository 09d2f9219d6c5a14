package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/services"
	"github.com/desertthunder/cinesync/internal/shared"
)

// BannerSource is the provider recorded on every result.
const BannerSource = "fanart"

// Banner image types. Only these two are ever consulted.
const (
	MovieBannerField = "moviebanner"
	TVBannerField    = "tvbanner"
)

// BannerField returns the banner image type for kind, or "" for unknown kinds.
func BannerField(kind models.MediaKind) string {
	switch kind {
	case models.MediaMovie:
		return MovieBannerField
	case models.MediaTV:
		return TVBannerField
	default:
		return ""
	}
}

// ArtworkFetcher is the Fanart.tv client as seen by the resolver.
type ArtworkFetcher interface {
	Configured() bool
	Artwork(ctx context.Context, kind models.MediaKind, id string) (*services.FanartArtwork, error)
}

// BannerCache stores resolved banners. A miss is (nil, nil).
type BannerCache interface {
	CachedBanner(target models.BannerTarget, maxAge time.Duration) (*models.BannerResult, error)
	CacheBanner(target models.BannerTarget, banner models.BannerResult) error
}

// Selector picks one of n candidate images.
type Selector interface {
	Select(n int) int
}

// FirstSelector always picks the first image.
type FirstSelector struct{}

func (FirstSelector) Select(int) int { return 0 }

// RandomSelector picks uniformly from a seeded source. Safe for concurrent use.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector creates a selector whose sequence is fixed by seed.
func NewRandomSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSelector) Select(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSelector maps the banner.selection setting to a [Selector]. A zero seed draws one at random.
func NewSelector(mode string, seed uint64) (Selector, error) {
	switch mode {
	case "", "first":
		return FirstSelector{}, nil
	case "random":
		if seed == 0 {
			seed = rand.Uint64()
		}
		return NewRandomSelector(seed), nil
	default:
		return nil, fmt.Errorf("%w: banner selection %q (want first or random)", shared.ErrInvalidConfig, mode)
	}
}

// ResolverOpts configures a [BannerResolver]. Every field is optional.
type ResolverOpts struct {
	Selector Selector
	Cache    BannerCache
	CacheTTL time.Duration
	Logger   *log.Logger
}

// BannerResolver finds a wide header banner for a title on Fanart.tv.
//
// It consults exactly one field (moviebanner or tvbanner) and never falls back to another
// provider or field. Every failure degrades to "no result".
type BannerResolver struct {
	fanart   ArtworkFetcher
	selector Selector
	cache    BannerCache
	cacheTTL time.Duration
	logger   *log.Logger
}

// NewBannerResolver creates a resolver backed by fanart.
func NewBannerResolver(fanart ArtworkFetcher, opts ResolverOpts) *BannerResolver {
	if opts.Selector == nil {
		opts.Selector = FirstSelector{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &BannerResolver{
		fanart:   fanart,
		selector: opts.Selector,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
}

// Configured reports whether lookups can reach Fanart.tv.
func (r *BannerResolver) Configured() bool {
	return r.fanart != nil && r.fanart.Configured()
}

// Resolve returns a banner for target, or ok == false when none is available.
func (r *BannerResolver) Resolve(ctx context.Context, target models.BannerTarget) (models.BannerResult, bool) {
	if !r.Configured() {
		r.logger.Warn("fanart api key not configured, banner lookup disabled")
		return models.BannerResult{}, false
	}

	field := BannerField(target.Kind)
	if field == "" || target.ID == "" {
		r.logger.Warn("invalid banner target", "kind", target.Kind, "id", target.ID)
		return models.BannerResult{}, false
	}

	if cached, ok := r.fromCache(target); ok {
		return cached, true
	}

	artwork, err := r.fanart.Artwork(ctx, target.Kind, target.ID)
	if err != nil {
		if errors.Is(err, shared.ErrBannerNotFound) {
			r.logger.Debug("no fanart entry", "kind", target.Kind, "id", target.ID)
		} else {
			r.logger.Warn("fanart lookup failed", "kind", target.Kind, "id", target.ID, "error", err)
		}
		return models.BannerResult{}, false
	}

	var urls []string
	for _, img := range artwork.Images[field] {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		r.logger.Debug("no banners for title", "kind", target.Kind, "id", target.ID, "available", artwork.Types())
		return models.BannerResult{}, false
	}

	title := artwork.Name
	if title == "" {
		title = target.DisplayName()
	}

	result := models.BannerResult{
		URL:    urls[r.selector.Select(len(urls))],
		Type:   field,
		Title:  title,
		Source: BannerSource,
	}

	r.toCache(target, result)
	return result, true
}

func (r *BannerResolver) fromCache(target models.BannerTarget) (models.BannerResult, bool) {
	if r.cache == nil {
		return models.BannerResult{}, false
	}
	cached, err := r.cache.CachedBanner(target, r.cacheTTL)
	if err != nil {
		r.logger.Warn("banner cache read failed", "error", err)
		return models.BannerResult{}, false
	}
	if cached == nil {
		return models.BannerResult{}, false
	}
	return *cached, true
}

func (r *BannerResolver) toCache(target models.BannerTarget, result models.BannerResult) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheBanner(target, result); err != nil {
		r.logger.Warn("banner cache write failed", "error", err)
	}
}
