package tasks

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/services"
	"github.com/desertthunder/cinesync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultMaxAttempts     = 5
	defaultRateLimit       = 2.0
)

// PopularLister is the TMDB client as seen by the rotator.
type PopularLister interface {
	Configured() bool
	PopularAll(ctx context.Context) (movies, shows []services.PopularTitle, err error)
}

// Rotation is a banner together with the title it was found for.
type Rotation struct {
	Target models.BannerTarget
	Banner models.BannerResult
}

// RotatorOpts configures a [BannerRotator]. Zero values select the defaults
// (5 minutes, 5 attempts, 2 lookups per second).
type RotatorOpts struct {
	Interval    time.Duration
	MaxAttempts int
	RateLimit   float64
	Seed        uint64 // candidate order; zero draws a random seed
	Bus         *events.Bus
	Logger      *log.Logger
	Progress    chan<- ProgressUpdate
}

// BannerRotator periodically picks a popular title and resolves a banner for it.
//
// Candidate choice is random, but every lookup goes through the strict [BannerResolver].
type BannerRotator struct {
	resolver *BannerResolver
	popular  PopularLister
	opts     RotatorOpts
	limiter  *rate.Limiter

	mu      sync.Mutex
	rng     *rand.Rand
	current *Rotation
}

// NewBannerRotator creates a rotator drawing candidates from popular.
func NewBannerRotator(resolver *BannerResolver, popular PopularLister, opts RotatorOpts) *BannerRotator {
	if opts.Interval <= 0 {
		opts.Interval = defaultRefreshInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &BannerRotator{
		resolver: resolver,
		popular:  popular,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		rng:      rand.New(rand.NewPCG(seed, ^seed)),
	}
}

func (r *BannerRotator) sendProgress(update ProgressUpdate) {
	sendProgress(r.opts.Progress, update)
}

// Current returns the last banner found, if any.
func (r *BannerRotator) Current() (Rotation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Rotation{}, false
	}
	return *r.current, true
}

func (r *BannerRotator) pick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Refresh performs one rotation. It reports ok == false when nothing was found, when either
// key is missing or when ctx was cancelled before a result arrived.
func (r *BannerRotator) Refresh(ctx context.Context) (Rotation, bool) {
	if !r.resolver.Configured() {
		r.opts.Logger.Warn("fanart api key not configured, banner rotation disabled")
		return Rotation{}, false
	}
	if r.popular == nil || !r.popular.Configured() {
		r.opts.Logger.Warn("tmdb api key not configured, banner rotation disabled")
		return Rotation{}, false
	}

	r.sendProgress(fetchPopularUpdate())
	movies, shows, err := r.popular.PopularAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.opts.Logger.Warn("failed to fetch popular titles", "error", err)
		}
		return Rotation{}, false
	}
	r.sendProgress(popularFetchedUpdate(len(movies), len(shows)))

	candidates := make([]models.BannerTarget, 0, len(movies)+len(shows))
	for _, m := range movies {
		candidates = append(candidates, m.Target(models.MediaMovie))
	}
	for _, s := range shows {
		candidates = append(candidates, s.Target(models.MediaTV))
	}
	if len(candidates) == 0 {
		r.opts.Logger.Warn("no popular titles to pick from")
		return Rotation{}, false
	}

	attempts := 0
	for attempts < r.opts.MaxAttempts {
		if err := r.limiter.Wait(ctx); err != nil {
			return Rotation{}, false
		}
		attempts++

		target := candidates[r.pick(len(candidates))]
		r.sendProgress(resolveAttemptUpdate(attempts, r.opts.MaxAttempts, target))

		banner, ok := r.resolver.Resolve(ctx, target)
		if ctx.Err() != nil {
			// torn down while the lookup was in flight
			return Rotation{}, false
		}
		if !ok {
			continue
		}

		rot := Rotation{Target: target, Banner: banner}
		r.mu.Lock()
		r.current = &rot
		r.mu.Unlock()

		r.opts.Bus.Publish(events.NewBannerChanged(target, banner))
		r.sendProgress(bannerFoundUpdate(attempts, r.opts.MaxAttempts, rot))
		r.opts.Logger.Info("banner updated", "title", banner.Title, "type", banner.Type, "attempts", attempts)
		return rot, true
	}

	r.sendProgress(bannerMissingUpdate(attempts))
	r.opts.Logger.Info("no banner found", "attempts", attempts)
	return Rotation{}, false
}

// Run refreshes immediately and then on every interval until ctx is cancelled.
//
// onBanner, if non-nil, is called with each banner found. Run returns nil on cancellation.
func (r *BannerRotator) Run(ctx context.Context, onBanner func(Rotation)) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		if rot, ok := r.Refresh(ctx); ok && onBanner != nil {
			onBanner(rot)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
