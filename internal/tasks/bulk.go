package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/cinesync/internal/models"
	"golang.org/x/time/rate"
)

// BulkOpts contains configuration for resolving many titles at once.
type BulkOpts struct {
	NumWorkers int     // Concurrent lookups (default: 4, max: 8)
	RateLimit  float64 // Lookups per second (default: 2)

	// Download, when set, saves a found image and returns its path.
	Download func(ctx context.Context, target models.BannerTarget, banner models.BannerResult) (string, error)
}

// BulkItem is the outcome for one target.
type BulkItem struct {
	Target models.BannerTarget
	Banner models.BannerResult
	Found  bool
	File   string // set when Download succeeded
	Error  error  // download failure; lookups themselves never error
}

// BulkResult collects the outcome of [BulkResolve] in input order.
type BulkResult struct {
	Items   []BulkItem
	Found   int
	Missing int
}

type bulkJob struct {
	index  int
	target models.BannerTarget
}

// BulkResolve resolves targets with a rate-limited worker pool.
//
// Cancelling ctx stops dispatching; targets never attempted are reported as missing.
func BulkResolve(ctx context.Context, prog chan<- ProgressUpdate, resolver *BannerResolver, targets []models.BannerTarget, opts BulkOpts) *BulkResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	result := &BulkResult{Items: make([]BulkItem, len(targets))}
	for i, t := range targets {
		result.Items[i] = BulkItem{Target: t}
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan bulkJob)
	done := make(chan int, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				item := &result.Items[job.index]
				item.Banner, item.Found = resolver.Resolve(ctx, job.target)
				if item.Found && opts.Download != nil {
					item.File, item.Error = opts.Download(ctx, job.target, item.Banner)
				}
				done <- job.index
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range targets {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, resolveAttemptUpdate(i+1, len(targets), t))
			select {
			case jobs <- bulkJob{index: i, target: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		item := result.Items[idx]
		if item.Found {
			sendProgress(prog, bannerFoundUpdate(completed, len(targets), Rotation{Target: item.Target, Banner: item.Banner}))
		} else {
			sendProgress(prog, ProgressUpdate{
				Phase:   BannerMissing,
				Step:    completed,
				Total:   len(targets),
				Message: fmt.Sprintf("[%d/%d] ✗ %s", completed, len(targets), item.Target.DisplayName()),
			})
		}
	}

	for _, item := range result.Items {
		if item.Found {
			result.Found++
		} else {
			result.Missing++
		}
	}
	return result
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
