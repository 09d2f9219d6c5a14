// Package tasks implements banner lookup and rotation on top of the metadata provider clients.
//
// # Lookup Policy
//
// [BannerResolver] uses a strict single-provider policy:
//   - Only Fanart.tv is queried, with the title's TMDB id
//   - Only moviebanner (movies) or tvbanner (shows) is consulted
//   - A [Selector] picks one image: [FirstSelector] by default, [RandomSelector] with a fixed seed
//   - Missing keys, transport errors, non-success statuses and empty lists all yield ok == false
//
// There is no fallback to TMDB backdrops or to other Fanart.tv image types.
//
// # Rotation
//
// [BannerRotator] refreshes a header banner every interval (5 minutes by default).
// Each refresh fetches popular movies and shows concurrently, then tries up to five random
// candidates through the resolver, rate limited with [rate.Limiter].
// Found banners are published as [events.BannerChanged]. Results arriving after the
// context is cancelled are dropped silently.
//
// # Bulk Lookup
//
// [BulkResolve] resolves a list of targets with a rate-limited worker pool and can
// download each found image.
//
// # Progress Reporting
//
// Rotation and bulk lookups report [ProgressUpdate] values through optional channels.
// Updates use select with default to prevent blocking.
//
// # Caching
//
// The optional [BannerCache] interface (repositories.BannerCacheAdapter) short-circuits
// lookups for titles resolved within the cache TTL. Cache errors are logged and ignored.
package tasks
