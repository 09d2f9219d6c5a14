// Package repositories implements SQLite persistence for the cinesync client.
//
// Key Implementations:
//   - [BannerRepository] : resolved banners, soft deleted and ordered by sequence
//   - [BannerCacheAdapter] : the banner resolver's cache, backed by [BannerRepository]
//   - [ConfigSaveRepository] : an audit log of config batches accepted by the backend
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
