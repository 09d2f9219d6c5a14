// Package services implements the HTTP clients used by the cinesync CLI.
//
// # Backend
//
// [APIService] talks to the CineSync WebDavHub backend:
//   - GET /api/config : full configuration list, fetched with a cache-busting t parameter and no-cache headers
//   - POST /api/config/update : one batch of {key, value, type, required} records; only 200 counts as success
//   - GET /api/config-status : placeholder and destination directory health flags
//
// Raw [APIService.Get] and [APIService.Post] are used by the api debugging commands.
//
// # Metadata Providers
//
// Both providers implement [Provider]:
//   - [FanartService] : per-title artwork lists from Fanart.tv (api_key query parameter)
//   - [TMDBService] : popular movie and show listings from TMDB
//
// TMDB accepts either a v3 api key or a v4 read access token. The token is sent as an OAuth2
// bearer token through [oauth2.StaticTokenSource], so it never appears in URLs.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-success status
//   - [shared.ErrBannerNotFound] : Fanart.tv has no artwork for the title
//   - [shared.ErrMissingCredentials] : key absent or still the placeholder
//
// Transport errors have their query strings removed so api keys never reach logs.
package services
