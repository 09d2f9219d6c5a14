// Package server exposes the banner resolver over HTTP for local frontends.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Banner Handler
//
// [BannerHandler] serves:
//
//	GET /api/banner                  → the rotator's current banner (204 when none yet)
//	GET /api/banner/{kind}/{id}      → a strict Fanart lookup for one title (404 when none)
//	GET /api/banner/events           → server-sent banner.changed events
//
// The JSON body is the resolver's result shape: url, type, title and source.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
