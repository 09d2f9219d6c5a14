package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/tasks"
)

// Resolver performs a single banner lookup.
type Resolver interface {
	Resolve(ctx context.Context, target models.BannerTarget) (models.BannerResult, bool)
}

// CurrentBanner reports the latest rotated banner.
type CurrentBanner interface {
	Current() (tasks.Rotation, bool)
}

// BannerHandler serves banner lookups and the rotation feed. Rotator and Bus may be nil.
type BannerHandler struct {
	resolver Resolver
	rotator  CurrentBanner
	bus      *events.Bus
	mux      *http.ServeMux
}

// NewBannerHandler creates a handler backed by resolver.
func NewBannerHandler(resolver Resolver, rotator CurrentBanner, bus *events.Bus) *BannerHandler {
	h := &BannerHandler{resolver: resolver, rotator: rotator, bus: bus, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /api/banner", h.current)
	h.mux.HandleFunc("GET /api/banner/events", h.stream)
	h.mux.HandleFunc("GET /api/banner/{kind}/{id}", h.lookup)
	return h
}

func (h *BannerHandler) Routes() []string {
	return []string{"/api/banner", "/api/banner/"}
}

func (h *BannerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *BannerHandler) current(w http.ResponseWriter, r *http.Request) {
	if h.rotator == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rot, ok := h.rotator.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, rot.Banner)
}

func (h *BannerHandler) lookup(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMediaKind(r.PathValue("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	target := models.BannerTarget{Kind: kind, ID: r.PathValue("id")}
	banner, ok := h.resolver.Resolve(r.Context(), target)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no banner for " + target.DisplayName()})
		return
	}
	writeJSON(w, http.StatusOK, banner)
}

// stream writes banner.changed events as server-sent events until the client goes away.
func (h *BannerHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || h.bus == nil {
		http.Error(w, "streaming unsupported", http.StatusNotImplemented)
		return
	}

	ch := h.bus.Subscribe(events.TypeBannerChanged)
	defer h.bus.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			changed, isBanner := ev.(events.BannerChanged)
			if !isBanner {
				continue
			}
			data, err := json.Marshal(changed.Banner)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.EventType(), data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
