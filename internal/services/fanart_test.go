package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
	tu "github.com/desertthunder/cinesync/internal/testing"
)

const fightClubJSON = `{
	"name": "Fight Club",
	"tmdb_id": "550",
	"imdb_id": "tt0137523",
	"moviebanner": [
		{"id": "1", "url": "https://assets.fanart.tv/fanart/movies/550/moviebanner/fight-club-a.jpg", "lang": "en", "likes": "4"},
		{"id": "2", "url": "https://assets.fanart.tv/fanart/movies/550/moviebanner/fight-club-b.jpg", "lang": "en", "likes": "1"}
	],
	"hdmovielogo": [
		{"id": "3", "url": "https://assets.fanart.tv/fanart/movies/550/hdmovielogo/fight-club.png", "lang": "en", "likes": "9"}
	]
}`

func TestFanartArtwork(t *testing.T) {
	var a FanartArtwork
	if err := a.UnmarshalJSON([]byte(fightClubJSON)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	if a.Name != "Fight Club" {
		t.Errorf("expected name Fight Club, got %q", a.Name)
	}
	if got := a.Types(); !slices.Equal(got, []string{"hdmovielogo", "moviebanner"}) {
		t.Errorf("Types() = %v", got)
	}
	if len(a.Images["moviebanner"]) != 2 || a.Images["moviebanner"][0].ID != "1" {
		t.Errorf("unexpected moviebanner list %+v", a.Images["moviebanner"])
	}

	if err := a.UnmarshalJSON([]byte(`{"name": 5}`)); err == nil {
		t.Error("expected error for non-string name")
	}
	if err := a.UnmarshalJSON([]byte(`[]`)); err == nil {
		t.Error("expected error for non-object body")
	}
}

func TestFanartService(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		tc := map[string]bool{
			"":                          false,
			shared.FanartKeyPlaceholder: false,
			"real-key":                  true,
		}
		for key, want := range tc {
			if got := NewFanartService(key, "", nil).Configured(); got != want {
				t.Errorf("Configured(%q) = %v, want %v", key, got, want)
			}
		}
	})

	t.Run("Artwork Movie", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v3/movies/550" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("api_key") != "k" {
				t.Errorf("expected api_key k, got %q", r.URL.Query().Get("api_key"))
			}
			w.Write([]byte(fightClubJSON))
		}))
		defer server.Close()

		a, err := NewFanartService("k", server.URL, nil).Artwork(context.Background(), models.MediaMovie, "550")
		if err != nil {
			t.Fatalf("Artwork() error = %v", err)
		}
		if len(a.Images["moviebanner"]) != 2 {
			t.Errorf("expected two banners, got %+v", a.Images)
		}
	})

	t.Run("Artwork TV", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v3/tv/1399" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"name": "Game of Thrones", "thetvdb_id": "121361", "tvbanner": [{"id": "9", "url": "https://x/tv.jpg"}]}`))
		}))
		defer server.Close()

		a, err := NewFanartService("k", server.URL, nil).Artwork(context.Background(), models.MediaTV, "1399")
		if err != nil {
			t.Fatalf("Artwork() error = %v", err)
		}
		if a.Name != "Game of Thrones" || len(a.Images["tvbanner"]) != 1 {
			t.Errorf("unexpected artwork %+v", a)
		}
	})

	t.Run("Placeholder Key Makes No Request", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("should not be called"))
		svc := NewFanartService(shared.FanartKeyPlaceholder, "", &http.Client{Transport: rt})

		_, err := svc.Artwork(context.Background(), models.MediaMovie, "550")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if rt.Calls != 0 {
			t.Errorf("expected no requests, got %d", rt.Calls)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := NewFanartService("k", server.URL, nil).Artwork(context.Background(), models.MediaTV, "1")
		if !errors.Is(err, shared.ErrBannerNotFound) {
			t.Errorf("expected ErrBannerNotFound, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewFanartService("k", server.URL, nil).Artwork(context.Background(), models.MediaMovie, "1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Invalid Kind", func(t *testing.T) {
		_, err := NewFanartService("k", "", nil).Artwork(context.Background(), "anime", "1")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Transport Error Hides Key", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: refused"))}

		_, err := NewFanartService("super-secret", "http://fanart.invalid", client).Artwork(context.Background(), models.MediaMovie, "550")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if strings.Contains(err.Error(), "super-secret") {
			t.Errorf("api key leaked into error: %v", err)
		}
	})

	t.Run("CheckKey", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("api_key") != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(fightClubJSON))
		}))
		defer server.Close()

		ok := NewFanartService("good", server.URL, nil).CheckKey(context.Background())
		if !ok.Valid || ok.ImageTypes != 2 || ok.Message != "SUCCESS - Fight Club found with 2 image types" {
			t.Errorf("unexpected check %+v", ok)
		}

		bad := NewFanartService("bad", server.URL, nil).CheckKey(context.Background())
		if bad.Valid || !strings.HasPrefix(bad.Message, "FAILED") {
			t.Errorf("unexpected check %+v", bad)
		}

		missing := NewFanartService("", server.URL, nil).CheckKey(context.Background())
		if missing.Valid || missing.Message != "No valid API key to test" {
			t.Errorf("unexpected check %+v", missing)
		}
	})
}
