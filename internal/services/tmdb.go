// TMDB v3 client for popular title listings
//
// API reference: https://developer.themoviedb.org/reference
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const defaultTMDBBaseURL = "https://api.themoviedb.org"

// PopularTitle is one entry of a popular listing.
type PopularTitle struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"` // movies
	Name         string  `json:"name"`  // shows
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
}

// DisplayName returns the title for movies and the name for shows.
func (p PopularTitle) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// Target converts the entry to a banner lookup target.
func (p PopularTitle) Target(kind models.MediaKind) models.BannerTarget {
	return models.BannerTarget{Kind: kind, ID: strconv.Itoa(p.ID), Name: p.DisplayName()}
}

type popularPage struct {
	Page    int            `json:"page"`
	Results []PopularTitle `json:"results"`
}

// TMDBService lists popular titles. A read access token is sent as an OAuth2 bearer token;
// otherwise the v3 api key is appended to each request.
type TMDBService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	bearer     bool
}

// NewTMDBService creates a TMDB client from cfg. client is the base transport and may be nil.
func NewTMDBService(cfg shared.TMDBConfig, client *http.Client) *TMDBService {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTMDBBaseURL
	}

	svc := &TMDBService{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}

	if token := strings.TrimSpace(cfg.ReadAccessToken); !shared.IsPlaceholderKey(token) {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		svc.httpClient = oauth2.NewClient(ctx, ts)
		svc.bearer = true
	}
	return svc
}

// Configured reports whether either credential is usable.
func (t *TMDBService) Configured() bool {
	return t.bearer || !shared.IsPlaceholderKey(t.apiKey)
}

// Popular fetches one page of popular movies or shows.
func (t *TMDBService) Popular(ctx context.Context, kind models.MediaKind, page int) ([]PopularTitle, error) {
	if !t.Configured() {
		return nil, fmt.Errorf("%w: tmdb api key", shared.ErrMissingCredentials)
	}
	if kind != models.MediaMovie && kind != models.MediaTV {
		return nil, fmt.Errorf("%w: media kind %q", shared.ErrInvalidArgument, kind)
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{"language": {"en-US"}, "page": {strconv.Itoa(page)}}
	if !t.bearer {
		q.Set("api_key", t.apiKey)
	}
	endpoint := fmt.Sprintf("%s/3/%s/popular?%s", t.baseURL, kind, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tmdb request failed: %w", shared.ErrAPIRequest, redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: tmdb API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var body popularPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode tmdb response: %w", err)
	}
	return body.Results, nil
}

// PopularAll fetches the first page of popular movies and shows concurrently.
func (t *TMDBService) PopularAll(ctx context.Context) (movies, shows []PopularTitle, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		movies, err = t.Popular(gctx, models.MediaMovie, 1)
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = t.Popular(gctx, models.MediaTV, 1)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return movies, shows, nil
}
