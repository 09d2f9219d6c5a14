// Fanart.tv v3 artwork client
//
// Response shape based on https://fanarttv.docs.apiary.io
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

const (
	defaultFanartBaseURL = "https://webservice.fanart.tv"
	// Fight Club; present in every Fanart.tv dataset
	fanartCheckMovieID = "550"
)

// FanartImage is one artwork entry.
type FanartImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Lang   string `json:"lang"`
	Likes  string `json:"likes"`
	Season string `json:"season,omitempty"`
}

// FanartArtwork is the per-title response: a display name plus image lists keyed by image type
// (moviebanner, tvbanner, hdmovielogo, ...).
type FanartArtwork struct {
	Name   string
	Images map[string][]FanartImage
}

func (a *FanartArtwork) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Images = make(map[string][]FanartImage)
	for key, value := range raw {
		if key == "name" {
			if err := json.Unmarshal(value, &a.Name); err != nil {
				return fmt.Errorf("fanart name: %w", err)
			}
			continue
		}

		var images []FanartImage
		if err := json.Unmarshal(value, &images); err != nil {
			continue // scalar ids such as tmdb_id and thetvdb_id
		}
		a.Images[key] = images
	}
	return nil
}

// Types returns the image types present in the response, sorted.
func (a *FanartArtwork) Types() []string {
	return slices.Sorted(maps.Keys(a.Images))
}

// KeyCheck is the outcome of probing the Fanart.tv API with the configured key.
type KeyCheck struct {
	Valid      bool
	Message    string
	ImageTypes int
}

// FanartService fetches artwork from Fanart.tv.
type FanartService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFanartService creates a Fanart.tv client. Empty baseURL and nil client select the defaults.
func NewFanartService(apiKey, baseURL string, client *http.Client) *FanartService {
	if baseURL == "" {
		baseURL = defaultFanartBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FanartService{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Configured reports whether the key is usable; placeholders count as absent.
func (f *FanartService) Configured() bool {
	return !shared.IsPlaceholderKey(f.apiKey)
}

func (f *FanartService) endpoint(kind models.MediaKind, id string) (string, error) {
	var segment string
	switch kind {
	case models.MediaMovie:
		segment = "movies"
	case models.MediaTV:
		segment = "tv"
	default:
		return "", fmt.Errorf("%w: media kind %q", shared.ErrInvalidArgument, kind)
	}
	q := url.Values{"api_key": {f.apiKey}}
	return fmt.Sprintf("%s/v3/%s/%s?%s", f.baseURL, segment, url.PathEscape(id), q.Encode()), nil
}

// Artwork fetches every image list Fanart.tv has for the title.
//
// A 404 wraps [shared.ErrBannerNotFound]; other non-2xx statuses wrap [shared.ErrAPIRequest].
func (f *FanartService) Artwork(ctx context.Context, kind models.MediaKind, id string) (*FanartArtwork, error) {
	if !f.Configured() {
		return nil, fmt.Errorf("%w: fanart api key", shared.ErrMissingCredentials)
	}

	endpoint, err := f.endpoint(kind, id)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fanart request failed: %w", shared.ErrAPIRequest, redactURLError(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: fanart has no artwork for %s %s", shared.ErrBannerNotFound, kind, id)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: fanart API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var artwork FanartArtwork
	if err := json.NewDecoder(resp.Body).Decode(&artwork); err != nil {
		return nil, fmt.Errorf("failed to decode fanart response: %w", err)
	}
	return &artwork, nil
}

// CheckKey fetches a well-known movie to validate the configured key. It never returns an error.
func (f *FanartService) CheckKey(ctx context.Context) KeyCheck {
	if !f.Configured() {
		return KeyCheck{Message: "No valid API key to test"}
	}

	artwork, err := f.Artwork(ctx, models.MediaMovie, fanartCheckMovieID)
	if err != nil {
		return KeyCheck{Message: fmt.Sprintf("FAILED - %v", err)}
	}

	return KeyCheck{
		Valid:      true,
		Message:    fmt.Sprintf("SUCCESS - %s found with %d image types", artwork.Name, len(artwork.Images)),
		ImageTypes: len(artwork.Images),
	}
}

// redactURLError strips query strings (and so api keys) from transport errors.
func redactURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	redacted := *ue
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	} else {
		redacted.URL = "[redacted]"
	}
	return &redacted
}
