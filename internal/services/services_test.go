package services

import (
	"slices"
	"testing"

	"github.com/desertthunder/cinesync/internal/shared"
)

func TestProviders(t *testing.T) {
	fanart := NewFanartService("k", "", nil)
	tmdb := NewTMDBService(shared.TMDBConfig{APIKey: shared.TMDBKeyPlaceholder}, nil)

	t.Run("Unconfigured", func(t *testing.T) {
		names := func(ps []Provider) []string {
			out := make([]string, len(ps))
			for i, p := range ps {
				out[i] = p.Name()
			}
			return out
		}

		if got := names(Unconfigured(fanart, tmdb)); !slices.Equal(got, []string{"tmdb"}) {
			t.Errorf("Unconfigured() = %v, want [tmdb]", got)
		}
		if got := Unconfigured(fanart); len(got) != 0 {
			t.Errorf("expected no missing providers, got %v", names(got))
		}
		if got := names(Unconfigured(NewFanartService("", "", nil), tmdb)); !slices.Equal(got, []string{"fanart", "tmdb"}) {
			t.Errorf("Unconfigured() = %v, want [fanart tmdb]", got)
		}
	})

	t.Run("CredentialHint", func(t *testing.T) {
		tc := map[string]Provider{
			"credentials.fanart.api_key or FANART_API_KEY": fanart,
			"credentials.tmdb.api_key or TMDB_API_KEY":     tmdb,
		}
		for want, p := range tc {
			if got := CredentialHint(p); got != want {
				t.Errorf("CredentialHint(%s) = %q, want %q", p.Name(), got, want)
			}
		}
	})
}
