// package services defines HTTP clients for the WebDavHub backend and third-party metadata providers
//
// Fanart.tv, TMDB
package services

import (
	"fmt"
	"strings"
)

// Provider is implemented by the third-party metadata clients.
type Provider interface {
	// Name returns the provider name (e.g., "fanart", "tmdb")
	Name() string

	// Configured reports whether usable credentials are present. Placeholder keys count as absent.
	Configured() bool
}

var (
	_ Provider = (*FanartService)(nil)
	_ Provider = (*TMDBService)(nil)
)

// Unconfigured returns the providers among ps that lack usable credentials, in order.
func Unconfigured(ps ...Provider) []Provider {
	var missing []Provider
	for _, p := range ps {
		if !p.Configured() {
			missing = append(missing, p)
		}
	}
	return missing
}

// CredentialHint names the config key and environment variable that configure p.
func CredentialHint(p Provider) string {
	return fmt.Sprintf("credentials.%s.api_key or %s_API_KEY", p.Name(), strings.ToUpper(p.Name()))
}

func (f *FanartService) Name() string { return "fanart" }
func (t *TMDBService) Name() string   { return "tmdb" }
