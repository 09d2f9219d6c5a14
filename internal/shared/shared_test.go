package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIsPlaceholderKey(t *testing.T) {
	tc := []struct {
		name string
		key  string
		want bool
	}{
		{name: "empty", key: "", want: true},
		{name: "whitespace", key: "   ", want: true},
		{name: "fanart sentinel", key: FanartKeyPlaceholder, want: true},
		{name: "tmdb sentinel", key: TMDBKeyPlaceholder, want: true},
		{name: "real key", key: "abc123", want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaceholderKey(tt.key); got != tt.want {
				t.Errorf("IsPlaceholderKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestFirstKey(t *testing.T) {
	tc := []struct {
		name       string
		candidates []string
		want       string
	}{
		{name: "none", candidates: nil, want: ""},
		{name: "all placeholders", candidates: []string{"", FanartKeyPlaceholder}, want: ""},
		{name: "skips placeholder", candidates: []string{FanartKeyPlaceholder, " real "}, want: "real"},
		{name: "first wins", candidates: []string{"one", "two"}, want: "one"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstKey(tt.candidates...); got != tt.want {
				t.Errorf("FirstKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "abc", want: "•••"},
		{in: "abcdefgh1234", want: "••••••••1234"},
		{in: "€€", want: "••"},
		{in: "clé-€€€€", want: "••••••••€€€€"},
		{in: "пароль", want: "••••••••роль"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got := MaskSecret(tt.in)
			if got != tt.want {
				t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("MaskSecret(%q) produced invalid UTF-8 %q", tt.in, got)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")
		if !bytes.Contains(buf.Bytes(), []byte("component=test")) {
			t.Errorf("expected key-value pair in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "cinesync.log")
		logger, closer, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("written")

		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || !strings.Contains(string(data), "written") {
			t.Errorf("expected log line in file, got %q (%v)", data, err)
		}
		if err := closer.Close(); err == nil {
			t.Error("expected second Close to fail on a closed file")
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty IDs, got %q and %q", a, b)
	}
}

func TestOpenBrowserUnsupported(t *testing.T) {
	orig := getRuntime
	t.Cleanup(func() { getRuntime = orig })
	getRuntime = func() string { return "plan9" }

	if err := OpenBrowser("https://example.com"); err == nil {
		t.Error("expected error on unsupported platform")
	}
}

func TestOpenBrowserRejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"file:///etc/passwd", "not a url", ""} {
		if err := OpenBrowser(raw); err == nil {
			t.Errorf("OpenBrowser(%q) expected error", raw)
		}
	}
}
