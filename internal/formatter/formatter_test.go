package formatter

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/settings"
	th "github.com/desertthunder/cinesync/internal/testing"
)

type staticBackend []models.ConfigItem

func (b staticBackend) GetConfig(context.Context) ([]models.ConfigItem, error) {
	return append([]models.ConfigItem(nil), b...), nil
}

func (b staticBackend) UpdateConfig(context.Context, []models.ConfigUpdate) error { return nil }

func testSession(t *testing.T) *settings.Session {
	t.Helper()

	s := settings.NewSession(staticBackend{
		{Key: "SOURCE_DIR", Value: "/mnt/media", Category: "Directory Paths", Type: models.ConfigString, Required: true},
		{Key: "TMDB_API_KEY", Value: "abcdef123456", Category: "API Configuration", Type: models.ConfigString},
		{Key: "CINESYNC_IP", Value: "0.0.0.0", Category: "CineSync Configuration", Locked: true, LockedBy: "docker"},
		{Key: "INTERNAL_ONLY", Value: "x", Category: "System Configuration", Hidden: true},
	}, settings.Options{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s.SetFieldValue("SOURCE_DIR", "/mnt/media|new")
	return s
}

func TestNewConfigExport(t *testing.T) {
	t.Run("masks secrets and skips hidden items", func(t *testing.T) {
		export := NewConfigExport(testSession(t), false)

		if export.Len() != 3 {
			t.Fatalf("expected 3 rows, got %d", export.Len())
		}
		if export.Sections[0].Info.Category != "Directory Paths" {
			t.Errorf("expected Directory Paths first, got %s", export.Sections[0].Info.Category)
		}

		rows := map[string]ConfigRow{}
		for _, s := range export.Sections {
			for _, r := range s.Rows {
				rows[r.Key] = r
			}
		}

		if got := rows["TMDB_API_KEY"]; got.Value == "abcdef123456" || !strings.HasSuffix(got.Value, "3456") || got.Type != settings.KindPassword {
			t.Errorf("expected masked password row, got %+v", got)
		}
		if got := rows["SOURCE_DIR"]; got.Value != "/mnt/media|new" || !got.Modified || got.Label != "Source Dir" {
			t.Errorf("expected pending value, got %+v", got)
		}
		if got := rows["CINESYNC_IP"]; got.Note != "locked by docker" {
			t.Errorf("expected lock note, got %+v", got)
		}
	})

	t.Run("reveal", func(t *testing.T) {
		export := NewConfigExport(testSession(t), true)
		for _, s := range export.Sections {
			for _, r := range s.Rows {
				if r.Key == "TMDB_API_KEY" && r.Value != "abcdef123456" {
					t.Errorf("expected revealed secret, got %s", r.Value)
				}
			}
		}
	})
}

func TestExporters(t *testing.T) {
	export := NewConfigExport(testSession(t), false)
	export.Exported = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("ExportConfigToCSV", func(t *testing.T) {
		data, err := ExportConfigToCSV(export)
		if err != nil {
			t.Fatalf("ExportConfigToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Category,Key,Value,Type,Required,Modified,Note" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][1] != "SOURCE_DIR" || records[1][4] != "true" || records[1][5] != "true" {
			t.Errorf("unexpected first row %v", records[1])
		}
	})

	t.Run("ExportConfigToMarkdown", func(t *testing.T) {
		data, err := ExportConfigToMarkdown(export)
		if err != nil {
			t.Fatalf("ExportConfigToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"# CineSync Configuration", "**Settings**: 3", "## Directory Paths", "`SOURCE_DIR` *", `/mnt/media\|new`} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "abcdef123456") {
			t.Error("Markdown leaked a secret")
		}
	})

	t.Run("ExportConfigToText", func(t *testing.T) {
		data, err := ExportConfigToText(export)
		if err != nil {
			t.Fatalf("ExportConfigToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "* SOURCE_DIR = /mnt/media|new") {
			t.Errorf("text missing modified marker, got:\n%s", output)
		}
		if !strings.Contains(output, "  CINESYNC_IP = 0.0.0.0") {
			t.Errorf("text missing unmodified row, got:\n%s", output)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"txt", FormatText},
		{"", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
			}
		})
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteConfigExport(t *testing.T) {
	export := NewConfigExport(testSession(t), false)
	dir := t.TempDir()

	path, err := WriteConfigExport(export, FormatCSV, filepath.Join(dir, "nested", "config.csv"))
	if err != nil {
		t.Fatalf("WriteConfigExport failed: %v", err)
	}
	th.AssertFileExists(t, path)
	if !strings.HasPrefix(th.MustReadFile(t, path), "Category,Key") {
		t.Error("expected CSV content")
	}

	if _, err := WriteConfigExport(export, FormatText, filepath.Join(path, "under-a-file.txt")); err == nil {
		t.Error("expected error writing below a regular file")
	}
}

func TestTables(t *testing.T) {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	banners := []*models.PersistedBanner{{
		Sequence: 7,
		Kind:     models.MediaMovie,
		MediaID:  "550",
		Banner:   models.BannerResult{URL: "https://a/1.jpg", Type: "moviebanner", Title: "Fight Club", Source: "fanart"},
		Updated:  updated,
	}}

	out := BannerTable(banners)
	for _, want := range []string{"Fight Club", "moviebanner", "550", "https://a/1.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner table missing %q:\n%s", want, out)
		}
	}

	saves := []*models.ConfigSave{{Keys: []string{"SOURCE_DIR", "TMDB_API_KEY"}, ChangeCount: 2, Created: updated}}
	if out := SaveTable(saves); !strings.Contains(out, "SOURCE_DIR, TMDB_API_KEY") {
		t.Errorf("save table missing keys:\n%s", out)
	}

	infos := []models.CategoryInfo{{Name: "Directory Paths", ItemCount: 3, RequiredCount: 1}}
	if out := CategoryTable(infos); !strings.Contains(out, "Directory Paths") {
		t.Errorf("category table missing name:\n%s", out)
	}

	lines := StatusLines(&models.ConfigStatus{NeedsConfiguration: true, DestinationDir: "/mnt/dest"}, updated)
	if !strings.Contains(strings.Join(lines, "\n"), "Needs configuration:  yes") {
		t.Errorf("unexpected status lines %v", lines)
	}
}

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("fake image data"))
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		data, err := DownloadImage(ctx, server.Client(), server.URL+"/banner.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "fake image data" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := DownloadImage(ctx, nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
		if _, err := DownloadImage(ctx, server.Client(), server.URL+"/missing.jpg"); err == nil {
			t.Error("expected error for 404")
		}

		client := &http.Client{Transport: th.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(&th.FCloser{}),
		}, nil)}
		if _, err := DownloadImage(ctx, client, "https://a/1.jpg"); err == nil {
			t.Error("expected read error")
		}

		client = &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("network down"))}
		if _, err := DownloadImage(ctx, client, "https://a/1.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("SaveBanner", func(t *testing.T) {
		dir := t.TempDir()
		target := models.BannerTarget{Kind: models.MediaTV, ID: "1399"}
		banner := models.BannerResult{URL: server.URL + "/got.PNG", Type: "tvbanner"}

		path, err := SaveBanner(ctx, server.Client(), dir, target, banner)
		if err != nil {
			t.Fatalf("SaveBanner failed: %v", err)
		}
		if filepath.Base(path) != "tv_1399_tvbanner.png" {
			t.Errorf("unexpected filename %s", path)
		}
		if th.MustReadFile(t, path) != "fake image data" {
			t.Error("unexpected file content")
		}
	})
}

func TestBannerFilename(t *testing.T) {
	target := models.BannerTarget{Kind: models.MediaMovie, ID: "550"}
	tests := []struct {
		url  string
		want string
	}{
		{"https://a/b.jpg", "movie_550_moviebanner.jpg"},
		{"https://a/b.webp?x=1", "movie_550_moviebanner.webp"},
		{"https://a/b", "movie_550_moviebanner.jpg"},
		{"https://a/b.exe", "movie_550_moviebanner.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := BannerFilename(target, models.BannerResult{URL: tt.url, Type: "moviebanner"})
			if got != tt.want {
				t.Errorf("BannerFilename() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBannerFilenameStaysInDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "banners")
	for _, id := range []string{"x/../../../outside", `..\..\evil`, "..", "a/b"} {
		t.Run(id, func(t *testing.T) {
			name := BannerFilename(models.BannerTarget{Kind: models.MediaMovie, ID: id}, models.BannerResult{URL: "https://a/b.jpg", Type: "moviebanner"})
			if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
				t.Errorf("BannerFilename(%q) = %q still has path elements", id, name)
			}
			if got := filepath.Dir(filepath.Join(dir, name)); got != dir {
				t.Errorf("joined path escapes %s: %s", dir, got)
			}
		})
	}
}
