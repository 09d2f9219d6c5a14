package formatter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/cinesync/internal/models"
)

// maxImageSize caps downloads; Fanart banners are well under a megabyte.
const maxImageSize = 20 << 20

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	return data, nil
}

// fileSafe keeps ids and image types from adding path elements to a file name.
var fileSafe = strings.NewReplacer("/", "_", "\\", "_", "..", "_")

// BannerFilename names a downloaded banner {kind}_{id}_{type}{ext}, keeping the URL's extension.
func BannerFilename(target models.BannerTarget, banner models.BannerResult) string {
	ext := ".jpg"
	if u, err := url.Parse(banner.URL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e == ".png" || e == ".jpg" || e == ".jpeg" || e == ".webp" {
			ext = e
		}
	}
	return fmt.Sprintf("%s_%s_%s%s", target.Kind, fileSafe.Replace(target.ID), fileSafe.Replace(banner.Type), ext)
}

// SaveBanner downloads banner into dir and returns the written path.
func SaveBanner(ctx context.Context, client *http.Client, dir string, target models.BannerTarget, banner models.BannerResult) (string, error) {
	data, err := DownloadImage(ctx, client, banner.URL)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file := filepath.Join(dir, BannerFilename(target, banner))
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save banner: %w", err)
	}
	return file, nil
}
