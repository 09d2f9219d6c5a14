package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
	tu "github.com/desertthunder/cinesync/internal/testing"
)

func testItems() []models.ConfigItem {
	return []models.ConfigItem{
		{Key: "SOURCE_DIR", Value: "/media/src", Category: "Directory Paths", Type: models.ConfigString, Required: true},
		{Key: "CINESYNC_PASSWORD", Value: "hunter2", Category: "CineSync Configuration", Type: models.ConfigString, Locked: true, LockedBy: "environment"},
	}
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://nas.local:8082/", customClient)

			if srv.BaseURL() != "http://nas.local:8082" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL and Nil Client", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != "http://localhost:8082" {
				t.Errorf("expected default baseURL 'http://localhost:8082', got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				w.Header().Set("X-Custom-Header", "test-value")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/api/health")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Errorf("expected OK JSON response, got %+v", resp)
			}
			if resp.Headers.Get("X-Custom-Header") != "test-value" {
				t.Errorf("expected custom header, got %s", resp.Headers.Get("X-Custom-Header"))
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/echo", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated || !resp.IsJSON {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("GetConfig", func(t *testing.T) {
		t.Run("Busts Caches", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/config" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("t") != "1700000000000" {
					t.Errorf("expected cache-busting t param, got %q", r.URL.RawQuery)
				}
				if r.Header.Get("Cache-Control") != "no-cache" || r.Header.Get("Pragma") != "no-cache" {
					t.Errorf("expected no-cache headers, got %v", r.Header)
				}
				json.NewEncoder(w).Encode(models.ConfigResponse{Config: testItems(), Status: "ok"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			srv.now = func() time.Time { return time.UnixMilli(1700000000000) }

			items, err := srv.GetConfig(context.Background())
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}
			if len(items) != 2 || items[1].LockedBy != "environment" {
				t.Errorf("unexpected items %+v", items)
			}
		})

		t.Run("Non-Success Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "database locked", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).GetConfig(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "database locked") {
				t.Errorf("expected ErrAPIRequest with body, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("refused"))}
			_, err := NewAPIService("http://example.com", client).GetConfig(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).GetConfig(context.Background()); err == nil {
				t.Error("expected decode error")
			}
		})
	})

	t.Run("UpdateConfig", func(t *testing.T) {
		t.Run("Sends Batch", func(t *testing.T) {
			backend := tu.NewConfigServer(t, testItems())
			srv := NewAPIService(backend.URL, nil)

			updates := []models.ConfigUpdate{{Key: "SOURCE_DIR", Value: "/new", Type: models.ConfigString, Required: true}}
			if err := srv.UpdateConfig(context.Background(), updates); err != nil {
				t.Fatalf("UpdateConfig() error = %v", err)
			}

			if len(backend.Updates) != 1 || backend.Updates[0][0] != updates[0] {
				t.Errorf("unexpected recorded updates %+v", backend.Updates)
			}
			if backend.Items()[0].Value != "/new" {
				t.Errorf("expected backend to apply update, got %+v", backend.Items()[0])
			}
		})

		t.Run("Requires 200", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			}))
			defer server.Close()

			err := NewAPIService(server.URL, nil).UpdateConfig(context.Background(), nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest for 202, got %v", err)
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			backend := tu.NewConfigServer(t, testItems())
			backend.FailUpdates(http.StatusBadRequest)

			err := NewAPIService(backend.URL, nil).UpdateConfig(context.Background(), []models.ConfigUpdate{{Key: "SOURCE_DIR", Value: "x"}})
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "update rejected") {
				t.Errorf("expected rejection error, got %v", err)
			}
		})
	})

	t.Run("ConfigStatus", func(t *testing.T) {
		backend := tu.NewConfigServer(t, testItems())
		backend.SetStatus(models.ConfigStatus{IsPlaceholder: true, DestinationDir: "/path/to/destination", NeedsConfiguration: true})

		status, err := NewAPIService(backend.URL, nil).ConfigStatus(context.Background())
		if err != nil {
			t.Fatalf("ConfigStatus() error = %v", err)
		}
		if !status.IsPlaceholder || !status.NeedsConfiguration || status.DestinationDir != "/path/to/destination" {
			t.Errorf("unexpected status %+v", status)
		}
	})
}
