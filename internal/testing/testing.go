// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/cinesync/internal/models"
)

// ConfigServer is an in-memory WebDavHub backend serving the configuration endpoints.
type ConfigServer struct {
	*httptest.Server

	mu          sync.Mutex
	items       []models.ConfigItem
	status      models.ConfigStatus
	updateCode  int
	configCode  int
	Updates     [][]models.ConfigUpdate
	ConfigCalls int
}

// NewConfigServer starts a backend holding items. It is closed when the test ends.
func NewConfigServer(t *testing.T, items []models.ConfigItem) *ConfigServer {
	t.Helper()

	cs := &ConfigServer{items: items, updateCode: http.StatusOK, configCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", cs.handleConfig)
	mux.HandleFunc("POST /api/config/update", cs.handleUpdate)
	mux.HandleFunc("GET /api/config-status", cs.handleStatus)

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

// FailUpdates makes POST /api/config/update answer with code.
func (cs *ConfigServer) FailUpdates(code int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.updateCode = code
}

// FailConfig makes GET /api/config answer with code.
func (cs *ConfigServer) FailConfig(code int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.configCode = code
}

// SetStatus sets the body served by GET /api/config-status.
func (cs *ConfigServer) SetStatus(status models.ConfigStatus) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status = status
}

// Items returns the server-side configuration.
func (cs *ConfigServer) Items() []models.ConfigItem {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]models.ConfigItem(nil), cs.items...)
}

func (cs *ConfigServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.ConfigCalls++

	if cs.configCode != http.StatusOK {
		http.Error(w, "config unavailable", cs.configCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ConfigResponse{Config: cs.items, Status: "ok"})
}

func (cs *ConfigServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var req models.ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cs.Updates = append(cs.Updates, req.Updates)

	if cs.updateCode != http.StatusOK {
		http.Error(w, "update rejected", cs.updateCode)
		return
	}

	for _, u := range req.Updates {
		for i := range cs.items {
			if cs.items[i].Key == u.Key {
				cs.items[i].Value = u.Value
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (cs *ConfigServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cs.status)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Calls++
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
