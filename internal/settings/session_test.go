package settings

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/shared"
)

type fakeBackend struct {
	items     []models.ConfigItem
	getErr    error
	updateErr error
	status    *models.ConfigStatus

	getCalls    int
	updateCalls int
	lastUpdates []models.ConfigUpdate
	// applied on a successful update, simulating the server writing values
	apply bool
}

func (f *fakeBackend) GetConfig(ctx context.Context) ([]models.ConfigItem, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return slices.Clone(f.items), nil
}

func (f *fakeBackend) UpdateConfig(ctx context.Context, updates []models.ConfigUpdate) error {
	f.updateCalls++
	f.lastUpdates = updates
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.apply {
		for _, u := range updates {
			for i := range f.items {
				if f.items[i].Key == u.Key {
					f.items[i].Value = u.Value
				}
			}
		}
	}
	return nil
}

func (f *fakeBackend) ConfigStatus(ctx context.Context) (*models.ConfigStatus, error) {
	if f.status == nil {
		return nil, errors.New("status unavailable")
	}
	return f.status, nil
}

type recorder struct{ saves [][]string }

func (r *recorder) RecordSave(keys []string) error {
	r.saves = append(r.saves, keys)
	return nil
}

func sampleItems() []models.ConfigItem {
	return []models.ConfigItem{
		{Key: "LOG_LEVEL", Value: "INFO", Category: "Logging Configuration", Type: models.ConfigString},
		{Key: "DESTINATION_DIR", Value: "/media/dest", Category: "Directory Paths", Type: models.ConfigString, Required: true},
		{Key: "SOURCE_DIR", Value: "/media/src", Category: "Directory Paths", Type: models.ConfigString, Required: true},
		{Key: "USE_SOURCE_STRUCTURE", Value: "false", Category: "Directory Paths", Type: models.ConfigBoolean},
		{Key: "MAX_PROCESSES", Value: "8", Category: "System Configuration", Type: models.ConfigInteger},
		{Key: "TMDB_API_KEY", Value: "abcd1234", Category: "TMDb/IMDB Configuration", Type: models.ConfigString, Required: true},
		{Key: "INTERNAL_FLAG", Value: "x", Category: "System Configuration", Hidden: true},
		{Key: "CUSTOM_THING", Value: "1", Category: "Zeta Extras"},
		{Key: "OTHER_THING", Value: "1", Category: "Alpha Extras"},
	}
}

func loadedSession(t *testing.T, backend *fakeBackend, opts Options) *Session {
	t.Helper()
	s := NewSession(backend, opts)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestSetFieldValue(t *testing.T) {
	t.Run("tracks divergent values", func(t *testing.T) {
		s := loadedSession(t, &fakeBackend{items: sampleItems()}, Options{})

		s.SetFieldValue("LOG_LEVEL", "DEBUG")
		if !s.IsModified("LOG_LEVEL") || s.ChangeCount() != 1 {
			t.Fatalf("expected LOG_LEVEL to be pending, got %v", s.Pending())
		}
		if got := s.Value("LOG_LEVEL"); got != "DEBUG" {
			t.Errorf("Value() = %q, want DEBUG", got)
		}
	})

	t.Run("setting back to baseline removes the entry", func(t *testing.T) {
		s := loadedSession(t, &fakeBackend{items: sampleItems()}, Options{})

		s.SetFieldValue("LOG_LEVEL", "DEBUG")
		s.SetFieldValue("LOG_LEVEL", "INFO")
		if s.HasChanges() {
			t.Errorf("expected no pending changes, got %v", s.Pending())
		}
		s.SetFieldValue("LOG_LEVEL", "INFO")
		if s.HasChanges() {
			t.Error("setting the baseline twice should stay a no-op")
		}
	})

	t.Run("unknown key has empty baseline", func(t *testing.T) {
		s := loadedSession(t, &fakeBackend{items: sampleItems()}, Options{})

		s.SetFieldValue("NOT_A_KEY", "")
		if s.HasChanges() {
			t.Error("empty value for unknown key should not be pending")
		}
		s.SetFieldValue("NOT_A_KEY", "x")
		if !s.IsModified("NOT_A_KEY") {
			t.Error("non-empty value for unknown key should be pending")
		}
	})

	t.Run("pending equals last-set divergent keys for random sequences", func(t *testing.T) {
		items := sampleItems()
		s := loadedSession(t, &fakeBackend{items: items}, Options{})

		baseline := map[string]string{}
		for _, item := range items {
			baseline[item.Key] = item.Value
		}
		keys := []string{"UNKNOWN_KEY"}
		for k := range baseline {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		rng := rand.New(rand.NewPCG(7, 11))
		lastSet := map[string]string{}

		for step := 0; step < 500; step++ {
			key := keys[rng.IntN(len(keys))]
			var value string
			if rng.IntN(2) == 0 {
				value = baseline[key]
			} else {
				value = fmt.Sprintf("v%d", rng.IntN(3))
			}
			s.SetFieldValue(key, value)
			lastSet[key] = value

			want := map[string]string{}
			for k, v := range lastSet {
				if v != baseline[k] {
					want[k] = v
				}
			}

			got := s.Pending()
			if len(got) != len(want) {
				t.Fatalf("step %d: pending %v, want %v", step, got, want)
			}
			for k, v := range want {
				if got[k] != v {
					t.Fatalf("step %d: pending[%s] = %q, want %q", step, k, got[k], v)
				}
			}
		}
	})

	t.Run("Discard clears pending", func(t *testing.T) {
		s := loadedSession(t, &fakeBackend{items: sampleItems()}, Options{})
		s.SetFieldValue("LOG_LEVEL", "DEBUG")
		s.SetFieldValue("MAX_PROCESSES", "4")
		s.Discard()
		if s.HasChanges() {
			t.Errorf("expected no changes after discard, got %v", s.Pending())
		}
		if got := s.Value("LOG_LEVEL"); got != "INFO" {
			t.Errorf("Value() after discard = %q", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("failure keeps previous list", func(t *testing.T) {
		backend := &fakeBackend{items: sampleItems()}
		s := loadedSession(t, backend, Options{})

		backend.getErr = errors.New("boom")
		if err := s.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(s.Items()) != len(sampleItems()) {
			t.Errorf("expected previous items to be kept, got %d", len(s.Items()))
		}
	})

	t.Run("reload drops pending values matching new baseline", func(t *testing.T) {
		backend := &fakeBackend{items: sampleItems()}
		s := loadedSession(t, backend, Options{})

		s.SetFieldValue("LOG_LEVEL", "DEBUG")
		s.SetFieldValue("MAX_PROCESSES", "4")

		backend.items[0].Value = "DEBUG"
		if err := s.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if s.IsModified("LOG_LEVEL") {
			t.Error("LOG_LEVEL now matches the server and should not be pending")
		}
		if !s.IsModified("MAX_PROCESSES") {
			t.Error("MAX_PROCESSES should still be pending")
		}
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to save makes no network call", func(t *testing.T) {
		backend := &fakeBackend{items: sampleItems()}
		s := loadedSession(t, backend, Options{})

		err := s.Save(ctx)
		if !errors.Is(err, shared.ErrNothingToSave) {
			t.Fatalf("expected ErrNothingToSave, got %v", err)
		}
		if backend.updateCalls != 0 || backend.getCalls != 1 {
			t.Errorf("expected no extra calls, got update=%d get=%d", backend.updateCalls, backend.getCalls)
		}
	})

	t.Run("successful save reloads, clears and publishes", func(t *testing.T) {
		backend := &fakeBackend{
			items:  sampleItems(),
			apply:  true,
			status: &models.ConfigStatus{DestinationDir: "/media/new"},
		}
		bus := events.NewBus(4)
		defer bus.Close()
		ch := bus.Subscribe(events.TypeConfigChanged)
		history := &recorder{}

		s := loadedSession(t, backend, Options{Bus: bus, History: history})
		s.SetFieldValue("SOURCE_DIR", "/media/new-src")
		s.SetFieldValue("UNKNOWN_KEY", "value")

		if err := s.Save(ctx); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		want := []models.ConfigUpdate{
			{Key: "SOURCE_DIR", Value: "/media/new-src", Type: models.ConfigString, Required: true},
			{Key: "UNKNOWN_KEY", Value: "value", Type: models.ConfigString, Required: false},
		}
		if !slices.Equal(backend.lastUpdates, want) {
			t.Errorf("batch = %+v, want %+v", backend.lastUpdates, want)
		}

		if s.HasChanges() {
			t.Errorf("expected pending to be empty, got %v", s.Pending())
		}
		if backend.getCalls != 2 {
			t.Errorf("expected a full reload, got %d GetConfig calls", backend.getCalls)
		}
		if !slices.Equal(s.Items(), backend.items) {
			t.Error("items should equal the freshly fetched server state")
		}
		if got := s.Value("SOURCE_DIR"); got != "/media/new-src" {
			t.Errorf("Value() = %q after reload", got)
		}
		if s.Status() == nil || s.Status().DestinationDir != "/media/new" {
			t.Errorf("expected status refresh, got %+v", s.Status())
		}
		if len(history.saves) != 1 || len(history.saves[0]) != 2 {
			t.Errorf("expected one recorded save, got %v", history.saves)
		}

		select {
		case ev := <-ch:
			changed := ev.(events.ConfigChanged)
			if !slices.Equal(changed.Keys, []string{"SOURCE_DIR", "UNKNOWN_KEY"}) {
				t.Errorf("event keys = %v", changed.Keys)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("expected config changed event")
		}
	})

	t.Run("failed save keeps pending", func(t *testing.T) {
		backend := &fakeBackend{items: sampleItems(), updateErr: shared.ErrAPIRequest}
		bus := events.NewBus(4)
		defer bus.Close()
		ch := bus.Subscribe()

		s := loadedSession(t, backend, Options{Bus: bus})
		s.SetFieldValue("LOG_LEVEL", "DEBUG")

		err := s.Save(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if s.Pending()["LOG_LEVEL"] != "DEBUG" {
			t.Error("pending changes should survive a failed save")
		}
		if backend.getCalls != 1 {
			t.Errorf("failed save should not reload, got %d calls", backend.getCalls)
		}
		select {
		case ev := <-ch:
			t.Errorf("unexpected event %s", ev.EventType())
		default:
		}

		backend.updateErr = nil
		if err := s.Save(ctx); err != nil {
			t.Fatalf("retry Save() error = %v", err)
		}
	})

	t.Run("reload failure after accepted save", func(t *testing.T) {
		backend := &fakeBackend{items: sampleItems()}
		s := loadedSession(t, backend, Options{})
		s.SetFieldValue("LOG_LEVEL", "DEBUG")

		backend.getErr = errors.New("offline")
		err := s.Save(ctx)
		if !errors.Is(err, shared.ErrReloadFailed) {
			t.Fatalf("expected ErrReloadFailed, got %v", err)
		}
		if s.HasChanges() {
			t.Error("accepted edits should be cleared even when reload fails")
		}
	})
}

func TestGroups(t *testing.T) {
	s := loadedSession(t, &fakeBackend{items: sampleItems()}, Options{})
	s.SetFieldValue("SOURCE_DIR", "/elsewhere")

	groups := s.Groups()

	var names []string
	for _, g := range groups {
		names = append(names, g.Info.Category)
	}

	wantOrder := []string{
		"Directory Paths",
		"TMDb/IMDB Configuration",
		"Logging Configuration",
		"System Configuration",
		"Alpha Extras",
		"Zeta Extras",
	}
	if !slices.Equal(names, wantOrder) {
		t.Fatalf("category order = %v, want %v", names, wantOrder)
	}

	if slices.Index(names, "Directory Paths") > slices.Index(names, "System Configuration") {
		t.Error("Directory Paths must render before System Configuration")
	}

	dirs := groups[0]
	var keys []string
	for _, item := range dirs.Items {
		keys = append(keys, item.Key)
	}
	if !slices.Equal(keys, []string{"SOURCE_DIR", "DESTINATION_DIR", "USE_SOURCE_STRUCTURE"}) {
		t.Errorf("Directory Paths items = %v", keys)
	}

	if dirs.Info.Name != "General" || dirs.Info.ItemCount != 3 || dirs.Info.RequiredCount != 2 || dirs.Info.ModifiedCount != 1 {
		t.Errorf("unexpected Directory Paths info %+v", dirs.Info)
	}

	for _, g := range groups {
		for _, item := range g.Items {
			if item.Hidden {
				t.Errorf("hidden item %s should not be grouped", item.Key)
			}
		}
	}

	system := groups[3]
	if system.Info.Name != "Advanced" || system.Info.ItemCount != 1 {
		t.Errorf("unexpected System Configuration info %+v", system.Info)
	}

	infos := s.Categories()
	if len(infos) != len(groups) || infos[4].Name != "Alpha Extras" || infos[4].Icon != "tune" {
		t.Errorf("unexpected category summaries %+v", infos)
	}
}

func TestRefreshStatusUnsupported(t *testing.T) {
	s := NewSession(struct{ Backend }{&fakeBackend{}}, Options{})
	if _, err := s.RefreshStatus(context.Background()); !errors.Is(err, shared.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
