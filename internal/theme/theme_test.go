package theme

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/events"
)

func TestLoadDefaultsToDarkWithoutWriting(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/state/preferences.ini")

	p, err := Load(store, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Mode() != Dark {
		t.Errorf("Mode() = %q, want dark", p.Mode())
	}
	if p.Indicator() != "🌙" {
		t.Errorf("Indicator() = %q, want moon", p.Indicator())
	}

	exists, _ := afero.Exists(fs, "/state/preferences.ini")
	if exists {
		t.Error("absence of a preference must not be persisted")
	}
}

func TestLoadReadsStoredLight(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/state/preferences.ini", []byte("[ui]\ntheme = light\n"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(NewFileStore(fs, "/state/preferences.ini"), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Mode() != Light {
		t.Errorf("Mode() = %q, want light", p.Mode())
	}
	if p.Indicator() != "☀️" {
		t.Errorf("Indicator() = %q, want sun", p.Indicator())
	}
}

func TestLoadUnknownValueIsDark(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/p.ini", []byte("[ui]\ntheme = sepia\n"), 0600)

	p, err := Load(NewFileStore(fs, "/p.ini"), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Mode() != Dark {
		t.Errorf("Mode() = %q, want dark", p.Mode())
	}
}

func TestToggleTwiceRestoresPersistedValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/state/preferences.ini")
	p, _ := Load(store, nil)

	mode, err := p.Toggle()
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if mode != Light {
		t.Errorf("first Toggle() = %q, want light", mode)
	}
	stored, ok, _ := store.Load()
	if !ok || stored != Light {
		t.Errorf("stored after first toggle = %q (%v), want light", stored, ok)
	}

	if _, err := p.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	stored, ok, _ = store.Load()
	if !ok || stored != Dark {
		t.Errorf("stored after second toggle = %q (%v), want dark", stored, ok)
	}
	if p.Mode() != Dark {
		t.Errorf("Mode() = %q, want dark", p.Mode())
	}
}

func TestTogglePreservesOtherKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/p.ini", []byte("[ui]\ntheme = dark\nwidth = 80\n"), 0600)
	store := NewFileStore(fs, "/p.ini")
	p, _ := Load(store, nil)

	if _, err := p.Toggle(); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fs, "/p.ini")
	if got := string(data); !strings.Contains(got, "width") || !strings.Contains(got, "light") {
		t.Errorf("preferences file = %q", got)
	}
}

func TestTogglePublishesEvent(t *testing.T) {
	bus := events.NewEventBus(4)
	defer bus.Close()
	ch := bus.Subscribe(events.EventThemeChanged)

	p, _ := Load(nil, bus)
	p.Toggle()

	e := (<-ch).(*events.ThemeEvent)
	if e.Mode != "light" || e.Indicator != "☀️" {
		t.Errorf("ThemeEvent = %+v", e)
	}
}

type failingStore struct{}

func (failingStore) Load() (Mode, bool, error) { return "", false, errors.New("disk gone") }
func (failingStore) Save(Mode) error           { return errors.New("read-only") }

func TestStoreErrors(t *testing.T) {
	p, err := Load(failingStore{}, nil)
	if err == nil {
		t.Error("expected load error")
	}
	if p == nil || p.Mode() != Dark {
		t.Fatal("preference should be usable and dark after a load error")
	}

	mode, err := p.Toggle()
	if err == nil {
		t.Error("expected save error")
	}
	if mode != Light || p.Mode() != Light {
		t.Errorf("in-memory mode should still flip, got %q", p.Mode())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"light", Light, true},
		{" DARK ", Dark, true},
		{"", "", false},
		{"blue", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPaletteFollowsMode(t *testing.T) {
	if PaletteFor(Light).ProgressFrom == PaletteFor(Dark).ProgressFrom {
		t.Error("light and dark palettes should differ")
	}
	p, _ := Load(nil, nil)
	if p.Palette().Mode != Dark {
		t.Errorf("Palette().Mode = %q", p.Palette().Mode)
	}
}
