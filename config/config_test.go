package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-sustain/plugin"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.BlockMillis != 5 || !cfg.FollowPedal || cfg.ProcessorMode() != plugin.ModeSustain {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Path() != path {
		t.Fatalf("expected path to be remembered, got %q", cfg.Path())
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, _ := LoadFile(path)
	cfg.Input = "Keystation"
	cfg.Mode = "drop-note-offs"
	cfg.UI.Compact = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Input != "Keystation" || !got.UI.Compact || got.ProcessorMode() != plugin.ModeDropNoteOffs {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"block":    `{"blockMillis": 0}`,
		"velocity": `{"releaseVelocity": 200}`,
		"mode":     `{"mode": "latch"}`,
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), name+".json")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
