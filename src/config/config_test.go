package config

import (
	"testing"
	"time"

	"scrollshot/src/hotkey"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOTKEY", "")
	t.Setenv("HOTKEY_ENABLED", "")
	t.Setenv("SCROLL_TIMEOUT_MS", "")
	t.Setenv("SCROLL_POLL_MS", "")
	t.Setenv("TRIGGER_DEBOUNCE_MS", "")
	t.Setenv("SHORTCUTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CaptureHotkey != DefaultCaptureHotkey {
		t.Errorf("CaptureHotkey = %q, want %q", cfg.CaptureHotkey, DefaultCaptureHotkey)
	}
	if !cfg.CaptureHotkeyEnabled {
		t.Error("capture hotkey should default to enabled")
	}
	if cfg.ScrollTimeout != 120_000*time.Millisecond {
		t.Errorf("ScrollTimeout = %v", cfg.ScrollTimeout)
	}
	if cfg.PollInterval != 220*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.TriggerDebounce != 500*time.Millisecond {
		t.Errorf("TriggerDebounce = %v", cfg.TriggerDebounce)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOTKEY", "Ctrl+Alt+X")
	t.Setenv("HOTKEY_ENABLED", "false")
	t.Setenv("SCROLL_TIMEOUT_MS", "5000")
	t.Setenv("SCROLL_POLL_MS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CaptureHotkey != "Ctrl+Alt+X" {
		t.Errorf("CaptureHotkey = %q", cfg.CaptureHotkey)
	}
	if cfg.CaptureHotkeyEnabled {
		t.Error("HOTKEY_ENABLED=false should disable the capture hotkey")
	}
	if cfg.ScrollTimeout != 5*time.Second {
		t.Errorf("ScrollTimeout = %v", cfg.ScrollTimeout)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("SCROLL_TIMEOUT_MS", "garbage")
	t.Setenv("SCROLL_POLL_MS", "-7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScrollTimeout != DefaultScrollTimeout {
		t.Errorf("ScrollTimeout = %v, want default", cfg.ScrollTimeout)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.PollInterval)
	}
}

func TestParseShortcuts(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []hotkey.ShortcutEntry
	}{
		{"empty", "", nil},
		{
			"two entries",
			"ocr=Ctrl+Shift+O, fullscreen=Ctrl+Shift+F",
			[]hotkey.ShortcutEntry{
				{ID: "ocr", Label: "ocr", Combo: "Ctrl+Shift+O", Enabled: true},
				{ID: "fullscreen", Label: "fullscreen", Combo: "Ctrl+Shift+F", Enabled: true},
			},
		},
		{
			"disabled entry",
			"!ocr=Ctrl+Shift+O",
			[]hotkey.ShortcutEntry{
				{ID: "ocr", Label: "ocr", Combo: "Ctrl+Shift+O", Enabled: false},
			},
		},
		{"malformed pairs skipped", "noequals,=NoID,empty=", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseShortcuts(tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(got), len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestShortcutEntriesCaptureFirst(t *testing.T) {
	cfg := &Config{
		CaptureHotkey:        "Ctrl+Shift+S",
		CaptureHotkeyEnabled: true,
		CustomShortcuts: []hotkey.ShortcutEntry{
			{ID: "ocr", Label: "ocr", Combo: "Ctrl+Shift+O", Enabled: true},
		},
	}
	entries := cfg.ShortcutEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].ID != hotkey.CaptureShortcutID {
		t.Errorf("first entry = %q, want %q", entries[0].ID, hotkey.CaptureShortcutID)
	}
}
