package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"scrollshot/src/hotkey"
)

const (
	DefaultCaptureHotkey  = "Ctrl+Shift+S"
	DefaultScrollTimeout  = 120_000 * time.Millisecond
	DefaultPollInterval   = 220 * time.Millisecond
	DefaultTriggerDebounce = 500 * time.Millisecond

	EnvPathVar = "SCROLLSHOT_ENV"
)

type Config struct {
	SaveDir             string
	CaptureHotkey       string
	CaptureHotkeyEnabled bool
	AutoApplyBackground bool
	EnableFileLogging   bool
	ScrollTimeout       time.Duration
	PollInterval        time.Duration
	TriggerDebounce     time.Duration
	CustomShortcuts     []hotkey.ShortcutEntry
}

func Load() (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCROLLSHOT_ENV env var as a path to a config file
	envPath := ResolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		SaveDir:              resolveSaveDir(),
		CaptureHotkey:        getEnvWithDefault("HOTKEY", DefaultCaptureHotkey),
		CaptureHotkeyEnabled: strings.ToLower(getEnvWithDefault("HOTKEY_ENABLED", "true")) != "false",
		AutoApplyBackground:  strings.ToLower(os.Getenv("AUTO_APPLY_BACKGROUND")) == "true",
		EnableFileLogging:    strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		ScrollTimeout:        envDurationMS("SCROLL_TIMEOUT_MS", DefaultScrollTimeout),
		PollInterval:         envDurationMS("SCROLL_POLL_MS", DefaultPollInterval),
		TriggerDebounce:      envDurationMS("TRIGGER_DEBOUNCE_MS", DefaultTriggerDebounce),
		CustomShortcuts:      parseShortcuts(os.Getenv("SHORTCUTS")),
	}

	return cfg, nil
}

// ShortcutEntries returns the full shortcut configuration: the
// authoritative capture entry followed by custom entries.
func (c *Config) ShortcutEntries() []hotkey.ShortcutEntry {
	entries := []hotkey.ShortcutEntry{{
		ID:      hotkey.CaptureShortcutID,
		Label:   "Capture screen",
		Combo:   c.CaptureHotkey,
		Enabled: c.CaptureHotkeyEnabled,
	}}
	return append(entries, c.CustomShortcuts...)
}

// ResolveEnvPath locates the config file: .env next to the executable,
// then the SCROLLSHOT_ENV override.
func ResolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveSaveDir() string {
	if dir := os.Getenv("SAVE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, "Desktop")
}

// parseShortcuts parses "id=Combo" pairs from a comma-separated string,
// e.g. "ocr=Ctrl+Shift+O,fullscreen=Ctrl+Shift+F". A leading '!'
// disables an entry.
func parseShortcuts(raw string) []hotkey.ShortcutEntry {
	var entries []hotkey.ShortcutEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, combo, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		enabled := true
		if strings.HasPrefix(id, "!") {
			enabled = false
			id = id[1:]
		}
		combo = strings.TrimSpace(combo)
		if id == "" || combo == "" {
			continue
		}
		entries = append(entries, hotkey.ShortcutEntry{
			ID:      id,
			Label:   id,
			Combo:   combo,
			Enabled: enabled,
		})
	}
	return entries
}

func envDurationMS(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
