package hotkey

import "testing"

func captureEntry(enabled bool) ShortcutEntry {
	return ShortcutEntry{ID: CaptureShortcutID, Label: "Capture screen", Combo: "Ctrl+Shift+S", Enabled: enabled}
}

func TestDeriveHealthOK(t *testing.T) {
	snap := DeriveHealth([]ShortcutEntry{captureEntry(true)}, 1, nil)
	if snap.State != HealthOK {
		t.Fatalf("state = %q, want ok", snap.State)
	}
	if snap.EnabledCount != 1 || snap.RegisteredCount != 1 {
		t.Errorf("counts = %d/%d", snap.EnabledCount, snap.RegisteredCount)
	}
	if snap.FirstIssue != nil {
		t.Errorf("unexpected issue %+v", snap.FirstIssue)
	}
}

// A disabled capture shortcut dominates regardless of registered count.
func TestDeriveHealthCaptureDisabled(t *testing.T) {
	entries := []ShortcutEntry{
		captureEntry(false),
		{ID: "ocr", Label: "OCR region", Combo: "Ctrl+Shift+O", Enabled: true},
	}
	snap := DeriveHealth(entries, 5, nil)
	if snap.State != HealthNoEnabledShortcuts {
		t.Fatalf("state = %q, want no_enabled_shortcuts", snap.State)
	}
}

// unknown_shortcut_id takes precedence over generic registration_failed
// when the first issue is an unknown ID.
func TestDeriveHealthIssuePriority(t *testing.T) {
	issues := []Issue{
		{ShortcutID: "mystery", Kind: IssueUnknownID, Message: "no action bound"},
		{ShortcutID: CaptureShortcutID, Kind: IssueRegistrationError, Message: "OS refused"},
	}
	snap := DeriveHealth([]ShortcutEntry{captureEntry(true)}, 0, issues)
	if snap.State != HealthUnknownShortcutID {
		t.Fatalf("state = %q, want unknown_shortcut_id", snap.State)
	}
	if snap.FirstIssue == nil || snap.FirstIssue.ShortcutID != "mystery" {
		t.Errorf("first issue = %+v", snap.FirstIssue)
	}
}

func TestDeriveHealthRegistrationFailed(t *testing.T) {
	issues := []Issue{
		{ShortcutID: CaptureShortcutID, Kind: IssueRegistrationError, Message: "OS refused"},
	}
	snap := DeriveHealth([]ShortcutEntry{captureEntry(true)}, 0, issues)
	if snap.State != HealthRegistrationFailed {
		t.Fatalf("state = %q, want registration_failed", snap.State)
	}
}

func TestDeriveHealthNoEntries(t *testing.T) {
	snap := DeriveHealth(nil, 0, nil)
	if snap.State != HealthNoEnabledShortcuts {
		t.Fatalf("state = %q, want no_enabled_shortcuts", snap.State)
	}
}
