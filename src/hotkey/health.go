package hotkey

// CaptureShortcutID is the one built-in shortcut entry that triggers a
// capture session. Other entries are passthrough/custom.
const CaptureShortcutID = "capture"

// ShortcutEntry is one configured global shortcut.
type ShortcutEntry struct {
	ID      string
	Label   string
	Combo   string
	Enabled bool
}

// HealthState summarizes the shortcut subsystem for the health panel.
type HealthState string

const (
	HealthOK                 HealthState = "ok"
	HealthNoEnabledShortcuts HealthState = "no_enabled_shortcuts"
	HealthRegistrationFailed HealthState = "registration_failed"
	HealthUnknownShortcutID  HealthState = "unknown_shortcut_id"
)

// IssueKind classifies one registration problem.
type IssueKind string

const (
	IssueUnknownID         IssueKind = "unknown_shortcut_id"
	IssueRegistrationError IssueKind = "registration_failed"
)

// Issue records a single failed registration attempt.
type Issue struct {
	ShortcutID string
	Kind       IssueKind
	Message    string
}

// HealthSnapshot is an immutable view of the shortcut subsystem. It is
// recomputed whole on every configuration or registration change.
type HealthSnapshot struct {
	State           HealthState
	EnabledCount    int
	RegisteredCount int
	FirstIssue      *Issue
}

// DeriveHealth computes a snapshot from configuration and registration
// outcomes. Priority: a disabled capture shortcut dominates everything;
// otherwise the first issue decides, with unknown-ID taking precedence
// over a generic registration failure. The ordering keeps the diagnosis
// stable when several problems co-occur.
func DeriveHealth(entries []ShortcutEntry, registeredCount int, issues []Issue) HealthSnapshot {
	enabled := 0
	captureEnabled := false
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		enabled++
		if e.ID == CaptureShortcutID {
			captureEnabled = true
		}
	}

	snap := HealthSnapshot{
		EnabledCount:    enabled,
		RegisteredCount: registeredCount,
	}

	if !captureEnabled {
		snap.State = HealthNoEnabledShortcuts
		return snap
	}

	if len(issues) > 0 {
		first := issues[0]
		snap.FirstIssue = &first
		if first.Kind == IssueUnknownID {
			snap.State = HealthUnknownShortcutID
		} else {
			snap.State = HealthRegistrationFailed
		}
		return snap
	}

	snap.State = HealthOK
	return snap
}
