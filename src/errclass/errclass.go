// Package errclass maps raw error messages from the native capture layer
// onto the user-facing error taxonomy.
package errclass

import "strings"

// Kind is a user-diagnosable error category.
type Kind string

const (
	KindCancelled  Kind = "cancelled"
	KindPermission Kind = "permission"
	KindTimeout    Kind = "timeout"
	KindIO         Kind = "io"
	KindProcessing Kind = "processing"
	KindOCREmpty   Kind = "ocr_empty"

	// Hotkey configuration problems, surfaced persistently rather than
	// as transient toasts.
	KindNoEnabledShortcuts Kind = "no_enabled_shortcuts"
	KindUnknownShortcutID  Kind = "unknown_shortcut_id"
	KindRegistrationFailed Kind = "registration_failed"
)

// rule order matters: the first matching rule wins.
var rules = []struct {
	kind     Kind
	keywords []string
}{
	{KindCancelled, []string{"cancel"}},
	{KindPermission, []string{"permission", "denied", "not authorized"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindOCREmpty, []string{"ocr_empty", "no text recognized"}},
	{KindProcessing, []string{"stitch", "overlap", "frames", "decode", "processing"}},
}

// Classify maps a raw error message to a Kind. Matching is case-insensitive
// substring matching against a fixed ordered rule list; anything unmatched
// is treated as an I/O failure.
func Classify(message string) Kind {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.kind
			}
		}
	}
	return KindIO
}

// FromError classifies err's message. A nil error classifies as KindIO,
// callers should not classify nil errors.
func FromError(err error) Kind {
	if err == nil {
		return KindIO
	}
	return Classify(err.Error())
}

// Silent reports whether the kind returns to idle with only a toast,
// never a blocking error panel.
func Silent(k Kind) bool {
	return k == KindCancelled || k == KindPermission
}
