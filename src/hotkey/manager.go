package hotkey

import (
	"log"
	"sync"
)

// Manager applies a shortcut configuration to a Registrar and keeps the
// health snapshot current. All previously-registered combos are
// unregistered before any new registration so a configuration change can
// never hit a duplicate-registration error from the OS shortcut API.
type Manager struct {
	mu        sync.Mutex
	registrar Registrar
	actions   map[string]func()
	active    []string // combos currently registered, in registration order
	entries   []ShortcutEntry
	snapshot  HealthSnapshot
	onHealth  func(HealthSnapshot)
	suspended bool
}

// NewManager wires a registrar to the known shortcut actions. IDs absent
// from actions are unknown to this build and surface as
// unknown_shortcut_id issues.
func NewManager(registrar Registrar, actions map[string]func()) *Manager {
	return &Manager{
		registrar: registrar,
		actions:   actions,
		snapshot:  HealthSnapshot{State: HealthNoEnabledShortcuts},
	}
}

// OnHealthChange sets the listener invoked whenever the snapshot is
// recomputed.
func (m *Manager) OnHealthChange(fn func(HealthSnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHealth = fn
}

// Apply replaces the active shortcut configuration. The resulting
// snapshot is recomputed whole, never patched.
func (m *Manager) Apply(entries []ShortcutEntry) HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append([]ShortcutEntry(nil), entries...)
	m.unregisterAllLocked()

	if m.suspended {
		return m.recomputeLocked(0, nil)
	}
	registered, issues := m.registerAllLocked()
	return m.recomputeLocked(registered, issues)
}

// Suspend unregisters every active combo without touching the stored
// configuration. Used while a scroll session owns its own transient
// shortcut set.
func (m *Manager) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suspended {
		return
	}
	m.suspended = true
	m.unregisterAllLocked()
}

// Resume re-registers the stored configuration after a Suspend.
func (m *Manager) Resume() HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.suspended {
		return m.snapshot
	}
	m.suspended = false
	m.unregisterAllLocked()
	registered, issues := m.registerAllLocked()
	return m.recomputeLocked(registered, issues)
}

// Health returns the current snapshot.
func (m *Manager) Health() HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Manager) unregisterAllLocked() {
	for _, combo := range m.active {
		m.registrar.Unregister(combo)
	}
	m.active = nil
}

func (m *Manager) registerAllLocked() (int, []Issue) {
	registered := 0
	var issues []Issue

	for _, e := range m.entries {
		if !e.Enabled {
			continue
		}
		action, known := m.actions[e.ID]
		if !known {
			log.Printf("Shortcut %q references unknown action", e.ID)
			issues = append(issues, Issue{
				ShortcutID: e.ID,
				Kind:       IssueUnknownID,
				Message:    "no action bound to shortcut id " + e.ID,
			})
			continue
		}
		if err := m.registrar.Register(e.Combo, action); err != nil {
			log.Printf("Shortcut %q (%s) failed to register: %v", e.ID, e.Combo, err)
			issues = append(issues, Issue{
				ShortcutID: e.ID,
				Kind:       IssueRegistrationError,
				Message:    err.Error(),
			})
			continue
		}
		m.active = append(m.active, e.Combo)
		registered++
	}

	return registered, issues
}

func (m *Manager) recomputeLocked(registered int, issues []Issue) HealthSnapshot {
	m.snapshot = DeriveHealth(m.entries, registered, issues)
	if m.onHealth != nil {
		m.onHealth(m.snapshot)
	}
	return m.snapshot
}
