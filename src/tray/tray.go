package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"

	"scrollshot/src/hotkey"
)

// Panel is the tray presence: a capture entry point plus a persistent
// hotkey health readout. Transient failures go through notifications;
// standing problems (dead shortcuts) live here.
type Panel struct {
	mu      sync.Mutex
	ready   bool
	pending *hotkey.HealthSnapshot
	mHealth *systray.MenuItem

	OnCapture func()
	OnQuit    func()
}

// Run starts the tray loop. Blocks until Quit; call from the main
// goroutine (systray requirement on some platforms).
func (p *Panel) Run() {
	systray.Run(p.onReady, p.onExit)
}

// Quit tears the tray down and unblocks Run.
func (p *Panel) Quit() {
	systray.Quit()
}

// UpdateHealth refreshes the health readout. Safe to call before the
// tray is ready; the latest snapshot is applied once it is.
func (p *Panel) UpdateHealth(snap hotkey.HealthSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		p.pending = &snap
		return
	}
	p.applyLocked(snap)
}

func (p *Panel) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("Scrollshot")
	systray.SetTooltip("Scrollshot")

	mCapture := systray.AddMenuItem("Capture Screen", "Start a capture session")
	p.mHealth = systray.AddMenuItem("Shortcuts: starting...", "Hotkey health")
	p.mHealth.Disable()
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if p.OnCapture != nil {
					p.OnCapture()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()

	p.mu.Lock()
	p.ready = true
	if p.pending != nil {
		p.applyLocked(*p.pending)
		p.pending = nil
	}
	p.mu.Unlock()
}

func (p *Panel) onExit() {
	if p.OnQuit != nil {
		p.OnQuit()
	}
}

func (p *Panel) applyLocked(snap hotkey.HealthSnapshot) {
	text := healthText(snap)
	p.mHealth.SetTitle(text)
	systray.SetTooltip("Scrollshot — " + text)
	log.Printf("Tray: %s", text)
}

func healthText(snap hotkey.HealthSnapshot) string {
	switch snap.State {
	case hotkey.HealthOK:
		return fmt.Sprintf("Shortcuts: ok (%d/%d registered)", snap.RegisteredCount, snap.EnabledCount)
	case hotkey.HealthNoEnabledShortcuts:
		return "Shortcuts: capture hotkey disabled"
	case hotkey.HealthUnknownShortcutID, hotkey.HealthRegistrationFailed:
		if snap.FirstIssue != nil {
			return fmt.Sprintf("Shortcuts: %s (%s)", snap.State, snap.FirstIssue.ShortcutID)
		}
		return fmt.Sprintf("Shortcuts: %s", snap.State)
	default:
		return "Shortcuts: unknown"
	}
}
