// Package hotkey registers OS-global keyboard shortcuts and derives a
// diagnosable health snapshot from shortcut configuration and
// registration outcomes.
package hotkey

import (
	"fmt"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Registrar registers and unregisters global key combinations. Callbacks
// fire from the hook goroutine; they must hand off to the orchestrator's
// inbox rather than doing work inline.
type Registrar interface {
	Register(combo string, callback func()) error
	Unregister(combo string)
	Close()
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

type binding struct {
	combo    string
	keys     []keyState
	callback func()
}

// GohookRegistrar tracks key down/up events from a single gohook stream
// and fires a binding's callback when all of its keys are held.
type GohookRegistrar struct {
	mu       sync.Mutex
	bindings map[string]*binding
	started  bool
	done     chan struct{}
}

func NewGohookRegistrar() *GohookRegistrar {
	return &GohookRegistrar{
		bindings: make(map[string]*binding),
		done:     make(chan struct{}),
	}
}

// Register adds a combo. Registering an already-registered combo fails;
// callers must unregister first.
func (r *GohookRegistrar) Register(combo string, callback func()) error {
	names := parseCombo(combo)
	if len(names) == 0 {
		return fmt.Errorf("empty key combination %q", combo)
	}

	var keys []keyState
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return fmt.Errorf("unknown key %q in combination %q", name, combo)
		}
		keys = append(keys, keyState{name: name, rawcodes: rawcodes})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[combo]; exists {
		return fmt.Errorf("combination %q already registered", combo)
	}
	r.bindings[combo] = &binding{combo: combo, keys: keys, callback: callback}
	log.Printf("Hotkey registered: %s", combo)

	if !r.started {
		r.started = true
		go r.listen()
	}
	return nil
}

func (r *GohookRegistrar) Unregister(combo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[combo]; exists {
		delete(r.bindings, combo)
		log.Printf("Hotkey unregistered: %s", combo)
	}
}

func (r *GohookRegistrar) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[string]*binding)
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	gohook.End()
}

func (r *GohookRegistrar) listen() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("PANIC in hotkey goroutine: %v", rec)
		}
	}()

	evChan := gohook.Start()
	if evChan == nil {
		log.Printf("ERROR: gohook.Start() returned nil channel")
		return
	}

	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-evChan:
			if !ok {
				log.Printf("Hotkey event channel closed")
				return
			}
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			r.handleKeyEvent(ev.Kind == gohook.KeyDown, ev.Rawcode)
		}
	}
}

func (r *GohookRegistrar) handleKeyEvent(down bool, rawcode uint16) {
	var fire []func()

	r.mu.Lock()
	for _, b := range r.bindings {
		matched := false
		for i := range b.keys {
			for _, rc := range b.keys[i].rawcodes {
				if rc == rawcode {
					b.keys[i].pressed = down
					matched = true
					break
				}
			}
		}
		if !matched || !down {
			continue
		}

		allPressed := true
		for i := range b.keys {
			if !b.keys[i].pressed {
				allPressed = false
				break
			}
		}
		if allPressed {
			log.Printf("Hotkey combination detected: %s", b.combo)
			for i := range b.keys {
				b.keys[i].pressed = false
			}
			if b.callback != nil {
				fire = append(fire, b.callback)
			}
		}
	}
	r.mu.Unlock()

	for _, cb := range fire {
		cb()
	}
}
