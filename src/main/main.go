package main

import (
	"context"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"scrollshot/src/capture"
	"scrollshot/src/clipboard"
	"scrollshot/src/config"
	"scrollshot/src/hotkey"
	"scrollshot/src/logutil"
	"scrollshot/src/messages"
	"scrollshot/src/native"
	"scrollshot/src/notify"
	"scrollshot/src/orchestrator"
	"scrollshot/src/tray"
	"scrollshot/src/window"
	"scrollshot/src/worker"
)

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// The tray loop must own the main OS thread on some platforms.
	runtime.LockOSThread()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	if err := native.ValidateSaveDir(cfg.SaveDir); err != nil {
		log.Fatalf("Save directory unusable: %v", err)
	}
	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	log.Printf("Scrollshot initialized")
	log.Printf("Hotkey: %s", cfg.CaptureHotkey)
	log.Printf("Save dir: %s", cfg.SaveDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := native.NewLocal()
	registrar := hotkey.NewGohookRegistrar()
	defer registrar.Close()

	pool := worker.New(2)
	defer pool.Close()

	var orch *orchestrator.Orchestrator
	manager := hotkey.NewManager(registrar, map[string]func(){
		hotkey.CaptureShortcutID: func() {
			orch.Post(messages.TriggerCapture{Mode: capture.ModeWindow})
		},
		"region": func() {
			orch.Post(messages.TriggerCapture{Mode: capture.ModeRegion})
		},
		"fullscreen": func() {
			orch.Post(messages.TriggerCapture{Mode: capture.ModeFullscreen})
		},
	})

	orch = orchestrator.New(provider, registrar, window.Noop{}, notify.Log{}, pool, manager, orchestrator.Options{
		SaveDir:             cfg.SaveDir,
		AutoApplyBackground: cfg.AutoApplyBackground,
		TriggerDebounce:     cfg.TriggerDebounce,
		PollInterval:        cfg.PollInterval,
		ScrollTimeout:       cfg.ScrollTimeout,
	})
	orch.CopyText = clipboard.WriteText
	orch.CopyImage = clipboard.WriteImageFile
	orch.OpenEditor = openEditor

	panel := &tray.Panel{
		OnCapture: func() {
			orch.Post(messages.TriggerCapture{Mode: capture.ModeWindow})
		},
		OnQuit: func() { cancel() },
	}
	manager.OnHealthChange(panel.UpdateHealth)
	manager.Apply(cfg.ShortcutEntries())

	// Hot-reload shortcut configuration on config file edits.
	if err := config.Watch(ctx, config.ResolveEnvPath(), func(next *config.Config) {
		orch.Post(messages.ShortcutsChanged{Entries: next.ShortcutEntries()})
	}); err != nil {
		log.Printf("Config: watch unavailable: %v", err)
	}

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	go func() {
		orch.Run(ctx)
		panel.Quit()
	}()

	panel.Run()
}

// openEditor hands a capture file to the platform's default image
// handler.
func openEditor(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Editor: failed to open %s: %v", path, err)
	}
}
