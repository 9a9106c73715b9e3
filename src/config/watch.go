package config

import (
	"context"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config whenever its file changes and invokes onChange
// with the fresh config. Editors replace files on save, so the watcher
// tracks the parent directory and re-arms after rename/remove events.
// Rapid write bursts are coalesced with a short settle delay.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		log.Printf("Config: no config file found, watch disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var settle *time.Timer
		var settleCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
					// The file was swapped out; re-add once the new one lands.
					go func() {
						time.Sleep(200 * time.Millisecond)
						if err := watcher.Add(path); err != nil {
							log.Printf("Config: re-watch failed: %v", err)
						}
					}()
				}
				if settle == nil {
					settle = time.NewTimer(150 * time.Millisecond)
					settleCh = settle.C
				} else {
					settle.Reset(150 * time.Millisecond)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config: watch error: %v", err)
			case <-settleCh:
				settle = nil
				settleCh = nil
				cfg, err := Load()
				if err != nil {
					log.Printf("Config: reload failed: %v", err)
					continue
				}
				log.Printf("Config: reloaded from %s", path)
				onChange(cfg)
			}
		}
	}()

	return nil
}
