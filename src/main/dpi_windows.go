//go:build windows

package main

import (
	"log"
	"syscall"
)

// enableDPIAwareness sets per-monitor DPI awareness so capture
// coordinates match physical pixels on scaled displays.
func enableDPIAwareness() {
	shcore := syscall.NewLazyDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret != 0 {
			log.Printf("DPI: Failed to set per-monitor DPI awareness, error code: %d", ret)
		}
		return
	}

	// Fallback: user32.SetProcessDPIAware (Vista+)
	user32 := syscall.NewLazyDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		if ret, _, _ := setProcessDPIAware.Call(); ret == 0 {
			log.Printf("DPI: Failed to set system DPI awareness (fallback)")
		}
	}
}
