//go:build !windows

package main

// enableDPIAwareness is a no-op outside Windows; compositors handle
// scaling there.
func enableDPIAwareness() {}
