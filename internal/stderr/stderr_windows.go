//go:build windows

// Package stderr is a no-op on Windows, whose audio backends do not write
// to the console.
package stderr

import "go.uber.org/zap"

// Start is a no-op on Windows.
func Start(*zap.Logger) error { return nil }

// Stop is a no-op on Windows.
func Stop() {}
