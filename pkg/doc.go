// Package pkg provides shared utilities for the softnic driver component.
//
// This package contains common functionality used across the driver, its
// hardware adapters and the control transport, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for driver and device failures
//   - Status codes returned to out-of-process callers
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDriver, "link is up", "mac", mac)
//
// # Errors
//
// Driver errors are defined as sentinel values and map onto [Status]:
//
//	if errors.Is(err, pkg.ErrAborted) {
//	    // device rejected the frame
//	}
//	status := pkg.StatusOf(err)
package pkg
