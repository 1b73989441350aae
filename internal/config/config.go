// Package config holds the profiler's process-wide settings.
package config

import "time"

// Settings holds the tunables a running profiler session needs. Units are
// documented per field since several come from the original's own
// configuration surface (sampling rate, online-vs-deferred analysis).
type Settings struct {
	// Verbose enables debug-level logging.
	Verbose bool

	// OnlineAnalysis, when true, eagerly allocates per-thread page-bucket
	// arrays at registration time instead of lazily on first access.
	OnlineAnalysis bool

	// MaxThreads bounds the per-thread bucket arrays OnlineAnalysis
	// preallocates. Ignored when OnlineAnalysis is false.
	MaxThreads int

	// SamplingPeriod is the interval between synthetic sample batches in
	// the CLI's demo sampler.
	SamplingPeriod time.Duration

	// WarmupBatches is the number of initial sample batches discarded to
	// avoid attributing process-startup noise.
	WarmupBatches int

	// DumpAllObjects includes freed (past) allocations, not only live
	// ones, in all_memory_objects.dat.
	DumpAllObjects bool

	// WarnLeaks logs each allocation still live at shutdown (cmd/numamma
	// does the logging). Live allocations are not closed at shutdown
	// either way.
	WarnLeaks bool

	// OutputDir is where report files are written.
	OutputDir string
}

// Default returns the zero-cost defaults used when no flags are given.
func Default() Settings {
	return Settings{
		Verbose:        false,
		OnlineAnalysis: true,
		MaxThreads:     64,
		SamplingPeriod: 50 * time.Millisecond,
		WarmupBatches:  1,
		DumpAllObjects: false,
		WarnLeaks:      true,
		OutputDir:      "numamma-report",
	}
}
