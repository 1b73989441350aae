// Command numamma drives a demonstration profiling session: it allocates a
// handful of synthetic buffers, feeds a synthetic stream of hardware-style
// memory-access samples against them, then prints and dumps the resulting
// call-site report. Real deployments replace the synthetic workload and
// sampler with an actual allocator interceptor and hardware event source,
// both of which spec.md §6 treats as externally supplied collaborators
// this binary has no portable way to provide on its own.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/numamma/numamma-go/internal/attributor"
	"github.com/numamma/numamma-go/internal/config"
	"github.com/numamma/numamma-go/internal/reporter"
	"github.com/numamma/numamma-go/internal/session"
	"github.com/numamma/numamma-go/internal/symbolize"
	"github.com/numamma/numamma-go/pkg/types"
)

type opts struct {
	buffers     int
	bufferSize  int
	ticks       int
	interval    time.Duration
	warmup      int
	online      bool
	maxThreads  int
	dumpAll     bool
	outputDir   string
	verbose     bool
	scanImage   bool
	warnOnLeaks bool
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "numamma",
		Short: "Runtime memory-access profiler",
		Long: `numamma attributes memory-access samples to live and recently-freed
allocations, buckets them per page and per memory-hierarchy level, and
folds them into per-call-site counters.

This binary demonstrates the profiler end to end with a synthetic
workload and a synthetic sampler, since Go offers no portable way to
intercept malloc or read hardware performance counters directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
	}

	root.Flags().IntVar(&o.buffers, "buffers", 8, "number of synthetic buffers to allocate")
	root.Flags().IntVar(&o.bufferSize, "buffer-size", 256, "size in bytes of each synthetic buffer")
	root.Flags().IntVar(&o.ticks, "ticks", 20, "number of synthetic sample batches to generate")
	root.Flags().DurationVar(&o.interval, "interval", config.Default().SamplingPeriod, "delay between sample batches")
	root.Flags().IntVar(&o.warmup, "warmup", 1, "number of initial sample batches to discard")
	root.Flags().BoolVar(&o.online, "online", true, "eagerly preallocate per-thread page-bucket arrays at allocation time")
	root.Flags().IntVar(&o.maxThreads, "max-threads", config.Default().MaxThreads, "thread arrays to preallocate per allocation when --online is set")
	root.Flags().BoolVar(&o.dumpAll, "dump-all", false, "include freed allocations in all_memory_objects.dat")
	root.Flags().StringVar(&o.outputDir, "output", "numamma-report", "directory to write report files into")
	root.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().BoolVar(&o.scanImage, "scan-image", true, "register stack and global/TLS regions from /proc/self/maps (linux only)")
	root.Flags().BoolVar(&o.warnOnLeaks, "warn-leaks", true, "log allocations still live at shutdown")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(o opts) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Settings{
		Verbose:        o.verbose,
		OnlineAnalysis: o.online,
		MaxThreads:     o.maxThreads,
		SamplingPeriod: o.interval,
		WarmupBatches:  o.warmup,
		DumpAllObjects: o.dumpAll,
		WarnLeaks:      o.warnOnLeaks,
		OutputDir:      o.outputDir,
	}
	sess := session.New(cfg, log)
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("session close failed", slog.Any("err", err))
		}
	}()

	if o.scanImage {
		if err := sess.RegisterImage(); err != nil {
			log.Warn("image scan failed", slog.Any("err", err))
		}
	}

	var now types.LogicalTime = 1

	buffers := make([]types.Address, o.buffers)
	for i := range buffers {
		addr := types.Address(0x10000 + uint64(i)*0x1000)
		sess.RecordMalloc(addr, types.Bytes(o.bufferSize), now, symbolize.CaptureStack(0, 8))
		buffers[i] = addr
	}

	rng := rand.New(rand.NewSource(1))
	for tick := 0; tick < o.ticks; tick++ {
		now++
		batch := make([]attributor.Sample, 0, len(buffers))
		for _, addr := range buffers {
			offset := uint64(rng.Intn(o.bufferSize))
			access := types.AccessRead
			if rng.Intn(3) == 0 {
				access = types.AccessWrite
			}
			level := types.HitLevel(rng.Intn(types.HitLevelCount))
			outcome := types.Hit
			if rng.Intn(2) == 0 {
				outcome = types.Miss
			}
			if rng.Intn(20) == 0 {
				level = types.HitUnclassified
			}
			batch = append(batch, attributor.Sample{
				Addr:      types.Address(uint64(addr) + offset),
				Timestamp: now,
				Level:     level,
				Outcome:   outcome,
				Weight:    uint64(1 + rng.Intn(64)),
				Access:    access,
				ThreadKey: "demo-worker",
			})
		}
		sess.IngestSamples(batch)
		time.Sleep(o.interval)
	}

	live := sess.Registry.Live()
	if o.warnOnLeaks {
		for _, a := range live {
			log.Info("allocation still live at shutdown", slog.Uint64("id", a.ID), slog.String("addr", a.Start.String()))
		}
	}

	sites, unattributed := sess.Finalize()

	rep := reporter.New(o.outputDir, o.dumpAll)
	rep.PrintSummary(os.Stdout, sites, unattributed)

	if err := rep.WriteAll(live, sess.Registry.Past(), sites); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Printf("\nreport written to %s\n", o.outputDir)
	return nil
}
