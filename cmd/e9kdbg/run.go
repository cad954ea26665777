package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/e9kdbg/e9kdbg/execctl"
	"github.com/e9kdbg/e9kdbg/logger"
)

// frameInterval is the real-time pacing used by "run" between ticks,
// matching a 60 Hz video refresh (spec.md glossary, "Frame").
const frameInterval = time.Second / 60

func newRunCommand() *cobra.Command {
	var warp bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the debugger at real-time (or ×10 warp) speed until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, opts.system)
			if err != nil {
				return err
			}

			a.controller.SetWarp(warp)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a.controller.SetMode(execctl.Live)
			ticker := time.NewTicker(frameInterval)
			defer ticker.Stop()

			for {
				select {
				case s := <-sig:
					// Cancellation interrupts the loop after the current
					// tick completes, never mid-tick (spec.md §5); the
					// select only ever observes sig between ticks.
					a.teardown()
					exitOnSignal(s)
					return nil

				case <-ticker.C:
					if err := a.controller.Tick(ctx); err != nil {
						logger.Logf(logger.Allow, "e9kdbg", "tick failed: %v", err)
						a.teardown()
						os.Exit(1)
					}
					if a.controller.RestartRequested {
						a.teardown()
						os.Exit(2)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&warp, "warp", false, "start in ×10 warp speed")
	return cmd
}

// exitOnSignal matches spec.md §6: a fatal signal exits with 128+signum.
func exitOnSignal(s os.Signal) {
	if sig, ok := s.(syscall.Signal); ok {
		os.Exit(128 + int(sig))
	}
	os.Exit(1)
}
