package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e9kdbg/e9kdbg/execctl"
)

func newHeadlessCommand() *cobra.Command {
	var frames uint64
	var smokeExitCode int
	var noRolling bool

	cmd := &cobra.Command{
		Use:   "headless",
		Short: "tick as fast as possible to a frame count, no UI (CI smoke mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, opts.system)
			if err != nil {
				return err
			}
			defer a.teardown()

			if noRolling {
				a.ring.SetRollingPaused(true)
			}

			code := 0
			a.controller.SmokeTestExitCode = &code

			ctx := context.Background()
			a.controller.SetMode(execctl.Headless)

			for n := uint64(0); frames == 0 || n < frames; n++ {
				if err := a.controller.Tick(ctx); err != nil {
					return fmt.Errorf("e9kdbg: tick %d failed: %w", n, err)
				}
				if a.controller.Mode() != execctl.Headless {
					break
				}
			}

			if f, ok := a.ring.CurrentFrame(); ok {
				fmt.Fprintf(os.Stdout, "frames=%d state-ring-records=%d\n", f+1, a.ring.Len())
			}

			if *a.controller.SmokeTestExitCode != 0 {
				os.Exit(*a.controller.SmokeTestExitCode)
			}
			if smokeExitCode != 0 {
				os.Exit(smokeExitCode)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&frames, "frames", 600, "number of frames to tick before exiting (0 runs until a breakpoint pauses it)")
	cmd.Flags().IntVar(&smokeExitCode, "smoke-exit-code", 0, "exit code to propagate verbatim on a clean finish, overriding the default 0")
	cmd.Flags().BoolVar(&noRolling, "no-rolling", false, "disable State Ring recording entirely for this run")

	return cmd
}
