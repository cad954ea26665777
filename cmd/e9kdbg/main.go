// Command e9kdbg is the process entrypoint that wires the core components
// (config, emuhost, statering, inputrecord, machine, symbolizer, execctl)
// into a running debugger session. It has no GUI of its own — spec.md §1
// places the graphical toolkit out of scope — so "run" and "headless" are
// both plain frame-loop front doors, the former driven in real time until
// interrupted, the latter ticking as fast as possible to a frame count for
// CI smoke testing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e9kdbg/e9kdbg/config"
	"github.com/e9kdbg/e9kdbg/logger"
)

var opts struct {
	configPath string

	corePath  string
	romPath   string
	elfPath   string
	toolchain string
	biosDir   string
	saveDir   string
	sourceDir string

	system string

	recordPath   string
	playbackPath string

	stateBufferBytes int64
	audio            bool

	profileHTTP string

	breakpoints []string
}

func main() {
	logger.SetEcho(os.Stderr)

	root := &cobra.Command{
		Use:           "e9kdbg",
		Short:         "interactive debugger/profiler for a 68000-family libretro-style core",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "e9kdbg.conf", "persisted key=value config file")
	root.PersistentFlags().StringVar(&opts.corePath, "core", "", "path to the emulator plug-in (shared library)")
	root.PersistentFlags().StringVar(&opts.romPath, "rom", "", "path to the ROM/program image")
	root.PersistentFlags().StringVar(&opts.elfPath, "elf", "", "path to the debug-info ELF used for symbolization")
	root.PersistentFlags().StringVar(&opts.toolchain, "toolchain-prefix", "", "addr2line toolchain prefix, e.g. m68k-neogeo-elf-")
	root.PersistentFlags().StringVar(&opts.biosDir, "bios", "", "BIOS directory, passed to the plug-in as its system directory")
	root.PersistentFlags().StringVar(&opts.saveDir, "saves", "", "save directory, passed to the plug-in")
	root.PersistentFlags().StringVar(&opts.sourceDir, "source", "", "source directory used to display source lines in the callstack")
	root.PersistentFlags().StringVar(&opts.system, "system", "neogeo", "emulated system: neogeo, megadrive, or amiga")
	root.PersistentFlags().StringVar(&opts.recordPath, "record", "", "record input to this file (mutually exclusive with --playback)")
	root.PersistentFlags().StringVar(&opts.playbackPath, "playback", "", "replay input from this file (mutually exclusive with --record)")
	root.PersistentFlags().Int64Var(&opts.stateBufferBytes, "state-buffer-bytes", 0, "override the State Ring capacity (0 uses E9KDBG_STATE_RING_BYTES or the default)")
	root.PersistentFlags().BoolVar(&opts.audio, "audio", true, "drain the plug-in's audio output into a sink")
	root.PersistentFlags().StringVar(&opts.profileHTTP, "profile-http", "", "listen address for the checkpoint profiler dashboard, e.g. :18066 (empty disables it)")
	root.PersistentFlags().StringArrayVar(&opts.breakpoints, "breakpoint", nil, "hex address to break at on startup, may be repeated")

	root.AddCommand(newRunCommand())
	root.AddCommand(newHeadlessCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads opts.configPath (if present) and layers any explicitly
// passed flag values over it, so a flag always wins over a persisted
// default but an untouched flag never clobbers a saved setting.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()
	if err := cfg.LoadFile(opts.configPath); err != nil {
		return nil, err
	}

	if opts.corePath != "" {
		cfg.CorePath = opts.corePath
	}
	if opts.romPath != "" {
		cfg.RomPath = opts.romPath
	}
	if opts.elfPath != "" {
		cfg.ElfPath = opts.elfPath
	}
	if opts.toolchain != "" {
		cfg.ToolchainPrefix = opts.toolchain
	}
	if opts.biosDir != "" {
		cfg.BiosDir = opts.biosDir
	}
	if opts.saveDir != "" {
		cfg.SaveDir = opts.saveDir
	}
	if opts.sourceDir != "" {
		cfg.SourceDir = opts.sourceDir
	}
	if opts.stateBufferBytes > 0 {
		cfg.StateBufferBytes = opts.stateBufferBytes
	}
	if cmd.Flags().Changed("audio") {
		cfg.AudioEnabled = opts.audio
	}

	if cfg.CorePath == "" {
		return nil, fmt.Errorf("e9kdbg: no core plug-in configured (set --core or core.core in %s)", opts.configPath)
	}
	if cfg.RomPath == "" {
		return nil, fmt.Errorf("e9kdbg: no ROM configured (set --rom or core.rom in %s)", opts.configPath)
	}
	return cfg, nil
}
