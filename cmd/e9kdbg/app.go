package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"

	"github.com/e9kdbg/e9kdbg/config"
	"github.com/e9kdbg/e9kdbg/emuhost"
	"github.com/e9kdbg/e9kdbg/execctl"
	"github.com/e9kdbg/e9kdbg/inputrecord"
	"github.com/e9kdbg/e9kdbg/logger"
	"github.com/e9kdbg/e9kdbg/machine"
	"github.com/e9kdbg/e9kdbg/profiler"
	"github.com/e9kdbg/e9kdbg/statering"
	"github.com/e9kdbg/e9kdbg/symbolizer"
)

// app owns every core component for one debugger session and the order
// they must be torn down in. It is the Go-native replacement for the
// teacher's process-wide "debugger"/"e9ui" singletons (spec.md §9,
// "Global mutable state").
type app struct {
	cfg *config.Config

	host        *emuhost.Host
	ring        *statering.Ring
	input       *inputrecord.Log
	model       *machine.Model
	sym         *symbolizer.Client
	checkpoints *profiler.Checkpoints
	controller  *execctl.Controller
	dashboard   *profiler.Dashboard
}

func systemByName(name string) (machine.System, error) {
	switch strings.ToLower(name) {
	case "", "neogeo":
		return machine.NeoGeo, nil
	case "megadrive":
		return machine.MegaDrive, nil
	case "amiga":
		return machine.Amiga, nil
	default:
		return machine.System{}, fmt.Errorf("e9kdbg: unknown system %q", name)
	}
}

// newApp constructs and starts every core component from cfg, in
// dependency order: Symbolizer and State Ring have no prerequisites, the
// Emulator Host needs the plug-in loaded before breakpoints can be armed,
// and the Execution Controller is built last since it borrows every other
// component.
func newApp(cfg *config.Config, systemName string) (*app, error) {
	system, err := systemByName(systemName)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:         cfg,
		model:       machine.NewModel(system),
		checkpoints: profiler.NewCheckpoints(),
	}

	capacity := statering.CapacityFromEnv()
	if cfg.StateBufferBytes > 0 {
		capacity = int(cfg.StateBufferBytes)
	}
	a.ring = statering.NewRing(capacity)

	a.host = emuhost.NewHost()
	a.host.SetDirectories(cfg.BiosDir, cfg.SaveDir)
	for key, value := range cfg.Options {
		a.host.SetOverride(key, value)
	}

	if err := a.host.Load(cfg.CorePath); err != nil {
		return nil, err
	}
	if err := a.host.Start(cfg.RomPath); err != nil {
		a.host.Shutdown()
		return nil, err
	}

	if cfg.AudioEnabled {
		a.host.SetAudioSink(&audio.FloatBuffer{
			Format: &audio.Format{NumChannels: 2, SampleRate: 48000},
		})
	}

	toolchain := cfg.ToolchainPrefix
	if toolchain == "" {
		toolchain = system.ToolchainPrefix
	}
	if cfg.ElfPath != "" {
		a.sym = symbolizer.NewClient(toolchain)
		if err := a.sym.Start(cfg.ElfPath); err != nil {
			logger.Logf(logger.Allow, "e9kdbg", "symbolizer disabled: %v", err)
		}
	}

	a.input = inputrecord.New(a.host, a.checkpoints, os.Stdout)
	if err := a.input.Init(opts.recordPath, opts.playbackPath); err != nil {
		a.teardown()
		return nil, err
	}

	for _, addr := range opts.breakpoints {
		n, err := strconv.ParseUint(strings.TrimPrefix(addr, "0x"), 16, 32)
		if err != nil {
			a.teardown()
			return nil, fmt.Errorf("e9kdbg: invalid --breakpoint %q: %w", addr, err)
		}
		masked := system.Mask(uint32(n))
		a.model.AddBreakpoint(masked, true)
		a.host.SetBreakpoint(masked, true)
	}

	a.controller = execctl.New(a.host, a.ring, a.input, a.model, a.sym, cfg.SourceDir)

	if opts.profileHTTP != "" {
		a.dashboard = profiler.NewDashboard(opts.profileHTTP)
		a.dashboard.Start()
	}

	return a, nil
}

// teardown releases every component: the dashboard, then the controller
// (or, without one, the Symbolizer and the Host directly), then the input
// log. Safe to call on a partially constructed app.
func (a *app) teardown() {
	if a.dashboard != nil {
		a.dashboard.Stop()
	}
	if a.controller != nil {
		a.controller.Shutdown()
	} else {
		if a.sym != nil {
			a.sym.Stop()
		}
		if a.host != nil {
			a.host.Shutdown()
		}
	}
	if a.input != nil {
		if err := a.input.Shutdown(); err != nil {
			logger.Logf(logger.Allow, "e9kdbg", "closing input log: %v", err)
		}
	}
}
