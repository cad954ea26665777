package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/e9kdbg/e9kdbg/curated"
)

// Config is the core's persisted configuration. Every field mirrors a
// field of e9k_neogeo_config_t / e9k_amiga_config_t's shared "libretro"
// sub-struct in the original implementation's config.h.
type Config struct {
	CorePath         string
	RomPath          string
	ElfPath          string
	ToolchainPrefix  string
	BiosDir          string
	SaveDir          string
	SourceDir        string
	AudioBufferMs    int
	AudioEnabled     bool
	StateBufferBytes int64

	// Options holds the plug-in's per-option overrides, keyed by the
	// option key reported through the environment callback (spec.md §4.4).
	Options map[string]string
}

// New returns a Config with AudioEnabled defaulted on, matching the
// original's config_persistConfig which always writes audio_enabled even
// when nothing else is set.
func New() *Config {
	return &Config{
		AudioEnabled: true,
		Options:      make(map[string]string),
	}
}

const optionPrefix = "core.option."

// Load reads key=value pairs from r, filling in any field present. Unknown
// keys are ignored (forward compatible with a newer config file read by an
// older binary); a key without a value (or a value trimmed to empty) is
// left at whatever the field was before the call, matching
// config_trimValue's lenient handling of blank values.
func (c *Config) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := trimValue(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = trimValue(key)
		value = trimValue(value)
		if value == "" {
			continue
		}

		if strings.HasPrefix(key, optionPrefix) {
			c.Options[strings.TrimPrefix(key, optionPrefix)] = value
			continue
		}

		switch key {
		case "core.core":
			c.CorePath = value
		case "core.rom":
			c.RomPath = value
		case "core.elf":
			c.ElfPath = value
		case "core.toolchain_prefix":
			c.ToolchainPrefix = value
		case "core.bios":
			c.BiosDir = value
		case "core.saves":
			c.SaveDir = value
		case "core.source":
			c.SourceDir = value
		case "core.audio_ms":
			if n, err := strconv.Atoi(value); err == nil {
				c.AudioBufferMs = n
			}
		case "core.audio_enabled":
			c.AudioEnabled = value != "0"
		case "core.state_buffer_bytes":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				c.StateBufferBytes = n
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return curated.Errorf("config: read failed: %v", err)
	}

	return nil
}

// LoadFile opens path and calls Load. A missing file is not an error: it is
// treated the same as an empty config, matching a first-run with no saved
// preferences.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return curated.Errorf("config: cannot open %s: %v", path, err)
	}
	defer f.Close()

	return c.Load(f)
}

// Save writes every non-zero field, plus audio_enabled unconditionally
// (matching config_persistConfig, which always writes that one field).
func (c *Config) Save(w io.Writer) error {
	write := func(key, value string) error {
		if value == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, "core.%s=%s\n", key, value)
		return err
	}

	if err := write("core", c.CorePath); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("rom", c.RomPath); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("elf", c.ElfPath); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("toolchain_prefix", c.ToolchainPrefix); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("bios", c.BiosDir); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("saves", c.SaveDir); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if err := write("source", c.SourceDir); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}
	if c.AudioBufferMs > 0 {
		if err := write("audio_ms", strconv.Itoa(c.AudioBufferMs)); err != nil {
			return curated.Errorf("config: write failed: %v", err)
		}
	}
	if c.StateBufferBytes > 0 {
		if err := write("state_buffer_bytes", strconv.FormatInt(c.StateBufferBytes, 10)); err != nil {
			return curated.Errorf("config: write failed: %v", err)
		}
	}

	audioEnabled := "0"
	if c.AudioEnabled {
		audioEnabled = "1"
	}
	if _, err := fmt.Fprintf(w, "core.audio_enabled=%s\n", audioEnabled); err != nil {
		return curated.Errorf("config: write failed: %v", err)
	}

	keys := make([]string, 0, len(c.Options))
	for k := range c.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s=%s\n", optionPrefix, k, c.Options[k]); err != nil {
			return curated.Errorf("config: write failed: %v", err)
		}
	}

	return nil
}

// SaveFile writes the config to path, truncating any existing file.
func (c *Config) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return curated.Errorf("config: cannot create %s: %v", path, err)
	}
	defer f.Close()

	return c.Save(f)
}

// trimValue mirrors config_trimValue: strip a trailing newline/carriage
// return and leading spaces/tabs.
func trimValue(s string) string {
	s = strings.TrimRight(s, "\r\n")
	return strings.TrimLeft(s, " \t")
}
