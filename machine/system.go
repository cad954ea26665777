package machine

// System describes the small set of per-platform differences between two
// CPU systems that otherwise share this package's Model shape: the register
// name table, the code-address mask width, and the default symbolizer
// toolchain prefix. Modelled as data rather than duplicated per-system code,
// per the "Variant CPU systems" design note.
type System struct {
	Name string

	// RegisterNames lists the registers a Refresh call is expected to
	// populate, in display order. It is informational only: Refresh
	// accepts whatever register list the Emulator Host actually reports.
	RegisterNames []string

	// AddrMask is ANDed with every code address passed to any breakpoint
	// or callstack operation.
	AddrMask uint32

	// ToolchainPrefix is the default symbolizer toolchain prefix
	// (spec.md §6) for this system, used when no override is configured.
	ToolchainPrefix string
}

// NeoGeo is the Neo Geo / 68000-family system: 24-bit code addresses, as
// used throughout spec.md.
var NeoGeo = System{
	Name:            "neogeo",
	RegisterNames:   []string{"D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7", "A0", "A1", "A2", "A3", "A4", "A5", "A6", "A7", "PC", "SR"},
	AddrMask:        0x00FFFFFF,
	ToolchainPrefix: "m68k-neogeo-elf-",
}

// MegaDrive is a 24-bit-address 68000 variant, sharing NeoGeo's shape with
// its own toolchain default.
var MegaDrive = System{
	Name:            "megadrive",
	RegisterNames:   NeoGeo.RegisterNames,
	AddrMask:        0x00FFFFFF,
	ToolchainPrefix: "m68k-elf-",
}

// Amiga is the 68000-family Amiga system: the same 24-bit address mask
// and register table as NeoGeo, with its own toolchain prefix.
var Amiga = System{
	Name:            "amiga",
	RegisterNames:   NeoGeo.RegisterNames,
	AddrMask:        0x00FFFFFF,
	ToolchainPrefix: "m68k-amiga-elf-",
}

// Mask applies the system's address mask.
func (s System) Mask(addr uint32) uint32 {
	return addr & s.AddrMask
}
