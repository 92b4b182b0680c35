// Package config loads the TOML-backed configuration for a hosted
// emulator instance: execution limits, the guest memory map, and
// diagnostics toggles (ambient stack, generalized from the teacher
// repo's config package).
package config

import (
	"github.com/BurntSushi/toml"
)

// Execution controls how long and how strictly a run proceeds.
type Execution struct {
	MaxCycles  uint64 `toml:"max_cycles"`
	Generation string `toml:"generation"` // "armv2", "armv2a", "armv3", "armv4"
}

// Memory describes the guest memory map (§6).
type Memory struct {
	RAMBase uint32 `toml:"ram_base"`
	RAMSize uint32 `toml:"ram_size"`
	ROMPath string `toml:"rom_path"`
}

// Diagnostics toggles optional instrumentation.
type Diagnostics struct {
	TraceExecution bool `toml:"trace_execution"`
	TraceMemory    bool `toml:"trace_memory"`
	Statistics     bool `toml:"statistics"`
}

// Config is the top-level configuration document.
type Config struct {
	Execution   Execution   `toml:"execution"`
	Memory      Memory      `toml:"memory"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

// DefaultConfig returns the configuration a System is built with when no
// file is supplied: 10,000,000 max cycles, 32 KiB of RAM at 0x8000, the
// ARMv2a generation, diagnostics off.
func DefaultConfig() Config {
	return Config{
		Execution: Execution{
			MaxCycles:  10_000_000,
			Generation: "armv2a",
		},
		Memory: Memory{
			RAMBase: 0x00008000,
			RAMSize: 32 * 1024,
		},
	}
}

// Load reads a TOML configuration file, starting from DefaultConfig and
// overriding whatever the file specifies.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
