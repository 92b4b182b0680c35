// Command arm26emu is a thin demonstration consumer of the System
// facade: load a ROM or flat binary, run or single-step it, and dump
// registers. The core itself has no CLI surface (§6); this is a host,
// not part of the emulator.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"archlab/arm26emu/config"
	"archlab/arm26emu/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var romPath string
	var maxCycles uint64
	var step bool

	root := &cobra.Command{
		Use:   "arm26emu",
		Short: "Run a flat ROM image on the 26-bit ARM core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				cfg = loaded
			}
			if romPath != "" {
				cfg.Memory.ROMPath = romPath
			}
			if maxCycles != 0 {
				cfg.Execution.MaxCycles = maxCycles
			}
			return runROM(cfg, step)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	root.Flags().StringVar(&romPath, "rom", "", "path to a flat ROM image")
	root.Flags().Uint64Var(&maxCycles, "max-cycles", 0, "override the configured cycle limit")
	root.Flags().BoolVar(&step, "step", false, "single-step and print each register dump instead of running to completion")

	return root
}

func runROM(cfg config.Config, step bool) error {
	if cfg.Memory.ROMPath == "" {
		return fmt.Errorf("no ROM image given (--rom or config memory.rom_path)")
	}
	data, err := os.ReadFile(cfg.Memory.ROMPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	gen, err := vm.ParseGeneration(cfg.Execution.Generation)
	if err != nil {
		return err
	}

	ramSize := int(cfg.Memory.RAMSize)
	if ramSize == 0 {
		ramSize = int(config.DefaultConfig().Memory.RAMSize)
	}
	sys := vm.NewWithMemory(gen, cfg.Memory.RAMBase, ramSize)
	if cfg.Diagnostics.TraceExecution {
		sys.Logger = slog.Default()
	}
	if err := sys.LoadROM(data); err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}
	sys.Reset()

	if step {
		for cycles := uint64(0); cycles < cfg.Execution.MaxCycles; {
			cycles += uint64(sys.Step())
			dumpRegisters(sys)
		}
		if cfg.Diagnostics.Statistics {
			fmt.Printf("cycles executed: %d\n", sys.Pipeline.Cycles)
		}
		return nil
	}

	sys.Run(cfg.Execution.MaxCycles, nil)
	dumpRegisters(sys)
	if cfg.Diagnostics.Statistics {
		fmt.Printf("cycles executed: %d\n", sys.Pipeline.Cycles)
	}
	return nil
}

func dumpRegisters(sys *vm.System) {
	for i := 0; i < 16; i++ {
		v, _ := sys.GetRegister(i)
		fmt.Printf("R%-2d = %08X  ", i, v)
		if i%4 == 3 {
			fmt.Println()
		}
	}
	fmt.Printf("mode=%s\n", sys.Mode())
}
