package vm

import "log/slog"

// System is the single opaque handle the rest of the world uses to
// drive the core (§4.H). It owns the CPU, the memory map, and the
// pipeline, and is the only place host-observable errors (as opposed to
// architectural exceptions) are ever raised from.
type System struct {
	CPU      *CPU
	Memory   *MemoryMap
	Pipeline *Pipeline

	// Logger, when non-nil, receives one Debug record per Step call
	// (§6's diagnostics toggles) reporting the cycle count reached and
	// the processor mode. Left nil (the default), Step does no logging
	// at all, so the common case pays nothing.
	Logger *slog.Logger

	romSize int
}

// defaultRAMSize is 32 KiB, matching original_source/ArmEmu/
// SystemResources.cpp's default RAM allocation.
const defaultRAMSize = 32 * 1024

// New builds a fresh emulator: default RAM base and size, no ROM, CPU
// held in Reset state until the caller explicitly calls Reset (which
// flushes the pipeline for the first time).
func New(gen Generation) *System {
	return NewWithMemory(gen, DefaultRAMBase, defaultRAMSize)
}

// NewWithMemory builds a fresh emulator with a caller-chosen RAM window,
// the knob config.Memory.RAMBase/RAMSize exposes (§6's ambient
// configuration layer).
func NewWithMemory(gen Generation, ramBase uint32, ramSize int) *System {
	cpu := NewCPU(gen)
	mem := NewMemoryMap(ramBase, ramSize, 0, nil, false)
	return &System{CPU: cpu, Memory: mem}
}

// LoadROM replaces the ROM image. Size is rounded up to the next 4 KiB
// boundary with the tail zero-filled, and the ROM becomes readable both
// at the low window and, mirrored, at the top of the 26-bit address
// space (§6's dual-window layout).
func (s *System) LoadROM(data []byte) error {
	if len(data) == 0 {
		return errInvalidState("LoadROM: empty image")
	}
	rounded := (len(data) + 4095) &^ 4095
	rom := make([]byte, rounded)
	copy(rom, data)
	s.romSize = rounded
	s.Memory.rom = rom
	s.Memory.mirrorROM = true
	return nil
}

// MapMMIO registers an additional MMIO region.
func (s *System) MapMMIO(base, size uint32, dev MMIODevice) error {
	if size == 0 || size%RegionAlign != 0 || base%RegionAlign != 0 {
		return errInvalidState("MapMMIO: base and size must be word-aligned and size a multiple of 4")
	}
	for _, r := range s.Memory.regions {
		if base < r.base+r.size && r.base < base+size {
			return errInvalidState("MapMMIO: region overlaps an existing mapping")
		}
	}
	s.Memory.MapDevice(base, size, dev)
	return nil
}

// MapMemory registers a host-backed raw memory region over
// [base, base+size) (§6's `map_memory(base, size, host_ptr, writable?)`):
// guest reads and writes at that range go directly against buf, the
// Go-idiomatic stand-in for a host pointer. len(buf) must be at least
// size; the caller owns buf for as long as the emulator may touch it.
func (s *System) MapMemory(base, size uint32, buf []byte, writable bool) error {
	if size == 0 || size%RegionAlign != 0 || base%RegionAlign != 0 {
		return errInvalidState("MapMemory: base and size must be word-aligned and size a multiple of 4")
	}
	if uint32(len(buf)) < size {
		return errInvalidState("MapMemory: buf shorter than size")
	}
	for _, r := range s.Memory.regions {
		if base < r.base+r.size && r.base < base+size {
			return errInvalidState("MapMemory: region overlaps an existing mapping")
		}
	}
	s.Memory.MapDevice(base, size, &hostMemory{buf: buf[:size], writable: writable})
	return nil
}

// RebuildMap sorts and deduplicates the region table (§6's
// `rebuild_map()`), needed after a caller re-registers a region at a
// base another region already occupies.
func (s *System) RebuildMap() { s.Memory.RebuildMap() }

// RaiseHostInterrupt sets the host-pending interrupt bit (§3, §6). It
// is safe to call from any goroutine, concurrently with the emulator's
// own Step/Run — the host-pending bit is never masked and, the next
// time the run loop observes it, Run returns without vectoring through
// the exception engine so the host can act.
func (s *System) RaiseHostInterrupt() {
	s.ensurePipeline()
	s.Pipeline.IRQs.Raise(IRQPendingHost)
}

// Reset raises the Reset exception and performs the first pipeline
// fill (§4.D, §4.H).
func (s *System) Reset() {
	s.CPU.Raise(ExceptionReset)
	s.Pipeline = NewPipeline(s.CPU, s.Memory)
}

// Step runs exactly one pipeline iteration and returns the cycle cost.
func (s *System) Step() int {
	s.ensurePipeline()
	cycles := s.Pipeline.Step()
	if s.Logger != nil {
		s.Logger.Debug("step", "cycles_total", s.Pipeline.Cycles, "mode", s.Mode(), "pc", s.CPU.PC())
	}
	return cycles
}

// Run executes until maxCycles is reached or stop returns true.
func (s *System) Run(maxCycles uint64, stop func() bool) int {
	s.ensurePipeline()
	return s.Pipeline.Run(maxCycles, stop)
}

func (s *System) ensurePipeline() {
	if s.Pipeline == nil {
		s.Reset()
	}
}

// Mode returns the current processor mode.
func (s *System) Mode() Mode { return s.CPU.Mode() }

// GetRegister reads a general register (0-15) through the same
// composite-on-R15 semantics software observes (§4.H).
func (s *System) GetRegister(id int) (uint32, error) {
	if id < 0 || id > 15 {
		return 0, errInvalidArgumentRegister(id)
	}
	return s.CPU.GetRm(id), nil
}

// SetRegister writes a general register (0-15).
func (s *System) SetRegister(id int, value uint32) error {
	if id < 0 || id > 15 {
		return errInvalidArgumentRegister(id)
	}
	s.CPU.SetRn(id, value)
	return nil
}

func errInvalidArgumentRegister(id int) error {
	return errInvalidInstruction("GetRegister/SetRegister: register id out of range 0-15")
}

// ReadGuest copies len(buf) bytes from guest memory starting at addr
// (§4.H), stopping only at the 26-bit address ceiling. Unmapped addresses
// below the ceiling are not a stopping point: they are copied as the
// unmapped-read pattern. Bytes in an MMIO region are read through the
// device's ReadWord. Returns the number of bytes actually copied.
func (s *System) ReadGuest(addr uint32, buf []byte) int {
	n := 0
	for n < len(buf) {
		cur := addr + uint32(n)
		if !addressValid(cur) {
			break
		}
		buf[n] = s.Memory.ReadByte(cur)
		n++
	}
	return n
}

// WriteGuest writes bytes into guest memory starting at addr, stopping
// at the first address above the 26-bit ceiling. Returns the number of
// bytes actually written.
func (s *System) WriteGuest(addr uint32, data []byte) int {
	n := 0
	for n < len(data) {
		cur := addr + uint32(n)
		if !addressValid(cur) {
			break
		}
		s.Memory.WriteByte(cur, data[n])
		n++
	}
	return n
}
