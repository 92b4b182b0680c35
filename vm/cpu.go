package vm

// CPU is the banked register file of the 26-bit core (§4.C). The 26-bit
// program counter and the PSR are stored separately and composited on
// demand: pc carries only the word-aligned address field (bits 25-2),
// psr carries only the flag/mask/mode bits (bits 31-26, 1-0). This
// mirrors how the hardware keeps R15's PC field and its status bits in
// physically distinct storage that only ever overlaps when read together.
type CPU struct {
	// R0-R14 of the *currently active* mode. Banked modes swap their
	// private registers in and out of the R8-R14 slice on a mode change.
	r [NumGeneralRegisters]uint32

	pc  uint32
	psr PSR

	// Banked copies, indexed per original_source/ArmEmu/RegisterFile.cpp.
	userBank [7]uint32 // R8-R14, User/System view
	firqBank [7]uint32 // R8-R14, FIRQ view
	irqBank  [2]uint32 // R13-R14, IRQ view
	svcBank  [2]uint32 // R13-R14, SVC view

	// Generation gates ARMv4 extensions (half-word/signed transfers) on
	// top of the ARMv2a base; see SPEC_FULL.md Open Question #1.
	Generation Generation
}

// Generation selects which instruction-set extensions beyond the ARMv2
// base are active.
type Generation int

const (
	GenARMv2 Generation = iota
	GenARMv2a
	GenARMv3
	GenARMv4
)

// ParseGeneration maps a configuration string to a Generation.
func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "", "armv2":
		return GenARMv2, nil
	case "armv2a":
		return GenARMv2a, nil
	case "armv3":
		return GenARMv3, nil
	case "armv4":
		return GenARMv4, nil
	default:
		return 0, errInvalidState("ParseGeneration: unknown generation " + s)
	}
}

// NewCPU returns a CPU in Reset state: SVC mode, IRQ and FIRQ both
// masked (§4.D), PC at the reset vector.
func NewCPU(gen Generation) *CPU {
	c := &CPU{Generation: gen}
	c.ResetState()
	return c
}

// ResetState puts the CPU into the state produced by the Reset exception:
// SVC mode, both interrupt sources masked, PC at the reset vector.
func (c *CPU) ResetState() {
	c.r = [NumGeneralRegisters]uint32{}
	c.userBank = [7]uint32{}
	c.firqBank = [7]uint32{}
	c.irqBank = [2]uint32{}
	c.svcBank = [2]uint32{}
	c.psr = PSR{Mode: ModeSVC, IRQDisable: true, FIRQDisable: true}
	c.pc = VectorReset
}

// Mode returns the current processor mode.
func (c *CPU) Mode() Mode { return c.psr.Mode }

// PSR returns a copy of the current program status register.
func (c *CPU) PSR() PSR { return c.psr }

// PC returns the raw 26-bit program counter field (the address of the
// instruction about to be fetched into the pipeline), without the PSR
// composited in.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC sets the raw 26-bit program counter field directly, masking to
// the word-aligned 26-bit field. Used by reset, exception delivery and
// the pipeline flush; ordinary branches go through this too.
func (c *CPU) SetPC(addr uint32) { c.pc = addr & PCMask }

// changeMode performs the register-bank swap described in
// original_source/ArmEmu/RegisterFile.cpp: save R8-R14 of the outgoing
// mode into its bank, then load R8-R14 of the incoming mode from its
// bank. R0-R7 are never banked.
func (c *CPU) changeMode(newMode Mode) {
	old := c.psr.Mode
	if old == newMode {
		return
	}

	switch old {
	case ModeUser:
		copy(c.userBank[:], c.r[8:15])
	case ModeFIRQ:
		copy(c.firqBank[:], c.r[8:15])
	case ModeIRQ:
		copy(c.userBank[:5], c.r[8:13])
		copy(c.irqBank[:], c.r[13:15])
	case ModeSVC:
		copy(c.userBank[:5], c.r[8:13])
		copy(c.svcBank[:], c.r[13:15])
	}

	switch newMode {
	case ModeUser:
		copy(c.r[8:15], c.userBank[:])
	case ModeFIRQ:
		copy(c.r[8:15], c.firqBank[:])
	case ModeIRQ:
		copy(c.r[8:13], c.userBank[:5])
		copy(c.r[13:15], c.irqBank[:])
	case ModeSVC:
		copy(c.r[8:13], c.userBank[:5])
		copy(c.r[13:15], c.svcBank[:])
	}

	c.psr.Mode = newMode
}

// WithUserPrivilege runs fn with the processor temporarily demoted to
// User mode, then restores the mode that was active on entry (§4.F's
// LDR/STR-unprivileged "T" form: post-indexed with the write-back bit
// set). The demotion banks R8-R14 out exactly as any other mode change
// does; fn is expected to touch only the bus, not cpu's registers,
// since those registers would read back the User bank's values for
// the call's duration.
func (c *CPU) WithUserPrivilege(fn func()) {
	saved := c.psr.Mode
	c.changeMode(ModeUser)
	fn()
	c.changeMode(saved)
}

// SetPSR installs a full PSR, performing a mode change (with register
// banking) if the mode bits differ from the current mode. This is the
// path used by exception delivery and by an unconditional MSR of the
// whole PSR.
func (c *CPU) SetPSR(p PSR) {
	c.changeMode(p.Mode)
	c.psr = p
}

// UpdatePSR merges the bits of psrBits that the current privilege level
// is allowed to change into the live PSR (§4.C): user mode may only
// change the flags; privileged modes may also change the interrupt
// masks and the mode field.
func (c *CPU) UpdatePSR(psrBits uint32) {
	old := c.psr
	mask := PsrMaskUser
	if old.Mode.Privileged() {
		mask = PsrMaskPrivileged
	}
	merged := (old.ToWord() &^ mask) | (psrBits & mask)
	var next PSR
	next.FromWord(merged)
	c.SetPSR(next)
}

// GetRn reads a general register by index with no R15 special case
// beyond its plain architectural value (callers fetching R15 as an
// operand use GetRm/GetRs depending on the instruction field it fills;
// GetRn is for Rn only, which never legally names R15 as PC+offset).
func (c *CPU) GetRn(reg int) uint32 {
	if reg == PC {
		return c.pc | c.psr.ToWord()
	}
	return c.r[reg]
}

// SetRn writes a general register. Writing R15 updates only the PC
// field, as in original_source's setRn — the PSR bits of the written
// value are discarded, never merged into status.
func (c *CPU) SetRn(reg int, value uint32) {
	if reg == PC {
		c.SetPC(value)
		return
	}
	c.r[reg] = value
}

// GetRm reads a register used as the Rm (shifted) operand. R15 yields
// the full composite PC+8-plus-PSR value used as the architectural
// "address of the instruction + 8, with status flags".
func (c *CPU) GetRm(reg int) uint32 {
	if reg == PC {
		return c.pc | c.psr.ToWord()
	}
	return c.r[reg]
}

// GetRs reads a register used as a shift-amount or multiply operand. If
// R15 is read here the result is PC+4 with no PSR bits merged in (§4.B,
// §9 Open Question #2), matching original_source's getRs.
func (c *CPU) GetRs(reg int) uint32 {
	if reg == PC {
		return c.pc + InstructionSize
	}
	return c.r[reg]
}

// GetRd reads the destination-register field when it is read rather
// than written (the Rd-as-source forms of CMP/CMN/TST/TEQ with Rd=R15
// read only the PSR, per original_source's getRd).
func (c *CPU) GetRd(reg int) uint32 {
	if reg == PC {
		return c.psr.ToWord()
	}
	return c.r[reg]
}

// SetRd writes the destination register of a data-processing instruction.
// When reg is R15 and updateStatus is set (the S bit was set on an
// instruction whose Rd is R15), the PSR bits of value are merged into
// status via UpdatePSR before the PC field is written — this is how a
// privileged-mode "MOVS PC, Rn" return restores mode and flags in one
// instruction.
func (c *CPU) SetRd(reg int, value uint32, updateStatus bool) {
	if reg == PC {
		if updateStatus {
			c.UpdatePSR(value)
		}
		c.SetPC(value)
		return
	}
	c.r[reg] = value
}

// GetUserRn reads a register as the *User-mode* view regardless of the
// current mode, used by LDM/STM's user-bank transfer (the ^ suffix,
// §4.F). R0-R7 are never banked so they read directly; R15 yields the
// STM-style PC+4 composite; R8-R14 are read from whichever bank
// currently holds the User-mode values for the active mode.
func (c *CPU) GetUserRn(reg int) uint32 {
	if reg == PC {
		return (c.pc + InstructionSize) | c.psr.ToWord()
	}
	if reg < 8 {
		return c.r[reg]
	}
	switch c.psr.Mode {
	case ModeUser:
		return c.r[reg]
	case ModeFIRQ:
		return c.userBank[reg-8]
	case ModeIRQ:
		if reg < 13 {
			return c.r[reg]
		}
		return c.userBank[reg-8]
	case ModeSVC:
		if reg < 13 {
			return c.r[reg]
		}
		return c.userBank[reg-8]
	}
	return c.r[reg]
}

// SetUserRn writes a register through the User-mode view, symmetric
// with GetUserRn.
func (c *CPU) SetUserRn(reg int, value uint32) {
	if reg == PC {
		c.SetPC(value)
		return
	}
	if reg < 8 {
		c.r[reg] = value
		return
	}
	switch c.psr.Mode {
	case ModeUser:
		c.r[reg] = value
	case ModeFIRQ:
		c.userBank[reg-8] = value
	case ModeIRQ:
		if reg < 13 {
			c.r[reg] = value
		} else {
			c.userBank[reg-8] = value
		}
	case ModeSVC:
		if reg < 13 {
			c.r[reg] = value
		} else {
			c.userBank[reg-8] = value
		}
	}
}

// GetRx reads the general STM composite form of a register: identical
// to GetRm for R0-R14, and PC+4 with PSR bits merged in for R15. Kept as
// a distinct accessor from GetUserRn because the two diverge once a
// caller needs the *current*-bank view of R15 in a non-user-bank STM
// (plain STM of R15 always stores this composite regardless of the ^ bit).
func (c *CPU) GetRx(reg int) uint32 {
	if reg == PC {
		return (c.pc + InstructionSize) | c.psr.ToWord()
	}
	return c.r[reg]
}

// bankedLR returns a pointer to the R14 bank slot appropriate to mode,
// used by the exception engine to save the banked link register without
// going through changeMode's wholesale swap (the target mode's bank
// isn't active yet when an exception is raised).
func (c *CPU) bankedLR(mode Mode) *uint32 {
	switch mode {
	case ModeFIRQ:
		return &c.firqBank[6]
	case ModeIRQ:
		return &c.irqBank[1]
	case ModeSVC:
		return &c.svcBank[1]
	default:
		return &c.userBank[6]
	}
}
