package vm

// Mode identifies one of the four processor modes of the 26-bit core,
// encoded by the bottom two bits of the PSR (§3).
type Mode uint8

const (
	ModeUser Mode = 0
	ModeFIRQ Mode = 1
	ModeIRQ  Mode = 2
	ModeSVC  Mode = 3
)

// String names a mode for diagnostics.
func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIRQ:
		return "FIRQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSVC:
		return "SVC"
	default:
		return "???"
	}
}

// Privileged reports whether a mode runs with elevated memory and PSR
// access (§3: "User is unprivileged; the other three are privileged").
func (m Mode) Privileged() bool {
	return m != ModeUser
}

// PSR is the program status register: condition flags, interrupt masks,
// and the current processor mode. In the 26-bit core the PSR is packed
// into the high six bits and low two bits of R15 (§3); this type models
// just those bits, leaving the 26-bit PC to be tracked separately by CPU.
type PSR struct {
	N, Z, C, V  bool
	IRQDisable  bool // I
	FIRQDisable bool // F
	Mode        Mode
}

// ToWord packs the PSR into the bit positions it occupies within R15:
// bits 31-26 for flags/interrupt-masks, bits 1-0 for mode. Bits 25-2 are
// always zero so this value can be OR'd directly with a word-aligned PC.
func (p PSR) ToWord() uint32 {
	var w uint32
	if p.N {
		w |= 1 << PsrBitN
	}
	if p.Z {
		w |= 1 << PsrBitZ
	}
	if p.C {
		w |= 1 << PsrBitC
	}
	if p.V {
		w |= 1 << PsrBitV
	}
	if p.IRQDisable {
		w |= 1 << PsrBitI
	}
	if p.FIRQDisable {
		w |= 1 << PsrBitF
	}
	w |= uint32(p.Mode) & PsrModeMask
	return w
}

// FromWord unpacks the flags/mask/mode bits of a 32-bit composite,
// ignoring the PC field.
func (p *PSR) FromWord(w uint32) {
	p.N = w&(1<<PsrBitN) != 0
	p.Z = w&(1<<PsrBitZ) != 0
	p.C = w&(1<<PsrBitC) != 0
	p.V = w&(1<<PsrBitV) != 0
	p.IRQDisable = w&(1<<PsrBitI) != 0
	p.FIRQDisable = w&(1<<PsrBitF) != 0
	p.Mode = Mode(w & PsrModeMask)
}

// NZCV packs just the four condition flags into the low nibble of a byte
// (N in bit 3),
// used to index the condition matrix (§3, §8).
func (p PSR) NZCV() uint8 {
	var b uint8
	if p.N {
		b |= 0x8
	}
	if p.Z {
		b |= 0x4
	}
	if p.C {
		b |= 0x2
	}
	if p.V {
		b |= 0x1
	}
	return b
}

// UpdateFlagsNZ sets N and Z from a result word.
func (p *PSR) UpdateFlagsNZ(result uint32) {
	p.N = result&SignBitMask != 0
	p.Z = result == 0
}

// UpdateFlagsNZC sets N, Z and C.
func (p *PSR) UpdateFlagsNZC(result uint32, carry bool) {
	p.UpdateFlagsNZ(result)
	p.C = carry
}

// UpdateFlagsNZCV sets all four flags.
func (p *PSR) UpdateFlagsNZCV(result uint32, carry, overflow bool) {
	p.UpdateFlagsNZ(result)
	p.C = carry
	p.V = overflow
}
