package vm

// LoadStoreUnit executes single-register data transfers: LDR/STR (word
// and byte), the ARMv4 half-word and signed-byte/half-word forms, and
// SWP/SWPB (§4.F). It owns the address-mode arithmetic shared by both
// instruction families so pre/post-indexing and write-back are computed
// once.
type LoadStoreUnit struct {
	Bus *MemoryMap
}

// transferOutcome reports whether a transfer raised an address
// exception (§4.E: any address with bits above bit 25 set is invalid)
// rather than completing. A data abort would be reported the same way
// if this core's dispatcher ever refused a mapped access, but the
// dispatcher here never does — every address that passes the 26-bit
// range check either hits RAM/ROM/an MMIO region or reads back the
// fixed unmapped pattern (§4.E), so no distinct data-abort path exists
// to wire up.
type transferOutcome struct {
	raise    ExceptionKind
	hasRaise bool
}

// HasRaise reports whether the transfer raised an exception instead of
// completing.
func (o transferOutcome) HasRaise() bool { return o.hasRaise }

// Kind returns the exception that was raised; only meaningful when
// HasRaise reports true.
func (o transferOutcome) Kind() ExceptionKind { return o.raise }

func addressValid(addr uint32) bool { return addr < AddressSpaceCeil }

func addressException() transferOutcome {
	return transferOutcome{raise: ExceptionAddress, hasRaise: true}
}

// ExecuteSingleTransfer runs LDR/STR (§4.F). Bit layout: bit25=I
// (register offset), bit24=P (pre/post), bit23=U (up/down), bit22=B
// (byte), bit21=W (write-back), bit20=L (load).
func (lu *LoadStoreUnit) ExecuteSingleTransfer(cpu *CPU, instr uint32) transferOutcome {
	registerOffset := instr&(1<<25) != 0
	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	byteAccess := instr&(1<<22) != 0
	writeBack := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := int((instr >> 16) & Mask4Bit)
	rd := int((instr >> 12) & Mask4Bit)

	offset := lu.decodeOffset(cpu, instr, registerOffset)

	// Post-indexed with W set reuses the write-back bit as the "T" bit:
	// an unprivileged-access form that performs the memory access as if
	// temporarily demoted to User mode, then restores the active mode
	// (§4.F). Pre-indexed encodings have no such form — W there is
	// simply write-back.
	unprivileged := !pre && writeBack

	base := cpu.GetRn(rn)
	effective := base
	if pre {
		effective = applyOffset(base, offset, up)
		if !addressValid(effective) {
			return addressException()
		}
	} else if !addressValid(base) {
		return addressException()
	}

	if load {
		var value uint32
		access := func() {
			if byteAccess {
				value = uint32(lu.Bus.ReadByte(effective))
			} else {
				value = lu.Bus.ReadWordRotated(effective)
			}
		}
		if unprivileged {
			cpu.WithUserPrivilege(access)
		} else {
			access()
		}
		cpu.SetRn(rd, value)
	} else {
		value := cpu.GetRx(rd)
		access := func() {
			if byteAccess {
				lu.Bus.WriteByte(effective, byte(value))
			} else {
				lu.Bus.WriteWord(effective&^3, value)
			}
		}
		if unprivileged {
			cpu.WithUserPrivilege(access)
		} else {
			access()
		}
	}

	final := effective
	if !pre {
		final = applyOffset(base, offset, up)
	}
	// Write-back is implied by post-indexing and explicit for pre-indexed
	// forms with the W bit set; it never applies when Rd==Rn on a load,
	// since the loaded value must win (§4.F).
	if (!pre || writeBack) && !(load && rd == rn) {
		cpu.SetRn(rn, final)
	}
	return transferOutcome{}
}

// ExecuteHalfwordTransfer runs LDRH/STRH/LDRSB/LDRSH (§4.F, ARMv4
// extension gated by CPU.Generation — see SPEC_FULL.md Open Question #1).
// Bit layout differs from the word/byte form: bit22 selects an immediate
// 8-bit offset (split across bits 11-8 and 3-0) versus a register
// offset in bits 3-0; bits 6-5 select {undefined, unsigned half, signed
// byte, signed half}.
func (lu *LoadStoreUnit) ExecuteHalfwordTransfer(cpu *CPU, instr uint32) (transferOutcome, error) {
	if cpu.Generation < GenARMv4 {
		return transferOutcome{}, errInvalidInstruction("half-word/signed transfer requires ARMv4")
	}

	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	immediateOffset := instr&(1<<22) != 0
	writeBack := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := int((instr >> 16) & Mask4Bit)
	rd := int((instr >> 12) & Mask4Bit)
	sh := (instr >> 5) & Mask2Bit

	var offset uint32
	if immediateOffset {
		offset = ((instr>>8)&Mask4Bit)<<4 | (instr & Mask4Bit)
	} else {
		offset = cpu.GetRm(int(instr & Mask4Bit))
	}

	base := cpu.GetRn(rn)
	effective := base
	if pre {
		effective = applyOffset(base, offset, up)
		if !addressValid(effective) {
			return addressException(), nil
		}
	} else if !addressValid(base) {
		return addressException(), nil
	}

	if load {
		var value uint32
		switch sh {
		case 1: // unsigned half-word
			value = uint32(lu.Bus.ReadHalf(effective))
		case 2: // signed byte
			value = uint32(int32(int8(lu.Bus.ReadByte(effective))))
		case 3: // signed half-word
			value = uint32(int32(int16(lu.Bus.ReadHalf(effective))))
		default:
			return transferOutcome{}, errInvalidInstruction("half-word transfer: reserved sh field")
		}
		cpu.SetRn(rd, value)
	} else {
		if sh != 1 {
			return transferOutcome{}, errInvalidInstruction("half-word transfer: only STRH stores")
		}
		lu.Bus.WriteHalf(effective, uint16(cpu.GetRx(rd)))
	}

	final := effective
	if !pre {
		final = applyOffset(base, offset, up)
	}
	if (!pre || writeBack) && !(load && rd == rn) {
		cpu.SetRn(rn, final)
	}
	return transferOutcome{}, nil
}

// ExecuteSwap runs SWP/SWPB (§4.F): an atomic load from [Rn] into Rd
// followed by a store of Rm to the same address. This core is
// single-threaded, so atomicity is free; the ordering (load before
// store, Rd sampled only from memory, never from a stale register) is
// what the instruction's semantics actually require.
func (lu *LoadStoreUnit) ExecuteSwap(cpu *CPU, instr uint32) transferOutcome {
	byteAccess := instr&(1<<22) != 0
	rn := int((instr >> 16) & Mask4Bit)
	rd := int((instr >> 12) & Mask4Bit)
	rm := int(instr & Mask4Bit)

	addr := cpu.GetRn(rn)
	if !addressValid(addr) {
		return addressException()
	}
	newValue := cpu.GetRm(rm)

	if byteAccess {
		old := lu.Bus.ReadByte(addr)
		lu.Bus.WriteByte(addr, byte(newValue))
		cpu.SetRn(rd, uint32(old))
		return transferOutcome{}
	}
	old := lu.Bus.ReadWordRotated(addr)
	lu.Bus.WriteWord(addr&^3, newValue)
	cpu.SetRn(rd, old)
	return transferOutcome{}
}

func (lu *LoadStoreUnit) decodeOffset(cpu *CPU, instr uint32, registerOffset bool) uint32 {
	if !registerOffset {
		return instr & Mask12Bit
	}
	rm := int(instr & Mask4Bit)
	shiftType := ShiftType((instr >> 5) & Mask2Bit)
	amount := (instr >> 7) & Mask5Bit
	value, _ := Shift(shiftType, cpu.GetRm(rm), amount, cpu.psr.C, true)
	return value
}

func applyOffset(base, offset uint32, up bool) uint32 {
	if up {
		return base + offset
	}
	return base - offset
}
