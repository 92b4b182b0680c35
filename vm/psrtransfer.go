package vm

// ExecuteMRS copies the current PSR into a general register (§4.A
// Supplemented features). Bit 22 is unused in the 26-bit encoding (it
// selects CPSR vs SPSR on 32-bit ARM, which has no banked SPSR here);
// this core always reads the live PSR.
func ExecuteMRS(cpu *CPU, instr uint32) {
	rd := int((instr >> 12) & Mask4Bit)
	cpu.SetRn(rd, cpu.psr.ToWord())
}

// ExecuteMSR writes the PSR from a register or an immediate, gated by
// UpdatePSR's privilege check: unprivileged code may only change the
// flag bits, while a privileged mode may also change the interrupt
// masks and switch mode (§4.C). Bit 16 ("write to the full PSR, not
// just the flag field") is not examined: the whole operand always goes
// through UpdatePSR, which masks by privilege level only.
func ExecuteMSR(cpu *CPU, instr uint32) {
	var operand uint32
	if instr&(1<<25) != 0 {
		imm := instr & Mask8Bit
		rotate := (instr >> 8) & Mask4Bit * 2
		operand, _ = shiftROR(imm, rotate, cpu.psr.C, false)
	} else {
		rm := int(instr & Mask4Bit)
		operand = cpu.GetRm(rm)
	}
	cpu.UpdatePSR(operand)
}

// IsPSRTransfer reports whether an instruction word's opcode field
// falls in the comparison family (TST/TEQ/CMP/CMN) with the S bit
// clear — the bit pattern ARM silicon reuses for PSR transfer, and
// which is otherwise UNPREDICTABLE (§4.G decode table). A true result
// does not by itself mean the word is a valid MRS/MSR: only the
// TST-shaped and TEQ-shaped sub-patterns are (IsMRS/IsMSR); CMP-shaped
// and CMN-shaped ones, and a TEQ-shaped word with bits7-4==0x7
// (IsDebugTrap), are not — see executeDataClass.
func IsPSRTransfer(instr uint32) bool {
	s := instr&(1<<20) != 0
	op := DataOp((instr >> 21) & Mask4Bit)
	return !s && op.comparison()
}

// IsMRS reports whether a recognized PSR-transfer word (IsPSRTransfer
// true) is the read form: the TST-shaped sub-pattern, opcode 0b1000,
// confirmed against the real MRS encoding (cond 0001 0 R 00 1111 Rd
// 0000 0000 0000 — bits 24-21 = 1000).
func IsMRS(instr uint32) bool {
	return DataOp((instr>>21)&Mask4Bit) == OpTST
}

// IsMSR reports whether a recognized PSR-transfer word is the write
// form: the TEQ-shaped sub-pattern, opcode 0b1001 (bits 24-21 = 1001,
// matching the real MSR encoding's bit21 "R" selector set). Callers
// decoding the register form must check IsDebugTrap first: one
// specific TEQ-shaped sub-encoding there is a debug trap, not MSR. The
// immediate form has no such sub-encoding — bits7-4 there are part of
// the rotate/immediate field, not a fixed discriminator — so IsMSR
// alone is the complete test for the immediate form.
func IsMSR(instr uint32) bool {
	return DataOp((instr>>21)&Mask4Bit) == OpTEQ
}

// IsDebugTrap reports whether a register-form (primary class 000)
// PSR-transfer word is in fact the one specific TEQ-shaped
// sub-encoding (bits7-4 == 0x7) that original_source/ArmEmu/
// InstructionPipeline.cpp's decodeAndExec traps as a debug/breakpoint
// interrupt (raiseDebugIrq) rather than executing as MSR. This
// sub-encoding only arises from the register form; the immediate form
// (primary class 001) has no such trap and must not call this.
func IsDebugTrap(instr uint32) bool {
	return DataOp((instr>>21)&Mask4Bit) == OpTEQ && (instr>>4)&Mask4Bit == 0x7
}
