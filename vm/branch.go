package vm

// ExecuteBranch runs B/BL (§4.G). The 24-bit signed offset is shifted
// left two and added to PC+8 (the architectural "address of this
// instruction plus 8" that the pipeline already carries in cpu.pc at
// execute time). With link set, the return address and current PSR are
// saved together into LR — a 26-bit-mode return executes `MOV PC, LR`
// (or `LDM ... PC^`), restoring both PC and status in one step, which is
// why BL must save the composite rather than a bare PC.
func ExecuteBranch(cpu *CPU, instr uint32) {
	link := instr&(1<<24) != 0
	offset := signExtend24(instr & Mask24Bit) << 2

	if link {
		cpu.SetRn(LR, (cpu.pc-InstructionSize)|cpu.psr.ToWord())
	}

	target := cpu.pc + offset
	cpu.SetPC(target)
}

// ExecuteBranchExchange runs BX (§4.G Supplemented features): branches
// to the register value with bit 0 cleared. This core has no Thumb
// mode, so BX never changes instruction set state; it is kept as a
// trivial branch for compatibility with code that uses it as a plain
// indirect jump (e.g. `BX LR` as a subroutine return).
func ExecuteBranchExchange(cpu *CPU, instr uint32) {
	rm := int(instr & Mask4Bit)
	target := cpu.GetRm(rm) &^ 1
	cpu.SetPC(target)
}

func signExtend24(v uint32) uint32 {
	if v&(1<<23) != 0 {
		return v | 0xFF000000
	}
	return v
}
