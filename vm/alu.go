package vm

// DataOp is the 4-bit opcode field of a data-processing instruction
// (§4.A).
type DataOp uint8

const (
	OpAND DataOp = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
)

// logical reports whether op is a logical operation (updates N/Z/C only,
// never V) rather than an arithmetic one (updates N/Z/C/V).
func (op DataOp) logical() bool {
	switch op {
	case OpAND, OpEOR, OpTST, OpTEQ, OpORR, OpMOV, OpBIC, OpMVN:
		return true
	default:
		return false
	}
}

// comparison reports whether op only sets flags and writes no result
// (TST/TEQ/CMP/CMN).
func (op DataOp) comparison() bool {
	switch op {
	case OpTST, OpTEQ, OpCMP, OpCMN:
		return true
	default:
		return false
	}
}

// CalculateAddCarry reports the carry-out of a+b (unsigned overflow).
func CalculateAddCarry(a, b uint32) bool {
	return uint64(a)+uint64(b) > uint64(Mask32Bit)
}

// CalculateAddOverflow reports signed overflow of a+b given the actual
// result.
func CalculateAddOverflow(a, b, result uint32) bool {
	as, bs, rs := a&SignBitMask, b&SignBitMask, result&SignBitMask
	return as == bs && rs != as
}

// CalculateSubCarry implements ARM's "NOT borrow" carry convention for
// subtraction: carry is set when no borrow was needed, i.e. a >= b.
func CalculateSubCarry(a, b uint32) bool {
	return a >= b
}

// CalculateSubOverflow reports signed overflow of a-b given the actual
// result.
func CalculateSubOverflow(a, b, result uint32) bool {
	as, bs, rs := a&SignBitMask, b&SignBitMask, result&SignBitMask
	return as != bs && rs != as
}

// dpResult is the outcome of evaluating a data-processing ALU operation:
// the value (meaningless for TST/TEQ/CMP/CMN), and the flags it would
// set if the S bit requests a flag update.
type dpResult struct {
	value      uint32
	n, z, c, v bool
}

// EvaluateDataOp computes the result and flags of a data-processing ALU
// operation (§4.A). op2 is the already-shifted/rotated second operand;
// shifterCarry is the barrel shifter's carry-out, used verbatim as the C
// flag for logical operations per §4.B.
func EvaluateDataOp(op DataOp, op1, op2 uint32, carryIn, shifterCarry bool) dpResult {
	var r dpResult
	switch op {
	case OpAND, OpTST:
		r.value = op1 & op2
		r.c = shifterCarry
	case OpEOR, OpTEQ:
		r.value = op1 ^ op2
		r.c = shifterCarry
	case OpORR:
		r.value = op1 | op2
		r.c = shifterCarry
	case OpMOV:
		r.value = op2
		r.c = shifterCarry
	case OpBIC:
		r.value = op1 &^ op2
		r.c = shifterCarry
	case OpMVN:
		r.value = ^op2
		r.c = shifterCarry
	case OpSUB, OpCMP:
		r.value = op1 - op2
		r.c = CalculateSubCarry(op1, op2)
		r.v = CalculateSubOverflow(op1, op2, r.value)
	case OpRSB:
		r.value = op2 - op1
		r.c = CalculateSubCarry(op2, op1)
		r.v = CalculateSubOverflow(op2, op1, r.value)
	case OpADD, OpCMN:
		r.value = op1 + op2
		r.c = CalculateAddCarry(op1, op2)
		r.v = CalculateAddOverflow(op1, op2, r.value)
	case OpADC:
		carry := boolToBit(carryIn)
		r.value = op1 + op2 + carry
		r.c = uint64(op1)+uint64(op2)+uint64(carry) > uint64(Mask32Bit)
		r.v = CalculateAddOverflow(op1, op2, r.value)
	case OpSBC:
		borrow := uint32(1) - boolToBit(carryIn)
		r.value = op1 - op2 - borrow
		r.c = uint64(op1) >= uint64(op2)+uint64(borrow)
		r.v = CalculateSubOverflow(op1, op2, r.value)
	case OpRSC:
		borrow := uint32(1) - boolToBit(carryIn)
		r.value = op2 - op1 - borrow
		r.c = uint64(op2) >= uint64(op1)+uint64(borrow)
		r.v = CalculateSubOverflow(op2, op1, r.value)
	}
	r.n = r.value&SignBitMask != 0
	r.z = r.value == 0
	return r
}

// operand2Result is a decoded, already-shifted second operand together
// with the barrel shifter's carry-out.
type operand2Result struct {
	value uint32
	carry bool
}

// decodeOperand2 evaluates the 12-bit operand-2 field of a
// data-processing instruction (§4.B): an 8-bit immediate rotated right
// by twice a 4-bit field, or a register optionally shifted by an
// immediate or by the bottom byte of another register.
func decodeOperand2(cpu *CPU, instr uint32) operand2Result {
	if instr&(1<<25) != 0 {
		imm := instr & Mask8Bit
		rotate := (instr >> 8) & Mask4Bit * 2
		if rotate == 0 {
			return operand2Result{value: imm, carry: cpu.psr.C}
		}
		value, carry := shiftROR(imm, rotate, cpu.psr.C, false)
		return operand2Result{value: value, carry: carry}
	}

	rm := int(instr & Mask4Bit)
	shiftType := ShiftType((instr >> 5) & Mask2Bit)

	var amount uint32
	immediateShift := instr&(1<<4) == 0
	var rmVal uint32
	if immediateShift {
		amount = (instr >> 7) & Mask5Bit
		rmVal = cpu.GetRm(rm)
	} else {
		rs := int((instr >> 8) & Mask4Bit)
		amount = cpu.GetRs(rs) & Mask8Bit
		rmVal = cpu.GetRm(rm)
	}

	value, carry := Shift(shiftType, rmVal, amount, cpu.psr.C, immediateShift)
	return operand2Result{value: value, carry: carry}
}

// ExecuteDataProcessing decodes and runs a data-processing instruction
// (§4.A), reading operands through CPU's banked/PC-special accessors and
// writing the result and (if the S bit is set) the flags.
func ExecuteDataProcessing(cpu *CPU, instr uint32) {
	op := DataOp((instr >> 21) & Mask4Bit)
	s := instr&(1<<20) != 0
	rn := int((instr >> 16) & Mask4Bit)
	rd := int((instr >> 12) & Mask4Bit)

	op2 := decodeOperand2(cpu, instr)
	op1 := cpu.GetRn(rn)

	result := EvaluateDataOp(op, op1, op2.value, cpu.psr.C, op2.carry)

	// A comparison opcode (TST/TEQ/CMP/CMN) with S clear is the
	// PSR-transfer encoding handled separately in psrtransfer.go. A
	// comparison never writes a register; with S set it updates the flags,
	// except when Rd==R15, where neither the flags nor the PSR change.
	if s && rd != PC {
		if op.logical() {
			cpu.psr.UpdateFlagsNZC(result.value, result.c)
		} else {
			cpu.psr.UpdateFlagsNZCV(result.value, result.c, result.v)
		}
	}

	if !op.comparison() {
		// SetRd(PC, _, s) folds the S-bit PSR restore and the PC write
		// into one step (§4.C "MOVS PC, Rn" mode-restoring return).
		cpu.SetRd(rd, result.value, s)
	}
}
