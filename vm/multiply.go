package vm

import "math/bits"

// multiplyCycles approximates the internal iterative-shift-add timing of
// the hardware multiplier: cost is driven by the position of the
// most-significant set bit of the multiplier, a Booth-recoding-shaped
// approximation (1 + msb/2) of the teacher's calculateMultiplyCycles
// (§4.A). A zero multiplier has no set bit and costs a single cycle; an
// all-ones multiplier costs the maximum.
func multiplyCycles(rs uint32) int {
	if rs == 0 {
		return 1
	}
	msb := bits.Len32(rs) - 1
	cycles := 1 + msb/2
	if cycles > MultiplyMaxCycles {
		cycles = MultiplyMaxCycles
	}
	return cycles
}

// ExecuteMultiply runs MUL/MLA (§4.A). Rd and Rm must differ and neither
// may be R15; both restrictions are architectural (UNPREDICTABLE
// otherwise) and are enforced as an undefined-instruction trap by this
// core, following original_source's silicon-level treatment.
func ExecuteMultiply(cpu *CPU, instr uint32) (cycles int, err error) {
	accumulate := instr&(1<<21) != 0
	s := instr&(1<<20) != 0
	rd := int((instr >> 16) & Mask4Bit)
	rn := int((instr >> 12) & Mask4Bit) // accumulate operand
	rs := int((instr >> 8) & Mask4Bit)
	rm := int(instr & Mask4Bit)

	if rd == rm || rd == PC || rm == PC || rs == PC {
		return 0, errInvalidInstruction("MUL/MLA: Rd/Rm must differ and neither Rd, Rm nor Rs may be R15")
	}

	rsVal := cpu.GetRs(rs)
	product := cpu.GetRm(rm) * cpu.GetRm(rs)
	result := product
	if accumulate {
		result += cpu.GetRn(rn)
	}

	cpu.SetRn(rd, result)
	if s {
		cpu.psr.UpdateFlagsNZ(result)
	}
	return multiplyCycles(rsVal), nil
}

// ExecuteLongMultiply runs UMULL/UMLAL/SMULL/SMLAL (§4.A), writing a
// 64-bit product across RdLo/RdHi. R15 operands read the full PC|PSR
// composite, the same as any other Rm-style register read — confirmed
// against original_source/ArmEmu/ArithmeticLogicUnit.cpp's execLongMultiply,
// which reads both operands via getRn (RegisterFile.cpp's getRn(R15)
// returns the raw composite, not a PC+4-only value); this is not the
// Rs shift-amount convention the 32-bit multiply uses (§9 Open Question
// #2 resolved).
func ExecuteLongMultiply(cpu *CPU, instr uint32) (cycles int, err error) {
	signed := instr&(1<<22) != 0
	accumulate := instr&(1<<21) != 0
	s := instr&(1<<20) != 0
	rdHi := int((instr >> 16) & Mask4Bit)
	rdLo := int((instr >> 12) & Mask4Bit)
	rs := int((instr >> 8) & Mask4Bit)
	rm := int(instr & Mask4Bit)

	if rdHi == rdLo || rdHi == rm || rdLo == rm {
		return 0, errInvalidInstruction("long multiply: RdHi, RdLo and Rm must all differ")
	}

	rmVal := cpu.GetRm(rm)
	rsVal := cpu.GetRm(rs)

	var lo, hi uint32
	if signed {
		product := int64(int32(rmVal)) * int64(int32(rsVal))
		if accumulate {
			acc := int64(cpu.GetRn(rdHi))<<32 | int64(cpu.GetRn(rdLo))
			product += acc
		}
		lo = uint32(product)
		hi = uint32(product >> 32)
	} else {
		product := uint64(rmVal) * uint64(rsVal)
		if accumulate {
			acc := uint64(cpu.GetRn(rdHi))<<32 | uint64(cpu.GetRn(rdLo))
			product += acc
		}
		lo = uint32(product)
		hi = uint32(product >> 32)
	}

	cpu.SetRn(rdLo, lo)
	cpu.SetRn(rdHi, hi)
	if s {
		cpu.psr.N = hi&SignBitMask != 0
		cpu.psr.Z = lo == 0 && hi == 0
	}
	return multiplyCycles(rsVal), nil
}
