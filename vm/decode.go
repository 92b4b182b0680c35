package vm

// Decode and execute a single instruction word against cpu/bus. The
// primary switch is on bits 27-25, the same three-bit class field
// original_source/ArmEmu/InstructionPipeline.cpp's decodeAndExec uses,
// with the sub-patterns (multiply, swap, half-word transfer, PSR
// transfer, BX) resolved inside the 000/001 class exactly as that
// routine's nested switch on bit 7/bit 4 does.

// swi is reported to the caller so the pipeline can raise the exception
// (architectural exceptions are CPU transitions, never Go errors).
type executeOutcome struct {
	raise      ExceptionKind
	hasRaise   bool
	cycles     int
	debugTrap  bool // sets the Dbg-pending bit (§3) without vectoring; see psrtransfer.go's IsDebugTrap
}

func execute(cpu *CPU, bus *MemoryMap, lu *LoadStoreUnit, instr uint32) executeOutcome {
	class := (instr >> 25) & Mask3Bit

	switch {
	case class == 0b000 || class == 0b001:
		return executeDataClass(cpu, bus, lu, instr, class)
	case class == 0b010 || class == 0b011:
		if out := lu.ExecuteSingleTransfer(cpu, instr); out.hasRaise {
			return executeOutcome{raise: out.raise, hasRaise: true}
		}
		return executeOutcome{cycles: 3}
	case class == 0b100:
		if out := ExecuteBlockTransfer(cpu, bus, instr); out.hasRaise {
			return executeOutcome{raise: out.raise, hasRaise: true}
		}
		return executeOutcome{cycles: 3}
	case class == 0b101:
		ExecuteBranch(cpu, instr)
		return executeOutcome{cycles: 3}
	case class == 0b110:
		return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
	case class == 0b111:
		if instr&(1<<24) != 0 {
			return executeOutcome{raise: ExceptionSoftwareInterrupt, hasRaise: true}
		}
		return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
	}
	return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
}

// executeDataClass resolves the 000/001 primary class: ordinary
// data-processing, PSR transfer, multiply/long-multiply, atomic swap,
// half-word/signed transfer, and BX all share this space.
func executeDataClass(cpu *CPU, bus *MemoryMap, lu *LoadStoreUnit, instr uint32, class uint32) executeOutcome {
	if class == 0b001 {
		// The register-form multiply/swap/half-word patterns below all
		// require bit 25 (I) clear, so they never appear here — but MSR
		// with an immediate operand shares this same I=1 space with
		// ordinary immediate data processing and must be checked first.
		// The immediate form has no debug-trap sub-encoding (that only
		// arises in the register form below): a TST/CMP/CMN-shaped word
		// with S clear is simply undefined here.
		if IsPSRTransfer(instr) {
			if IsMSR(instr) {
				ExecuteMSR(cpu, instr)
				return executeOutcome{cycles: 1}
			}
			return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
		}
		ExecuteDataProcessing(cpu, instr)
		return executeOutcome{cycles: 1}
	}

	// class == 0b000: bit 4 set together with bit 7 set marks one of the
	// "extra load/store" / multiply / swap encodings instead of a plain
	// register-shifted data-processing instruction.
	if instr&(1<<4) != 0 && instr&(1<<7) != 0 {
		switch (instr >> 5) & Mask2Bit {
		case 0b00:
			// Bits 7-4 == 0b1001: SWP/SWPB (bits 27-23 == 0b00010), MUL/MLA
			// (bits 27-22 clear) and long multiply (bits 27-23 == 0b00001),
			// each matched against its exact opcode mask.
			if instr&0x0FB00FF0 == 0x01000090 {
				if out := lu.ExecuteSwap(cpu, instr); out.hasRaise {
					return executeOutcome{raise: out.raise, hasRaise: true}
				}
				return executeOutcome{cycles: 4}
			}
			if instr&0x0FC000F0 == 0x00000090 {
				cycles, err := ExecuteMultiply(cpu, instr)
				if err != nil {
					return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
				}
				return executeOutcome{cycles: cycles}
			}
			if instr&0x0F8000F0 == 0x00800090 {
				cycles, err := ExecuteLongMultiply(cpu, instr)
				if err != nil {
					return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
				}
				return executeOutcome{cycles: cycles}
			}
			return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
		default:
			// Bits 6-5 nonzero: the half-word/signed transfer family.
			out, err := lu.ExecuteHalfwordTransfer(cpu, instr)
			if err != nil {
				return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
			}
			if out.hasRaise {
				return executeOutcome{raise: out.raise, hasRaise: true}
			}
			return executeOutcome{cycles: 3}
		}
	}

	// BX: bits 27-4 == 0x012FFF1.
	if instr&0x0FFFFFF0 == 0x012FFF10 {
		ExecuteBranchExchange(cpu, instr)
		return executeOutcome{cycles: 3}
	}

	if IsPSRTransfer(instr) {
		switch {
		case IsDebugTrap(instr):
			// Traps to the Dbg-pending bit rather than vectoring; the
			// run loop observes it at the start of its next iteration
			// (§4.D priority list, §4.G step 1). This instruction still
			// retires normally otherwise.
			return executeOutcome{cycles: 1, debugTrap: true}
		case IsMRS(instr):
			ExecuteMRS(cpu, instr)
			return executeOutcome{cycles: 1}
		case IsMSR(instr):
			ExecuteMSR(cpu, instr)
			return executeOutcome{cycles: 1}
		default:
			// CMP-shaped and CMN-shaped comparison-without-S words have
			// no PSR-transfer meaning at all (§4.G decode table).
			return executeOutcome{raise: ExceptionUndefinedInstruction, hasRaise: true}
		}
	}

	ExecuteDataProcessing(cpu, instr)
	return executeOutcome{cycles: 1}
}
