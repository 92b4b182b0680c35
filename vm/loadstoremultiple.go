package vm

import "math/bits"

// AddressingMode is one of LDM/STM's four base-update modes (§4.F).
type AddressingMode int

const (
	AddrIA AddressingMode = iota // increment after
	AddrIB                       // increment before
	AddrDA                       // decrement after
	AddrDB                       // decrement before
)

// blockAddressingMode maps the P/U bit pair to the addressing mode it
// selects (§4.F).
func blockAddressingMode(pre, up bool) AddressingMode {
	switch {
	case up && !pre:
		return AddrIA
	case up && pre:
		return AddrIB
	case !up && !pre:
		return AddrDA
	default:
		return AddrDB
	}
}

// ExecuteBlockTransfer runs LDM/STM (§4.F). Bit layout: bit24=P, bit23=U
// (together selecting the addressing mode), bit22=S (user-bank/PSR
// restore), bit21=W (write-back), bit20=L (load), bits15-0=register list.
//
// Registers transfer in ascending index order regardless of addressing
// mode (§4.F); a data abort partway through leaves already-transferred
// registers/memory unmodified by any rollback (§9 Open Question #3).
func ExecuteBlockTransfer(cpu *CPU, bus *MemoryMap, instr uint32) transferOutcome {
	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	sBit := instr&(1<<22) != 0
	writeBack := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := int((instr >> 16) & Mask4Bit)
	list := uint16(instr & Mask16Bit)

	mode := blockAddressingMode(pre, up)
	count := bits.OnesCount16(list)
	base := cpu.GetRn(rn)

	var start uint32
	switch mode {
	case AddrIA:
		start = base
	case AddrIB:
		start = base + InstructionSize
	case AddrDA:
		start = base - uint32(count)*InstructionSize + InstructionSize
	case AddrDB:
		start = base - uint32(count)*InstructionSize
	}

	if count > 0 && !addressValid(start) {
		return addressException()
	}

	// userBankMode is set when S indicates the transfer should read/write
	// the User-mode register view instead of the active mode's — used for
	// task-switch style saves/restores from a privileged mode, and for a
	// restore that does not include R15 (§4.F).
	pcInList := list&(1<<PC) != 0
	userBankMode := sBit && !(load && pcInList)

	addr := start
	for reg := 0; reg < 16; reg++ {
		if list&(1<<uint(reg)) == 0 {
			continue
		}
		if load {
			value := bus.ReadWord(addr)
			if userBankMode {
				cpu.SetUserRn(reg, value)
			} else if reg == PC && sBit {
				// LDM with S set and R15 in the list performs a combined
				// PC-and-PSR restore, the exception-return idiom (§4.D).
				cpu.SetRd(PC, value, true)
			} else {
				cpu.SetRn(reg, value)
			}
		} else {
			var value uint32
			if userBankMode {
				value = cpu.GetUserRn(reg)
			} else {
				value = cpu.GetRx(reg)
			}
			bus.WriteWord(addr, value)
		}
		addr += InstructionSize
	}

	if writeBack {
		var final uint32
		if up {
			final = base + uint32(count)*InstructionSize
		} else {
			final = base - uint32(count)*InstructionSize
		}
		// Write-back never re-targets a register that was itself part of
		// a load list, since the loaded value must take precedence.
		if !(load && list&(1<<uint(rn)) != 0) {
			cpu.SetRn(rn, final)
		}
	}
	return transferOutcome{}
}
