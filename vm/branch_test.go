package vm_test

import (
	"testing"

	"archlab/arm26emu/vm"
)

func TestBranchForwardOffset(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetPC(0x8008) // pipeline invariant: pc already holds fetch-address+8

	// B +0x20 (instruction itself at 0x8000): offset field = 0x20>>2 = 8.
	vm.ExecuteBranch(cpu, 0xEA000008)

	if got := cpu.PC(); got != 0x8028 {
		t.Fatalf("PC = %#x, want 0x8028", got)
	}
}

func TestBranchBackwardOffset(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetPC(0x8008)

	// B -0x10: word offset -4, 24-bit field 0xFFFFFC.
	vm.ExecuteBranch(cpu, 0xEAFFFFFC)

	if got := cpu.PC(); got != 0x7FF8 {
		t.Fatalf("PC = %#x, want 0x7FF8", got)
	}
}

func TestBranchWithLinkSavesReturnAddressAndPSR(t *testing.T) {
	// Seed scenario 3 (§8): BL to a target, then MOV PC, R14 returns.
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC, Z: true})
	cpu.SetPC(0x8008) // executing instruction at 0x8000

	vm.ExecuteBranch(cpu, 0xEB000008) // BL +0x20

	wantLR := uint32(0x8004) | cpu.PSR().ToWord()
	if got := cpu.GetRn(vm.LR); got != wantLR {
		t.Fatalf("LR = %#x, want %#x (instruction address + 4, with PSR)", got, wantLR)
	}
	if got := cpu.PC(); got != 0x8028 {
		t.Fatalf("PC after BL = %#x, want 0x8028", got)
	}

	// Return via a plain (non-status-restoring) MOV PC, R14: only the PC
	// field of LR's composite value is taken, flags are left untouched.
	vm.ExecuteDataProcessing(cpu, 0xE1A0F00E) // MOV PC, R14

	if got := cpu.PC(); got != 0x8004 {
		t.Fatalf("PC after return = %#x, want 0x8004 (the call-site return address)", got)
	}
	if !cpu.PSR().Z {
		t.Fatalf("Z flag changed by a non-status-restoring MOV PC, R14")
	}
}

func TestBranchExchangeClearsBitZero(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetRn(vm.R1, 0x8001)

	// BX R1
	vm.ExecuteBranchExchange(cpu, 0xE12FFF11)

	if got := cpu.PC(); got != 0x8000 {
		t.Fatalf("PC = %#x, want 0x8000 (bit 0 cleared)", got)
	}
}
