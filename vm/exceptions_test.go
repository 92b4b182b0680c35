package vm_test

import (
	"testing"

	"archlab/arm26emu/vm"
)

func TestRaiseUndefinedInstructionEntersSVCAndSavesBankedLR(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser, N: true})
	cpu.SetPC(0x9000)

	cpu.Raise(vm.ExceptionUndefinedInstruction)

	if cpu.Mode() != vm.ModeSVC {
		t.Fatalf("mode = %s, want SVC", cpu.Mode())
	}
	if cpu.PC() != vm.VectorUndefined {
		t.Fatalf("PC = %#x, want the undefined-instruction vector %#x", cpu.PC(), vm.VectorUndefined)
	}
	if !cpu.PSR().IRQDisable {
		t.Fatalf("IRQDisable not set on exception entry")
	}
	wantLR := uint32(0x9000) | vm.PSR{Mode: vm.ModeUser, N: true}.ToWord()
	if got := cpu.GetRn(vm.LR); got != wantLR {
		t.Fatalf("LR_svc = %#x, want %#x", got, wantLR)
	}
}

func TestAddressExceptionSeedScenario(t *testing.T) {
	// Seed scenario 6 (§8): an out-of-range address raises the address
	// exception with PC at vector 0x14, SVC mode, I set, and LR_svc
	// holding the offending instruction's PC-plus-PSR composite.
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	cpu.SetPC(0x8010) // pipeline pc at the point the faulting transfer executed

	cpu.Raise(vm.ExceptionAddress)

	if cpu.PC() != 0x00000014 {
		t.Fatalf("PC = %#x, want 0x00000014", cpu.PC())
	}
	if cpu.Mode() != vm.ModeSVC {
		t.Fatalf("mode = %s, want SVC", cpu.Mode())
	}
	if !cpu.PSR().IRQDisable {
		t.Fatalf("I bit not set after an address exception")
	}
	if got := cpu.GetRn(vm.LR); got != 0x8010 {
		t.Fatalf("LR_svc = %#x, want 0x8010 (the fault-time PC composited with the User-mode, flag-clear PSR)", got)
	}
}

func TestFIRQMasksBothInterruptSources(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	cpu.Raise(vm.ExceptionFIRQ)

	if cpu.Mode() != vm.ModeFIRQ {
		t.Fatalf("mode = %s, want FIRQ", cpu.Mode())
	}
	if !cpu.PSR().IRQDisable || !cpu.PSR().FIRQDisable {
		t.Fatalf("FIRQ entry must mask both IRQ and FIRQ")
	}
}

func TestOrdinaryExceptionsLeaveFIRQUnmasked(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser, FIRQDisable: false})
	cpu.Raise(vm.ExceptionSoftwareInterrupt)

	if cpu.PSR().FIRQDisable {
		t.Fatalf("SWI must not mask FIRQ, only IRQ")
	}
}

func TestPendingIRQsPrioritizesFIRQOverIRQ(t *testing.T) {
	var pending vm.PendingIRQs
	pending.Raise(vm.IRQPendingIRQ)
	pending.Raise(vm.IRQPendingFIRQ)

	kind, ok := pending.Next(vm.PSR{})
	if !ok || kind != vm.ExceptionFIRQ {
		t.Fatalf("got kind=%v ok=%v, want FIRQ to take priority", kind, ok)
	}
}

func TestPendingIRQsRespectsPSRMasks(t *testing.T) {
	var pending vm.PendingIRQs
	pending.Raise(vm.IRQPendingIRQ)

	_, ok := pending.Next(vm.PSR{IRQDisable: true})
	if ok {
		t.Fatalf("a masked IRQ must not be reported as pending")
	}

	_, ok = pending.Next(vm.PSR{IRQDisable: false})
	if !ok {
		t.Fatalf("an unmasked pending IRQ must be reported")
	}
}

func TestPendingIRQsClear(t *testing.T) {
	var pending vm.PendingIRQs
	pending.Raise(vm.IRQPendingIRQ)
	pending.Clear(vm.IRQPendingIRQ)

	if _, ok := pending.Next(vm.PSR{}); ok {
		t.Fatalf("a cleared interrupt must not be reported as pending")
	}
}
