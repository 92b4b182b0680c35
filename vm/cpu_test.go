package vm_test

import (
	"testing"

	"archlab/arm26emu/vm"
)

func TestResetStateIsSVCWithBothInterruptsMasked(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	psr := cpu.PSR()
	if psr.Mode != vm.ModeSVC {
		t.Fatalf("mode = %s, want SVC", psr.Mode)
	}
	if !psr.IRQDisable || !psr.FIRQDisable {
		t.Fatalf("IRQDisable=%v FIRQDisable=%v, want both true after reset", psr.IRQDisable, psr.FIRQDisable)
	}
	if cpu.PC() != vm.VectorReset {
		t.Fatalf("PC = %#x, want reset vector %#x", cpu.PC(), vm.VectorReset)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetRn(vm.R3, 0xCAFEBABE)
	cpu.SetPC(0x1234)
	cpu.ResetState()
	cpu.ResetState()

	if got := cpu.GetRn(vm.R3); got != 0 {
		t.Fatalf("R3 = %#x after reset, want 0", got)
	}
	if cpu.PC() != vm.VectorReset {
		t.Fatalf("PC = %#x, want reset vector", cpu.PC())
	}
}

func TestRegisterBankingRoundTrip(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetRn(vm.SP, 0x11111111)
	cpu.SetRn(vm.LR, 0x22222222)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeIRQ})
	cpu.SetRn(vm.SP, 0x33333333)
	cpu.SetRn(vm.LR, 0x44444444)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	if got := cpu.GetRn(vm.SP); got != 0x11111111 {
		t.Fatalf("SVC SP = %#x, want 0x11111111 (banking must be independent per mode)", got)
	}
	if got := cpu.GetRn(vm.LR); got != 0x22222222 {
		t.Fatalf("SVC LR = %#x, want 0x22222222", got)
	}

	cpu.SetPSR(vm.PSR{Mode: vm.ModeIRQ})
	if got := cpu.GetRn(vm.SP); got != 0x33333333 {
		t.Fatalf("IRQ SP = %#x, want 0x33333333", got)
	}
}

func TestWithUserPrivilegeDemotesThenRestoresMode(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetRn(vm.SP, 0x11111111) // SVC-banked SP

	var observed vm.Mode
	cpu.WithUserPrivilege(func() {
		observed = cpu.Mode()
	})

	if observed != vm.ModeUser {
		t.Fatalf("mode during the callback = %s, want User", observed)
	}
	if cpu.Mode() != vm.ModeSVC {
		t.Fatalf("mode after WithUserPrivilege = %s, want the original SVC", cpu.Mode())
	}
	if got := cpu.GetRn(vm.SP); got != 0x11111111 {
		t.Fatalf("SVC-banked SP = %#x, want 0x11111111: the demotion must not have clobbered the bank", got)
	}
}

func TestLowRegistersAreNeverBanked(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	cpu.SetRn(vm.R5, 0xABCDEF01)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeFIRQ})
	if got := cpu.GetRn(vm.R5); got != 0xABCDEF01 {
		t.Fatalf("R5 = %#x after mode change, want unchanged 0xABCDEF01 (R0-R7 are never banked)", got)
	}
}

func TestFIRQBanksR8ThroughR14(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	cpu.SetRn(vm.R8, 0x10000000)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeFIRQ})
	cpu.SetRn(vm.R8, 0x20000000)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	if got := cpu.GetRn(vm.R8); got != 0x10000000 {
		t.Fatalf("User R8 = %#x, want 0x10000000 (FIRQ banks R8-R12 separately from User)", got)
	}
}

func TestGetRmReadsPCPlus8WithPSR(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC, N: true})
	cpu.SetPC(0x8000)

	got := cpu.GetRm(vm.PC)
	want := (uint32(0x8000) | cpu.PSR().ToWord())
	if got != want {
		t.Fatalf("GetRm(PC) = %#x, want %#x (the pc field, already instruction+8, composited with PSR)", got, want)
	}
}

func TestGetRsReadsPCPlus4WithNoPSR(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC, N: true})
	cpu.SetPC(0x8000)

	if got := cpu.GetRs(vm.PC); got != 0x8004 {
		t.Fatalf("GetRs(PC) = %#x, want 0x8004 with no PSR bits merged in", got)
	}
}

func TestGetRdOfPCReadsOnlyPSR(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC, Z: true})
	cpu.SetPC(0x8000)

	if got := cpu.GetRd(vm.PC); got != cpu.PSR().ToWord() {
		t.Fatalf("GetRd(PC) = %#x, want bare PSR word %#x", got, cpu.PSR().ToWord())
	}
}

func TestSetRdToPCWithStatusUpdateRestoresModeAndFlags(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetRn(vm.R14, 0x12345678|vm.PSR{Mode: vm.ModeUser, C: true}.ToWord())

	// MOVS PC, R14: a privileged-mode exception return.
	value := cpu.GetRn(vm.R14)
	cpu.SetRd(vm.PC, value, true)

	if cpu.Mode() != vm.ModeUser {
		t.Fatalf("mode = %s, want User restored from the saved PSR bits", cpu.Mode())
	}
	if !cpu.PSR().C {
		t.Fatalf("carry flag not restored by MOVS PC, R14")
	}
	if cpu.PC() != 0x12345678&vm.PCMask {
		t.Fatalf("PC = %#x, want %#x", cpu.PC(), 0x12345678&vm.PCMask)
	}
}

func TestUserBankAccessorsSeeUserRegistersFromPrivilegedMode(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	cpu.SetRn(vm.R13, 0xAAAA0000)

	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})
	cpu.SetRn(vm.R13, 0xBBBB0000)

	if got := cpu.GetUserRn(vm.R13); got != 0xAAAA0000 {
		t.Fatalf("GetUserRn(R13) from SVC mode = %#x, want the banked User value 0xAAAA0000", got)
	}

	cpu.SetUserRn(vm.R13, 0xCCCC0000)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser})
	if got := cpu.GetRn(vm.R13); got != 0xCCCC0000 {
		t.Fatalf("User R13 after SetUserRn from SVC mode = %#x, want 0xCCCC0000", got)
	}
}

func TestUpdatePSRInUserModeCannotChangeModeOrMasks(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeUser, IRQDisable: false})

	attempted := vm.PSR{Mode: vm.ModeSVC, IRQDisable: true, N: true}
	cpu.UpdatePSR(attempted.ToWord())

	if cpu.Mode() != vm.ModeUser {
		t.Fatalf("mode = %s, want User mode unchanged (user code cannot raise its own privilege)", cpu.Mode())
	}
	if cpu.PSR().IRQDisable {
		t.Fatalf("IRQDisable changed from User mode, want masks left alone")
	}
	if !cpu.PSR().N {
		t.Fatalf("N flag must still be updatable from User mode")
	}
}

func TestUpdatePSRInPrivilegedModeCanChangeModeAndMasks(t *testing.T) {
	cpu := vm.NewCPU(vm.GenARMv2a)
	cpu.SetPSR(vm.PSR{Mode: vm.ModeSVC})

	target := vm.PSR{Mode: vm.ModeIRQ, IRQDisable: true, FIRQDisable: true, V: true}
	cpu.UpdatePSR(target.ToWord())

	if cpu.Mode() != vm.ModeIRQ {
		t.Fatalf("mode = %s, want IRQ", cpu.Mode())
	}
	if !cpu.PSR().IRQDisable || !cpu.PSR().FIRQDisable {
		t.Fatalf("interrupt masks not applied from a privileged UpdatePSR")
	}
}
