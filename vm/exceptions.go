package vm

import "sync/atomic"

// ExceptionKind identifies one of the architectural exceptions of §4.D.
// These are never represented as Go errors inside the pipeline; a
// pending exception is delivered as a CPU state transition between
// instructions (or, for Reset, at CPU construction).
type ExceptionKind int

const (
	ExceptionReset ExceptionKind = iota
	ExceptionUndefinedInstruction
	ExceptionSoftwareInterrupt
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionAddress
	ExceptionIRQ
	ExceptionFIRQ
)

// exceptionProfile describes, per kind, the vector to jump to, the mode
// to enter, and which interrupt sources the entry masks. Built from
// original_source/ArmEmu/RegisterFile.cpp's raiseException/handleIrq/
// handleFirq, which this core generalizes into one table-driven routine
// rather than five near-duplicate C++ methods.
type exceptionProfile struct {
	vector    uint32
	mode      Mode
	maskIRQ   bool
	maskFIRQ  bool
}

var exceptionProfiles = map[ExceptionKind]exceptionProfile{
	ExceptionReset:                {vector: VectorReset, mode: ModeSVC, maskIRQ: true, maskFIRQ: true},
	ExceptionUndefinedInstruction: {vector: VectorUndefined, mode: ModeSVC, maskIRQ: true},
	ExceptionSoftwareInterrupt:    {vector: VectorSoftwareInt, mode: ModeSVC, maskIRQ: true},
	ExceptionPrefetchAbort:        {vector: VectorPrefetchAbort, mode: ModeSVC, maskIRQ: true},
	ExceptionDataAbort:            {vector: VectorDataAbort, mode: ModeSVC, maskIRQ: true},
	ExceptionAddress:              {vector: VectorAddressException, mode: ModeSVC, maskIRQ: true},
	ExceptionIRQ:                  {vector: VectorIRQ, mode: ModeIRQ, maskIRQ: true},
	ExceptionFIRQ:                 {vector: VectorFIRQ, mode: ModeFIRQ, maskIRQ: true, maskFIRQ: true},
}

// Raise delivers kind to the CPU: the return-state composite (PC|PSR) is
// saved into the target mode's banked link register, the interrupt masks
// named by the profile are set, the mode is switched (banking R8-R14),
// and PC is set to the exception vector.
//
// The return-state must be written into the target bank's R14 *before*
// changeMode runs, because changeMode only swaps currently-active
// registers into the bank belonging to the mode being left — the
// incoming mode's bank is populated by writing it directly, exactly as
// original_source's raiseException/handleIrq/handleFirq do. When the CPU
// is already in the target mode, changeMode swaps nothing and the live
// R14 is written instead.
func (c *CPU) Raise(kind ExceptionKind) {
	p, ok := exceptionProfiles[kind]
	if !ok {
		bugDetected("Raise: unknown exception kind")
	}

	returnState := c.pc | c.psr.ToWord()
	*c.bankedLR(p.mode) = returnState
	if c.psr.Mode == p.mode {
		c.r[LR] = returnState
	}

	next := c.psr
	if p.maskIRQ {
		next.IRQDisable = true
	}
	if p.maskFIRQ {
		next.FIRQDisable = true
	}
	next.Mode = p.mode

	c.changeMode(p.mode)
	c.psr = next
	c.SetPC(p.vector)
}

// PendingIRQs tracks the four interrupt-status bits of §3 (FIRQ, IRQ,
// Debug, Host); Debug and Host are never maskable by the PSR's I/F bits.
// The state word is held in an atomic.Uint32 because §6 requires a host
// interrupt to be raisable "from any thread" — System.RaiseHostInterrupt
// calls Raise from whatever goroutine the host chooses, concurrently
// with the pipeline goroutine reading it via Next/NonMaskablePending.
type PendingIRQs struct {
	state atomic.Uint32
}

func (p *PendingIRQs) Raise(bit uint8) { p.state.Or(uint32(bit)) }
func (p *PendingIRQs) Clear(bit uint8) { p.state.And(^uint32(bit)) }
func (p *PendingIRQs) Pending() uint8  { return uint8(p.state.Load()) }

// NonMaskablePending reports whether a debug- or host-pending bit is set
// (§3: "Debug and Host are never masked"). These outrank FIRQ and IRQ
// (§4.D's priority list) and, unlike them, never vector through the
// exception engine — observing one simply ends the run loop (§4.H,
// §4.G step 1) so the host can act outside the pipeline.
func (p *PendingIRQs) NonMaskablePending() bool {
	return p.Pending()&IRQNonMaskable != 0
}

// Next returns the highest-priority unmasked *vectored* exception, or
// false if none is pending. FIRQ outranks IRQ. Debug/Host pending is
// checked separately via NonMaskablePending, since those two never
// vector — they only ever stop the run loop.
func (p *PendingIRQs) Next(psr PSR) (ExceptionKind, bool) {
	state := p.Pending()
	if state&IRQPendingFIRQ != 0 && !psr.FIRQDisable {
		return ExceptionFIRQ, true
	}
	if state&IRQPendingIRQ != 0 && !psr.IRQDisable {
		return ExceptionIRQ, true
	}
	return 0, false
}
