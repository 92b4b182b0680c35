package vm

// Pipeline models the two-stage fetch/execute overlap of the real core
// (§4.G): while one instruction executes, the next has already been
// fetched. The architectural effect that matters to software is simply
// that reading R15 yields the address of the executing instruction plus
// 8, which CPU.pc already tracks directly — Flush is what keeps it
// aligned with the two fetch slots after a branch.
type Pipeline struct {
	cpu *CPU
	bus *MemoryMap
	lu  *LoadStoreUnit

	slots   [2]uint32 // prefetched instruction words
	sources [2]uint32 // addresses the slots were fetched from
	valid   [2]bool   // false when the fetch at sources[i] missed every region
	cur     int       // which slot executes next

	IRQs PendingIRQs

	// Cycles is the running cycle-approximate total (§4.A, §8).
	Cycles uint64
}

// NewPipeline constructs a pipeline bound to cpu and bus and performs
// the initial fill from the current PC.
func NewPipeline(cpu *CPU, bus *MemoryMap) *Pipeline {
	p := &Pipeline{cpu: cpu, bus: bus, lu: &LoadStoreUnit{Bus: bus}}
	p.Flush()
	return p
}

// Flush refills both pipeline slots from the current PC and advances PC
// by 8, exactly as original_source/ArmEmu/InstructionPipeline.cpp's
// flushPipeline does: fetch(pc), fetch(pc+4), then setPC(pc+8). Every
// branch, exception entry, and exception return calls this.
func (p *Pipeline) Flush() {
	base := p.cpu.pc
	p.sources[0] = base
	p.sources[1] = base + InstructionSize
	p.slots[0], p.valid[0] = p.bus.FetchWord(base)
	p.slots[1], p.valid[1] = p.bus.FetchWord(base + InstructionSize)
	p.cpu.SetPC(base + 2*InstructionSize)
	p.cur = 0
}

// Step executes exactly one instruction: first check for an unmasked
// pending interrupt (which pre-empts the slot entirely), otherwise take
// the next prefetched word, check its condition field against the live
// flags, execute it if satisfied, and refill the vacated slot. Returns
// the number of cycles the instruction (or the exception entry) cost.
func (p *Pipeline) Step() int {
	if p.IRQs.NonMaskablePending() {
		// Host/debug outranks FIRQ/IRQ and never vectors through the
		// exception engine (§4.D priority list) — it only ever stops
		// the run loop so the host can act outside the pipeline.
		return 0
	}

	if kind, pending := p.IRQs.Next(p.cpu.psr); pending {
		p.raiseAndFlush(kind)
		p.Cycles++
		return 1
	}

	if !p.valid[p.cur] {
		p.raiseAndFlush(ExceptionPrefetchAbort)
		p.Cycles++
		return 1
	}

	instr := p.slots[p.cur]
	instrAddr := p.sources[p.cur]
	pcBeforeExecute := p.cpu.pc

	cond := DecodeCondition(instr)
	cycles := 1
	if cond.Satisfied(p.cpu.psr.NZCV()) {
		outcome := execute(p.cpu, p.bus, p.lu, instr)
		cycles = outcome.cycles
		if outcome.hasRaise {
			p.raiseAndFlush(outcome.raise)
			p.Cycles += uint64(cycles)
			return cycles
		}
		if outcome.debugTrap {
			// Sets the Dbg-pending bit but does not vector: the trapping
			// instruction still retires and the pipeline still advances
			// normally. The next Step observes NonMaskablePending and
			// stops the run loop before fetching anything further.
			p.IRQs.Raise(IRQPendingDbg)
		}
	}

	if p.cpu.pc != pcBeforeExecute {
		// A branch, BX, or a data-processing/LDM write to R15 retargeted
		// PC; refetch both pipeline slots from the new address rather
		// than advancing the old ones by one instruction.
		p.Flush()
	} else {
		p.refillSlot(instrAddr)
	}

	p.Cycles += uint64(cycles)
	return cycles
}

// refillSlot advances the pipeline by one instruction in the common
// (non-branching) case: the executed slot is replenished from two
// instructions ahead of its own address, and PC advances by one
// instruction width to keep tracking "address of next-to-execute + 8".
func (p *Pipeline) refillSlot(instrAddr uint32) {
	next := instrAddr + 2*InstructionSize
	p.slots[p.cur], p.valid[p.cur] = p.bus.FetchWord(next)
	p.sources[p.cur] = next
	p.cpu.SetPC(p.cpu.pc + InstructionSize)
	p.cur ^= 1
}

func (p *Pipeline) raiseAndFlush(kind ExceptionKind) {
	p.cpu.Raise(kind)
	p.Flush()
}

// Run executes instructions until maxCycles is reached or until stop
// returns true after a step (checked for, e.g., a breakpoint address
// reached or an external stop request). Returns the number of Step
// calls made, including steps that only delivered an interrupt.
func (p *Pipeline) Run(maxCycles uint64, stop func() bool) int {
	steps := 0
	for p.Cycles < maxCycles {
		if p.IRQs.NonMaskablePending() {
			// §4.H / §9's run() runs "until host or debug interrupt":
			// observing one ends the loop immediately, before the next
			// instruction is even fetched.
			break
		}
		p.Step()
		steps++
		if stop != nil && stop() {
			break
		}
	}
	return steps
}
