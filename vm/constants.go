package vm

// Architectural constants for the 26-bit ARM core (ARMv2/ARMv2a generation,
// with selective ARMv3/ARMv4 extensions). These are fixed by the hardware
// being emulated and are not configuration.

const (
	// Register indices. R0-R14 are general purpose; R15 is the composite
	// PC/PSR register and is handled through dedicated accessors rather
	// than array indexing.
	R0  = 0
	R1  = 1
	R2  = 2
	R3  = 3
	R4  = 4
	R5  = 5
	R6  = 6
	R7  = 7
	R8  = 8
	R9  = 9
	R10 = 10
	R11 = 11
	R12 = 12
	R13 = 13
	R14 = 14
	SP  = 13
	LR  = 14
	PC  = 15

	NumGeneralRegisters = 15 // R0-R14
)

const (
	// SignBitMask isolates bit 31 of a 32-bit word.
	SignBitMask = 0x80000000
	SignBitPos  = 31

	// BitsInWord is the width of a general register.
	BitsInWord = 32

	Mask1Bit  = 0x1
	Mask2Bit  = 0x3
	Mask3Bit  = 0x7
	Mask4Bit  = 0xF
	Mask5Bit  = 0x1F
	Mask8Bit  = 0xFF
	Mask12Bit = 0xFFF
	Mask16Bit = 0xFFFF
	Mask24Bit = 0xFFFFFF
	Mask32Bit = 0xFFFFFFFF
)

// PSR field layout (§3). The processor is a 26-bit variant: the PSR shares
// storage with the top six bits and bottom two bits of R15.
const (
	PsrBitN = 31
	PsrBitZ = 30
	PsrBitC = 29
	PsrBitV = 28
	PsrBitI = 27 // IRQ disable
	PsrBitF = 26 // FIRQ disable

	PsrFlagsMask    = uint32(0xF0000000) // N Z C V
	PsrIrqMaskBits  = uint32(0x0C000000) // I F
	PsrModeMask     = uint32(0x00000003)
	PsrHighBitsMask = PsrFlagsMask | PsrIrqMaskBits // bits 31-26

	// PsrMaskPrivileged is the set of bits a privileged mode may alter via
	// UpdatePSR: flags, interrupt masks, and mode. PsrMaskUser further
	// restricts this to the flag bits only.
	PsrMaskPrivileged = PsrHighBitsMask | PsrModeMask
	PsrMaskUser       = PsrFlagsMask

	// PCMask selects the 26-bit word-aligned program counter field
	// (bits 25-2) carried in the low bits of R15.
	PCMask = uint32(0x03FFFFFC)
)

// Address space geometry (§6).
const (
	AddressSpaceBits  = 26
	AddressSpaceCeil  = uint32(1) << AddressSpaceBits // 0x0400_0000, 64MiB
	DefaultRAMBase    = uint32(0x00008000)
	MinRAMSize        = uint32(4 * 1024)
	RegionAlign       = 4 // MMIO regions are word-aligned with word-multiple sizes
	UnmappedReadWord  = uint32(0xDFDFDFDF)
	ExceptionTableBase = uint32(0x00000000)
)

// Exception vectors and target modes (§4.D).
const (
	VectorReset            = uint32(0x00000000)
	VectorUndefined        = uint32(0x00000004)
	VectorSoftwareInt      = uint32(0x00000008)
	VectorPrefetchAbort    = uint32(0x0000000C)
	VectorDataAbort        = uint32(0x00000010)
	VectorAddressException = uint32(0x00000014)
	VectorIRQ              = uint32(0x00000018)
	VectorFIRQ             = uint32(0x0000001C)
)

// Interrupt status bits (§3). Debug and Host are never masked.
const (
	IRQPendingFIRQ = 0x01
	IRQPendingIRQ  = 0x02
	IRQPendingDbg  = 0x04
	IRQPendingHost = 0x08

	IRQMaskable    = IRQPendingFIRQ | IRQPendingIRQ
	IRQNonMaskable = IRQPendingDbg | IRQPendingHost
)

// Pipeline timing (§4.G).
const (
	PipelineOffset     = 8 // architectural PC is instruction address + 8
	InstructionSize    = 4
	DefaultMaxCycles   = 10_000_000
	DefaultLogCapacity = 256
)

// Multiply timing (§4.A).
const MultiplyMaxCycles = 16
