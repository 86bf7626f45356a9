package cpu

// Flags is the 4-bit status register: only the low four bits are
// meaningful, the rest must stay zero.
type Flags uint8

const (
	FlagC Flags = 1 << iota // carry / borrow
	FlagZ                   // zero
	FlagN                   // negative (result bit 15)
	FlagV                   // signed overflow
)

func (f Flags) String() string {
	out := [4]byte{'-', '-', '-', '-'}
	if f&FlagC != 0 {
		out[0] = 'C'
	}
	if f&FlagZ != 0 {
		out[1] = 'Z'
	}
	if f&FlagN != 0 {
		out[2] = 'N'
	}
	if f&FlagV != 0 {
		out[3] = 'V'
	}
	return string(out[:])
}
