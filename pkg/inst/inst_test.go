package inst

import "testing"

// TestCatalogCompleteness verifies every catalog entry round-trips through
// Decode/Find.
func TestCatalogCompleteness(t *testing.T) {
	for _, info := range Catalog {
		if info.Mnemonic == "" {
			t.Errorf("entry %+v has no mnemonic", info)
		}
		found, ok := Find(info.Op)
		if !ok {
			t.Errorf("%s: Find(%v) not found", info.Mnemonic, info.Op)
			continue
		}
		if found.Mnemonic != info.Mnemonic {
			t.Errorf("Find(%v) = %s, want %s", info.Op, found.Mnemonic, info.Mnemonic)
		}
	}
}

// TestEncodeDecodeRoundTrip verifies the add/ldw/mov encodings survive a
// round trip through EncodeWord and Decode unchanged.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		mnemonic        string
		immediate       bool
		rn, rm          uint8
		wantHi, wantLo  byte
	}{
		{"add", false, 1, 2, 0x20, 0x12},
		{"ldw", true, 3, 0, 0x61, 0x30},
		{"mov", true, 0, 0, 0x63, 0x00},
	}

	for _, tc := range tests {
		info, ok := Lookup(tc.mnemonic)
		if !ok {
			t.Fatalf("Lookup(%q) failed", tc.mnemonic)
		}
		hi, lo := EncodeWord(info.Op, tc.immediate, tc.rn, tc.rm)
		if hi != tc.wantHi || lo != tc.wantLo {
			t.Errorf("%s: EncodeWord = 0x%02X 0x%02X, want 0x%02X 0x%02X", tc.mnemonic, hi, lo, tc.wantHi, tc.wantLo)
		}

		word := uint16(hi)<<8 | uint16(lo)
		d := Decode(word)
		if d.Op != info.Op || d.Immediate != tc.immediate || d.RN != tc.rn || d.RM != tc.rm {
			t.Errorf("%s: Decode(0x%04X) = %+v", tc.mnemonic, word, d)
		}
	}
}

// TestDecodeUnassigned verifies an unassigned (group,func) pair is rejected
// only at Find time, not at Decode time. CTRL (group 010) only assigns funcs
// 0000-0100 (BRA/BZ/BNZ/BC/BNC) and 1110/1111 (CALL/RET); 0101 is unused.
func TestDecodeUnassigned(t *testing.T) {
	word := uint16(0b010_0101_0_0000_0000) // CTRL group, func 0101, unassigned
	d := Decode(word)
	if _, ok := Find(d.Op); ok {
		t.Fatalf("Find(%+v) unexpectedly succeeded for probe word 0x%04X", d.Op, word)
	}
}
