package domain

import (
	"testing"
)

// FuzzParseTokenID checks that parsing never panics and that accepted input
// round-trips through String.
func FuzzParseTokenID(f *testing.F) {
	f.Add("")
	f.Add("0")
	f.Add("1234")
	f.Add("18446744073709551615")
	f.Add("-1")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseTokenID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseTokenID(id.String())
		if err != nil {
			t.Fatalf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round-trip changed id value")
		}
	})
}

// FuzzParsePDFHash checks that accepted fingerprints round-trip through Hex.
func FuzzParsePDFHash(f *testing.F) {
	f.Add("")
	f.Add("0x")
	f.Add(sampleHash)
	f.Add("0x" + "00")

	f.Fuzz(func(t *testing.T, input string) {
		h, err := ParsePDFHash(input)
		if err != nil {
			return
		}
		roundTrip, err := ParsePDFHash(h.Hex())
		if err != nil {
			t.Fatalf("valid hash failed round-trip: %v", err)
		}
		if roundTrip != h {
			t.Fatal("round-trip changed hash value")
		}
	})
}
