package gscfile

import "golang.org/x/text/encoding/charmap"

// decryptLegacyString recovers a legacy 8-bit string literal, re-encoding
// CP1252 bytes to UTF-8. Variants that already store UTF-8 text pass
// through untouched, detected with a validity probe rather than a flag,
// since not every blob in the wide-hash family agrees on which encoding it
// used.
func decryptLegacyString(raw []byte) string {
	if isValidUTF8(raw) {
		return string(raw)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func isValidUTF8(b []byte) bool {
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			i += 3
		case c&0xF8 == 0xF0 && i+3 < len(b):
			i += 4
		default:
			return false
		}
	}
	return true
}
