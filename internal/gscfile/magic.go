package gscfile

import (
	"bytes"
	"errors"
	"fmt"
)

// MinFileSize is the minimum size any supported variant's header requires.
const MinFileSize = 24

var (
	// ErrTooSmall is a fatal, file-granularity error (§7 Bad-Magic/Too-Small).
	ErrTooSmall = errors.New("gscfile: file smaller than minimum header size")
	// ErrBadMagic is a fatal, file-granularity error.
	ErrBadMagic = errors.New("gscfile: bad magic")
	// ErrUnsupportedVM is a fatal, file-granularity error.
	ErrUnsupportedVM = errors.New("gscfile: unsupported VM")
)

// treyarchSignature is the fixed low-seven-byte signature shared by the
// Treyarch family; the eighth byte is the VM revision.
var treyarchSignature = []byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x00}

// wideHashSignature is the fixed low-seven-byte signature for the
// wide-hash family; the eighth byte is a fixed variant marker, not a VM
// revision (the VM is supplied externally via --vm, per §6).
var wideHashSignature = []byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x01}

// Family distinguishes the two magic-word dialects named in §6.
type Family int

const (
	FamilyTreyarch Family = iota
	FamilyWideHash
)

// DetectFamily inspects the first 8 bytes of blob and reports which
// magic-word family it matches, and for Treyarch the embedded VM byte.
func DetectFamily(blob []byte) (fam Family, vmByte byte, err error) {
	if len(blob) < MinFileSize {
		return 0, 0, ErrTooSmall
	}
	head := blob[:8]
	if bytes.Equal(head[:7], treyarchSignature) {
		return FamilyTreyarch, head[7], nil
	}
	if bytes.Equal(head[:7], wideHashSignature) {
		return FamilyWideHash, head[7], nil
	}
	return 0, 0, fmt.Errorf("%w: 0x%x", ErrBadMagic, head)
}

// Validate enforces the minimum-size and magic preconditions from §8:
// "validate(blob) accepts a correct minimal fixture and rejects any blob
// with the magic byte-flipped or with size < header_size".
func Validate(blob []byte, headerSize int) error {
	if len(blob) < MinFileSize || len(blob) < headerSize {
		return ErrTooSmall
	}
	_, _, err := DetectFamily(blob)
	return err
}
