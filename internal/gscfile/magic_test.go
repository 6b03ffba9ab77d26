package gscfile

import (
	"errors"
	"testing"
)

func TestDetectFamily(t *testing.T) {
	tests := []struct {
		name    string
		blob    []byte
		wantFam Family
		wantVM  byte
		wantErr error
	}{
		{
			name:    "treyarch",
			blob:    append([]byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x00, 0x01}, make([]byte, 16)...),
			wantFam: FamilyTreyarch,
			wantVM:  0x01,
		},
		{
			name:    "wide hash",
			blob:    append([]byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x01, 0x00}, make([]byte, 16)...),
			wantFam: FamilyWideHash,
			wantVM:  0x00,
		},
		{
			name:    "too small",
			blob:    []byte{0x80, 'G', 'S', 'C'},
			wantErr: ErrTooSmall,
		},
		{
			name:    "bad magic",
			blob:    append([]byte{0x80, 'G', 'S', 'X', 0x0D, 0x0A, 0x00, 0x01}, make([]byte, 16)...),
			wantErr: ErrBadMagic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fam, vm, err := DetectFamily(tt.blob)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fam != tt.wantFam || vm != tt.wantVM {
				t.Fatalf("got (%v, 0x%x), want (%v, 0x%x)", fam, vm, tt.wantFam, tt.wantVM)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	good := append([]byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x00, 0x01}, make([]byte, 16)...)
	if err := Validate(good, 24); err != nil {
		t.Fatalf("Validate(good) = %v, want nil", err)
	}

	flipped := append([]byte(nil), good...)
	flipped[3] = 'X'
	if err := Validate(flipped, 24); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("Validate(flipped) = %v, want ErrBadMagic", err)
	}

	short := good[:16]
	if err := Validate(short, 24); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("Validate(short) = %v, want ErrTooSmall", err)
	}
}
