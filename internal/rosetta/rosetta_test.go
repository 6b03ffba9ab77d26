package rosetta

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	blocks := []Block{
		{
			Header: []byte{0xAA, 0xBB, 0xCC, 0xDD},
			Opcodes: []OpcodeLocation{
				{Location: 0x10, Opcode: 0x01},
				{Location: 0x14, Opcode: 0x02},
			},
		},
		{
			Header:  []byte{0xAA, 0xBB, 0xCC, 0xDD},
			Opcodes: nil,
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, blocks); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if !bytes.Equal(got[0].Header, blocks[0].Header) {
		t.Fatalf("block 0 header = %v, want %v", got[0].Header, blocks[0].Header)
	}
	if len(got[0].Opcodes) != 2 || got[0].Opcodes[1].Location != 0x14 || got[0].Opcodes[1].Opcode != 0x02 {
		t.Fatalf("block 0 opcodes = %+v", got[0].Opcodes)
	}
	if len(got[1].Opcodes) != 0 {
		t.Fatalf("block 1 opcodes = %+v, want empty", got[1].Opcodes)
	}
}

func TestWriteFramesWithMagicAndTrailer(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("ROSE")) {
		t.Fatalf("missing ROSE prefix: %v", data)
	}
	if !bytes.HasSuffix(data, []byte("END")) {
		t.Fatalf("missing END trailer: %v", data)
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOPE????")
	if _, err := Read(buf, 4); err == nil {
		t.Fatalf("expected error for bad magic, got nil")
	}
}

func TestReadRejectsBadTrailer(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []Block{{Header: []byte{0x01, 0x02}}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	corrupt := buf.Bytes()
	corrupt[len(corrupt)-1] = 'X'
	if _, err := Read(bytes.NewReader(corrupt), 2); err == nil {
		t.Fatalf("expected error for corrupted trailer, got nil")
	}
}
