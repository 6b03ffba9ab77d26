// Package rosetta writes and reads the "rosetta" sidecar index: a binary
// file that pairs every opcode-location internal/walker visited in an
// export with the file's own header bytes, so a location visited under
// one VM's opcode assignment can be cross-referenced against the same
// location visited under another. Per export/block: the header bytes
// cloned from the source blob, then the block's own opcode-location
// list; the whole file is framed by a 'ROSE'/'END' pair and a leading
// block count, in the same fixed-width little-endian shape
// internal/linker's patch offsets use.
package rosetta

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	magicPrefix  = []byte("ROSE")
	magicTrailer = []byte("END")
)

// OpcodeLocation is one (location, opcode) record within a block.
type OpcodeLocation struct {
	Location uint32
	Opcode   uint16
}

// Block is one export's rosetta entry.
type Block struct {
	// Header is the source blob's own on-disk header bytes, cloned
	// verbatim into every block rather than referenced once, so a reader
	// consuming a single block never needs the rest of the file.
	Header  []byte
	Opcodes []OpcodeLocation
}

// Write serializes blocks to w: 'ROSE', a 64-bit block count, then per
// block the header bytes, a 64-bit opcode-list length, the
// (location, opcode) records themselves, and a trailing 'END'.
func Write(w io.Writer, blocks []Block) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magicPrefix); err != nil {
		return fmt.Errorf("rosetta: write magic: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(blocks))); err != nil {
		return fmt.Errorf("rosetta: write block count: %w", err)
	}

	for i, blk := range blocks {
		if _, err := bw.Write(blk.Header); err != nil {
			return fmt.Errorf("rosetta: block %d: write header: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint64(len(blk.Opcodes))); err != nil {
			return fmt.Errorf("rosetta: block %d: write opcode-list length: %w", i, err)
		}
		for j, rec := range blk.Opcodes {
			if err := binary.Write(bw, binary.LittleEndian, rec.Location); err != nil {
				return fmt.Errorf("rosetta: block %d record %d: write location: %w", i, j, err)
			}
			if err := binary.Write(bw, binary.LittleEndian, rec.Opcode); err != nil {
				return fmt.Errorf("rosetta: block %d record %d: write opcode: %w", i, j, err)
			}
		}
	}

	if _, err := bw.Write(magicTrailer); err != nil {
		return fmt.Errorf("rosetta: write trailer: %w", err)
	}
	return bw.Flush()
}

// Read parses a rosetta file back into its blocks, given headerSize (the
// caller's own gscfile.Reader.HeaderSize(), constant across every block
// in one run — the format itself carries no per-block header length).
func Read(r io.Reader, headerSize int) ([]Block, error) {
	br := bufio.NewReader(r)

	prefix := make([]byte, len(magicPrefix))
	if _, err := io.ReadFull(br, prefix); err != nil {
		return nil, fmt.Errorf("rosetta: read magic: %w", err)
	}
	if string(prefix) != string(magicPrefix) {
		return nil, fmt.Errorf("rosetta: bad magic %q", prefix)
	}

	var blockCount uint64
	if err := binary.Read(br, binary.LittleEndian, &blockCount); err != nil {
		return nil, fmt.Errorf("rosetta: read block count: %w", err)
	}

	blocks := make([]Block, 0, blockCount)
	for i := uint64(0); i < blockCount; i++ {
		header := make([]byte, headerSize)
		if _, err := io.ReadFull(br, header); err != nil {
			return nil, fmt.Errorf("rosetta: block %d: read header: %w", i, err)
		}

		var opcodeCount uint64
		if err := binary.Read(br, binary.LittleEndian, &opcodeCount); err != nil {
			return nil, fmt.Errorf("rosetta: block %d: read opcode-list length: %w", i, err)
		}

		records := make([]OpcodeLocation, opcodeCount)
		for j := range records {
			if err := binary.Read(br, binary.LittleEndian, &records[j].Location); err != nil {
				return nil, fmt.Errorf("rosetta: block %d record %d: read location: %w", i, j, err)
			}
			if err := binary.Read(br, binary.LittleEndian, &records[j].Opcode); err != nil {
				return nil, fmt.Errorf("rosetta: block %d record %d: read opcode: %w", i, j, err)
			}
		}

		blocks = append(blocks, Block{Header: header, Opcodes: records})
	}

	trailer := make([]byte, len(magicTrailer))
	if _, err := io.ReadFull(br, trailer); err != nil {
		return nil, fmt.Errorf("rosetta: read trailer: %w", err)
	}
	if string(trailer) != string(magicTrailer) {
		return nil, fmt.Errorf("rosetta: bad trailer %q", trailer)
	}

	return blocks, nil
}
