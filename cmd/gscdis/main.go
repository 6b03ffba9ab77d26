package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "decompile":
		err = cmdDecompile(os.Args[2:])
	case "dump-header":
		err = cmdDumpHeader(os.Args[2:])
	case "dump-strings":
		err = cmdDumpStrings(os.Args[2:])
	case "rosetta":
		err = cmdRosetta(os.Args[2:])
	case "vtable":
		err = cmdVTable(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `gscdis — GSC script disassembler/decompiler

Usage:
  gscdis disasm       --in <file> --out <dir>              Per-export flat disassembly (no CFG reconstruction)
  gscdis decompile    --in <file> --out <dir>               Full decompile: CFG reconstruction, classes, source
  gscdis dump-header  --in <file>                             Print the parsed container header
  gscdis dump-strings --in <file>                             Print the decrypted string table
  gscdis rosetta      --in <file> --out <dir>                Write a cross-version opcode-location sidecar
  gscdis vtable       --in <file> --out <dir>                 Recover and print class/vtable layouts

Flags:
  --in <file>        Path to a compiled GSC script blob
  --out <dir>        Output directory
  --vm <byte>        VM revision override (required for the wide-hash family), e.g. 0x8f
  --platform <name>  pc, ps, or xbox (default pc)
  --dict <path>      Hash dictionary file (see internal/hashdict)
  --ignore <letters> Skip individual control-flow reconstruction passes
  --strict           Fail a file on its first structural error
  --max-steps <n>    Global walker loop cap
  --single           (decompile) write one module.gsc instead of per-export files
  --graph            (decompile) also render call-graph/class-graph/CFG DOT+HTML
`)
}
