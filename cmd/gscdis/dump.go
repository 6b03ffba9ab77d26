package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gsctools/gscdis/internal/hashdict"
)

// cmdDumpHeader prints the Container Reader's normalized header view plus
// its per-variant experimental/opaque fields, the read-only counterpart
// to "unflutter scan".
func cmdDumpHeader(args []string) error {
	fs := flag.NewFlagSet("dump-header", flag.ExitOnError)
	cf := addCommonFlags(fs)
	verbose := fs.Bool("verbose", false, "also print opaque per-variant fields")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.in == "" {
		return fmt.Errorf("gscdis: --in is required")
	}
	opts, err := cf.resolve()
	if err != nil {
		return err
	}

	mod, err := openModule(*cf.in, opts.VM, opts.Platform)
	if err != nil {
		return err
	}

	mod.Reader.DumpHeader(os.Stdout)
	mod.Reader.DumpExperimental(os.Stdout, *verbose)
	fmt.Fprintf(os.Stdout, "includes=%d strings=%d imports=%d globals=%d animtree1=%d animtree2=%d exports=%d\n",
		len(mod.Tables.Includes), len(mod.Tables.Strings), len(mod.Tables.Imports),
		len(mod.Tables.Globals), len(mod.Tables.AnimTreeSingles), len(mod.Tables.AnimTreeDoubles),
		len(mod.Tables.Exports))
	if mod.Diags.Len() > 0 {
		fmt.Fprintf(os.Stderr, "%d link-patch diagnostics:\n", mod.Diags.Len())
		for _, d := range mod.Diags.Items() {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
	return nil
}

// cmdDumpStrings prints every decrypted string-table literal, resolving
// its fixup count for context, the same "strings" read-only inspection
// unflutter offers for a Dart snapshot's object pool.
func cmdDumpStrings(args []string) error {
	fs := flag.NewFlagSet("dump-strings", flag.ExitOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.in == "" {
		return fmt.Errorf("gscdis: --in is required")
	}
	opts, err := cf.resolve()
	if err != nil {
		return err
	}

	mod, err := openModule(*cf.in, opts.VM, opts.Platform)
	if err != nil {
		return err
	}

	for i, entry := range mod.Tables.Strings {
		lit, err := mod.Reader.StringLiteral(entry.Address)
		if err != nil {
			fmt.Fprintf(os.Stderr, "string %d @0x%x: %v\n", i, entry.Address, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%4d  0x%08x  refs=%-4d %q\n", i, entry.Address, entry.Count, lit)
	}
	fmt.Fprintf(os.Stderr, "%d strings, hash dictionary loaded=%v\n", len(mod.Tables.Strings), hashdict.Loaded())
	return nil
}
