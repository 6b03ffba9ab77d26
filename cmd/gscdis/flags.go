package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/hashdict"
)

// commonFlags is the set of flags every subcommand's FlagSet registers
// the same way: the --in/--out/--vm/--platform/--dict/--ignore/--strict/
// --max-steps group shared by every cmdXxx function in this package.
type commonFlags struct {
	in       *string
	out      *string
	vm       *string
	platform *string
	dict     *string
	ignore   *string
	strict   *bool
	maxSteps *int
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		in:       fs.String("in", "", "path to a compiled GSC script blob"),
		out:      fs.String("out", "", "output directory"),
		vm:       fs.String("vm", "", "VM revision override, e.g. 0x8f (required for the wide-hash family)"),
		platform: fs.String("platform", "pc", "pc, ps, or xbox"),
		dict:     fs.String("dict", "", "hash dictionary file"),
		ignore:   fs.String("ignore", "", "control-flow reconstruction passes to skip (letters, see internal/gscfmt)"),
		strict:   fs.Bool("strict", false, "record strict mode in the parsed options (no subcommand reads it; every run is best-effort)"),
		maxSteps: fs.Int("max-steps", 0, "global walker loop cap (0 = default)"),
	}
}

// resolve turns the parsed flag values into an Options and loads the hash
// dictionary, if one was given, before any subcommand starts resolving
// names against it.
func (c *commonFlags) resolve() (Options, error) {
	var opts Options

	if *c.dict != "" {
		if err := hashdict.Load(*c.dict); err != nil {
			return opts, fmt.Errorf("gscdis: load dict %s: %w", *c.dict, err)
		}
	}

	if *c.vm != "" {
		v, err := strconv.ParseUint(*c.vm, 0, 8)
		if err != nil {
			return opts, fmt.Errorf("gscdis: bad --vm %q: %w", *c.vm, err)
		}
		opts.VM = byte(v)
	}

	platform, err := gscfile.ParsePlatform(*c.platform)
	if err != nil {
		return opts, fmt.Errorf("gscdis: %w", err)
	}
	opts.Platform = platform

	opts.Ignore = gscfmt.ParseIgnoreLetters(*c.ignore)
	opts.MaxSteps = *c.maxSteps
	if *c.strict {
		opts.Mode = gscfmt.ModeStrict
	} else {
		opts.Mode = gscfmt.ModeBestEffort
	}
	return opts, nil
}

func (c *commonFlags) requireInOut() error {
	if *c.in == "" || *c.out == "" {
		return fmt.Errorf("gscdis: --in and --out are required")
	}
	return nil
}
