// Package hashdict is the process-wide Hash Dictionary: a large map from
// the engine's 64-bit string hash to its original text, optionally seeded
// at startup from a text file and consulted by every later pipeline stage
// whenever a name only survives in hashed form (import/class/method/global
// identifiers, script paths). Reads are lock-free in the sense that matters
// here — an RWMutex read-lock never blocks another reader — while Load,
// AddPrecomputed and Extract's hit recording take the write lock, mirroring the
// "mutex acquired only when adds are requested" shared-state rule.
package hashdict

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	mu        sync.RWMutex
	table     = make(map[uint64]string)
	extracted = make(map[uint64]struct{})
	loaded    bool
)

// Load reads a hash dictionary file (default name "strings.txt"), one
// entry per line as "<hex-hash>,<name>". Blank lines and lines starting
// with '#' are skipped. A malformed line is skipped rather than aborting
// the whole load, since a single bad entry in a large dictionary file
// shouldn't cost every other entry in it.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mu.Lock()
	defer mu.Unlock()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			continue
		}
		hexPart := strings.TrimSpace(strings.TrimPrefix(line[:comma], "0x"))
		name := line[comma+1:]
		hash, err := strconv.ParseUint(hexPart, 16, 64)
		if err != nil {
			continue
		}
		table[hash] = name
	}
	loaded = true
	return scanner.Err()
}

// Loaded reports whether Load has read a file at least once (an empty
// file still counts — the caller asked, and got an empty dictionary
// rather than an uninitialized one; a file that cannot be opened does not).
func Loaded() bool {
	mu.RLock()
	defer mu.RUnlock()
	return loaded
}

// Lookup returns the text for hash, if known.
func Lookup(hash uint64) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := table[hash]
	return s, ok
}

// Extract resolves hash to its text, recording the hit in the extracted
// set for a later SaveExtracted, falling back to a "<kind>_<hex>"
// placeholder when the hash isn't in the dictionary — the same shape the
// output path naming falls back to for an unknown script name.
func Extract(kind string, hash uint64) string {
	if s, ok := Lookup(hash); ok {
		markExtracted(hash)
		return s
	}
	return fmt.Sprintf("%s_%x", kind, hash)
}

func markExtracted(hash uint64) {
	mu.Lock()
	defer mu.Unlock()
	extracted[hash] = struct{}{}
}

// AddPrecomputed inserts a single known (hash, name) pair, for callers
// that compute a hash themselves (e.g. a `#using` path literal seen in
// the same run) rather than reading it from a dictionary file.
func AddPrecomputed(hash uint64, name string) {
	mu.Lock()
	defer mu.Unlock()
	table[hash] = name
}

// SaveExtracted writes every hash Extract has successfully resolved this
// run to path, sorted for a stable diff, in the same "<hex-hash>,<name>"
// shape Load reads back.
func SaveExtracted(path string) error {
	mu.RLock()
	hashes := make([]uint64, 0, len(extracted))
	for h := range extracted {
		hashes = append(hashes, h)
	}
	mu.RUnlock()
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, h := range hashes {
		name, _ := Lookup(h)
		fmt.Fprintf(w, "0x%x,%s\n", h, name)
	}
	return w.Flush()
}

// Size reports how many entries the dictionary currently holds.
func Size() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(table)
}

// reset clears all process-wide state; test-only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	table = make(map[uint64]string)
	extracted = make(map[uint64]struct{})
	loaded = false
}
