package driver

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"templint/internal/diag"
	"templint/internal/project"
	"templint/internal/source"
)

// cacheSchemaVersion is bumped whenever the payload format changes; old
// entries then simply miss.
const cacheSchemaVersion uint16 = 1

var schemaDigest = project.HashBytes([]byte{
	byte(cacheSchemaVersion >> 8), byte(cacheSchemaVersion),
})

// cacheKey derives the cache key for one unit: schema version, file
// content, effective rule options. Any of the three changing invalidates
// the entry.
func cacheKey(f *source.File, cfg project.Digest) project.Digest {
	return project.Combine(schemaDigest, project.Digest(f.Hash), cfg)
}

// DiskCache persists per-unit findings under the user cache directory.
// Safe for concurrent use; a nil *DiskCache is a valid no-op cache.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes the cache at the standard XDG location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt initializes the cache rooted at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// cachedPayload is the serialised finding set for one unit.
type cachedPayload struct {
	Schema uint16
	Diags  []cachedDiag
}

type cachedDiag struct {
	Code    uint16
	Sev     uint8
	Message string
	Start   uint32
	End     uint32
	Notes   []cachedNote
	Fixes   []cachedFix
}

type cachedNote struct {
	Start   uint32
	End     uint32
	Message string
}

type cachedFix struct {
	ID            string
	Title         string
	Kind          uint8
	Applicability uint8
	IsPreferred   bool
	Edits         []cachedEdit
}

type cachedEdit struct {
	Start   uint32
	End     uint32
	NewText string
	OldText string
}

// Store serialises a unit's diagnostics under key. Spans are stored as bare
// offsets: the content hash in the key guarantees they still apply when the
// entry is read back.
func (c *DiskCache) Store(key project.Digest, bag *diag.Bag) error {
	if c == nil {
		return nil
	}
	payload := cachedPayload{Schema: cacheSchemaVersion}
	for _, d := range bag.Items() {
		payload.Diags = append(payload.Diags, encodeDiag(d))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace keeps readers away from partial writes.
	return os.Rename(f.Name(), p)
}

// Lookup reads the findings cached under key and rebinds their spans to
// fileID. A miss, a schema mismatch or a corrupt entry all return false.
func (c *DiskCache) Lookup(key project.Digest, fileID source.FileID, maxDiagnostics int) (*diag.Bag, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	var payload cachedPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false
	}

	bag := diag.NewBag(maxDiagnostics)
	for _, cd := range payload.Diags {
		bag.Add(decodeDiag(cd, fileID))
	}
	return bag, true
}

// DropAll removes every cached entry, for --no-cache style resets.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func encodeDiag(d diag.Diagnostic) cachedDiag {
	out := cachedDiag{
		Code:    uint16(d.Code),
		Sev:     uint8(d.Severity),
		Message: d.Message,
		Start:   d.Primary.Start,
		End:     d.Primary.End,
	}
	for _, n := range d.Notes {
		out.Notes = append(out.Notes, cachedNote{
			Start: n.Span.Start, End: n.Span.End, Message: n.Msg,
		})
	}
	for _, fx := range d.Fixes {
		cf := cachedFix{
			ID:            fx.ID,
			Title:         fx.Title,
			Kind:          uint8(fx.Kind),
			Applicability: uint8(fx.Applicability),
			IsPreferred:   fx.IsPreferred,
		}
		for _, e := range fx.Edits {
			cf.Edits = append(cf.Edits, cachedEdit{
				Start: e.Span.Start, End: e.Span.End,
				NewText: e.NewText, OldText: e.OldText,
			})
		}
		out.Fixes = append(out.Fixes, cf)
	}
	return out
}

func decodeDiag(cd cachedDiag, fileID source.FileID) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: diag.Severity(cd.Sev),
		Code:     diag.Code(cd.Code),
		Message:  cd.Message,
		Primary:  source.Span{File: fileID, Start: cd.Start, End: cd.End},
	}
	for _, n := range cd.Notes {
		d.Notes = append(d.Notes, diag.Note{
			Span: source.Span{File: fileID, Start: n.Start, End: n.End},
			Msg:  n.Message,
		})
	}
	for _, cf := range cd.Fixes {
		fx := diag.Fix{
			ID:            cf.ID,
			Title:         cf.Title,
			Kind:          diag.FixKind(cf.Kind),
			Applicability: diag.FixApplicability(cf.Applicability),
			IsPreferred:   cf.IsPreferred,
		}
		for _, e := range cf.Edits {
			fx.Edits = append(fx.Edits, diag.TextEdit{
				Span:    source.Span{File: fileID, Start: e.Start, End: e.End},
				NewText: e.NewText,
				OldText: e.OldText,
			})
		}
		d.Fixes = append(d.Fixes, fx)
	}
	return d
}
