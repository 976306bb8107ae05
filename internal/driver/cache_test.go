package driver

import (
	"context"
	"path/filepath"
	"testing"

	"templint/internal/project"
	"templint/internal/rule"
	"templint/internal/source"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	id := fs.AddVirtual("card.html", []byte("{{ name }} {{ this.name }}"))
	f := fs.Get(id)
	opts := rule.DefaultOptions()
	bag := CheckFile(f, opts, 32)
	if bag.Len() == 0 {
		t.Fatal("want diagnostics to cache")
	}

	key := cacheKey(f, project.OptionsDigest(opts))
	if err := cache.Store(key, bag); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Spans rebind to whatever FileID the file has in the reading run.
	newID := source.FileID(42)
	got, ok := cache.Lookup(key, newID, 32)
	if !ok {
		t.Fatal("Lookup missed a stored key")
	}
	if got.Len() != bag.Len() {
		t.Fatalf("cached %d diagnostics, want %d", got.Len(), bag.Len())
	}
	for i, d := range got.Items() {
		orig := bag.Items()[i]
		if d.Code != orig.Code || d.Message != orig.Message {
			t.Fatalf("diagnostic %d = %+v, want %+v", i, d, orig)
		}
		if d.Primary.File != newID {
			t.Fatalf("span not rebound: %+v", d.Primary)
		}
		if d.Primary.Start != orig.Primary.Start || d.Primary.End != orig.Primary.End {
			t.Fatalf("offsets changed: %+v vs %+v", d.Primary, orig.Primary)
		}
		if len(d.Fixes) != len(orig.Fixes) {
			t.Fatalf("fixes lost: %+v", d)
		}
		for j, fx := range d.Fixes {
			ofx := orig.Fixes[j]
			if fx.Title != ofx.Title || len(fx.Edits) != len(ofx.Edits) {
				t.Fatalf("fix %d = %+v, want %+v", j, fx, ofx)
			}
			if fx.Edits[0].NewText != ofx.Edits[0].NewText || fx.Edits[0].OldText != ofx.Edits[0].OldText {
				t.Fatalf("edit changed: %+v vs %+v", fx.Edits[0], ofx.Edits[0])
			}
			if fx.Edits[0].Span.File != newID {
				t.Fatalf("edit span not rebound: %+v", fx.Edits[0].Span)
			}
		}
	}
}

func TestCacheKeyVariesWithContentAndConfig(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.Get(fs.AddVirtual("a.html", []byte("{{ one }}")))
	b := fs.Get(fs.AddVirtual("b.html", []byte("{{ two }}")))

	defCfg := project.OptionsDigest(rule.DefaultOptions())
	altCfg := project.OptionsDigest(rule.Options{
		Properties:         rule.ModeImplicit,
		Variables:          rule.ModeImplicit,
		TemplateReferences: rule.ModeImplicit,
	})

	if cacheKey(a, defCfg) == cacheKey(b, defCfg) {
		t.Fatal("different content must produce different keys")
	}
	if cacheKey(a, defCfg) == cacheKey(a, altCfg) {
		t.Fatal("different config must produce different keys")
	}
	if cacheKey(a, defCfg) != cacheKey(a, defCfg) {
		t.Fatal("key is not deterministic")
	}
}

func TestCacheMiss(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	var key project.Digest
	key[0] = 7
	if _, ok := cache.Lookup(key, 1, 8); ok {
		t.Fatal("empty cache reported a hit")
	}
}

func TestNilCacheIsNoOp(t *testing.T) {
	var cache *DiskCache
	if err := cache.Store(project.Digest{}, nil); err != nil {
		t.Fatalf("nil Store: %v", err)
	}
	if _, ok := cache.Lookup(project.Digest{}, 1, 8); ok {
		t.Fatal("nil cache reported a hit")
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("nil DropAll: %v", err)
	}
}

func TestCheckDirSecondRunHitsCache(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.html": "{{ first }}",
		"b.html": "{{ second }}",
	})
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Rule: rule.DefaultOptions(), MaxDiagnostics: 16, Cache: cache}

	_, first, err := CheckDir(context.Background(), dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range first {
		if res.FromCache {
			t.Fatalf("first run hit the cache: %+v", res)
		}
	}

	_, second, err := CheckDir(context.Background(), dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range second {
		if !res.FromCache {
			t.Fatalf("second run missed the cache for %s", res.Path)
		}
		if res.Bag.Len() != first[i].Bag.Len() {
			t.Fatalf("cached diagnostics differ for %s", res.Path)
		}
	}
}
