// Package driver runs the prefer-self check over files and directories:
// load, parse, rule, collect. Directory runs fan out over a bounded worker
// group and consult the persistent result cache.
package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"templint/internal/diag"
	"templint/internal/project"
	"templint/internal/rule"
	"templint/internal/source"
	"templint/internal/tplast"
	"templint/internal/tplparse"
)

// Options configures a driver run.
type Options struct {
	Rule           rule.Options
	MaxDiagnostics int
	// Jobs caps the worker count; zero means GOMAXPROCS.
	Jobs int
	// Cache is the persistent result cache; nil disables caching.
	Cache *DiskCache
	// Progress, when set, receives one event per finished unit. Events may
	// arrive from worker goroutines but never concurrently.
	Progress func(Event)
}

// Event reports the completion of one template unit.
type Event struct {
	Path   string
	Index  int // 1-based completion order
	Total  int
	Cached bool
	Errors bool
}

// UnitResult is the outcome for one template unit.
type UnitResult struct {
	Path      string
	FileID    source.FileID
	Bag       *diag.Bag
	FromCache bool
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	".git":         true,
}

// ParseFile parses one already-loaded file into its template tree,
// reporting parse problems into bag.
func ParseFile(f *source.File, bag *diag.Bag) *tplast.Template {
	return tplparse.Parse(f, tplparse.Options{Reporter: diag.BagReporter{Bag: bag}})
}

// CheckFile runs parse plus rule over one loaded file and returns the
// sorted diagnostics.
func CheckFile(f *source.File, ruleOpts rule.Options, maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	root := ParseFile(f, bag)
	rule.CheckTemplate(f, root, ruleOpts, diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
	bag.Sort()
	return bag
}

// ListTemplateFiles returns the sorted *.html files under dir, skipping
// vendored and hidden directories.
func ListTemplateFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir checks every template file under dir in parallel. Results come
// back in the stable file order regardless of completion order. A worker
// failure cancels the remaining workers.
func CheckDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []UnitResult, error) {
	files, err := ListTemplateFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	results, err := checkPaths(ctx, fileSet, files, opts)
	return fileSet, results, err
}

// CheckFiles checks an explicit list of template files.
func CheckFiles(ctx context.Context, paths []string, opts Options) (*source.FileSet, []UnitResult, error) {
	fileSet := source.NewFileSet()
	results, err := checkPaths(ctx, fileSet, paths, opts)
	return fileSet, results, err
}

func checkPaths(ctx context.Context, fileSet *source.FileSet, files []string, opts Options) ([]UnitResult, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// Preload sequentially: the FileSet is not written to concurrently.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			// Register an empty placeholder under the failed path so the
			// I/O diagnostic carries a span every renderer can resolve.
			loadErrors[path] = err
			fileIDs[path] = fileSet.AddVirtual(path, nil)
			continue
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	cfgDigest := project.OptionsDigest(opts.Rule)

	results := make([]UnitResult, len(files))
	var progressMu sync.Mutex
	done := 0
	emit := func(path string, cached, hasErrors bool) {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		opts.Progress(Event{
			Path: path, Index: done, Total: len(files),
			Cached: cached, Errors: hasErrors,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, failed := loadErrors[path]; failed {
				placeholderID := fileIDs[path]
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Primary:  source.Span{File: placeholderID},
					Message:  "failed to load file: " + loadErr.Error(),
				})
				results[i] = UnitResult{Path: path, FileID: placeholderID, Bag: bag}
				emit(path, false, true)
				return nil
			}

			fileID := fileIDs[path]
			file := fileSet.Get(fileID)
			key := cacheKey(file, cfgDigest)

			if bag, ok := opts.Cache.Lookup(key, fileID, opts.MaxDiagnostics); ok {
				results[i] = UnitResult{Path: path, FileID: fileID, Bag: bag, FromCache: true}
				emit(path, true, bag.HasErrors())
				return nil
			}

			bag := CheckFile(file, opts.Rule, opts.MaxDiagnostics)
			// A store failure only costs a future cache hit.
			_ = opts.Cache.Store(key, bag)
			results[i] = UnitResult{Path: path, FileID: fileID, Bag: bag}
			emit(path, false, bag.HasErrors())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// MergeBags collects every unit's diagnostics into one sorted bag.
func MergeBags(results []UnitResult, maxDiagnostics int) *diag.Bag {
	merged := diag.NewBag(maxDiagnostics)
	for _, res := range results {
		merged.Merge(res.Bag)
	}
	merged.Sort()
	return merged
}
