// Package pipeline drives batch runs: it scans an input tree, fans files out
// to a bounded worker pool and collects per-file results into a manifest.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnyUserName/pngseal/internal/deflate"
	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/profile"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/AnyUserName/pngseal/internal/seal"
	"github.com/juju/errors"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("pipeline")

// Library logging stays at WARNING until the caller installs its own backend.
func init() { logging.SetLevel(logging.WARNING, "pipeline") }

// Mode selects what a run does to each file.
type Mode int

const (
	ModeEncode Mode = iota
	ModeDecode
)

func (m Mode) String() string {
	if m == ModeDecode {
		return "decode"
	}
	return "encode"
}

// Config holds all parameters for a pipeline run.
type Config struct {
	Input         string // file or directory
	OutputDir     string
	Mode          Mode
	Profile       profile.Profile
	Key           *seal.Key
	Workers       int // files processed concurrently
	CodecWorkers  int // bands per image inside the codec
	VerifyCRC     bool
	NoRegressSize bool // keep original PNG bytes when encoding does not shrink them
	Observer      progress.Observer // per-file codec stages; may be nil
}

// Pipeline orchestrates file processing.
type Pipeline struct {
	cfg      Config
	registry *deflate.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.CodecWorkers <= 0 {
		cfg.CodecWorkers = 1
	}
	return &Pipeline{
		cfg:      cfg,
		registry: cfg.Profile.Registry(),
	}
}

// Run processes every source and returns the manifest. Individual failures
// are recorded in the manifest; Run only fails when nothing could be
// processed or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	start := time.Now()
	if p.cfg.Mode == ModeEncode {
		log.Debugf("%s", p.registry)
	}

	// Step 1: Scan for inputs.
	sources, err := ScanImages(p.cfg.Input, p.cfg.Mode == ModeDecode)
	if err != nil {
		return nil, errors.Annotate(err, "scan")
	}
	if len(sources) == 0 {
		return nil, errors.Errorf("no images found in %s", p.cfg.Input)
	}
	log.Debugf("found %d images", len(sources))

	counter := progress.NewCounter(p.cfg.Mode.String(), len(sources))
	results := make([]processResult, len(sources))
	collisions := outputCollisions(sources, p.cfg.OutputDir)

	// Step 2: Process files in parallel.
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		if owner, ok := collisions[i]; ok {
			results[i] = processResult{
				key: src.RelPath,
				err: errors.Errorf("%s: output %s.png already claimed by %s", src.RelPath, src.Key, owner),
			}
			continue
		}
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results[idx] = processResult{key: s.RelPath, err: err}
				return
			}
			log.Debugf("processing: %s", s.RelPath)
			results[idx] = p.processFile(s)
			counter.Add(1)
			if results[idx].err == nil {
				log.Debugf("done: %s (%d bytes)", s.RelPath, results[idx].entry.Size)
			}
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Mode.String())
	if p.cfg.Mode == ModeEncode {
		m.Tier = p.cfg.Profile.Tier.String()
	}
	// Decode runs write plain PNGs whatever key opened the inputs.
	m.Encrypted = p.cfg.Mode == ModeEncode && p.cfg.Key != nil

	var failed []processResult
	for _, r := range results {
		if r.err != nil {
			r.entry.Error = r.err.Error()
			failed = append(failed, r)
		}
		m.Files[r.key] = r.entry
	}

	// Report errors but don't fail the entire run for partial failures.
	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].key < failed[j].key })
		for _, r := range failed {
			log.Errorf("%v", r.err)
		}
		if len(failed) == len(sources) {
			return m, errors.Errorf("all %d images failed to process", len(failed))
		}
		log.Warningf("%d of %d images had errors", len(failed), len(sources))
	}

	m.RunInfo = &manifest.RunInfo{
		Workers:    p.cfg.Workers,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if p.cfg.Mode == ModeEncode {
		m.RunInfo.Backend = p.cfg.Profile.Tier.Backend()
		if m.RunInfo.Backend == "zopfli" {
			m.RunInfo.Iterations = p.cfg.Profile.Iterations
		}
	}
	m.ComputeStats()
	return m, nil
}

// outputCollisions maps the index of every source whose output path (compared
// case-insensitively) was already claimed by an earlier source to that
// source's relative path. Scan order is lexical, so the winner is stable.
func outputCollisions(sources []Source, outDir string) map[int]string {
	owners := make(map[string]string, len(sources))
	collisions := make(map[int]string)
	for i, s := range sources {
		out := strings.ToLower(s.OutputPath(outDir))
		if owner, taken := owners[out]; taken {
			collisions[i] = owner
			continue
		}
		owners[out] = s.RelPath
	}
	return collisions
}
