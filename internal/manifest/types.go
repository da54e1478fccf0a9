package manifest

import "github.com/AnyUserName/pngseal/internal/keys"

// Manifest is the top-level record of a pngseal run.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Mode        string           `json:"mode"` // "encode" or "decode"
	Tier        string           `json:"tier,omitempty"`
	Encrypted   bool             `json:"encrypted"`
	KDF         *keys.Params     `json:"kdf,omitempty"`
	RunInfo     *RunInfo         `json:"run_info,omitempty"`
	Files       map[string]Entry `json:"files"`
	Stats       Stats            `json:"stats"`
}

// RunInfo captures run-time parameters for diagnostics.
type RunInfo struct {
	Workers    int    `json:"workers"`
	Backend    string `json:"backend,omitempty"`
	Iterations int    `json:"iterations,omitempty"` // zopfli only
	DurationMS int64  `json:"duration_ms"`
}

// Entry describes one processed input, keyed by its path relative to the
// input root.
type Entry struct {
	Source Source `json:"source"`
	Output string `json:"output,omitempty"` // relative to the output dir
	Size   int64  `json:"size,omitempty"`   // bytes written
	Hash   string `json:"hash,omitempty"`   // xxhash64 of the written file
	Pixels string `json:"pixels,omitempty"` // xxhash64 of the canonical raster
	Kept   bool   `json:"kept_original,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Source holds metadata about the input file.
type Source struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalFiles       int   `json:"total_files"`
	Failed           int   `json:"failed,omitempty"`
	KeptOriginal     int   `json:"kept_original,omitempty"` // output would have been larger
}

// FileName is the manifest written into the output directory.
const FileName = "pngseal.manifest.json"

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
