package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/pngseal/internal/keys"
	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/pipeline"
	"github.com/AnyUserName/pngseal/internal/profile"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var (
	encodeOutDir       string
	encodeTier         string
	encodeWorkers      int
	encodeImageWorkers int
	encodeVerifyCRC    bool
	encodeNoRegress    bool
	encodeKeys         keyFlags
)

var encodeCmd = &cobra.Command{
	Use:   "encode <input>",
	Short: "Re-encode images as PNG, optionally quantized and sealed",
	Long: `Scans the input file or directory for images (png, jpg, jpeg, gif, bmp,
tiff, webp) and writes each as an 8-bit RGB/RGBA PNG under the output
directory, keeping relative paths. A manifest with sizes and xxhash digests
is written next to the outputs.

Tiers: lossless (fast deflate), balanced (6-bit color, best deflate),
maximum (4-bit color, zopfli). With --key-file or --password the image data
is sealed with AES-256-GCM.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOutDir, "out", "o", "./pngseal_out", "output directory")
	encodeCmd.Flags().StringVarP(&encodeTier, "tier", "t", profile.DefaultName,
		"compression tier ("+strings.Join(profile.Names(), ", ")+")")
	encodeCmd.Flags().IntVarP(&encodeWorkers, "workers", "w", 0, "files processed in parallel (0 = NumCPU)")
	encodeCmd.Flags().IntVar(&encodeImageWorkers, "image-workers", 1, "row bands per image for quantize/filter")
	encodeCmd.Flags().BoolVar(&encodeVerifyCRC, "verify-crc", false, "check chunk CRCs of PNG inputs")
	encodeCmd.Flags().BoolVar(&encodeNoRegress, "no-regress-size", false, "keep the original PNG when re-encoding does not shrink it (unsealed only)")
	encodeKeys.register(encodeCmd, true)
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Annotate(err, "resolve input path")
	}
	absOutput, err := filepath.Abs(encodeOutDir)
	if err != nil {
		return errors.Annotate(err, "resolve output path")
	}

	prof, ok := profile.Lookup(encodeTier)
	if !ok {
		prof = profile.Get(encodeTier)
		log.Warningf("unknown tier %q, using %s", encodeTier, prof.Tier)
	}

	key, params, err := encodeKeys.encodeKey(ctx)
	if err != nil {
		return err
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("tier:    %s (backend=%s, iterations=%d)", prof.Tier, prof.Tier.Backend(), prof.Iterations)
	logVerbose("sealed:  %v", key != nil)

	// Create output dir.
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return errors.Annotate(err, "create output dir")
	}

	cfg := pipeline.Config{
		Input:         absInput,
		OutputDir:     absOutput,
		Mode:          pipeline.ModeEncode,
		Profile:       prof,
		Key:           key,
		Workers:       encodeWorkers,
		CodecWorkers:  encodeImageWorkers,
		VerifyCRC:     encodeVerifyCRC,
		NoRegressSize: encodeNoRegress,
	}
	if verbose {
		cfg.Observer = progress.NewCounter("stage", 0)
	}
	m, runErr := pipeline.New(cfg).Run(ctx)
	if m == nil {
		return errors.Annotate(runErr, "pipeline")
	}
	m.KDF = params

	if params != nil {
		if err := keys.WriteParams(*params, filepath.Join(absOutput, keys.ParamsFileName)); err != nil {
			return errors.Annotate(err, "write kdf params")
		}
	}
	if err := manifest.WriteJSON(m, filepath.Join(absOutput, manifest.FileName)); err != nil {
		return errors.Annotate(err, "write manifest")
	}
	if runErr != nil {
		return errors.Annotate(runErr, "pipeline")
	}

	printRunReport(m, time.Since(start))
	return nil
}

func printRunReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("  pngseal %s complete\n", m.Mode)
	fmt.Println()

	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Printf("  Files:       %d\n", stats.TotalFiles)
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", stats.Failed)
	}
	if m.Tier != "" {
		fmt.Printf("  Tier:        %s\n", m.Tier)
	}
	fmt.Printf("  Sealed:      %v\n", m.Encrypted)
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	if stats.KeptOriginal > 0 {
		fmt.Printf("  Kept:        %d originals (re-encode was larger)\n", stats.KeptOriginal)
	}
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.RunInfo != nil {
		fmt.Printf("  Workers:     %d\n", m.RunInfo.Workers)
	}
	fmt.Println()

	// Top 10 heaviest files.
	if len(m.Files) > 0 {
		type fileSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []fileSize
		for key, e := range m.Files {
			if e.Error != "" {
				continue
			}
			items = append(items, fileSize{key, e.Source.Size, e.Size})
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].inputSize > items[j].inputSize
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d heaviest (original → output):\n", n)
		for _, it := range items[:n] {
			saved := float64(0)
			if it.inputSize > 0 {
				saved = (1 - float64(it.outputSize)/float64(it.inputSize)) * 100
			}
			fmt.Printf("    %-40s %8s → %8s  (%+.0f%%)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				-saved,
			)
		}
		fmt.Println()
	}

	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
