package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for an encode or decode output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// manifestPath accepts a manifest file or the directory holding one.
func manifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Annotatef(err, "stat %s", path)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}
	return path, nil
}

func runStats(_ *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.Read(path)
	if err != nil {
		return errors.Annotate(err, "read manifest")
	}
	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Mode:             %s\n", m.Mode)
	if m.Tier != "" {
		fmt.Printf("  Tier:             %s\n", m.Tier)
	}
	fmt.Printf("  Sealed:           %v\n", m.Encrypted)
	if m.KDF != nil {
		fmt.Printf("  KDF:              %s\n", m.KDF.Algorithm)
	}
	if ri := m.RunInfo; ri != nil {
		fmt.Printf("  Workers:          %d\n", ri.Workers)
		if ri.Backend != "" {
			fmt.Printf("  Backend:          %s", ri.Backend)
			if ri.Iterations > 0 {
				fmt.Printf(" (%d iterations)", ri.Iterations)
			}
			fmt.Println()
		}
		fmt.Printf("  Duration:         %d ms\n", ri.DurationMS)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total files:      %d\n", s.TotalFiles)
	fmt.Printf("  Failed:           %d\n", s.Failed)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Per-source-format breakdown.
	type formatStat struct {
		count   int
		in, out int64
	}
	formats := map[string]formatStat{}
	alpha := 0
	for _, e := range m.Files {
		fs := formats[e.Source.Format]
		fs.count++
		fs.in += e.Source.Size
		fs.out += e.Size
		formats[e.Source.Format] = fs
		if e.Source.HasAlpha {
			alpha++
		}
	}
	names := make([]string, 0, len(formats))
	for f := range formats {
		names = append(names, f)
	}
	sort.Strings(names)
	fmt.Println("  Source formats:")
	for _, f := range names {
		fs := formats[f]
		fmt.Printf("    %-6s  %4d files  %s → %s\n", f, fs.count, formatBytes(fs.in), formatBytes(fs.out))
	}
	fmt.Printf("  With alpha:       %d / %d files\n", alpha, len(m.Files))

	// Failures.
	var failed []string
	for key, e := range m.Files {
		if e.Error != "" {
			failed = append(failed, fmt.Sprintf("%s: %s", key, e.Error))
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		fmt.Println()
		fmt.Printf("  Errors (%d):\n", len(failed))
		for _, f := range failed {
			fmt.Printf("    %s\n", f)
		}
	}
	fmt.Println()
}
