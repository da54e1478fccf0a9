package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/pngseal/internal/codec"
	"github.com/AnyUserName/pngseal/internal/hasher"
	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/seal"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var (
	validateDeep bool
	validateKeys keyFlags
)

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_manifest>",
	Short: "Check a manifest against the files it references",
	Long: `Checks that every output listed in the manifest exists with the recorded
size and xxhash digest. With --deep each output is also decoded (using the
key flags for sealed runs) and its pixel digest compared.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDeep, "deep", false, "decode outputs and compare pixel digests")
	validateKeys.register(validateCmd, false)
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.Read(path)
	if err != nil {
		return errors.Annotate(err, "read manifest")
	}
	baseDir := filepath.Dir(path)

	var key *seal.Key
	if validateDeep && m.Encrypted {
		if key, err = validateKeys.decodeKey(cmd.Context(), baseDir); err != nil {
			return err
		}
		if key == nil {
			return errors.New("--deep on a sealed run needs --key-file or --password")
		}
	}

	errs := validateManifest(m, baseDir, validateDeep, key)
	if len(errs) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d files, all outputs present and matching\n", m.Stats.TotalFiles-m.Stats.Failed)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return errors.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *manifest.Manifest, baseDir string, deep bool, key *seal.Key) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Files))
	for k := range m.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenOutputs := map[string]string{}
	failed := 0
	for _, name := range keys {
		e := m.Files[name]
		if e.Error != "" {
			failed++
			continue
		}
		if e.Output == "" {
			errs = append(errs, fmt.Sprintf("%q: missing output path", name))
			continue
		}
		if prev, dup := seenOutputs[e.Output]; dup {
			errs = append(errs, fmt.Sprintf("%q: output %q also written by %q", name, e.Output, prev))
		}
		seenOutputs[e.Output] = name

		data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(e.Output)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%q: file not found: %s", name, e.Output))
			continue
		}
		if int64(len(data)) != e.Size {
			errs = append(errs, fmt.Sprintf("%q: size mismatch: manifest=%d, disk=%d", name, e.Size, len(data)))
		}
		if got := hasher.Sum(data); got != e.Hash {
			errs = append(errs, fmt.Sprintf("%q: hash mismatch: manifest=%s, disk=%s", name, e.Hash, got))
		}

		// Kept originals are the source bytes, not codec output.
		if !deep || e.Kept || e.Pixels == "" {
			continue
		}
		img, err := codec.Decode(data, codec.DecodeOptions{Key: key, VerifyCRC: true})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%q: decode: %v", name, err))
			continue
		}
		if got := hasher.Pixels(img.Width(), img.Height(), img.Pix); got != e.Pixels {
			errs = append(errs, fmt.Sprintf("%q: pixel digest mismatch: manifest=%s, decoded=%s", name, e.Pixels, got))
		}
	}

	// Verify stats consistency.
	if m.Stats.TotalFiles != len(m.Files) {
		errs = append(errs, fmt.Sprintf("stats.total_files mismatch: %d != %d", m.Stats.TotalFiles, len(m.Files)))
	}
	if m.Stats.Failed != failed {
		errs = append(errs, fmt.Sprintf("stats.failed mismatch: %d != %d", m.Stats.Failed, failed))
	}
	return errs
}
