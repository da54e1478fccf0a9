package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/pipeline"
	"github.com/AnyUserName/pngseal/internal/progress"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var (
	decodeOutDir    string
	decodeWorkers   int
	decodeVerifyCRC bool
	decodeKeys      keyFlags
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input>",
	Short: "Decode (and unseal) PNGs into plain lossless PNGs",
	Long: `Reads every .png under the input file or directory, opens sealed image
data with the given key, and writes plain lossless RGB/RGBA PNGs under the
output directory. Password keys are rederived from the pngseal.kdf.json
file that encode wrote next to the sealed files.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOutDir, "out", "o", "./pngseal_plain", "output directory")
	decodeCmd.Flags().IntVarP(&decodeWorkers, "workers", "w", 0, "files processed in parallel (0 = NumCPU)")
	decodeCmd.Flags().BoolVar(&decodeVerifyCRC, "verify-crc", false, "reject chunks with bad CRCs")
	decodeKeys.register(decodeCmd, false)
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Annotate(err, "resolve input path")
	}
	absOutput, err := filepath.Abs(decodeOutDir)
	if err != nil {
		return errors.Annotate(err, "resolve output path")
	}
	key, err := decodeKeys.decodeKey(ctx, absInput)
	if err != nil {
		return err
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return errors.Annotate(err, "create output dir")
	}

	cfg := pipeline.Config{
		Input:     absInput,
		OutputDir: absOutput,
		Mode:      pipeline.ModeDecode,
		Key:       key,
		Workers:   decodeWorkers,
		VerifyCRC: decodeVerifyCRC,
	}
	if verbose {
		cfg.Observer = progress.NewCounter("stage", 0)
	}
	m, runErr := pipeline.New(cfg).Run(ctx)
	if m == nil {
		return errors.Annotate(runErr, "pipeline")
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
