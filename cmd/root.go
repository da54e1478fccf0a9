package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var log = logging.MustGetLogger("pngseal")

var rootCmd = &cobra.Command{
	Use:   "pngseal",
	Short: "Lossless and lossy PNG re-encoder with optional AES-256-GCM sealing",
	Long: `pngseal re-encodes images as 8-bit RGB/RGBA PNGs with adaptive per-row
filtering and three compression tiers (lossless, balanced, maximum).

With a key file or password the IDAT payload is sealed with AES-256-GCM;
sealed files keep valid PNG framing but need the same key to decode.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		setupLogging(verbose)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Errorf("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pngseal %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
	setupLogging(false)
}

// setupLogging routes every module logger to stderr. Debug output is shown
// only with --verbose.
func setupLogging(verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`[pngseal] %{level:.4s} %{module}: %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	level := logging.WARNING
	if verbose {
		level = logging.DEBUG
	}
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	log.Infof(format, args...)
}
