package cmd

import (
	"fmt"
	"os"

	"github.com/AnyUserName/pngseal/internal/codec"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.png>",
	Short: "List the chunks of a PNG without decoding pixel data",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Annotate(err, "read")
	}
	rep, err := codec.Inspect(data)
	if err != nil {
		return errors.Annotatef(err, "inspect %s", args[0])
	}

	fmt.Println()
	if h := rep.Header; h != nil {
		fmt.Printf("  Size:        %dx%d\n", h.Width, h.Height)
		fmt.Printf("  Color:       %s, %d-bit\n", h.ColorType, h.BitDepth)
		fmt.Printf("  Interlace:   %d\n", h.Interlace)
	} else {
		fmt.Println("  Header:      unreadable")
	}
	fmt.Printf("  Image data:  %s\n", formatBytes(int64(rep.IDATBytes)))
	if rep.Sealed {
		fmt.Println("  Sealed:      likely (image data is not zlib)")
	} else {
		fmt.Println("  Sealed:      no zlib mismatch (sealed data can still look like zlib)")
	}
	fmt.Println()
	fmt.Println("  Chunks:")
	for _, c := range rep.Chunks {
		mark := "ok"
		if !c.CRCValid {
			mark = "BAD CRC"
		}
		fmt.Printf("    @%-8d %s  %8d bytes  crc=%08x %s\n", c.Offset, c.Type, c.Length, c.CRC, mark)
	}
	fmt.Println()
	return nil
}
