package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SMCodesP/imgtransform/internal/operations"
)

var (
	processOps string
	processOut string
)

var processCmd = &cobra.Command{
	Use:   "process <input_file>",
	Short: "Transform a single local file",
	Long: `Runs the transformation pipeline once on a local file and writes the
result to --out. The operation string uses the request syntax, for example
"width=320,format=avif,quality=60".

Without --out the result is written next to the input, named after it with
the extension of the encoded format (photo.jpg -> photo.avif).`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processOps, "ops", "", "operation string")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "output file (default: input name with the output extension)")
	processCmd.Flags().StringP("profile", "p", "default", "pipeline profile")
	processCmd.Flags().String("strategy", "", "resize strategy override (parallel or triangle)")
	processCmd.Flags().IntP("quality", "q", 0, "default quality override (0 = profile default)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(_ *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	pipe, err := newPipeline(nil)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := pipe.Process(src, "", processOps)
	if err != nil {
		return fmt.Errorf("process %s: %w", args[0], err)
	}
	dst := processOut
	if dst == "" {
		dst = outputPath(args[0], out.Extension)
	}
	if err := os.WriteFile(dst, out.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info().
		Str("ops", operations.Parse(processOps).Canonical()).
		Str("format", out.Format.String()).
		Int("width", out.Width).
		Int("height", out.Height).
		Str("in", formatBytes(int64(len(src)))).
		Str("out", formatBytes(int64(len(out.Data)))).
		Dur("took", time.Since(start)).
		Msg("wrote " + dst)
	return nil
}

// outputPath replaces the extension of input with ext. An input that already
// carries ext gets an ".out" infix so it is never overwritten.
func outputPath(input, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if strings.EqualFold(filepath.Ext(input), "."+ext) {
		base += ".out"
	}
	return base + "." + ext
}
