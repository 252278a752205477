package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SMCodesP/imgtransform/internal/batch"
	"github.com/SMCodesP/imgtransform/internal/manifest"
	"github.com/SMCodesP/imgtransform/internal/storage"
)

var (
	batchOps       []string
	batchOutDir    string
	batchWorkers   int
	batchCanonical bool
	batchDryRun    bool
	batchNoRegress bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Pre-generate variants for a directory of images",
	Long: `Scans input directory for images (png, jpg, jpeg, webp, gif, bmp, tiff,
avif), applies every --ops string to each of them and uploads the results to
the optimized store under <source key>/<operations>, the same key the server
writes back to. A manifest describing every variant is written to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	// StringArray, not StringSlice: operation strings contain commas.
	batchCmd.Flags().StringArrayVar(&batchOps, "ops", nil, "operation string, repeatable (default: re-encode only)")
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", ".", "directory for the manifest")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	batchCmd.Flags().BoolVar(&batchCanonical, "canonical", false, "store under the canonical operation string")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "transform but do not upload")
	batchCmd.Flags().BoolVar(&batchNoRegress, "no-regress-size", false, "skip variants not smaller than the source file")
	batchCmd.Flags().StringP("profile", "p", "default", "pipeline profile")
	batchCmd.Flags().String("strategy", "", "resize strategy override (parallel or triangle)")
	batchCmd.Flags().IntP("quality", "q", 0, "default quality override (0 = profile default)")
	batchCmd.Flags().String("optimized", "", "optimized store directory (local backend)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	pipe, err := newPipeline(nil)
	if err != nil {
		return err
	}

	s := &stack{}
	defer s.Close()
	var store storage.ObjectStore
	storeName := "none"
	if !batchDryRun {
		store, err = openStore(ctx, "optimized", cfg.Optimized, s)
		if err != nil {
			return err
		}
		storeName = cfg.Optimized.Backend
	}

	logger.Debug().Str("input", absInput).Str("output", absOutput).Strs("ops", batchOps).Msg("batch configured")

	m, err := batch.New(batch.Config{
		InputDir:      absInput,
		Operations:    batchOps,
		Workers:       batchWorkers,
		Canonical:     batchCanonical,
		Pipeline:      pipe,
		Store:         store,
		StoreName:     storeName,
		Logger:        logger.With().Str("component", "batch").Logger(),
		NoRegressSize: batchNoRegress,
	}).Run(ctx)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBatchReport(m, time.Since(start))
	return nil
}

func printBatchReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("  imgtransform batch complete")
	fmt.Println()

	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Printf("  Assets:      %d\n", stats.TotalAssets)
	fmt.Printf("  Variants:    %d\n", stats.TotalVariants)
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d variants\n", stats.Failed)
	}
	fmt.Printf("  Store:       %s\n", m.Store)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:     %d  (%s resize)\n", m.BuildInfo.Workers, m.BuildInfo.Strategy)
	}
	fmt.Println()

	if len(m.Assets) > 0 {
		type assetSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []assetSize
		for key, a := range m.Assets {
			var outSum int64
			for _, v := range a.Variants {
				outSum += v.Size
			}
			items = append(items, assetSize{key, a.Original.Size, outSum})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].inputSize != items[j].inputSize {
				return items[i].inputSize > items[j].inputSize
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d heaviest (original -> all variants):\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %8s -> %8s\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
			)
		}
		fmt.Println()
	}

	fmt.Printf("  Formats:     %s\n", strings.Join(detectOutputFormats(m), ", "))
	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func detectOutputFormats(m *manifest.Manifest) []string {
	set := map[string]bool{}
	for _, a := range m.Assets {
		for _, v := range a.Variants {
			set[v.Format] = true
		}
	}
	var out []string
	for _, f := range []string{"avif", "webp", "jpeg", "png"} {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
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
