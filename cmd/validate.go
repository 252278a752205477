package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SMCodesP/imgtransform/internal/manifest"
)

var validateOffline bool

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_manifest>",
	Short: "Validate a batch manifest and check stored variants exist",
	Long: `Checks the manifest for internal consistency. Unless --offline is set,
every variant is fetched from the configured optimized store and its size is
compared with the manifest.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateOffline, "offline", false, "skip the store lookups")
	validateCmd.Flags().String("optimized", "", "optimized store directory (local backend)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := manifest.ReadJSON(args[0])
	if err != nil {
		return err
	}

	var size manifest.SizeFunc
	if !validateOffline {
		ctx := cmd.Context()
		s := &stack{}
		defer s.Close()
		store, err := openStore(ctx, "optimized", cfg.Optimized, s)
		if err != nil {
			return err
		}
		size = func(key string) (int64, error) {
			obj, err := store.Get(ctx, key)
			if err != nil {
				return 0, err
			}
			return int64(len(obj.Data)), nil
		}
	}

	errs := manifest.Validate(m, size)
	if len(errs) == 0 {
		fmt.Println("  ok  manifest is valid")
		if validateOffline {
			fmt.Printf("  ok  %d assets, %d variants\n", m.Stats.TotalAssets, m.Stats.TotalVariants)
		} else {
			fmt.Printf("  ok  %d assets, %d variants, all objects present\n", m.Stats.TotalAssets, m.Stats.TotalVariants)
		}
		return nil
	}

	fmt.Printf("  manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    - %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
