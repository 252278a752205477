package cmd

import (
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function behind API Gateway",
	Long: `Serves API Gateway HTTP API (payload v2) events. The event raw path has
the same /<source key>/<operations> shape as the HTTP server; the image is
returned base64-encoded. Missing sources answer 500 in this mode.`,
	Args: cobra.NoArgs,
	RunE: runLambda,
}

func init() {
	lambdaCmd.Flags().StringP("profile", "p", "default", "pipeline profile")
	lambdaCmd.Flags().String("strategy", "", "resize strategy override (parallel or triangle)")
	lambdaCmd.Flags().IntP("quality", "q", 0, "default quality override (0 = profile default)")
	lambdaCmd.Flags().Bool("writeback", true, "store transformed images in the optimized store")
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := newStack(ctx, http.StatusInternalServerError)
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Info().Msg("waiting for lambda invocations")
	lambda.StartWithOptions(s.transformer.HandleAPIGateway, lambda.WithContext(ctx))
	return nil
}
