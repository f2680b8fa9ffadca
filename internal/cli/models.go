package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newModelsCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a provider offers for an API key",
		Long:  "Asks the server which models the provider (gpt, gemini, claude or mock) offers for the given key. The key is read from --api-key or HAMS_AI_KEY.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := api.Provider(args[0])
			if !slices.Contains(api.Providers, provider) {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			if apiKey == "" {
				apiKey = os.Getenv("HAMS_AI_KEY")
			}
			if apiKey == "" {
				return errors.New("an API key is required")
			}
			return runModels(cmd.Context(), cmd.OutOrStdout(), provider, apiKey)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key")

	return cmd
}

func runModels(ctx context.Context, w io.Writer, provider api.Provider, apiKey string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	models, err := e.client.ListAIModels(ctx, provider, apiKey)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, api.AIModelListResponse{Models: models})
	}
	if len(models) == 0 {
		fmt.Fprintln(w, "No models available.")
		return nil
	}
	for _, m := range models {
		fmt.Fprintln(w, m)
	}
	return nil
}
