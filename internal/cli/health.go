package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health and show its storage and bank backends",
		Long: `Check server health and show its storage and bank backends.

Exits non-zero when the server answers but cannot reach its storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			status, err := client.Fetch("/api/v1/health", &result)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)

			if status != http.StatusOK {
				return fmt.Errorf("server unhealthy (HTTP %d): %s", status, result.Error)
			}
			return nil
		},
	}
}
