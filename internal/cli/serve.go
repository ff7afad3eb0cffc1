package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/internal/api"
	"github.com/matzehuels/trip/pkg/history"
	"github.com/matzehuels/trip/pkg/observability"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		file string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the glitch API over HTTP",
		Long: `Serve the glitch API over HTTP.

Routes:
  GET  /healthz
  POST /v1/shuffle?channel=0&block_size=16
  POST /v1/streak?axis=0&block_size=128&percent=0.45&margin=0.33
  POST /v1/recipes/{name}
  GET  /v1/recipes
  GET  /v1/runs?limit=20

Transform routes take the image as the request body and accept seed, format
and quality parameters. Without --history-uri, runs are kept in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			recipes, err := loadRecipes(file)
			if err != nil {
				return err
			}

			runner, closeRunner, err := c.newRunner(ctx, history.NewMemoryStore(0))
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer closeRunner()

			observability.SetHTTPHooks(newHTTPLogHooks(c.Logger))
			printInfo("Serving the glitch API")
			printKeyValue("Address", addr)
			printKeyValue("Recipes", strconv.Itoa(len(recipes.Recipes)))
			printKeyValue("Cache", c.cacheKind())
			printKeyValue("History", c.historyKind())
			return api.New(runner, recipes, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&file, "recipes", "", "TOML recipe file (default: built-in recipes)")

	return cmd
}
