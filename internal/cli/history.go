package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/pkg/history"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long: `Show recent runs recorded in MongoDB.

Run history is only kept when --history-uri (or ` + envHistoryURI + `) points
at a MongoDB deployment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.historyURI == "" {
				printWarning("No history store configured")
				printDetail("Set --history-uri or %s", envHistoryURI)
				return nil
			}
			ctx := cmd.Context()
			store, err := c.newHistory(ctx, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				printNextStep("Record one", "trip run <image> -r cascade")
				return nil
			}
			fmt.Println(historyTable(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of runs to show")

	return cmd
}

func historyTable(runs []history.Run, now time.Time) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := iconSuccess
		if !r.OK() {
			status = iconError + " " + r.Error
		}
		cached := ""
		if r.CacheHit {
			cached = iconCached
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows[i] = []string{
			id,
			formatRelativeTime(r.StartedAt, now),
			r.Recipe,
			r.InputName,
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			r.Duration.Round(time.Millisecond).String(),
			cached,
			status,
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "When", "Recipe", "Input", "Size", "Took", "Cache", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch {
			case col == 7 && runs[row].OK():
				return styleIconSuccess
			case col == 7:
				return styleIconError
			case col == 6:
				return styleCached
			case col == 2:
				return StyleValue
			}
			return StyleDim
		}).
		Render()
}
