package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/pkg/recipe"
)

// recipeCommand creates the recipe command group.
func (c *CLI) recipeCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "List, show and graph recipes",
	}
	cmd.PersistentFlags().StringVar(&file, "recipes", "", "TOML recipe file (default: built-in recipes)")

	cmd.AddCommand(c.recipeListCommand(&file))
	cmd.AddCommand(c.recipeShowCommand(&file))
	cmd.AddCommand(c.recipeGraphCommand(&file))

	return cmd
}

// recipeListCommand creates the "recipe list" subcommand.
func (c *CLI) recipeListCommand(file *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadRecipes(*file)
			if err != nil {
				return err
			}
			fmt.Println(recipeTable(f.Recipes))
			return nil
		},
	}
}

func recipeTable(recipes []recipe.Recipe) string {
	rows := make([][]string, len(recipes))
	for i, r := range recipes {
		rows[i] = []string{r.Name, strconv.Itoa(len(r.Steps)), strconv.FormatUint(r.Seed, 10), r.Description}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Recipe", "Steps", "Seed", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		}).
		Render()
}

// recipeShowCommand creates the "recipe show" subcommand.
func (c *CLI) recipeShowCommand(file *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a recipe as TOML",
		Long: `Print a recipe as TOML.

The output is a valid recipe file: redirect it to a file to start a custom
recipe from a built-in one.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRecipeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recipe.Resolve(*file, args[0])
			if err != nil {
				return err
			}
			data, err := recipe.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// recipeGraphCommand creates the "recipe graph" subcommand.
func (c *CLI) recipeGraphCommand(file *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph <name>",
		Short: "Draw a recipe's step chain",
		Long: `Draw a recipe's step chain with Graphviz.

The output format follows the -o extension: .svg renders the graph,
anything else writes DOT source. Without -o, DOT is printed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRecipeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recipe.Resolve(*file, args[0])
			if err != nil {
				return err
			}
			dot := recipe.ToDOT(rec)
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}

			data := []byte(dot)
			if strings.EqualFold(filepath.Ext(output), ".svg") {
				if data, err = recipe.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Graph of %s", rec.Name)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.svg or .dot)")

	return cmd
}
