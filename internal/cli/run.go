package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/recipe"
)

// runCommand creates the run command for applying recipes.
func (c *CLI) runCommand() *cobra.Command {
	var (
		name string
		file string
		o    outputOpts
	)

	cmd := &cobra.Command{
		Use:   "run [image...]",
		Short: "Apply a recipe of chained transforms",
		Long: `Apply a recipe of chained transforms.

Recipes come from the built-in set (see 'trip recipe list') or from a TOML
file given with --recipes. Without --recipe, an interactive picker opens
when running in a terminal.

Several inputs run in parallel; -o then names an output directory.`,
		Example: `  trip run cat.png -r cascade
  trip run cat.png --recipes my.toml -r wobble --seed 7
  trip run shots/*.png -r triple -o out/ -j 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := c.pickRecipe(file, name)
			if err != nil {
				return err
			}
			if rec == nil {
				printInfo("No recipe selected")
				return nil
			}
			return c.glitch(cmd.Context(), args, *rec, o)
		},
	}

	cmd.Flags().StringVarP(&name, "recipe", "r", "", "recipe name")
	cmd.Flags().StringVar(&file, "recipes", "", "TOML recipe file (default: built-in recipes)")
	addOutputFlags(cmd, &o)
	_ = cmd.RegisterFlagCompletionFunc("recipe", completeRecipeNames)

	return cmd
}

// pickRecipe resolves name in file, or asks interactively when name is
// empty. A nil recipe means the user quit the picker.
func (c *CLI) pickRecipe(file, name string) (*recipe.Recipe, error) {
	if name != "" {
		rec, err := recipe.Resolve(file, name)
		if err != nil {
			return nil, err
		}
		return &rec, nil
	}

	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return nil, errs.New(errs.ErrCodeInvalidRecipe, "no recipe given (use --recipe)")
	}
	f, err := loadRecipes(file)
	if err != nil {
		return nil, err
	}

	final, err := tea.NewProgram(NewRecipeListModel(f.Recipes)).Run()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "recipe picker")
	}
	return final.(RecipeListModel).Selected, nil
}

// loadRecipes reads file, or returns the built-in recipes when file is empty.
func loadRecipes(file string) (*recipe.File, error) {
	if file == "" {
		return recipe.Builtin(), nil
	}
	return recipe.Load(file)
}
