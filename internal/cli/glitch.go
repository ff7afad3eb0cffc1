package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/pkg/glitch"
	"github.com/matzehuels/trip/pkg/recipe"
)

// Defaults for the single-transform commands.
const (
	defaultShuffleBlock = 16
	defaultStreakBlock  = 128
	defaultPercent      = 0.45
	defaultMargin       = 0.33
)

// shuffleCommand creates the shuffle command.
func (c *CLI) shuffleCommand() *cobra.Command {
	var (
		channel   int
		blockSize int
		o         outputOpts
	)

	cmd := &cobra.Command{
		Use:   "shuffle [image...]",
		Short: "Shuffle one color channel's blocks",
		Long: `Shuffle one color channel's blocks.

The image is cut into square blocks of --block-size pixels. The blocks of
the selected channel are permuted while the other channels stay put, so
color fringes appear wherever the shuffled plane no longer lines up.

The image is cropped to a whole number of blocks. Inputs may be file paths
or http(s) URLs.`,
		Example: `  trip shuffle cat.png
  trip shuffle cat.png -c 2 -b 32 -o cat_blue.jpg
  trip shuffle shots/*.png -o out/ -j 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := recipe.Recipe{Name: "shuffle", Steps: []recipe.Step{recipe.Shuffle(channel, blockSize)}}
			if err := rec.Validate(); err != nil {
				return err
			}
			return c.glitch(cmd.Context(), args, rec, o)
		},
	}

	cmd.Flags().IntVarP(&channel, "channel", "c", 0, "channel to shuffle (0=red, 1=green, 2=blue, 3=alpha)")
	cmd.Flags().IntVarP(&blockSize, "block-size", "b", defaultShuffleBlock, "block edge length in pixels")
	addOutputFlags(cmd, &o)

	return cmd
}

// streakCommand creates the streak command.
func (c *CLI) streakCommand() *cobra.Command {
	var (
		opts = glitch.StreakOptions{
			BlockSize:        defaultStreakBlock,
			PercentCorrupted: defaultPercent,
			MarginCorrupted:  defaultMargin,
		}
		o outputOpts
	)

	cmd := &cobra.Command{
		Use:   "streak [image...]",
		Short: "Smear streaks of repeated pixels across block runs",
		Long: `Smear streaks of repeated pixels across block runs.

For every block along the secondary axis, one line of pixels near the edge
of a randomly chosen block is copied over every block from there to the end
of the primary axis (--axis 0 or 1).

--percent selects where the corruptible range starts: 0.45 means the last
45% of blocks. --margin sets its width. The range must stay inside the
image.`,
		Example: `  trip streak cat.png
  trip streak cat.png -a 1 -b 64 -p 0.58 -m 0.13`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step := recipe.Streak(opts.Axis, opts.BlockSize, opts.PercentCorrupted, opts.MarginCorrupted)
			rec := recipe.Recipe{Name: "streak", Steps: []recipe.Step{step}}
			if err := rec.Validate(); err != nil {
				return err
			}
			return c.glitch(cmd.Context(), args, rec, o)
		},
	}

	cmd.Flags().IntVarP(&opts.Axis, "axis", "a", glitch.AxisPrimaryX, "primary block axis (0 or 1)")
	cmd.Flags().IntVarP(&opts.BlockSize, "block-size", "b", opts.BlockSize, "block edge length in pixels (at least 2)")
	cmd.Flags().Float64VarP(&opts.PercentCorrupted, "percent", "p", opts.PercentCorrupted, "fraction of primary blocks from the end where streaks may start")
	cmd.Flags().Float64VarP(&opts.MarginCorrupted, "margin", "m", opts.MarginCorrupted, "width of the start range as a fraction of primary blocks")
	addOutputFlags(cmd, &o)

	return cmd
}
