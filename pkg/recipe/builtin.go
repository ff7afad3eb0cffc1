package recipe

import "slices"

var builtins = []Recipe{
	{
		Name:        "shuffle-red",
		Description: "Scramble the red plane in 16px blocks",
		Seed:        1,
		Steps:       []Step{Shuffle(0, 16)},
	},
	{
		Name:        "streak-shuffle",
		Description: "Horizontal streaks, then a red shuffle",
		Seed:        1,
		Steps: []Step{
			Streak(0, 128, 0.45, 0.33),
			Shuffle(0, 16),
		},
	},
	{
		Name:        "triple",
		Description: "Blue shuffle, streaks, coarse green shuffle",
		Seed:        1,
		Steps: []Step{
			Shuffle(2, 16),
			Streak(0, 128, 0.45, 0.33),
			Shuffle(1, 64),
		},
	},
	{
		Name:        "cascade",
		Description: "Triple plus a coarse blue shuffle and vertical streaks",
		Seed:        1,
		Steps: []Step{
			Shuffle(2, 16),
			Streak(0, 128, 0.45, 0.33),
			Shuffle(1, 64),
			Shuffle(2, 128),
			Streak(1, 64, 0.58, 0.13),
		},
	},
}

// Builtin returns the bundled recipes. The result is a fresh copy.
func Builtin() *File {
	out := make([]Recipe, len(builtins))
	for i, r := range builtins {
		r.Steps = slices.Clone(r.Steps)
		out[i] = r
	}
	return &File{Recipes: out}
}

// Resolve finds name in the recipe file at path, or among the built-in
// recipes when path is empty.
func Resolve(path, name string) (Recipe, error) {
	f := Builtin()
	if path != "" {
		var err error
		if f, err = Load(path); err != nil {
			return Recipe{}, err
		}
	}
	return f.Find(name)
}
