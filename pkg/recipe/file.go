package recipe

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/trip/pkg/errors"
)

// File is the top level of a recipe file.
type File struct {
	Recipes []Recipe `toml:"recipe"`
}

// Parse decodes and validates TOML recipe data.
// Names must be unique within a file.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidRecipe, err, "parse recipes")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidRecipe, "unknown recipe key %q", undecoded[0].String())
	}

	seen := make(map[string]bool, len(f.Recipes))
	for _, r := range f.Recipes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, errs.New(errs.ErrCodeInvalidRecipe, "duplicate recipe %s", r.Name)
		}
		seen[r.Name] = true
	}
	return &f, nil
}

// Load reads and parses the recipe file at path.
func Load(path string) (*File, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "recipe file %s not found", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidRecipe, err, "read %s", path)
	}
	return Parse(data)
}

// Find returns the recipe called name.
func (f *File) Find(name string) (Recipe, error) {
	for _, r := range f.Recipes {
		if r.Name == name {
			return r, nil
		}
	}
	return Recipe{}, errs.New(errs.ErrCodeNotFound, "recipe %s not found", name)
}

// Names lists the recipe names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Recipes))
	for i, r := range f.Recipes {
		names[i] = r.Name
	}
	return names
}

// Marshal encodes recipes as a TOML recipe file.
func Marshal(recipes ...Recipe) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(File{Recipes: recipes}); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode recipes")
	}
	return buf.Bytes(), nil
}
