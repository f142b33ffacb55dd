// SPDX-License-Identifier: MIT

package badge

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/nostr-badger/badger/model"
)

// LoadDefinitions reads every *.json badge definition in dir. Files carry the
// event-shaped layout ({"tags": [["d", ...], ["name", ...], ...]}) so a
// published definition can be dropped into the directory as-is. Returns
// ErrNotFound when the directory is absent or holds no definitions.
func LoadDefinitions(dir string) ([]Definition, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob failed for definitions dir %q", dir)
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "no badge definitions in %q", dir)
	}
	sort.Strings(files)
	defs := make([]Definition, 0, len(files))
	for _, file := range files {
		def, err := loadDefinitionFile(file)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func loadDefinitionFile(path string) (Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, errors.Wrapf(err, "failed to read badge definition %q", path)
	}
	if !gjson.ValidBytes(raw) {
		return Definition{}, errors.Wrapf(model.ErrValidation, "badge definition %q is not valid json", path)
	}
	def := Definition{}
	gjson.GetBytes(raw, "tags").ForEach(func(_, tag gjson.Result) bool {
		parts := tag.Array()
		if len(parts) < 2 {
			return true
		}
		switch parts[0].String() {
		case "d":
			def.Identifier = parts[1].String()
		case "name":
			def.Name = parts[1].String()
		case "description":
			def.Description = parts[1].String()
		case "image":
			def.ImageURL = parts[1].String()
		case "thumb":
			def.ThumbURLs = append(def.ThumbURLs, parts[1].String())
		}

		return true
	})
	if def.Identifier == "" {
		// Older definition files named the badge by file stem only.
		base := filepath.Base(path)
		def.Identifier = base[:len(base)-len(filepath.Ext(base))]
	}
	if err := def.Validate(); err != nil {
		return Definition{}, errors.Wrapf(err, "badge definition %q is malformed", path)
	}

	return def, nil
}
