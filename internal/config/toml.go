package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKeys is returned by LoadTOML when the file sets keys that v has no field for.
var ErrUnknownKeys = errors.New("unknown config keys")

// LoadTOML decodes the TOML file at path over v, which should already hold
// defaults. A missing file leaves v untouched and is not an error.
func LoadTOML(path string, v any) error {
	if path == "" {
		return nil
	}
	md, err := toml.DecodeFile(path, v)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	return nil
}
