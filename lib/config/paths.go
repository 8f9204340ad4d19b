package config

import (
	"os"
	"path/filepath"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

// CfgPath is a path from the config file. Relative paths are resolved
// against the directory of the config file and a leading ~/ against the
// home directory.
type CfgPath string

// UnmarshalBase is a hack that must be thrown into the sun
var UnmarshalBase string

func (c *CfgPath) UnmarshalYAML(b []byte) error {
	var path string

	err := yaml.Unmarshal(b, &path)
	if err != nil {
		return err
	}
	*c = CfgPath(resolvePath(path, UnmarshalBase))
	return nil
}

func resolvePath(path, base string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
