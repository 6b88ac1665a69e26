package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// loadConfigFile reads settings keyed by flag name. The format follows the
// file extension.
func loadConfigFile(path string) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &values); err != nil {
			return nil, errors.Wrapf(err, "error decoding %s", path)
		}
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", path)
		}
		if err := yaml.Unmarshal(b, &values); err != nil {
			return nil, errors.Wrapf(err, "error decoding %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported config file format %q", ext)
	}
	return values, nil
}

// applyConfig sets every flag that was not given on the command line from
// values. Values therefore override environment defaults but never flags.
// Settings of other commands, as listed in shared, are skipped.
func applyConfig(flags *pflag.FlagSet, values map[string]interface{}, shared map[string]bool) error {
	for key, value := range values {
		f := flags.Lookup(key)
		if f == nil {
			if shared[key] {
				continue
			}
			return errors.Errorf("unknown setting %q in config file", key)
		}
		if f.Changed || key == "config" {
			continue
		}
		if err := flags.Set(key, configValue(value)); err != nil {
			return errors.Wrapf(err, "invalid value for %q in config file", key)
		}
	}
	return nil
}

func configValue(v interface{}) string {
	switch value := v.(type) {
	case []interface{}:
		items := make([]string, 0, len(value))
		for _, item := range value {
			items = append(items, fmt.Sprint(item))
		}
		return strings.Join(items, ",")
	default:
		return fmt.Sprint(value)
	}
}

// flagNames lists the flags of root and all of its subcommands.
func flagNames(root *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	var visit func(c *cobra.Command)
	visit = func(c *cobra.Command) {
		c.LocalFlags().VisitAll(func(f *pflag.Flag) {
			names[f.Name] = true
		})
		for _, sub := range c.Commands() {
			visit(sub)
		}
	}
	visit(root)
	return names
}
