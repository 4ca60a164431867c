package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/gem-audit/pkg/utils"
)

const (
	DefaultFile = ".bundler-audit.yml"
	TOMLFile    = ".bundler-audit.toml"
)

var (
	ErrConfigNotFound       = xerrors.New("configuration file not found")
	ErrInvalidConfiguration = xerrors.New("invalid configuration")
)

// IgnoreEntry suppresses an advisory, optionally until a point in time.
type IgnoreEntry struct {
	ID    string
	Until *time.Time
}

type Config struct {
	Ignore []IgnoreEntry
}

// Load reads a YAML or TOML configuration file, chosen by extension.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, xerrors.Errorf("%s: %w", path, ErrConfigNotFound)
	} else if err != nil {
		return Config{}, xerrors.Errorf("config read error: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = ParseTOML(b)
	} else {
		cfg, err = ParseYAML(b)
	}
	if err != nil {
		return Config{}, xerrors.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads .bundler-audit.yml or .bundler-audit.toml from dir, in that order.
func Discover(dir string) (Config, string, error) {
	for _, name := range []string{DefaultFile, TOMLFile} {
		path := filepath.Join(dir, name)
		if ok, _ := utils.Exists(path); !ok {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return Config{}, "", xerrors.Errorf("%s: %w", dir, ErrConfigNotFound)
}

func ParseYAML(data []byte) (Config, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, invalid("not YAML: %s", err)
	} else if raw == nil {
		return Config{}, nil
	}
	doc, ok := raw.(map[interface{}]interface{})
	if !ok {
		return Config{}, invalid("configuration is not a mapping")
	}
	return parse(func(key string) (interface{}, bool) {
		v, ok := doc[key]
		return v, ok
	})
}

func ParseTOML(data []byte) (Config, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Config{}, invalid("not TOML: %s", err)
	}
	return parse(func(key string) (interface{}, bool) {
		v, ok := doc[key]
		return v, ok
	})
}

func parse(lookup func(key string) (interface{}, bool)) (Config, error) {
	var cfg Config
	value, ok := lookup("ignore")
	if !ok || value == nil {
		return cfg, nil
	}

	items, ok := value.([]interface{})
	if !ok {
		return Config{}, invalid("'ignore' is not a list")
	}
	for i, item := range items {
		entry, err := parseIgnoreEntry(item)
		if err != nil {
			return Config{}, xerrors.Errorf("'ignore' entry %d: %w", i, err)
		}
		cfg.Ignore = append(cfg.Ignore, entry)
	}
	return cfg, nil
}

func parseIgnoreEntry(item interface{}) (IgnoreEntry, error) {
	var fields map[string]interface{}
	switch v := item.(type) {
	case string:
		return IgnoreEntry{ID: v}, nil
	case int, int64, uint64, float64:
		return IgnoreEntry{ID: fmt.Sprint(v)}, nil
	case map[interface{}]interface{}:
		fields = make(map[string]interface{}, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return IgnoreEntry{}, invalid("mapping key %v is not a string", k)
			}
			fields[key] = val
		}
	case map[string]interface{}:
		fields = v
	default:
		return IgnoreEntry{}, invalid("entry is neither a string nor a mapping")
	}

	var entry IgnoreEntry
	switch id := fields["cve"].(type) {
	case string:
		entry.ID = id
	case nil:
		return IgnoreEntry{}, invalid("mapping is missing the 'cve' key")
	default:
		return IgnoreEntry{}, invalid("'cve' is not a string")
	}

	until, err := parseUnixTime(fields["ignore_until"])
	if err != nil {
		return IgnoreEntry{}, err
	}
	entry.Until = until
	return entry, nil
}

// parseUnixTime accepts an integer or an integer string holding Unix seconds.
func parseUnixTime(v interface{}) (*time.Time, error) {
	var sec int64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		sec = int64(t)
	case int64:
		sec = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, invalid("'ignore_until' %q is not an integer", t)
		}
		sec = n
	default:
		return nil, invalid("'ignore_until' is not an integer")
	}
	until := time.Unix(sec, 0).UTC()
	return &until, nil
}

func invalid(format string, args ...interface{}) error {
	return xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfiguration)
}
