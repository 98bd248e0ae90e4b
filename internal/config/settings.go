// Package config holds the global, launcher-wide Settings persisted to
// settings.json — per-instance overrides live in internal/instance instead.
package config

import (
	"encoding/json"
	"os"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/paths"
)

// Settings is the global configuration shared by every instance unless an
// instance override shadows a field.
type Settings struct {
	MinMemoryMB    int      `json:"min_memory"`
	MaxMemoryMB    int      `json:"max_memory"`
	GlobalJavaPath string   `json:"global_java_path,omitempty"`
	GlobalJavaArgs []string `json:"global_java_args,omitempty"`
	SkipJavaCheck  bool     `json:"skip_java_check"`
	CloseOnLaunch  bool     `json:"close_on_launch"`
	KeepLogsOpen   bool     `json:"keep_logs_open"`
}

// Default returns the out-of-the-box settings used before settings.json
// exists.
func Default() *Settings {
	return &Settings{
		MinMemoryMB: 512,
		MaxMemoryMB: 2048,
	}
}

// Load reads settings.json, returning Default() when it doesn't exist yet.
func Load(layout *paths.Layout) (*Settings, error) {
	data, err := os.ReadFile(layout.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errs.Wrap(errs.Filesystem, "reading settings.json", err)
	}

	s := Default()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "decoding settings.json", err)
	}
	return s, nil
}

// Save persists s atomically.
func Save(layout *paths.Layout, s *Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Internal, "marshaling settings.json", err)
	}
	if err := paths.AtomicWrite(layout.SettingsPath(), data); err != nil {
		return errs.Wrap(errs.Filesystem, "writing settings.json", err)
	}
	return nil
}
