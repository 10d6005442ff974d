// Package properties reads and idempotently patches a backend's
// server.properties file, which is itself a flat key=value format ini.v1
// parses natively via its default, unnamed section.
package properties

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Load parses path, returning the ini.File so callers can also read
// values lazymc cares about (e.g. query.port, motd) without a second
// dependency.
func Load(path string) (*ini.File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowBooleanKeys:    true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("properties: load %s: %w", path, err)
	}
	return cfg, nil
}

// Patch applies the given key/value overrides to path's default
// section and writes the file back, preserving every key it does not
// touch. Calling it twice with the same overrides is a no-op the
// second time.
func Patch(path string, overrides map[string]string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	section := cfg.Section("")
	for k, v := range overrides {
		section.Key(k).SetValue(v)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("properties: save %s: %w", path, err)
	}
	return nil
}

// String reads key from path's default section, returning fallback if
// the key is absent.
func String(path, key, fallback string) string {
	cfg, err := Load(path)
	if err != nil {
		return fallback
	}
	k := cfg.Section("").Key(key)
	if k == nil || k.String() == "" {
		return fallback
	}
	return k.String()
}
