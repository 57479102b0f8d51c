package config

import (
	"fmt"
	"strings"
	"time"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey checks value against the key's type and writes it to the config file.
func SetKey(key, value string) error {
	return setKey(openBackend(), key, value)
}

func setKey(b ConfigBackend, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		v, err := s.parse(value)
		if err != nil {
			return fmt.Errorf("invalid %s value for %s: %w", s.typ, key, err)
		}

		if err := checkRange(key, v); err != nil {
			return err
		}

		if s.typ == kInt {
			return b.SetInt(key, v.(int))
		}
		return b.SetString(key, value)
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}

// Unset removes key from the config file so its default applies again.
func Unset(key string) error {
	for _, s := range specs {
		if s.key == key {
			return openBackend().Delete(key)
		}
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// checkRange rejects single values Validate would refuse whatever the other
// keys hold.
func checkRange(key string, v any) error {
	switch v := v.(type) {
	case float64:
		if strings.HasSuffix(key, "_rate") && (v < 0 || v > 1) {
			return fmt.Errorf("%s %v outside [0,1]", key, v)
		}
	case time.Duration:
		if v < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	case int:
		if v < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
