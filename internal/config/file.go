package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/tailscale/hujson"
)

// fileSource holds defaults read from a HuJSON file keyed by the same
// names as the environment variables:
//
//	{
//	  // local MinIO
//	  "S3_BUCKET": "devis",
//	  "PUBLIC_RATE_LIMIT": 60,
//	}
type fileSource map[string]string

func (f fileSource) lookup(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// LoadFile reads defaults from the HuJSON file at path, then applies the
// environment on top. An empty path is equivalent to Load.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	defaults, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return load(layered{envSource{}, defaults}), nil
}

func parseFile(data []byte) (fileSource, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return nil, err
	}
	out := make(fileSource, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
		default:
			return nil, fmt.Errorf("key %s: unsupported value %T", k, v)
		}
	}
	return out, nil
}
