// Package config resolves string-keyed settings from the process environment and
// an optional config file. The environment always wins over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// FileKey names the environment variable holding the config file path.
	FileKey     = "CONFIG_FILE"
	defaultFile = "config.json"

	// Nested JSON objects are addressed as parent:child.
	delim = ":"
)

// Keys read by the functions.
const (
	ResultTopic    = "RESULT_TOPIC"
	ResultBucket   = "RESULT_BUCKET"
	ProjectID      = "PROJECT_ID"
	TextDetector   = "TEXT_DETECTOR"
	VertexAIRegion = "VERTEX_AI_REGION"
	GeminiModel    = "GEMINI_MODEL"
	VisionEndpoint = "VISION_ENDPOINT"
	LogLevel       = "LOG_LEVEL"
)

// Store looks up configuration values by key.
type Store struct {
	k *koanf.Koanf
}

// Load builds a Store from the environment and the file named by CONFIG_FILE
// (config.json when unset). A missing file is not an error.
func Load() (*Store, error) {
	path := defaultFile
	if v, ok := os.LookupEnv(FileKey); ok && v != "" {
		path = v
	}
	return LoadFile(path)
}

// LoadFile builds a Store from the given file with the environment layered on top.
// Files ending in .json hold an object of scalars, possibly nested; anything else
// is read as dotenv.
func LoadFile(path string) (*Store, error) {
	k := koanf.New(delim)
	if err := loadFile(k, path); err != nil {
		return nil, err
	}

	// Empty variables are skipped so they never mask a file value.
	envProvider := env.ProviderWithValue("", delim, func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &Store{k: k}, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parser koanf.Parser = dotenv.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for key, v := range k.All() {
		if _, ok := v.([]interface{}); ok {
			return fmt.Errorf("config file %s: %s: arrays are not supported", path, key)
		}
	}
	return nil
}

// FromMap builds a Store that only consults values. Used by tests and callers that
// resolve configuration elsewhere.
func FromMap(values map[string]string) *Store {
	k := koanf.New(delim)
	for key, v := range values {
		_ = k.Set(key, v)
	}
	return &Store{k: k}
}

// Lookup returns the value for key. Empty values and object keys count as unset.
func (s *Store) Lookup(key string) (string, bool) {
	switch s.k.Get(key).(type) {
	case nil, map[string]interface{}:
		return "", false
	}
	if v := s.k.String(key); v != "" {
		return v, true
	}
	return "", false
}

// Get returns the value for key or fallback.
func (s *Store) Get(key, fallback string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return fallback
}

// Require fails if any of keys is unset.
func (s *Store) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := s.Lookup(k); !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required configuration missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ProjectID returns PROJECT_ID, then GOOGLE_CLOUD_PROJECT, or "".
func (s *Store) ProjectID() string {
	if v, ok := s.Lookup(ProjectID); ok {
		return v
	}
	return s.Get("GOOGLE_CLOUD_PROJECT", "")
}
