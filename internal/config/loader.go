package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".middleoutrc"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MIDDLEOUT_"

const maxConfigFileSize = 1024 * 1024 // 1MB

//go:embed defaults.yaml
var defaultsYAML []byte

// envKeys maps environment variables to config keys. Variables not listed
// here are ignored.
var envKeys = map[string]string{
	"MIDDLEOUT_ALGORITHM":           "algorithm",
	"MIDDLEOUT_WISEMAN_OPTIMIZED":   "wisemanOptimized",
	"MIDDLEOUT_AGGRESSION_LEVEL":    "aggressionLevel",
	"MIDDLEOUT_PRESERVE_WHITESPACE": "preserveWhitespace",
	"MIDDLEOUT_TARGET_WEISSMAN":     "targetWeissman",

	"MIDDLEOUT_SERVER_HOST":             "server.host",
	"MIDDLEOUT_SERVER_PORT":             "server.port",
	"MIDDLEOUT_SERVER_RATE_LIMIT":       "server.rate_limit",
	"MIDDLEOUT_SERVER_RATE_BURST":       "server.rate_burst",
	"MIDDLEOUT_SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",

	"MIDDLEOUT_LOG_LEVEL":  "logging.level",
	"MIDDLEOUT_LOG_FORMAT": "logging.format",

	"MIDDLEOUT_TELEMETRY_ENABLED":  "telemetry.enabled",
	"MIDDLEOUT_TELEMETRY_ENDPOINT": "telemetry.endpoint",
	"MIDDLEOUT_TELEMETRY_PROTOCOL": "telemetry.protocol",
	"MIDDLEOUT_TELEMETRY_INSECURE": "telemetry.insecure",
}

// ErrNotExist is returned by Load when the config file is required but absent.
var ErrNotExist = errors.New("config file does not exist")

// Default returns the built-in configuration, without file or environment
// overrides.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration.
//
// Precedence (highest to lowest):
//  1. MIDDLEOUT_* environment variables
//  2. the config file at path, when it exists
//  3. built-in defaults
//
// The file is JSON or YAML; paths ending in .toml are parsed as TOML. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		content, err := readConfigFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := k.Load(rawbytes.Provider(content), parserFor(path)); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadOrCreate loads path, first writing the default file when it does not
// exist.
func LoadOrCreate(path string) (*Config, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefault(path, false); err != nil {
			return nil, false, err
		}
		created = true
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, created, err
	}
	return cfg, created, nil
}

// fileKeys are the keys written to a new config file.
type fileKeys struct {
	Algorithm          string  `json:"algorithm"`
	WisemanOptimized   bool    `json:"wisemanOptimized"`
	AggressionLevel    int     `json:"aggressionLevel"`
	PreserveWhitespace bool    `json:"preserveWhitespace"`
	TargetWeissman     float64 `json:"targetWeissman"`
}

// WriteDefault writes the default compression settings to path as
// pretty-printed JSON with 0600 permissions. An existing file is left alone
// unless force is set.
func WriteDefault(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	d := Default()
	data, err := json.MarshalIndent(fileKeys{
		Algorithm:          d.Algorithm,
		WisemanOptimized:   d.WisemanOptimized,
		AggressionLevel:    d.AggressionLevel,
		PreserveWhitespace: d.PreserveWhitespace,
		TargetWeissman:     d.TargetWeissman,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("config file %s already exists: %w", path, err)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Sync()
}

// readConfigFile opens path once and validates the open descriptor, so the
// checked file is the one that gets read.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large (max %d bytes)", maxConfigFileSize)
	}
	return content, nil
}

// validateConfigFileProperties rejects directories, oversized files and
// files other users can write.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// parserFor picks the koanf parser from the file extension. JSON is parsed
// by the YAML parser.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML()
	}
	return yaml.Parser()
}
