// Package config loads entryface settings from config.yaml in the config
// directory, ENTRYFACE_* environment variables and built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/englishaccelerators/language-creator/internal/ident"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file created in the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes every environment override, e.g. ENTRYFACE_API_BASE.
	EnvPrefix = "ENTRYFACE"
)

// Config keys.
const (
	KeyBackend       = "backend"
	KeyDataDir       = "data_dir"
	KeyAPIBase       = "api.base"
	KeyAPILanguage   = "api.language"
	KeyAPITenant     = "api.tenant"
	KeyChunkSize     = "upload.chunk_size"
	KeyLanes         = "upload.lanes"
	KeyTimeout       = "upload.timeout"
	KeyDecimalTokens = "ident.decimal_tokens"
	KeySuffixExpr    = "ident.suffix_expr"
	KeyExportDir     = "export.dir"
	KeyServerAddr    = "server.addr"
	KeyMaxBodyBytes  = "server.max_body_bytes"
)

// DefaultYAML is written to config.yaml on first run.
const DefaultYAML = `# entryface configuration

# Storage backend: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

api:
  # LOCAL_ONLY queues saves locally; otherwise a URL prefix such as https://host
  base: LOCAL_ONLY
  language: en
  tenant: kids-english

upload:
  chunk_size: 5000
  lanes: 2
  timeout: 60s

ident:
  # Tokens whose identifier suffix is the row decimal instead of the block number
  decimal_tokens: [E]
  # Optional expression over position, token, block, dec returning the suffix
  # suffix_expr: 'token == "E" ? dec : block'

export:
  dir: .

server:
  addr: ":8000"
  max_body_bytes: 20971520
`

// Upload tunes the upload pipeline.
type Upload struct {
	ChunkSize int           `mapstructure:"chunk_size"`
	Lanes     int           `mapstructure:"lanes"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Ident selects the identifier suffix rule.
type Ident struct {
	DecimalTokens []string `mapstructure:"decimal_tokens"`
	SuffixExpr    string   `mapstructure:"suffix_expr"`
}

// Export locates written artifacts.
type Export struct {
	Dir string `mapstructure:"dir"`
}

// Server configures the demo upsert endpoint.
type Server struct {
	Addr         string `mapstructure:"addr"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// Config is the merged runtime configuration.
type Config struct {
	Backend string          `mapstructure:"backend"`
	DataDir string          `mapstructure:"data_dir"`
	API     types.APIConfig `mapstructure:"api"`
	Upload  Upload          `mapstructure:"upload"`
	Ident   Ident           `mapstructure:"ident"`
	Export  Export          `mapstructure:"export"`
	Server  Server          `mapstructure:"server"`
}

// Validation errors.
var (
	ErrChunkSize = errors.New("upload.chunk_size must be positive")
	ErrLanes     = errors.New("upload.lanes must be positive")
)

// Store returns the store configuration for dataDir.
func (c Config) Store(dataDir string) types.Config {
	return types.Config{Backend: c.Backend, DataDir: dataDir}
}

// Rule compiles the configured identifier suffix rule.
func (c Config) Rule() (ident.Rule, error) {
	return ident.NewRule(c.Ident.SuffixExpr, c.Ident.DecimalTokens)
}

// Validate checks invariants that defaults cannot guarantee.
func (c Config) Validate() error {
	if err := c.Store(c.DataDir).Validate(); err != nil {
		return err
	}
	if c.Upload.ChunkSize <= 0 {
		return ErrChunkSize
	}
	if c.Upload.Lanes <= 0 {
		return ErrLanes
	}
	if _, err := c.Rule(); err != nil {
		return fmt.Errorf("ident.suffix_expr: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, types.BackendSQLite)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyAPIBase, types.LocalOnly)
	v.SetDefault(KeyAPILanguage, "en")
	v.SetDefault(KeyAPITenant, "kids-english")
	v.SetDefault(KeyChunkSize, 5000)
	v.SetDefault(KeyLanes, 2)
	v.SetDefault(KeyTimeout, "60s")
	v.SetDefault(KeyDecimalTokens, []string{ident.DefaultDecimalToken})
	v.SetDefault(KeySuffixExpr, "")
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyServerAddr, ":8000")
	v.SetDefault(KeyMaxBodyBytes, 20<<20)
}

// Load reads config.yaml from configDir. It creates configDir and a default
// config.yaml on first run. A config.yaml removed after that is not an error.
func Load(configDir string) (Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultFile(configDir); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ensureDefaultFile writes DefaultYAML unless config.yaml already exists.
func ensureDefaultFile(configDir string) error {
	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(DefaultYAML), 0o644)
}

// SetDataDir records dataDir as data_dir in configDir's config.yaml. The file
// is edited as a YAML node tree so comments and other keys are kept.
func SetDataDir(configDir, dataDir string) error {
	if err := ensureDefaultFile(configDir); err != nil {
		return err
	}
	path := filepath.Join(configDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parse config: %s is not a mapping", path)
	}
	setScalar(root, KeyDataDir, dataDir)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// setScalar sets key to a string value in a mapping node, adding the pair
// when the key is absent.
func setScalar(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
