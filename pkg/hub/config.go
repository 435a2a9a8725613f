// Config loading for the hub.
package hub

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/labki-org/ontology-hub/internal/paths"
	"github.com/labki-org/ontology-hub/pkg/ontology"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFile     = configFileName + "." + configFileType

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyMaxDepth = "max_derivation_depth"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Labki ontology hub configuration

# Storage backend
backend: sqlite

# Catalog data directory. Unset means LABKI_DATA_DIR or the platform
# default.
# data_dir:

# Expansion-round cap for module derivation
max_derivation_depth: 10
`

// LoadConfig reads config.yaml from the given directory using Viper. The
// directory and a default config.yaml are created on first run; a missing
// config.yaml is not an error.
func LoadConfig(configDir string) (ontology.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return ontology.Config{}, fmt.Errorf("creating config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return ontology.Config{}, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, ontology.BackendSQLite)
	v.SetDefault(cfgKeyMaxDepth, ontology.DefaultMaxDerivationDepth)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ontology.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := ontology.Config{
		Backend:            v.GetString(cfgKeyBackend),
		DataDir:            v.GetString(cfgKeyDataDir),
		MaxDerivationDepth: v.GetInt(cfgKeyMaxDepth),
	}
	if err := cfg.Validate(); err != nil {
		return ontology.Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ResolveConfig resolves the configuration directory (flag > LABKI_CONFIG_DIR
// > platform default), loads config.yaml from it, then resolves the data
// directory by its own precedence (flag > config.yaml > LABKI_DATA_DIR > CWD
// default). Empty flags defer to the environment.
func ResolveConfig(configDirFlag, dataDirFlag string) (ontology.Config, error) {
	configDir, err := paths.ResolveConfigDir(configDirFlag)
	if err != nil {
		return ontology.Config{}, fmt.Errorf("resolving config dir: %w", err)
	}
	cfg, err := LoadConfig(configDir)
	if err != nil {
		return ontology.Config{}, err
	}
	dataDir, err := paths.ResolveDataDir(dataDirFlag, cfg.DataDir)
	if err != nil {
		return ontology.Config{}, fmt.Errorf("resolving data dir: %w", err)
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

// ensureDefaultConfigFile writes defaultConfigYAML into the config
// directory unless a config.yaml already exists there.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFile)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
