package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dndb/internal/paths"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyDSN           = "dsn"
	cfgKeySnapshotReads = "snapshot_reads"
	cfgKeyBcryptCost    = "bcrypt_cost"

	envPrefix = "DNDB"
)

// loadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// loadConfig reads config.yaml from configDir with DNDB_* environment
// overrides. A missing config.yaml is not an error. The data directory is
// resolved separately so that the flag beats the file and the file beats
// DNDB_DATA_DIR.
func loadConfig(configDir, dataDirFlag string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyDSN, "")
	v.SetDefault(cfgKeySnapshotReads, false)
	v.SetDefault(cfgKeyBcryptCost, 0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeyDSN, cfgKeySnapshotReads, cfgKeyBcryptCost} {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with the given values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(configDir string, cfg types.Config) (bool, error) {
	path := filepath.Join(configDir, paths.ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}

	header := []byte("# dndb configuration\n# backend: sqlite | postgres (postgres needs dsn)\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}
