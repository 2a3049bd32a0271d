package types

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Config holds backend selection and parameters for storage.Open.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DataDir holds the SQLite database file. Ignored for postgres.
	DataDir string `json:"data_dir" yaml:"data_dir,omitempty" mapstructure:"data_dir"`

	// DSN is the Postgres connection URL. Ignored for sqlite.
	DSN string `json:"dsn" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// SnapshotReads wraps every aggregate read in a read-only transaction.
	SnapshotReads bool `json:"snapshot_reads" yaml:"snapshot_reads,omitempty" mapstructure:"snapshot_reads"`

	// BcryptCost is the work factor for password hashes. Zero means
	// bcrypt.DefaultCost.
	BcryptCost int `json:"bcrypt_cost" yaml:"bcrypt_cost,omitempty" mapstructure:"bcrypt_cost"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrDSNEmpty          = errors.New("dsn must not be empty for the postgres backend")
	ErrBcryptCostInvalid = errors.New("bcrypt cost out of range")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return ErrBcryptCostInvalid
	}
	return nil
}

// PasswordCost returns the configured bcrypt cost or the library default.
func (c Config) PasswordCost() int {
	if c.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return c.BcryptCost
}
