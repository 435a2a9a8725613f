package ontology

import "errors"

// Config selects a storage backend and carries the parameters it needs.
// Both hub.Open and Store.Attach consume it.
type Config struct {
	Backend            string `json:"backend" yaml:"backend"`
	DataDir            string `json:"data_dir" yaml:"data_dir"`
	MaxDerivationDepth int    `json:"max_derivation_depth" yaml:"max_derivation_depth"`
}

// BackendSQLite names the embedded SQLite backend, the only backend
// currently implemented.
const BackendSQLite = "sqlite"

// DefaultMaxDerivationDepth bounds the derivation engine's expansion rounds
// when the config leaves MaxDerivationDepth unset.
const DefaultMaxDerivationDepth = 10

// Sentinel errors returned by Validate.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDepthInvalid   = errors.New("max derivation depth must not be negative")
)

// Validate reports whether the Config can be attached. A zero
// MaxDerivationDepth is valid and means DefaultMaxDerivationDepth.
func (c Config) Validate() error {
	switch {
	case c.Backend == "":
		return ErrBackendEmpty
	case c.Backend != BackendSQLite:
		return ErrBackendUnknown
	case c.MaxDerivationDepth < 0:
		return ErrDepthInvalid
	}
	return nil
}

// DerivationDepth returns the configured depth cap, falling back to
// DefaultMaxDerivationDepth when unset.
func (c Config) DerivationDepth() int {
	if c.MaxDerivationDepth == 0 {
		return DefaultMaxDerivationDepth
	}
	return c.MaxDerivationDepth
}
