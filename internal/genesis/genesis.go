// Package genesis loads the reward parameters a chain starts with.
package genesis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/issuance"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/internal/state"
)

var (
	ErrZeroCap         = errors.New("issuance cap must be non-zero")
	ErrInitialAboveCap = errors.New("initial issuance exceeds the cap")
	ErrMissingField    = errors.New("missing genesis field")
)

// Config is the genesis reward configuration. Amounts are decimal strings so
// the full 128-bit balance range can be expressed; the voter share is an
// exact decimal ("0.31") or a fraction ("31/100").
type Config struct {
	BlockReward     string `yaml:"block_reward"`
	VoterShareRatio string `yaml:"voter_share_ratio"`
	Cap             string `yaml:"cap"`
	InitialIssuance string `yaml:"initial_issuance,omitempty"`
}

// DefaultConfig returns the parameters used by `rewards init` when no genesis
// file is given.
func DefaultConfig() *Config {
	return &Config{
		BlockReward:     "1000",
		VoterShareRatio: "0.3",
		Cap:             "1000000",
		InitialIssuance: "0",
	}
}

// Load reads and validates a genesis file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML genesis document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse genesis: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create genesis directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write genesis: %w", err)
	}
	return nil
}

// Params are the typed genesis values.
type Params struct {
	Schedule        reward.Schedule
	Cap             currency.Balance
	InitialIssuance currency.Balance
}

// Params parses every field. It does not check the cross-field constraints,
// see Validate.
func (c *Config) Params() (Params, error) {
	var p Params
	var err error

	if c.BlockReward == "" {
		return Params{}, fmt.Errorf("%w: block_reward", ErrMissingField)
	}
	if p.Schedule.BlockReward, err = currency.ParseBalance(c.BlockReward); err != nil {
		return Params{}, fmt.Errorf("block_reward: %w", err)
	}

	if c.VoterShareRatio == "" {
		return Params{}, fmt.Errorf("%w: voter_share_ratio", ErrMissingField)
	}
	if p.Schedule.VoterShare, err = reward.ParseRatio(c.VoterShareRatio); err != nil {
		return Params{}, fmt.Errorf("voter_share_ratio: %w", err)
	}

	if c.Cap == "" {
		return Params{}, fmt.Errorf("%w: cap", ErrMissingField)
	}
	if p.Cap, err = currency.ParseBalance(c.Cap); err != nil {
		return Params{}, fmt.Errorf("cap: %w", err)
	}

	if c.InitialIssuance != "" {
		if p.InitialIssuance, err = currency.ParseBalance(c.InitialIssuance); err != nil {
			return Params{}, fmt.Errorf("initial_issuance: %w", err)
		}
	}
	return p, nil
}

// Validate checks the configuration once, before any block is produced.
func (c *Config) Validate() error {
	p, err := c.Params()
	if err != nil {
		return err
	}
	if err := p.Schedule.Validate(); err != nil {
		return err
	}
	if p.Cap.IsZero() {
		return ErrZeroCap
	}
	if p.InitialIssuance.Cmp(p.Cap) > 0 {
		return fmt.Errorf("%w: initial %s, cap %s", ErrInitialAboveCap, p.InitialIssuance, p.Cap)
	}
	return nil
}

// Build returns the chain state at height zero.
func (c *Config) Build() (state.State, error) {
	if err := c.Validate(); err != nil {
		return state.State{}, err
	}
	p, err := c.Params()
	if err != nil {
		return state.State{}, err
	}
	ledger, err := issuance.NewState(p.Cap, p.InitialIssuance)
	if err != nil {
		return state.State{}, err
	}
	return state.State{
		GenesisIssuance: p.InitialIssuance,
		Schedule:        p.Schedule,
		Issuance:        ledger,
		NextProposalSeq: 1,
	}, nil
}
