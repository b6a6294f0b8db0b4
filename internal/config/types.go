package config

import "time"

// Target identifies the Lattice deployment under test.
type Target struct {
	// URL is the base URL of the server's JSON-RPC endpoint.
	URL string `yaml:"url"`

	// AdminToken authenticates the administrative mint path, when one
	// is available.
	AdminToken string `yaml:"admin_token"`
}

// Credentials configures the credential forge.
type Credentials struct {
	// StoreURL selects the relational backend for direct persistence:
	// postgres://... for the networked backend, sqlite://path or a
	// plain path for the embedded one. Empty disables the fallback.
	StoreURL string `yaml:"store_url"`

	// TokenSalt overrides the server's fixed hashing salt. Leave empty
	// for the default; only set when testing against a server built
	// with a non-standard salt.
	TokenSalt string `yaml:"token_salt"`
}

// Poll holds the default polling budgets. Individual tests may still
// pass their own.
type Poll struct {
	IntervalSeconds      float64 `yaml:"interval_seconds"`
	DeadlineSeconds      float64 `yaml:"deadline_seconds"`
	FallbackAfterSeconds float64 `yaml:"fallback_after_seconds"`
}

// Interval returns the poll interval as a duration.
func (p Poll) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds * float64(time.Second))
}

// Deadline returns the poll deadline as a duration.
func (p Poll) Deadline() time.Duration {
	return time.Duration(p.DeadlineSeconds * float64(time.Second))
}

// FallbackAfter returns the fallback grace period as a duration.
func (p Poll) FallbackAfter() time.Duration {
	return time.Duration(p.FallbackAfterSeconds * float64(time.Second))
}

// Fault configures fault injection against the deployment's containers.
type Fault struct {
	// DockerBinary is the container CLI to shell out to.
	DockerBinary string `yaml:"docker_binary"`

	// Network is the virtual network containers are partitioned from.
	Network string `yaml:"network"`

	// CommandTimeoutSeconds bounds each individual CLI invocation.
	CommandTimeoutSeconds float64 `yaml:"command_timeout_seconds"`
}

// CommandTimeout returns the per-command timeout as a duration.
func (f Fault) CommandTimeout() time.Duration {
	return time.Duration(f.CommandTimeoutSeconds * float64(time.Second))
}

// Config is the .lattice-e2e/config.yaml file.
type Config struct {
	Target      Target      `yaml:"target"`
	Credentials Credentials `yaml:"credentials"`
	Poll        Poll        `yaml:"poll"`
	Fault       Fault       `yaml:"fault"`
}
