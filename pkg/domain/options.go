package domain

import "time"

// Default values applied when neither the navigator nor the call overrides them.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultDelay           = 500 * time.Millisecond
	DefaultRecoveryTimeout = 30 * time.Second
)

// NavOptions are the call-time options of a navigation.
// Field tags match the keyword names accepted by option maps and site map defaults.
type NavOptions struct {
	// Force executes the terminal hop's step even when it is already displayed.
	Force bool `mapstructure:"force" yaml:"force,omitempty" json:"force,omitempty"`

	// RunResetters overrides resetter behavior for every hop. When nil, only the
	// terminal hop runs its resetter on re-entry.
	RunResetters *bool `mapstructure:"run_resetters" yaml:"run_resetters,omitempty" json:"run_resetters,omitempty"`

	// Timeout bounds arrival verification of each hop.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Delay is the polling interval used during verification.
	Delay time.Duration `mapstructure:"delay" yaml:"delay,omitempty" json:"delay,omitempty"`

	// RecoveryTimeout bounds the recovery action run after a failed step.
	RecoveryTimeout time.Duration `mapstructure:"recovery_timeout" yaml:"recovery_timeout,omitempty" json:"recovery_timeout,omitempty"`
}

// DefaultNavOptions returns the engine defaults.
func DefaultNavOptions() NavOptions {
	return NavOptions{
		Timeout:         DefaultTimeout,
		Delay:           DefaultDelay,
		RecoveryTimeout: DefaultRecoveryTimeout,
	}
}

// Merge layers o over n: set durations and resetter overrides replace, Force accumulates.
func (n NavOptions) Merge(o NavOptions) NavOptions {
	out := n
	out.Force = n.Force || o.Force
	if o.RunResetters != nil {
		v := *o.RunResetters
		out.RunResetters = &v
	}
	if o.Timeout != 0 {
		out.Timeout = o.Timeout
	}
	if o.Delay != 0 {
		out.Delay = o.Delay
	}
	if o.RecoveryTimeout != 0 {
		out.RecoveryTimeout = o.RecoveryTimeout
	}
	return out
}

// WantsResetter reports whether a re-entered hop should run its resetter.
func (n NavOptions) WantsResetter(terminal bool) bool {
	if n.RunResetters != nil {
		return *n.RunResetters
	}
	return terminal
}

// Forces reports whether the hop must execute even if already displayed.
func (n NavOptions) Forces(terminal bool) bool {
	return terminal && n.Force
}
