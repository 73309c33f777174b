package navgraph

import (
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// callOptions accumulates the per-call options of NavigateTo.
type callOptions struct {
	opts domain.NavOptions
	err  error
}

// NavOption configures a single NavigateTo call.
type NavOption func(*callOptions)

// Force executes the terminal step even when its destination is already displayed.
func Force() NavOption {
	return func(c *callOptions) {
		c.opts.Force = true
	}
}

// RunResetters makes every re-entered hop run its resetter (true) or none of them (false).
// Without it only the terminal hop does.
func RunResetters(run bool) NavOption {
	return func(c *callOptions) {
		c.opts.RunResetters = &run
	}
}

// Timeout bounds arrival verification of each hop.
func Timeout(d time.Duration) NavOption {
	return func(c *callOptions) {
		c.opts.Timeout = d
	}
}

// Delay sets the polling interval used during verification.
func Delay(d time.Duration) NavOption {
	return func(c *callOptions) {
		c.opts.Delay = d
	}
}

// RecoveryTimeout bounds the recovery action.
func RecoveryTimeout(d time.Duration) NavOption {
	return func(c *callOptions) {
		c.opts.RecoveryTimeout = d
	}
}

// WithOptionMap applies keyword options (force, run_resetters, timeout, delay,
// recovery_timeout). Durations accept Go duration strings or numbers of seconds.
// Unknown keys make NavigateTo fail before anything happens.
func WithOptionMap(m map[string]any) NavOption {
	return func(c *callOptions) {
		if c.err != nil {
			return
		}
		opts, err := DecodeOptions(m)
		if err != nil {
			c.err = err
			return
		}
		c.opts = c.opts.Merge(opts)
	}
}

// DecodeOptions decodes a keyword option map into domain.NavOptions.
func DecodeOptions(m map[string]any) (domain.NavOptions, error) {
	var out domain.NavOptions
	if len(m) == 0 {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(m); err != nil {
		return domain.NavOptions{}, fmt.Errorf("invalid navigation options: %w", err)
	}
	return out, nil
}

// secondsToDurationHook reads plain numbers as seconds.
func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

func (n *Navigator) options(opts []NavOption) (domain.NavOptions, error) {
	c := &callOptions{}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return domain.NavOptions{}, c.err
	}
	return n.defaults.Merge(c.opts), nil
}
