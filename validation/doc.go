// Package validation checks configuration structs.
//
// Struct tag validation backs every config type in the module:
//
//	type LoopConfig struct {
//	    Name      string `validate:"max=64"`
//	    QueueSize int    `validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects several failures before reporting them:
//
//	v := validation.New()
//	v.Min("max_attempts", cfg.MaxAttempts, 1)
//	v.Custom(cfg.BackoffFactor >= 1, "backoff_factor", "must be at least 1")
//	err := v.Err()
//
// Both return an *errors.StreamError with code INVALID_INPUT and the
// failing fields under Details["fields"].
package validation
