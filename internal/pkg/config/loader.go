// Package config provides validated environment loading with fallbacks.
//
// Loaders never fail: an unset variable yields the default silently, and an
// unparsable or invalid value yields the default plus a warning. Callers
// collect the warnings, log them, and report them through ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one value.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// Load reads envKey, parses it with parse and checks it with validate.
// validate may be nil.
func Load[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value: defaultValue,
			Warning: fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}

// LoadEnvString returns the variable or the default. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	return Load(envKey, defaultValue, parseString, nil).Value
}

// LoadEnvWithFallback loads a validated string such as a cron schedule or timezone.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return Load(envKey, defaultValue, parseString, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return Load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return Load(envKey, defaultValue, parseInt, validator)
}

// LoadEnvInt64 loads a base-10 64-bit integer (byte sizes).
func LoadEnvInt64(envKey string, defaultValue int64, validator func(int64) error) Result[int64] {
	return Load(envKey, defaultValue, func(s string) (int64, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvBool accepts the strconv.ParseBool spellings.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return Load(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format")
		}
		return b, nil
	}, nil)
}

func parseString(s string) (string, error) { return s, nil }

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format")
	}
	return n, nil
}

// Collector accumulates warnings across several loads.
//
//	var c config.Collector
//	schedule := config.Collect(&c, "cron_schedule", config.LoadEnvWithFallback("CRON_SCHEDULE", "0 * * * *", config.ValidateCronSchedule))
//	for _, w := range c.Warnings { logger.Warn(w) }
type Collector struct {
	Warnings []string
	// Fields lists the fields that fell back, in load order.
	Fields []string
}

// Collect records r's warning under field and returns r.Value.
func Collect[T any](c *Collector, field string, r Result[T]) T {
	if r.FallbackApplied {
		c.Warnings = append(c.Warnings, r.Warning)
		c.Fields = append(c.Fields, field)
	}
	return r.Value
}

// FallbackApplied reports whether any collected load fell back.
func (c *Collector) FallbackApplied() bool {
	return len(c.Fields) > 0
}
