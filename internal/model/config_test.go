package model

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default configuration must validate, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative weight", func(c *Config) { c.Weights.Decision = -1 }, "weights.decision"},
		{"nan weight", func(c *Config) { c.Weights.Quote = math.NaN() }, "weights.quote"},
		{"negative entity cap", func(c *Config) { c.Weights.EntityCap = -1 }, "weights.entity_cap"},
		{"zero threshold", func(c *Config) { c.Timeline.PredicateThreshold = 0 }, "timeline.predicate_threshold"},
		{"threshold above one", func(c *Config) { c.Timeline.PredicateThreshold = 1.5 }, "timeline.predicate_threshold"},
		{"zero window", func(c *Config) { c.Timeline.ComparisonWindow = 0 }, "timeline.comparison_window"},
		{"zero lookahead", func(c *Config) { c.Pattern.CycleLookahead = 0 }, "pattern.cycle_lookahead"},
		{"interval minimum below two", func(c *Config) { c.Pattern.MinIntervalEvents = 1 }, "pattern.min_interval_events"},
		{"zero budget", func(c *Config) { c.Compress.Budget = 0 }, "compress.budget"},
		{"unknown estimator", func(c *Config) { c.Compress.Estimator = "vibes" }, "compress.estimator"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("Expected ConfigurationError, got %T", err)
			}
			if confErr.Field != tc.field {
				t.Errorf("Expected field %s, got %s", tc.field, confErr.Field)
			}
		})
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Field: "compress.budget", Reason: "must be positive"}
	msg := err.Error()
	if !strings.Contains(msg, "compress.budget") || !strings.Contains(msg, "must be positive") {
		t.Errorf("Unexpected message: %q", msg)
	}
}
