package model

import (
	"fmt"
	"math"
	"time"
)

// ConfigurationError is fatal and surfaced before any pipeline stage
// executes. Stage-local degradation never produces one.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Weights is the signal weight table for importance scoring.
// Callers tune it per domain (e.g., legal mode weights decisions higher);
// the scorer never hardcodes these values.
type Weights struct {
	Decision       float64 `yaml:"decision" json:"decision"`               // decision marker present
	Action         float64 `yaml:"action" json:"action"`                   // action marker present
	Question       float64 `yaml:"question" json:"question"`               // question marker present
	EntityMention  float64 `yaml:"entity_mention" json:"entity_mention"`   // per distinct entity
	EntityCap      int     `yaml:"entity_cap" json:"entity_cap"`           // max counted entities
	Quote          float64 `yaml:"quote" json:"quote"`                     // quoted literal or code fragment
	SystemDiscount float64 `yaml:"system_discount" json:"system_discount"` // subtracted for system turns
}

// TimelineConfig tunes supersession detection
type TimelineConfig struct {
	PredicateThreshold float64 `yaml:"predicate_threshold" json:"predicate_threshold"` // token-overlap similarity cutoff
	ComparisonWindow   int     `yaml:"comparison_window" json:"comparison_window"`     // most recent K claims compared per group
}

// PatternConfig tunes pattern detection
type PatternConfig struct {
	CycleLookahead    time.Duration `yaml:"cycle_lookahead" json:"cycle_lookahead"`         // max gap inside an affirm->deny pair
	MinIntervalEvents int           `yaml:"min_interval_events" json:"min_interval_events"` // events needed for an interval pattern
	IntervalCVMax     float64       `yaml:"interval_cv_max" json:"interval_cv_max"`         // max coefficient of variation for periodicity
	TrendShift        float64       `yaml:"trend_shift" json:"trend_shift"`                 // relative interval change that flips the trend
}

// CompressConfig tunes snapshot compression
type CompressConfig struct {
	Budget    int    `yaml:"budget" json:"budget"`       // approximate token budget
	Estimator string `yaml:"estimator" json:"estimator"` // "heuristic" or "tiktoken"
	Encoding  string `yaml:"encoding" json:"encoding"`   // tiktoken encoding name
}

// ParseConfig tunes transcript parsing
type ParseConfig struct {
	// TimestampTolerance bounds how far a timestamp may fall behind the
	// running high-water mark before it is cleared as out of order.
	TimestampTolerance time.Duration `yaml:"timestamp_tolerance" json:"timestamp_tolerance"`
	// UseNER switches entity extraction to the prose NER backend.
	UseNER bool `yaml:"use_ner" json:"use_ner"`
}

// LLMConfig configures optional post-pipeline refinement.
// The core works correctly with this entirely absent (empty Provider).
type LLMConfig struct {
	Provider          string `yaml:"provider" json:"provider"` // "openai", "ollama", or "" (disabled)
	Model             string `yaml:"model" json:"model"`
	APIKey            string `yaml:"-" json:"-"`
	BaseURL           string `yaml:"base_url" json:"base_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxTokens         int    `yaml:"max_tokens" json:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// StoreConfig configures the CLI-side snapshot history store
type StoreConfig struct {
	Dir        string        `yaml:"dir" json:"dir"`
	MemoryTTL  time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskLayout string        `yaml:"disk_layout" json:"disk_layout"` // reserved; only "flat" today
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// Config is the complete Mnemo configuration
type Config struct {
	Weights  Weights        `yaml:"weights" json:"weights"`
	Timeline TimelineConfig `yaml:"timeline" json:"timeline"`
	Pattern  PatternConfig  `yaml:"pattern" json:"pattern"`
	Compress CompressConfig `yaml:"compress" json:"compress"`
	Parse    ParseConfig    `yaml:"parse" json:"parse"`
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Decision:       3,
			Action:         2,
			Question:       1,
			EntityMention:  1,
			EntityCap:      3,
			Quote:          2,
			SystemDiscount: 1,
		},
		Timeline: TimelineConfig{
			PredicateThreshold: 0.5,
			ComparisonWindow:   50,
		},
		Pattern: PatternConfig{
			CycleLookahead:    45 * 24 * time.Hour,
			MinIntervalEvents: 3,
			IntervalCVMax:     0.35,
			TrendShift:        0.2,
		},
		Compress: CompressConfig{
			Budget:    2000,
			Estimator: "heuristic",
			Encoding:  "cl100k_base",
		},
		Parse: ParseConfig{
			TimestampTolerance: 24 * time.Hour,
		},
		LLM: LLMConfig{
			TimeoutSeconds:    30,
			MaxTokens:         512,
			RequestsPerMinute: 20,
		},
		Store: StoreConfig{
			MemoryTTL:  15 * time.Minute,
			DiskLayout: "flat",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks the configuration before any stage runs.
// Returns a *ConfigurationError on the first invalid field.
func (c *Config) Validate() error {
	for field, w := range map[string]float64{
		"weights.decision":        c.Weights.Decision,
		"weights.action":          c.Weights.Action,
		"weights.question":        c.Weights.Question,
		"weights.entity_mention":  c.Weights.EntityMention,
		"weights.quote":           c.Weights.Quote,
		"weights.system_discount": c.Weights.SystemDiscount,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return &ConfigurationError{Field: field, Reason: "must be a finite number"}
		}
		if w < 0 {
			return &ConfigurationError{Field: field, Reason: "must not be negative"}
		}
	}
	if c.Weights.EntityCap < 0 {
		return &ConfigurationError{Field: "weights.entity_cap", Reason: "must not be negative"}
	}
	if c.Timeline.PredicateThreshold <= 0 || c.Timeline.PredicateThreshold > 1 {
		return &ConfigurationError{Field: "timeline.predicate_threshold", Reason: "must be in (0, 1]"}
	}
	if c.Timeline.ComparisonWindow <= 0 {
		return &ConfigurationError{Field: "timeline.comparison_window", Reason: "must be positive"}
	}
	if c.Pattern.CycleLookahead <= 0 {
		return &ConfigurationError{Field: "pattern.cycle_lookahead", Reason: "must be positive"}
	}
	if c.Pattern.MinIntervalEvents < 2 {
		return &ConfigurationError{Field: "pattern.min_interval_events", Reason: "must be at least 2"}
	}
	if c.Compress.Budget <= 0 {
		return &ConfigurationError{Field: "compress.budget", Reason: "must be positive"}
	}
	switch c.Compress.Estimator {
	case "heuristic", "tiktoken":
	default:
		return &ConfigurationError{Field: "compress.estimator", Reason: "must be \"heuristic\" or \"tiktoken\""}
	}
	return nil
}
