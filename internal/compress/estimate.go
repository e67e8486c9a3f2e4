package compress

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ppiankov/mnemo/internal/model"
)

// TokenEstimator estimates how many tokens a text costs in a model
// context window. Estimates only need to be consistent, not exact:
// the same text must always cost the same.
type TokenEstimator interface {
	Estimate(text string) int
	Name() string
}

// NewEstimator builds the estimator named by the configuration.
// Unknown names are caught by Config.Validate before this runs, but a
// direct caller still gets a ConfigurationError.
func NewEstimator(cfg model.CompressConfig) (TokenEstimator, error) {
	switch cfg.Estimator {
	case "heuristic":
		return &HeuristicEstimator{}, nil
	case "tiktoken":
		return NewTiktokenEstimator(cfg.Encoding)
	default:
		return nil, &model.ConfigurationError{
			Field:  "compress.estimator",
			Reason: fmt.Sprintf("unknown estimator %q", cfg.Estimator),
		}
	}
}

// HeuristicEstimator approximates tokens by blending the two usual
// rules of thumb: one token per four characters and four tokens per
// three words. Needs no encoding data.
type HeuristicEstimator struct{}

// Estimate implements TokenEstimator
func (e *HeuristicEstimator) Estimate(text string) int {
	chars := utf8.RuneCountInString(text)
	if chars == 0 {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := (chars/4 + words*4/3) / 2
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// Name implements TokenEstimator
func (e *HeuristicEstimator) Name() string { return "heuristic" }

// TiktokenEstimator counts tokens with a real BPE encoding.
type TiktokenEstimator struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the named encoding (e.g. cl100k_base).
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &model.ConfigurationError{
			Field:  "compress.encoding",
			Reason: fmt.Sprintf("load encoding %q: %v", encoding, err),
		}
	}
	return &TiktokenEstimator{encoding: encoding, enc: enc}, nil
}

// Estimate implements TokenEstimator
func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// Name implements TokenEstimator
func (e *TiktokenEstimator) Name() string { return "tiktoken/" + e.encoding }
