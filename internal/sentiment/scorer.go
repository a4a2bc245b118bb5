// Package sentiment maps review text to VADER polarity scores.
package sentiment

import (
	"strings"

	"github.com/azure/review-analyzer/internal/models"
	"github.com/jonreiter/govader"
)

// Scorer computes a polarity score for a piece of text.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	Score(text string) models.Sentiment
}

// VaderScorer scores text with the VADER lexicon
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// Ensure VaderScorer implements Scorer
var _ Scorer = (*VaderScorer)(nil)

// NewVaderScorer creates a scorer backed by the bundled VADER lexicon
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Score returns the neg/neu/pos/compound scores for text. Empty text scores 0 compound.
func (v *VaderScorer) Score(text string) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.Sentiment{}
	}

	scores := v.analyzer.PolarityScores(text)
	return models.Sentiment{
		Negative: scores.Negative,
		Neutral:  scores.Neutral,
		Positive: scores.Positive,
		Compound: scores.Compound,
	}
}

// ScorerFunc adapts a plain function to the Scorer interface
type ScorerFunc func(text string) models.Sentiment

// Score calls f(text)
func (f ScorerFunc) Score(text string) models.Sentiment {
	return f(text)
}
