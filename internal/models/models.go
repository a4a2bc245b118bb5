package models

import "time"

// TimestampLayout is the stored format of Review.Timestamp
const TimestampLayout = "2006-01-02 15:04:05"

// Sentiment holds VADER polarity scores for a piece of text
type Sentiment struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"` // normalized, in [-1, 1]
}

// Label buckets the compound score using the usual VADER cut-offs
func (s Sentiment) Label() string {
	switch {
	case s.Compound >= 0.05:
		return "positive"
	case s.Compound <= -0.05:
		return "negative"
	default:
		return "neutral"
	}
}

// Review represents a customer review for one of the allowed locations
type Review struct {
	ID        string     `json:"ReviewId"`
	Body      string     `json:"ReviewBody"`
	Location  string     `json:"Location"`
	Timestamp string     `json:"Timestamp"`           // TimestampLayout
	Sentiment *Sentiment `json:"sentiment,omitempty"` // nil until scored
}

// LocationSummary aggregates sentiment for a single location
type LocationSummary struct {
	Location      string  `json:"location"`
	Reviews       int     `json:"reviews"`
	AverageScore  float64 `json:"average_compound"`
	NegativeCount int     `json:"negative_count"`
}

// Report represents a periodic sentiment report over the stored reviews
type Report struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	Period       string            `json:"period"`
	TotalReviews int               `json:"total_reviews"`
	Locations    []LocationSummary `json:"locations"`
	Sentiment    map[string]int    `json:"sentiment"`
	MostNegative []Review          `json:"most_negative"`
}

// Alert represents an urgent notification about a single review
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "negative_review"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Review    *Review   `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
