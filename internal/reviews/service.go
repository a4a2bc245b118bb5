package reviews

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/models"
	"github.com/azure/review-analyzer/internal/notifications"
	"github.com/azure/review-analyzer/internal/sentiment"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DateLayout is the format of the start_date and end_date query parameters
const DateLayout = "2006-01-02"

// mostNegativeLimit caps Report.MostNegative
const mostNegativeLimit = 5

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidDate     = errors.New("invalid date")
)

// Filter narrows a query. Empty fields are not applied.
type Filter struct {
	Location  string
	StartDate string // YYYY-MM-DD, inclusive from midnight
	EndDate   string // YYYY-MM-DD, inclusive up to midnight
}

// Service answers review queries and ingests new reviews
type Service struct {
	config              *config.Config
	store               *Store
	scorer              sentiment.Scorer
	notificationService notifications.NotificationInterface
	metrics             *metrics.Registry

	now   func() time.Time
	newID func() string

	alerts sync.WaitGroup
}

// NewService creates a review service. notificationService may be nil, which disables alerts.
func NewService(cfg *config.Config, store *Store, scorer sentiment.Scorer, notificationService notifications.NotificationInterface, registry *metrics.Registry) *Service {
	registry.ReviewsStored.Set(float64(store.Len()))

	return &Service{
		config:              cfg,
		store:               store,
		scorer:              scorer,
		notificationService: notificationService,
		metrics:             registry,
		now:                 time.Now,
		newID:               uuid.NewString,
	}
}

// Count returns the number of stored reviews
func (s *Service) Count() int {
	return s.store.Len()
}

// Query returns the reviews matching filter ranked by compound score, highest
// first. Missing sentiment scores are computed and cached on the stored
// records as a side effect.
func (s *Service) Query(filter Filter) ([]models.Review, error) {
	start := time.Now()
	defer func() {
		s.metrics.Queries.Inc()
		s.metrics.QueryLatencySec.Observe(time.Since(start).Seconds())
	}()

	return s.ranked(filter)
}

// ranked filters, scores and sorts without touching the query metrics
func (s *Service) ranked(filter Filter) ([]models.Review, error) {
	from, hasFrom, err := parseDate("start_date", filter.StartDate)
	if err != nil {
		return nil, err
	}
	until, hasUntil, err := parseDate("end_date", filter.EndDate)
	if err != nil {
		return nil, err
	}

	snapshot := s.store.All()
	result := make([]models.Review, 0, len(snapshot))

	for i, review := range snapshot {
		if filter.Location != "" && review.Location != filter.Location {
			continue
		}

		if hasFrom || hasUntil {
			ts, err := time.Parse(models.TimestampLayout, review.Timestamp)
			if err != nil {
				logrus.Warnf("Skipping review %s with unparseable timestamp %q", review.ID, review.Timestamp)
				continue
			}
			if hasFrom && ts.Before(from) {
				continue
			}
			// end_date carries no time component, so reviews later on that day fall outside
			if hasUntil && ts.After(until) {
				continue
			}
		}

		if review.Sentiment == nil {
			scored, err := s.store.ComputeIfAbsent(i, s.score)
			if err != nil {
				return nil, fmt.Errorf("score review %s: %w", review.ID, err)
			}
			review.Sentiment = &scored
		}

		result = append(result, review)
	}

	sortByCompoundDesc(result)

	logrus.Debugf("Query %+v matched %d of %d reviews", filter, len(result), len(snapshot))
	return result, nil
}

// Create validates and stores a new review, scoring it immediately
func (s *Service) Create(body, location string) (models.Review, error) {
	if body == "" || location == "" {
		s.metrics.ReviewsRejected.WithLabelValues("missing_fields").Inc()
		return models.Review{}, ErrMissingFields
	}

	if !IsAllowedLocation(location) {
		s.metrics.ReviewsRejected.WithLabelValues("invalid_location").Inc()
		return models.Review{}, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	scored := s.score(body)
	review := models.Review{
		ID:        s.newID(),
		Body:      body,
		Location:  location,
		Timestamp: s.now().Format(models.TimestampLayout),
		Sentiment: &scored,
	}

	s.store.Append(review)
	s.metrics.ReviewsCreated.Inc()
	s.metrics.ReviewsStored.Set(float64(s.store.Len()))

	logrus.Infof("Stored review %s for %s (compound %.4f)", review.ID, review.Location, scored.Compound)

	if s.shouldAlert(scored) {
		s.dispatchAlert(review)
	}

	return review, nil
}

// Report scores every stored review and summarizes sentiment per location
func (s *Service) Report(period string) (*models.Report, error) {
	all, err := s.ranked(Filter{})
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		GeneratedAt:  s.now().UTC(),
		Period:       period,
		TotalReviews: len(all),
		Locations:    []models.LocationSummary{},
		Sentiment:    map[string]int{"positive": 0, "neutral": 0, "negative": 0},
		MostNegative: []models.Review{},
	}

	byLocation := make(map[string]*models.LocationSummary)
	for _, review := range all {
		label := review.Sentiment.Label()
		report.Sentiment[label]++

		summary, ok := byLocation[review.Location]
		if !ok {
			summary = &models.LocationSummary{Location: review.Location}
			byLocation[review.Location] = summary
		}
		summary.Reviews++
		summary.AverageScore += review.Sentiment.Compound
		if label == "negative" {
			summary.NegativeCount++
		}
	}

	for _, summary := range byLocation {
		summary.AverageScore /= float64(summary.Reviews)
		report.Locations = append(report.Locations, *summary)
	}
	sort.Slice(report.Locations, func(i, j int) bool {
		return report.Locations[i].Location < report.Locations[j].Location
	})

	// all is ranked highest first; walk it backwards for the most negative
	for i := len(all) - 1; i >= 0 && len(report.MostNegative) < mostNegativeLimit; i-- {
		if all[i].Sentiment.Label() != "negative" {
			break
		}
		report.MostNegative = append(report.MostNegative, all[i])
	}

	return report, nil
}

// Snapshot serializes every stored review, in insertion order
func (s *Service) Snapshot() ([]byte, error) {
	data, err := json.Marshal(s.store.All())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reviews: %w", err)
	}
	return data, nil
}

// Wait blocks until in-flight alerts have been delivered
func (s *Service) Wait() {
	s.alerts.Wait()
}

func (s *Service) score(body string) models.Sentiment {
	s.metrics.SentimentComputed.Inc()
	return s.scorer.Score(body)
}

func (s *Service) shouldAlert(scored models.Sentiment) bool {
	return s.notificationService != nil &&
		s.config.EnableAlerts &&
		scored.Compound <= s.config.AlertThreshold
}

func (s *Service) dispatchAlert(review models.Review) {
	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "negative_review",
		Title:     fmt.Sprintf("Negative review in %s", review.Location),
		Message:   fmt.Sprintf("A review scored %.3f, at or below the alert threshold of %.3f", review.Sentiment.Compound, s.config.AlertThreshold),
		Review:    &review,
		CreatedAt: s.now(),
	}

	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()

		if err := s.notificationService.SendAlert(alert); err != nil {
			s.metrics.NotificationsFailed.Inc()
			logrus.Errorf("Failed to send alert for review %s: %v", review.ID, err)
		}
	}()
}

func parseDate(name, value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}

	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %s %q must be YYYY-MM-DD", ErrInvalidDate, name, value)
	}

	return parsed, true, nil
}

// sortByCompoundDesc orders reviews by compound score, highest first; ties keep their order
func sortByCompoundDesc(reviews []models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return compoundOf(reviews[i]) > compoundOf(reviews[j])
	})
}

func compoundOf(review models.Review) float64 {
	if review.Sentiment == nil {
		return 0
	}
	return review.Sentiment.Compound
}
