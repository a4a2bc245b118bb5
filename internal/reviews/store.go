package reviews

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/azure/review-analyzer/internal/models"
)

// Column names expected in the seed CSV header
const (
	columnID        = "ReviewId"
	columnBody      = "ReviewBody"
	columnLocation  = "Location"
	columnTimestamp = "Timestamp"
)

// ErrReviewNotFound is returned for positions outside the stored sequence
var ErrReviewNotFound = errors.New("review not found")

// Store holds reviews in insertion order. It only grows: positions returned
// by All stay valid for the lifetime of the store.
type Store struct {
	mu      sync.RWMutex
	reviews []models.Review
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// LoadFile loads seed reviews from a CSV file on disk
func (s *Store) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return s.Load(f)
}

// Load parses a CSV with a ReviewId,ReviewBody,Location,Timestamp header and
// appends every row without a sentiment score. Column order follows the
// header and extra columns are ignored. Nothing is appended on error.
func (s *Store) Load(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable column count

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range []string{columnID, columnBody, columnLocation, columnTimestamp} {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("missing column %q", name)
		}
	}

	var loaded []models.Review
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read line %d: %w", line, err)
		}

		field := func(name string) string {
			if idx := columns[name]; idx < len(record) {
				return record[idx]
			}
			return ""
		}

		review := models.Review{
			ID:        field(columnID),
			Body:      field(columnBody),
			Location:  field(columnLocation),
			Timestamp: field(columnTimestamp),
		}
		if _, err := time.Parse(models.TimestampLayout, review.Timestamp); err != nil {
			return 0, fmt.Errorf("line %d: invalid timestamp %q: %w", line, review.Timestamp, err)
		}

		loaded = append(loaded, review)
	}

	s.mu.Lock()
	s.reviews = append(s.reviews, loaded...)
	s.mu.Unlock()

	return len(loaded), nil
}

// Append adds a review to the end of the sequence
func (s *Store) Append(review models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews = append(s.reviews, review)
}

// All returns a copy of the current sequence
func (s *Store) All() []models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// Len returns the number of stored reviews
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.reviews)
}

// ComputeIfAbsent returns the cached sentiment of the review at index,
// computing it with score and storing it on the record when missing.
// score runs without the lock held, so concurrent callers may both compute;
// the first stored value wins.
func (s *Store) ComputeIfAbsent(index int, score func(body string) models.Sentiment) (models.Sentiment, error) {
	s.mu.RLock()
	if index < 0 || index >= len(s.reviews) {
		s.mu.RUnlock()
		return models.Sentiment{}, fmt.Errorf("position %d: %w", index, ErrReviewNotFound)
	}
	if cached := s.reviews[index].Sentiment; cached != nil {
		s.mu.RUnlock()
		return *cached, nil
	}
	body := s.reviews[index].Body
	s.mu.RUnlock()

	computed := score(body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached := s.reviews[index].Sentiment; cached != nil {
		return *cached, nil
	}
	s.reviews[index].Sentiment = &computed
	return computed, nil
}
