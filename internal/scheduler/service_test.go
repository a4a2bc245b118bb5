package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/models"
	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/azure/review-analyzer/internal/sentiment"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFileStorage implements StorageInterface in memory
type MockFileStorage struct {
	data map[string][]byte
}

func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{
		data: make(map[string][]byte),
	}
}

func (m *MockFileStorage) Store(filename string, data []byte) error {
	m.data[filename] = data
	return nil
}

func (m *MockFileStorage) Retrieve(filename string) ([]byte, error) {
	if data, exists := m.data[filename]; exists {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s", filename)
}

func (m *MockFileStorage) List(prefix string) ([]string, error) {
	var files []string
	for filename := range m.data {
		if strings.HasPrefix(filename, prefix) {
			files = append(files, filename)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *MockFileStorage) Delete(filename string) error {
	delete(m.data, filename)
	return nil
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(alert *models.Alert) error {
	args := m.Called(alert)
	return args.Error(0)
}

func newReviewService(t *testing.T, registry *metrics.Registry) *reviews.Service {
	t.Helper()

	store := reviews.NewStore()
	store.Append(models.Review{ID: "1", Body: "good", Location: "Denver, Colorado", Timestamp: "2021-01-01 00:00:00"})
	store.Append(models.Review{ID: "2", Body: "bad", Location: "Tucson, Arizona", Timestamp: "2021-01-02 00:00:00"})

	scorer := sentiment.ScorerFunc(func(text string) models.Sentiment {
		if text == "bad" {
			return models.Sentiment{Compound: -0.5}
		}
		return models.Sentiment{Compound: 0.5}
	})
	return reviews.NewService(&config.Config{}, store, scorer, nil, registry)
}

func TestService_RunSnapshot(t *testing.T) {
	registry := metrics.NewRegistry()
	fileStorage := NewMockFileStorage()
	cfg := &config.Config{SnapshotRetention: 2}

	service := NewService(cfg, newReviewService(t, registry), fileStorage, nil, registry)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		service.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		require.NoError(t, service.RunSnapshot())
	}

	names, err := fileStorage.List(snapshotPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reviews-2024-01-01-01-00-00.json",
		"reviews-2024-01-01-02-00-00.json",
	}, names)

	var stored []models.Review
	require.NoError(t, json.Unmarshal(fileStorage.data[names[1]], &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "1", stored[0].ID)
	assert.Equal(t, "Tucson, Arizona", stored[1].Location)

	assert.Equal(t, 3.0, testutil.ToFloat64(registry.Snapshots.WithLabelValues("success")))
}

func TestService_RunSnapshot_NoStorage(t *testing.T) {
	registry := metrics.NewRegistry()
	service := NewService(&config.Config{}, newReviewService(t, registry), nil, nil, registry)

	assert.Error(t, service.RunSnapshot())
}

func TestService_RunReport(t *testing.T) {
	registry := metrics.NewRegistry()
	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.MatchedBy(func(report *models.Report) bool {
		return report.Period == "daily" &&
			report.TotalReviews == 2 &&
			report.Sentiment["negative"] == 1 &&
			len(report.MostNegative) == 1 && report.MostNegative[0].ID == "2"
	})).Return(nil).Once()

	service := NewService(&config.Config{ReportSchedule: "daily"}, newReviewService(t, registry), nil, notifier, registry)

	require.NoError(t, service.RunReport())
	notifier.AssertExpectations(t)
}

func TestService_RunReport_SendFailure(t *testing.T) {
	registry := metrics.NewRegistry()
	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.Anything).Return(errors.New("smtp down"))

	service := NewService(&config.Config{}, newReviewService(t, registry), nil, notifier, registry)

	err := service.RunReport()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.NotificationsFailed))
}

func TestService_Start(t *testing.T) {
	registry := metrics.NewRegistry()

	tests := []struct {
		name    string
		cfg     *config.Config
		entries int
		wantErr bool
	}{
		{
			name: "No jobs",
			cfg:  &config.Config{},
		},
		{
			name:    "Snapshot and weekly report",
			cfg:     &config.Config{SnapshotSchedule: "0 0 * * * *", ReportSchedule: "weekly"},
			entries: 2,
		},
		{
			name:    "Invalid snapshot schedule",
			cfg:     &config.Config{SnapshotSchedule: "every hour"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.cfg, newReviewService(t, registry), NewMockFileStorage(), &MockNotificationService{}, registry)

			err := service.Start()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer service.Stop()

			assert.Len(t, service.cron.Entries(), tt.entries)
		})
	}
}
