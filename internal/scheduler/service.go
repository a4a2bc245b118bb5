package scheduler

import (
	"fmt"
	"time"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/notifications"
	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/azure/review-analyzer/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// snapshotPrefix names every snapshot blob; the timestamp suffix sorts chronologically
const snapshotPrefix = "reviews-"

// Service runs periodic snapshot and report jobs over the review store
type Service struct {
	config              *config.Config
	reviewService       *reviews.Service
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	metrics             *metrics.Registry
	cron                *cron.Cron
	now                 func() time.Time
}

// NewService creates a new scheduler service. storage and notificationService
// may be nil; the jobs that need them are then not scheduled.
func NewService(cfg *config.Config, reviewService *reviews.Service, storage storage.StorageInterface, notificationService notifications.NotificationInterface, registry *metrics.Registry) *Service {
	return &Service{
		config:              cfg,
		reviewService:       reviewService,
		storage:             storage,
		notificationService: notificationService,
		metrics:             registry,
		cron:                cron.New(cron.WithSeconds()),
		now:                 time.Now,
	}
}

// Start registers the configured jobs and starts the cron runner
func (s *Service) Start() error {
	jobs := 0

	if s.config.SnapshotSchedule != "" && s.storage != nil {
		_, err := s.cron.AddFunc(s.config.SnapshotSchedule, func() {
			logrus.Info("Starting scheduled review snapshot")
			if err := s.RunSnapshot(); err != nil {
				logrus.Errorf("Scheduled snapshot failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid SNAPSHOT_SCHEDULE %q: %w", s.config.SnapshotSchedule, err)
		}
		jobs++
	}

	if s.config.ReportSchedule != "" && s.notificationService != nil {
		var cronExpression string

		switch s.config.ReportSchedule {
		case "daily":
			// Run daily at 9 AM
			cronExpression = "0 0 9 * * *"
		default:
			// Run weekly on Monday at 9 AM
			cronExpression = "0 0 9 * * MON"
		}

		_, err := s.cron.AddFunc(cronExpression, func() {
			logrus.Info("Starting scheduled sentiment report")
			if err := s.RunReport(); err != nil {
				logrus.Errorf("Scheduled report failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		jobs++
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %d jobs", jobs)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

// RunSnapshot writes every stored review to storage and prunes old snapshots
func (s *Service) RunSnapshot() error {
	if s.storage == nil {
		return fmt.Errorf("no storage backend configured")
	}

	data, err := s.reviewService.Snapshot()
	if err != nil {
		s.metrics.Snapshots.WithLabelValues("error").Inc()
		return err
	}

	filename := fmt.Sprintf("%s%s.json", snapshotPrefix, s.now().UTC().Format("2006-01-02-15-04-05"))
	if err := s.storage.Store(filename, data); err != nil {
		s.metrics.Snapshots.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.Snapshots.WithLabelValues("success").Inc()

	if err := s.pruneSnapshots(); err != nil {
		logrus.Warnf("Failed to prune old snapshots: %v", err)
	}

	return nil
}

func (s *Service) pruneSnapshots() error {
	if s.config.SnapshotRetention <= 0 {
		return nil
	}

	names, err := s.storage.List(snapshotPrefix)
	if err != nil {
		return err
	}

	for len(names) > s.config.SnapshotRetention {
		if err := s.storage.Delete(names[0]); err != nil {
			return err
		}
		names = names[1:]
	}

	return nil
}

// RunReport builds a sentiment report over all reviews and sends it
func (s *Service) RunReport() error {
	if s.notificationService == nil {
		return fmt.Errorf("no notification service configured")
	}

	period := s.config.ReportSchedule
	if period == "" {
		period = "on-demand"
	}

	report, err := s.reviewService.Report(period)
	if err != nil {
		return err
	}

	if err := s.notificationService.SendReport(report); err != nil {
		s.metrics.NotificationsFailed.Inc()
		return fmt.Errorf("failed to send report: %w", err)
	}

	logrus.Infof("Sent %s report covering %d reviews", period, report.TotalReviews)
	return nil
}
