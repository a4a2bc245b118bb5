package api

import (
	"net/http"
	"time"

	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the review endpoints plus health and metrics
func NewRouter(reviewService *reviews.Service, registry *metrics.Registry) *mux.Router {
	h := &Handler{reviews: reviewService}

	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/", h.ListReviews).Methods(http.MethodGet)
	router.HandleFunc("/", h.CreateReview).Methods(http.MethodPost)

	// Health check endpoint
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Metrics endpoint
	router.Handle("/metrics", registry.Handler()).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			entry.Debug("Handled request")
			return
		}
		entry.Info("Handled request")
	})
}
