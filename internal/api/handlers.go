package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/sirupsen/logrus"
)

// Messages returned to clients for rejected reviews
const (
	msgMissingFields   = "Both ReviewBody and Location are required"
	msgInvalidLocation = "Invalid location"
	msgInvalidForm     = "Invalid form body"
)

// maxFormBytes matches the limit net/http applies to url-encoded bodies
const maxFormBytes = 10 << 20

// Handler serves the review endpoints
type Handler struct {
	reviews *reviews.Service
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListReviews handles GET / with optional location, start_date and end_date
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := reviews.Filter{
		Location:  query.Get("location"),
		StartDate: query.Get("start_date"),
		EndDate:   query.Get("end_date"),
	}

	result, err := h.reviews.Query(filter)
	if err != nil {
		if errors.Is(err, reviews.ErrInvalidDate) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		logrus.Errorf("Query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logrus.Errorf("Failed to encode reviews: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// CreateReview handles POST / with form fields ReviewBody and Location
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		logrus.Debugf("Rejected form body: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidForm})
		return
	}

	review, err := h.reviews.Create(form.Get("ReviewBody"), form.Get("Location"))
	switch {
	case errors.Is(err, reviews.ErrMissingFields):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingFields})
		return
	case errors.Is(err, reviews.ErrInvalidLocation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidLocation})
		return
	case err != nil:
		logrus.Errorf("Create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// readForm decodes the url-encoded body. Clients that omit Content-Type still
// send form data, which ParseForm would silently ignore.
func readForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if r.Header.Get("Content-Type") != "" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(body))
}

// Health reports liveness and the current store size
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"reviews":   h.reviews.Count(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	w.Write(data)
}
