// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/observability"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

type Handlers struct {
	Reviews  *app.ReviewService
	Curation *app.CurationService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// reviewsEnvelope is the response contract the dashboard consumes.
type reviewsEnvelope struct {
	Status         string                    `json:"status"`
	Result         []domain.NormalizedReview `json:"result"`
	FailedChannels []string                  `json:"failed_channels,omitempty"`
	Dropped        int                       `json:"dropped,omitempty"`
	Summary        *domain.Summary           `json:"summary,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/reviews/hostaway", h.listHostaway)
	s.mux.Get("/api/reviews/selected", h.listSelected)
	s.mux.Get("/api/reviews/google", h.listGoogle)
	s.mux.Post("/api/reviews/approve", h.approve)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeServiceErr maps domain errors onto HTTP statuses.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter):
		writeProblem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
	case errors.Is(err, domain.ErrChannelUnavailable):
		writeProblem(w, http.StatusBadGateway, "Channel Unavailable", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

/********** query param parsing **********/

func parseSource(q string) (domain.Source, error) {
	switch strings.ToLower(strings.TrimSpace(q)) {
	case "":
		return "", nil // service default
	case "auto":
		return domain.SourceAuto, nil
	case "mock":
		return domain.SourceMock, nil
	case "live":
		return domain.SourceLive, nil
	default:
		return "", domain.ErrInvalidFilter
	}
}

func parseOptBool(q string) (*bool, error) {
	if q == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(q)
	if err != nil {
		return nil, domain.ErrInvalidFilter
	}
	return &b, nil
}

func parseOptFloat(q string) (*float64, error) {
	if q == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(q, 64)
	if err != nil {
		return nil, domain.ErrInvalidFilter
	}
	return &f, nil
}

func parseOptDate(q string) (*time.Time, error) {
	if q == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, q); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", q, time.UTC); err == nil {
		return &t, nil
	}
	return nil, domain.ErrInvalidFilter
}

func optStr(q string) *string {
	if q == "" {
		return nil
	}
	return &q
}

func reviewsQueryFromRequest(r *http.Request) (domain.ReviewsQuery, error) {
	qp := r.URL.Query()

	src, err := parseSource(qp.Get("source"))
	if err != nil {
		return domain.ReviewsQuery{}, err
	}
	minRating, err := parseOptFloat(qp.Get("minRating"))
	if err != nil {
		return domain.ReviewsQuery{}, err
	}
	approved, err := parseOptBool(qp.Get("approved"))
	if err != nil {
		return domain.ReviewsQuery{}, err
	}
	start, err := parseOptDate(qp.Get("startDate"))
	if err != nil {
		return domain.ReviewsQuery{}, err
	}
	end, err := parseOptDate(qp.Get("endDate"))
	if err != nil {
		return domain.ReviewsQuery{}, err
	}

	return domain.ReviewsQuery{
		Source:    src,
		ListingID: optStr(qp.Get("listingId")),
		Type:      optStr(qp.Get("type")),
		Status:    optStr(qp.Get("status")),
		MinRating: minRating,
		Approved:  approved,
		Start:     start,
		End:       end,
	}, nil
}

/********** handlers **********/

func (h *Handlers) listHostaway(w http.ResponseWriter, r *http.Request) {
	q, err := reviewsQueryFromRequest(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Filter", "malformed query parameter")
		return
	}

	res, err := h.Reviews.Reviews(r.Context(), q)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	sum := app.Summarize(res.Items)
	if res.Items == nil {
		res.Items = []domain.NormalizedReview{}
	}
	writeJSONWithETag(w, r, reviewsEnvelope{
		Status:         "success",
		Result:         res.Items,
		FailedChannels: res.FailedChannels,
		Dropped:        res.Dropped,
		Summary:        &sum,
	})
}

func (h *Handlers) listSelected(w http.ResponseWriter, r *http.Request) {
	src, err := parseSource(r.URL.Query().Get("source"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Filter", "source must be auto, mock or live")
		return
	}

	items, err := h.Reviews.Selected(r.Context(), r.URL.Query().Get("listingId"), src)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	if items == nil {
		items = []domain.NormalizedReview{}
	}
	writeJSONWithETag(w, r, reviewsEnvelope{Status: "success", Result: items})
}

func (h *Handlers) listGoogle(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	items, err := h.Reviews.GoogleReviews(r.Context(), qp.Get("query"), qp.Get("placeId"), qp.Get("listingId"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	if items == nil {
		items = []domain.NormalizedReview{}
	}
	writeJSONWithETag(w, r, reviewsEnvelope{Status: "success", Result: items})
}

type approveRequest struct {
	ReviewID  string  `json:"review_id"`
	Approved  bool    `json:"approved"`
	Channel   string  `json:"channel"`
	ListingID *string `json:"listing_id"`
}

func (h *Handlers) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}

	ch := domain.Channel(req.Channel)
	if ch == "" {
		ch = domain.ChannelHostaway
	}
	err := h.Curation.Approve(r.Context(), domain.CurationDecision{
		ReviewID:  req.ReviewID,
		Approved:  req.Approved,
		Channel:   ch,
		ListingID: req.ListingID,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	observability.ObserveApproval(string(ch), req.Approved)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "success"}); err != nil {
		log.Error().Err(err).Msg("write approve response failed")
	}
}
