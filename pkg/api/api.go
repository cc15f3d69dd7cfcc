package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/models"
	"moderation/pkg/moderation"
	"moderation/pkg/stream"
)

// Moderator is implemented by *service.Service.
type Moderator interface {
	Moderate(ctx context.Context, r models.Review) (models.VerdictEvent, error)
	CleanText(text string) string
	MaxTextLength() int
}

const (
	// defaultMaxBodyBytes caps request bodies when the text length is unlimited.
	defaultMaxBodyBytes = 1 << 20
	// JSON may spend up to 12 bytes on one character ("\ud83d\ude00").
	maxBytesPerChar  = 12
	bodyOverheadSize = 64 << 10
)

type API struct {
	ServiceName string

	r         *mux.Router
	svc       Moderator
	publisher stream.VerdictPublisher
	logWriter stream.MessageWriter
}

// New builds the router. publisher and logWriter are optional: without a
// publisher verdicts are only returned to the caller, without a logWriter
// request logs are not shipped to Kafka.
func New(name string, svc Moderator, publisher stream.VerdictPublisher, logWriter stream.MessageWriter) (*API, error) {
	if svc == nil {
		return nil, errors.New("moderator is required")
	}

	api := API{
		ServiceName: name,
		r:           mux.NewRouter(),
		svc:         svc,
		publisher:   publisher,
		logWriter:   logWriter,
	}
	api.endpoints()

	return &api, nil
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	api.r.HandleFunc("/reviews/moderate", api.moderateReview).Methods(http.MethodPost)
	api.r.HandleFunc("/check", api.checkReview).Methods(http.MethodPost)
	api.r.HandleFunc("/text/clean", api.cleanText).Methods(http.MethodPost)
	api.r.HandleFunc("/health", api.health).Methods(http.MethodGet)
	api.r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if api.logWriter != nil {
		api.r.Use(api.loggingMiddleware(api.logWriter))
	}
}

// moderateReview returns the verdict for a review.
func (api *API) moderateReview(w http.ResponseWriter, r *http.Request) {
	event, ok := api.moderate(w, r, "moderateReview")
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ModerationResponse{ReviewID: event.ReviewID, Verdict: event.Verdict})
}

// checkReview answers 200 for approved reviews and 422 for everything else.
func (api *API) checkReview(w http.ResponseWriter, r *http.Request) {
	event, ok := api.moderate(w, r, "checkReview")
	if !ok {
		return
	}

	status := http.StatusOK
	if !event.Verdict.IsApproved {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, event.Verdict)
}

// moderate decodes and moderates the request body, publishing the verdict
// when a publisher is configured. It writes the error response itself and
// reports whether the caller should continue.
func (api *API) moderate(w http.ResponseWriter, r *http.Request, handler string) (models.VerdictEvent, bool) {
	sID := shorten(GetRequestID(r.Context()))

	var review models.Review
	if !api.decode(w, r, &review, handler) {
		return models.VerdictEvent{}, false
	}

	event, err := api.svc.Moderate(r.Context(), review)
	if err != nil {
		status := errorStatus(err)
		http.Error(w, http.StatusText(status), status)
		if status >= http.StatusInternalServerError {
			log.Errorf("[%s][%s] failed to moderate review: %v", handler, sID, err)
		} else {
			log.Warnf("[%s][%s] invalid review: %v", handler, sID, err)
		}
		return models.VerdictEvent{}, false
	}

	if api.publisher != nil {
		if err := api.publisher.Publish(r.Context(), event); err != nil {
			log.Errorf("[%s][%s] failed to publish verdict for review %s: %v", handler, sID, event.ReviewID, err)
		}
	}

	log.Debugf("[%s][%s] review %s score:%d approved:%v", handler, sID, event.ReviewID, event.Verdict.Score, event.Verdict.IsApproved)
	return event, true
}

// decode reads a JSON body of at most maxBodyBytes into v. It writes the
// error response itself and reports whether decoding succeeded.
func (api *API) decode(w http.ResponseWriter, r *http.Request, v any, handler string) bool {
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, api.maxBodyBytes())).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		log.Warnf("[%s][%s] request body exceeds %d bytes", handler, shorten(GetRequestID(r.Context())), tooLarge.Limit)
		return false
	}

	http.Error(w, err.Error(), http.StatusBadRequest)
	log.Errorf("[%s][%s] failed to decode request body: %v", handler, shorten(GetRequestID(r.Context())), err)
	return false
}

// maxBodyBytes is large enough for any text the service would accept.
func (api *API) maxBodyBytes() int64 {
	n := api.svc.MaxTextLength()
	if n <= 0 {
		return defaultMaxBodyBytes
	}
	return int64(n)*maxBytesPerChar + bodyOverheadSize
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrTextMissing), errors.Is(err, models.ErrRatingOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, moderation.ErrSentiment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (api *API) cleanText(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req CleanTextRequest
	if !api.decode(w, r, &req, "cleanText") {
		return
	}

	if req.Text == nil {
		http.Error(w, models.ErrTextMissing.Error(), http.StatusBadRequest)
		log.Warnf("[cleanText][%s] request without text", sID)
		return
	}

	writeJSON(w, http.StatusOK, CleanTextResponse{Text: api.svc.CleanText(*req.Text)})
}

func (api *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("[writeJSON] failed to encode response: %v", err)
	}
}

func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
