package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HoganMacAdam/trust-vault-stars/internal/cipher"
	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
	"github.com/HoganMacAdam/trust-vault-stars/internal/ledger"
)

const maxRequestBody = 1 << 20 // 1 MiB

// callerHeader carries the authenticated address of the requester. Wallet
// signature verification happens upstream of this service.
const callerHeader = "X-Address"

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ratingSubmitRequest struct {
	Score int64 `json:"score"`
}

type ratingResponse struct {
	RatingID  int64     `json:"ratingId"`
	Subject   string    `json:"subject"`
	Rater     string    `json:"rater"`
	CreatedAt time.Time `json:"createdAt"`
}

type ratingListResponse struct {
	Items []ratingResponse `json:"items"`
}

type decryptedAggregate struct {
	Total   int64   `json:"total"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

type aggregateResponse struct {
	Subject      string              `json:"subject"`
	TotalHandle  *string             `json:"totalHandle,omitempty"`
	CountHandle  *string             `json:"countHandle,omitempty"`
	VisibleCount int64               `json:"visibleCount"`
	Decrypted    *decryptedAggregate `json:"decrypted,omitempty"`
}

type authorizeViewerRequest struct {
	Viewer string `json:"viewer"`
}

type authorizationResponse struct {
	Subject    string `json:"subject"`
	Viewer     string `json:"viewer"`
	Authorized bool   `json:"authorized"`
}

type eventResponse struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	Actor      string    `json:"actor"`
	RatingID   *int64    `json:"ratingId,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

type eventListResponse struct {
	Items []eventResponse `json:"items"`
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}

	rater, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := ledger.ValidateScore(req.Score); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "SCORE_OUT_OF_RANGE",
			fmt.Sprintf("score must be an integer between %d and %d", ledger.MinScore, ledger.MaxScore))
		return
	}

	// The plaintext stops here: range-checked, then encrypted to the rater
	// before the ledger ever sees it.
	scoreHandle, err := s.vault.Encrypt(r.Context(), req.Score, rater)
	if err != nil {
		s.logger.Printf("encrypt score failed: %v", err)
		s.respondError(w, http.StatusBadGateway, "CIPHER_ERROR", "Encryption capability unavailable")
		return
	}

	rating, err := s.svc.SubmitRating(r.Context(), rater, subject, scoreHandle)
	if err != nil {
		s.respondLedgerError(w, err, "submit rating")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/ratings/%d", rating.ID))
	s.respondJSON(w, http.StatusCreated, toRatingResponse(rating))
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}

	ratings, err := s.svc.ListRatings(r.Context(), subject)
	if err != nil {
		s.logger.Printf("list ratings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings")
		return
	}

	items := make([]ratingResponse, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toRatingResponse(rating))
	}
	s.respondJSON(w, http.StatusOK, ratingListResponse{Items: items})
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid rating id")
		return
	}

	rating, err := s.svc.GetRating(r.Context(), id)
	if err != nil {
		s.respondLedgerError(w, err, "get rating")
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

func (s *Server) handleGetAggregate(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}

	agg, err := s.svc.GetAggregate(r.Context(), subject)
	if err != nil {
		s.logger.Printf("get aggregate error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch aggregate")
		return
	}

	resp := toAggregateResponse(agg)

	if parseBoolParam(r.URL.Query().Get("decrypt")) {
		requester, ok := s.caller(w, r)
		if !ok {
			return
		}
		total, count, err := s.svc.DecryptAggregate(r.Context(), subject, requester)
		if err != nil {
			s.respondLedgerError(w, err, "decrypt aggregate")
			return
		}
		resp.Decrypted = &decryptedAggregate{
			Total:   total,
			Count:   count,
			Average: float64(total) / float64(count),
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthorizeViewer(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req authorizeViewerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	viewer, err := domain.ParseAddress(req.Viewer)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_VIEWER", "viewer must be a valid non-null address")
		return
	}

	if err := s.svc.AuthorizeViewer(r.Context(), caller, subject, viewer); err != nil {
		s.respondLedgerError(w, err, "authorize viewer")
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRevokeViewer(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}
	viewer, err := decodeAddressParam(r, "viewer")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_VIEWER", "viewer must be a valid non-null address")
		return
	}

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	if err := s.svc.RevokeViewer(r.Context(), caller, subject, viewer); err != nil {
		s.respondLedgerError(w, err, "revoke viewer")
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleIsAuthorized(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}
	viewer, err := decodeAddressParam(r, "viewer")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_VIEWER", "viewer must be a valid non-null address")
		return
	}

	authorized, err := s.svc.IsAuthorized(r.Context(), subject, viewer)
	if err != nil {
		s.logger.Printf("is authorized error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check authorization")
		return
	}

	s.respondJSON(w, http.StatusOK, authorizationResponse{
		Subject:    subject.String(),
		Viewer:     viewer.String(),
		Authorized: authorized,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	subject, err := decodeAddressParam(r, "subject")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
		return
	}

	events, err := s.svc.ListEvents(r.Context(), subject)
	if err != nil {
		s.logger.Printf("list events error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list events")
		return
	}

	items := make([]eventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, eventResponse{
			ID:         event.ID,
			Type:       event.Type,
			Subject:    event.Subject.String(),
			Actor:      event.Actor.String(),
			RatingID:   event.RatingID,
			RecordedAt: event.RecordedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, eventListResponse{Items: items})
}

// caller extracts the authenticated address from the request header,
// responding 401 when it is missing or null.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(r.Header.Get(callerHeader))
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return domain.ZeroAddress, false
	}
	return addr, true
}

func (s *Server) respondLedgerError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidSubject):
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_SUBJECT", "subject must be a valid non-null address")
	case errors.Is(err, ledger.ErrSelfRating):
		s.respondError(w, http.StatusUnprocessableEntity, "SELF_RATING_REJECTED", "a subject cannot rate themselves")
	case errors.Is(err, ledger.ErrScoreOutOfRange):
		s.respondError(w, http.StatusUnprocessableEntity, "SCORE_OUT_OF_RANGE", "score must be between 1 and 5")
	case errors.Is(err, ledger.ErrInvalidViewer):
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_VIEWER", "viewer must be a valid non-null address")
	case errors.Is(err, ledger.ErrSelfAuthorization):
		s.respondError(w, http.StatusUnprocessableEntity, "SELF_AUTHORIZATION_REJECTED", "a subject is always authorized for themselves")
	case errors.Is(err, ledger.ErrNoAggregateYet):
		s.respondError(w, http.StatusConflict, "NO_AGGREGATE_YET", "the subject has no ratings yet")
	case errors.Is(err, ledger.ErrAlreadyAuthorized):
		s.respondError(w, http.StatusConflict, "ALREADY_AUTHORIZED", "the viewer is already authorized")
	case errors.Is(err, ledger.ErrNotAuthorized):
		s.respondError(w, http.StatusForbidden, "NOT_AUTHORIZED", "the viewer is not authorized")
	case errors.Is(err, ledger.ErrCallerNotSubject):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "only the subject may manage their viewers")
	case errors.Is(err, ledger.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, cipher.ErrPermissionDenied):
		s.respondError(w, http.StatusForbidden, "PERMISSION_DENIED", "the vault refused decryption for this requester")
	default:
		s.logger.Printf("%s error: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		RatingID:  rating.ID,
		Subject:   rating.Subject.String(),
		Rater:     rating.Rater.String(),
		CreatedAt: rating.CreatedAt,
	}
}

func toAggregateResponse(agg domain.Aggregate) aggregateResponse {
	resp := aggregateResponse{
		Subject:      agg.Subject.String(),
		VisibleCount: agg.VisibleCount,
	}
	if agg.TotalHandle != nil {
		h := agg.TotalHandle.String()
		resp.TotalHandle = &h
	}
	if agg.CountHandle != nil {
		h := agg.CountHandle.String()
		resp.CountHandle = &h
	}
	return resp
}

func decodeAddressParam(r *http.Request, name string) (domain.Address, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return domain.ZeroAddress, fmt.Errorf("missing %s parameter", name)
	}
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("invalid %s parameter", name)
	}
	return domain.ParseAddress(unescaped)
}

func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}
