package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liamcoop/wardline/ads"
	"github.com/liamcoop/wardline/auth"
	"github.com/liamcoop/wardline/generator"
	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requestflow"
	"github.com/liamcoop/wardline/requests"
	"github.com/liamcoop/wardline/wards"
)

const (
	missingKeyMessage = "Missing GEMINI_API_KEY"
	stateCookieName   = "oauth_state"
)

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:              "healthy",
		Store:               s.cfg.StoreBackend,
		OpenFlows:           s.flows.Len(),
		GeneratorConfigured: s.generator.Configured(),
		GoogleAuth:          s.auth != nil,
		TriageRules:         s.triage.RuleNames(),
	}

	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := logger.Snapshot()
	metrics["openFlows"] = int64(s.flows.Len())
	respondJSON(w, http.StatusOK, metrics)
}

// Free-form prompt handler
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	text, err := s.generator.Generate(r.Context(), req.Prompt)
	if errors.Is(err, generator.ErrMissingAPIKey) {
		respondError(w, http.StatusInternalServerError, missingKeyMessage, nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{Text: text})
}

// Request letter handler
func (s *Server) handleGenerateRequest(w http.ResponseWriter, r *http.Request) {
	var req GenerateLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, GenerateLetterResponse{Error: "invalid request body"})
		return
	}

	text, err := s.generator.GenerateRequestLetter(r.Context(), generator.Letter{
		Type:        req.Type,
		Description: req.Description,
		Location:    req.Location,
	})
	if errors.Is(err, generator.ErrMissingAPIKey) {
		respondJSON(w, http.StatusInternalServerError, GenerateLetterResponse{Error: missingKeyMessage})
		return
	}
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, GenerateLetterResponse{Error: "Failed to generate request text"})
		return
	}

	respondJSON(w, http.StatusOK, GenerateLetterResponse{GeneratedText: text, Success: true})
}

// Ward search handler. An empty query lists every ward.
func (s *Server) handleSearchWards(w http.ResponseWriter, r *http.Request) {
	found := s.wards.Search(r.Context(), r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, WardsListResponse{Wards: found, Count: len(found)})
}

func (s *Server) handleGetWard(w http.ResponseWriter, r *http.Request) {
	wardID, err := wardIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "wardId must be a number", err)
		return
	}

	ward, err := s.wards.GetByID(r.Context(), wardID)
	if err != nil {
		respondError(w, http.StatusNotFound, "ward not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, ward)
}

func (s *Server) handleListWardRequests(w http.ResponseWriter, r *http.Request) {
	wardID, err := wardIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "wardId must be a number", err)
		return
	}

	if _, err := s.wards.GetByID(r.Context(), wardID); err != nil {
		respondError(w, http.StatusNotFound, "ward not found", nil)
		return
	}

	list, err := requests.ListByWard(r.Context(), s.store, wardID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests", err)
		return
	}

	respondJSON(w, http.StatusOK, RequestsListResponse{Requests: list, Count: len(list)})
}

// Advertisement handler: ?type= filters by category, otherwise ?count= random picks
func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if t := query.Get("type"); t != "" {
		adType := ads.Type(t)
		if !adType.Valid() {
			respondError(w, http.StatusBadRequest, "type must be one of lawn-care, child-care, plumbing", nil)
			return
		}
		respondJSON(w, http.StatusOK, AdsListResponse{Ads: s.ads.ByType(r.Context(), adType)})
		return
	}

	count := 0
	if c := query.Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			respondError(w, http.StatusBadRequest, "count must be a number", err)
			return
		}
		count = n
	}

	respondJSON(w, http.StatusOK, AdsListResponse{Ads: s.ads.Random(r.Context(), count)})
}

func (s *Server) handleListTriageRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TriageRulesResponse{Rules: s.triage.RuleNames()})
}

// Recompile triage rules without a restart; the old rules stay active on failure
func (s *Server) handleReloadTriageRules(w http.ResponseWriter, r *http.Request) {
	if err := s.triage.Reload(); err != nil {
		respondError(w, http.StatusBadRequest, "failed to reload triage rules", err)
		return
	}
	respondJSON(w, http.StatusOK, TriageRulesResponse{Rules: s.triage.RuleNames()})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests", err)
		return
	}

	respondJSON(w, http.StatusOK, RequestsListResponse{Requests: list, Count: len(list)})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.Get(r.Context(), chi.URLParam(r, "requestId"))
	if errors.Is(err, requests.ErrNotFound) {
		respondError(w, http.StatusNotFound, "request not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get request", err)
		return
	}

	respondJSON(w, http.StatusOK, req)
}

// One-shot submission: form fields and optional letter text in a single call
func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	f := requestflow.NewFlow(uuid.NewString(), body.WardID, s.deps)
	if err := f.SetForm(requestflow.Form{
		Type:        body.Type,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
	}); err != nil {
		respondFlowError(w, err)
		return
	}
	if err := f.UseGeneratedText(body.GeneratedText); err != nil {
		respondFlowError(w, err)
		return
	}

	req, err := f.Submit(r.Context())
	if err != nil {
		respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	wardID, err := wardIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "wardId must be a number", err)
		return
	}

	f, err := s.flows.Create(r.Context(), wardID)
	if err != nil {
		respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newFlowResponse(f))
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flowParam(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newFlowResponse(f))
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.flows.Delete(chi.URLParam(r, "flowId")); err != nil {
		respondFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateFlowForm(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flowParam(w, r)
	if !ok {
		return
	}

	var form requestflow.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := f.SetForm(form); err != nil {
		respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newFlowResponse(f))
}

func (s *Server) handleFlowGenerate(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flowParam(w, r)
	if !ok {
		return
	}

	if _, err := f.Generate(r.Context()); err != nil {
		respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newFlowResponse(f))
}

func (s *Server) handleFlowSubmit(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flowParam(w, r)
	if !ok {
		return
	}

	if _, err := f.Submit(r.Context()); err != nil {
		respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newFlowResponse(f))
}

func (s *Server) handleFlowReset(w http.ResponseWriter, r *http.Request) {
	f, ok := s.flowParam(w, r)
	if !ok {
		return
	}

	f.Reset()
	respondJSON(w, http.StatusOK, newFlowResponse(f))
}

// Google sign-in: redirect to the consent page with a state cookie
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		respondError(w, http.StatusServiceUnavailable, "Google sign-in is not configured", nil)
		return
	}

	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		respondError(w, http.StatusServiceUnavailable, "Google sign-in is not configured", nil)
		return
	}

	query := r.URL.Query()
	if code := query.Get("error"); code != "" {
		respondSignInError(w, auth.CallbackError(code, query.Get("error_description")))
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		respondSignInError(w, &auth.SignInError{Code: auth.CodeInvalidState, Message: "sign-in state did not match"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth/google", MaxAge: -1})

	signIn, err := s.auth.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		var signInErr *auth.SignInError
		if errors.As(err, &signInErr) {
			respondSignInError(w, signInErr)
			return
		}
		respondError(w, http.StatusInternalServerError, "sign-in failed", err)
		return
	}

	respondJSON(w, http.StatusOK, signIn)
}

func (s *Server) flowParam(w http.ResponseWriter, r *http.Request) (*requestflow.Flow, bool) {
	f, err := s.flows.Get(chi.URLParam(r, "flowId"))
	if err != nil {
		respondFlowError(w, err)
		return nil, false
	}
	return f, true
}

func wardIDParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "wardId"))
}

// respondFlowError maps flow, store and generator errors to status codes
func respondFlowError(w http.ResponseWriter, err error) {
	var validationErr *requestflow.ValidationError
	var vendorErr *generator.VendorError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  validationErr.Message,
			Fields: validationErr.Fields,
		})
	case errors.Is(err, requestflow.ErrBusy), errors.Is(err, requestflow.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, requestflow.ErrFlowNotFound):
		respondError(w, http.StatusNotFound, "flow not found", nil)
	case errors.Is(err, wards.ErrNotFound):
		respondError(w, http.StatusNotFound, "ward not found", nil)
	case errors.Is(err, generator.ErrMissingAPIKey):
		respondError(w, http.StatusInternalServerError, missingKeyMessage, nil)
	case errors.As(err, &vendorErr):
		respondError(w, http.StatusBadGateway, "Failed to generate request text", err)
	default:
		respondError(w, http.StatusInternalServerError, "failed to submit request", err)
	}
}

func respondSignInError(w http.ResponseWriter, e *auth.SignInError) {
	logger.Warn("Google sign-in rejected", "code", e.Code, "email", e.Email)
	respondJSON(w, http.StatusUnauthorized, SignInErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Email: e.Email,
	})
}
