package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/infra/metrics"
	red "nabidh-access-engine/internal/infra/redis"
)

// apiResponse is the envelope the UI expects: a success flag, a localized
// message on failure, and the payload on success.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type recordDTO struct {
	Code        string     `json:"code"`
	OwnerName   string     `json:"ownerName"`
	PlanType    string     `json:"type"`
	Status      string     `json:"status"`
	IsUsed      bool       `json:"isUsed"`
	GeneratedAt time.Time  `json:"generatedAt"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	LastLogin   *time.Time `json:"lastLogin"`
}

type auditEntryDTO struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	Action     string    `json:"action"`
	TargetCode *string   `json:"targetCode"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toAuditEntryDTO(e *model.AuditLogEntry) auditEntryDTO {
	return auditEntryDTO{
		ID:         e.ID,
		AdminID:    e.AdminID,
		Action:     string(e.Action),
		TargetCode: e.TargetCode,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}

func toRecordDTO(rec *model.AccessRecord) recordDTO {
	return recordDTO{
		Code:        rec.Code,
		OwnerName:   rec.OwnerName,
		PlanType:    string(rec.PlanType),
		Status:      string(rec.Status),
		IsUsed:      rec.IsUsed,
		GeneratedAt: rec.GeneratedAt,
		ExpiryDate:  rec.ExpiryDate,
		LastLogin:   rec.LastLogin,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// messageKey maps a denial onto its localized message key.
func messageKey(err error) string {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, domain.ErrAccountBanned):
		return "account_banned"
	case errors.Is(err, domain.ErrSubscriptionExpired):
		return "subscription_expired"
	case errors.Is(err, domain.ErrAccountFrozen):
		return "account_frozen"
	default:
		return "store_unavailable"
	}
}

// ---- public routes ----

type verifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.allowAttempt(r, req.Code) {
		writeJSON(w, http.StatusTooManyRequests, apiResponse{Success: false, Message: s.tr.T("rate_limited")})
		return
	}

	rec, err := s.activationUC.VerifyAndActivate(r.Context(), req.Code)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, domain.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, apiResponse{Success: false, Message: s.tr.T(messageKey(err))})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toRecordDTO(rec)})
}

type analyzeRequest struct {
	Code   string `json:"code"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.allowAttempt(r, req.Code) {
		writeJSON(w, http.StatusTooManyRequests, apiResponse{Success: false, Message: s.tr.T("rate_limited")})
		return
	}

	res, err := s.analysisUC.Analyze(r.Context(), req.Code, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound),
			errors.Is(err, domain.ErrAccountBanned),
			errors.Is(err, domain.ErrSubscriptionExpired),
			errors.Is(err, domain.ErrAccountFrozen):
			writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: s.tr.T(messageKey(err))})
		default:
			writeJSON(w, http.StatusBadGateway, apiResponse{Success: false, Message: s.tr.T("analysis_failed")})
		}
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: res})
}

// allowAttempt rate-limits by code so a single leaked prefix cannot be
// brute-forced. A limiter outage fails open: availability over throttling.
func (s *Server) allowAttempt(r *http.Request, code string) bool {
	if s.limiter == nil {
		return true
	}
	key := red.VerifyAttemptKey(model.NormalizeCode(code))
	ok, err := s.limiter.Allow(r.Context(), key, s.verifyLimit, time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

// ---- admin auth ----

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.auth.CheckCredentials(req.Username, req.Password) {
		metrics.IncAdminCommand("login", "denied")
		writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "invalid credentials"})
		return
	}
	token, err := s.auth.Mint(w, req.Username)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	metrics.IncAdminCommand("login", "ok")
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]string{"token": token}})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// ---- admin routes ----

type generateRequest struct {
	OwnerName string `json:"ownerName"`
	PlanType  string `json:"planType"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	rec, err := s.genUC.Generate(r.Context(), adminID(r), req.OwnerName, model.PlanType(req.PlanType))
	if err != nil {
		metrics.IncAdminCommand("generate", "error")
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrGenerationExhausted):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to generate code", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncAdminCommand("generate", "ok")
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Data: map[string]string{"code": rec.Code}})
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	recs, err := s.adminUC.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list records", http.StatusInternalServerError)
		return
	}
	out := make([]recordDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: out})
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	s.adminMutation(w, r, "ban", s.adminUC.Ban)
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	s.adminMutation(w, r, "unban", s.adminUC.Unban)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	s.adminMutation(w, r, "renew", s.adminUC.Renew)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.adminMutation(w, r, "delete", s.adminUC.Delete)
}

func (s *Server) adminMutation(w http.ResponseWriter, r *http.Request, command string, fn func(ctx context.Context, adminID, code string) error) {
	code := chi.URLParam(r, "code")
	err := fn(r.Context(), adminID(r), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound):
			metrics.IncAdminCommand(command, "error")
			writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "code not found"})
		case errors.Is(err, domain.ErrAccountBanned):
			// renew on a banned record: admin must unban first
			metrics.IncAdminCommand(command, "denied")
			writeJSON(w, http.StatusConflict, apiResponse{Success: false, Message: "record is banned; unban first"})
		default:
			metrics.IncAdminCommand(command, "error")
			http.Error(w, "Mutation failed", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncAdminCommand(command, "ok")
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	entries, err := s.adminUC.AuditLog(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list audit log", http.StatusInternalServerError)
		return
	}
	out := make([]auditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: out})
}
