/*
handlers.go - HTTP API handlers for the agency office

PURPOSE:
  Exposes the back office via REST. Handles HTTP request/response, JSON
  serialization, identity scoping, and delegates to domain logic.

ENDPOINTS:
  Scoreboard:
    GET    /api/scoreboard              Ranked production leaderboard

  Agents:
    GET    /api/agents                  Agency roster
    POST   /api/agents                  Create agent (pre_invite)
    GET    /api/agents/{id}             Agent details
    GET    /api/agents/{id}/downline    Downline agent ids
    POST   /api/agents/{id}/advance     Advance onboarding one step
    GET    /api/agents/{id}/threads     Agent's SMS conversations

  Deals:
    GET    /api/deals                   List deals (status filter, paging)
    POST   /api/deals                   Record a deal

  Threads:
    GET    /api/threads/{id}/messages   Conversation history
    POST   /api/threads/{id}/messages   Append outbound message

SCOPING:
  Every handler resolves the caller's profile first. Admins see the
  whole agency; everyone else sees self plus downline. The scoreboard
  treats the scoped roster as its id universe.

ERROR HANDLING:
  Errors are returned as {"success": false, "error": "..."} with:
  - 401: No/invalid session token
  - 404: Authenticated user has no profile row
  - 400: No agency association, invalid dates, illegal transitions
  - 500: Any store read/write failure (opaque, logged server-side)
  No partial results: a failed read aborts the whole request.

SEE ALSO:
  - dto.go: Request/response data structures
  - identity.go: Session token middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/keystone/agency-office/agency"
	"github.com/keystone/agency-office/production"
	"github.com/keystone/agency-office/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Log   *slog.Logger
	Clock production.Clock
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, log *slog.Logger) *Handler {
	return &Handler{
		Store: store,
		Log:   log,
		Clock: production.SystemClock(),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: message})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// serverError logs the real failure and surfaces a generic 500.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.Log.LogAttrs(r.Context(), slog.LevelError, op,
		slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// =============================================================================
// PROFILE RESOLUTION
// =============================================================================

// profile resolves the authenticated caller to a user row. Writes the
// appropriate error response and returns nil when resolution fails.
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) *sqlite.User {
	id := callerID(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "failed to resolve profile", err)
		return nil
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return nil
	}
	if user.AgencyID == "" {
		writeError(w, http.StatusBadRequest, "no agency association")
		return nil
	}
	return user
}

// scopedRoster returns the agents the caller may see: the whole agency
// for admins, self plus downline for everyone else. Roster order is
// preserved; it is the leaderboard tiebreak.
func (h *Handler) scopedRoster(r *http.Request, user *sqlite.User) ([]agency.Agent, error) {
	roster, err := h.Store.AgentsByAgency(r.Context(), user.AgencyID)
	if err != nil {
		return nil, err
	}
	if user.Role == sqlite.RoleAdmin {
		return roster, nil
	}
	return agency.ScopeToDownline(user.AgentID, roster), nil
}

func agentIDs(roster []agency.Agent) []string {
	ids := make([]string, len(roster))
	for i, a := range roster {
		ids[i] = a.ID
	}
	return ids
}

// =============================================================================
// SCOREBOARD
// =============================================================================

// Scoreboard computes the ranked production leaderboard for the
// caller's visible roster over the requested window (defaults to the
// current Sunday-Saturday week).
func (h *Handler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	roster, err := h.scopedRoster(r, user)
	if err != nil {
		h.serverError(w, r, "failed to load roster", err)
		return
	}

	deals, err := h.Store.DealsForProduction(r.Context(), agentIDs(roster), window.Start, window.End)
	if err != nil {
		h.serverError(w, r, "failed to load deals", err)
		return
	}

	mappings, err := h.Store.StatusMappings(r.Context(), carrierSet(deals))
	if err != nil {
		h.serverError(w, r, "failed to load status mappings", err)
		return
	}

	sb := production.BuildScoreboard(production.Input{
		Agents:   roster,
		Deals:    deals,
		Mappings: mappings,
	}, window, h.Clock)

	writeData(w, http.StatusOK, toScoreboardDTO(sb))
}

// parseWindow reads startDate/endDate query parameters (ISO
// YYYY-MM-DD). Missing parameters default to the current week.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (production.Window, bool) {
	startParam := r.URL.Query().Get("startDate")
	endParam := r.URL.Query().Get("endDate")
	if startParam == "" && endParam == "" {
		return production.WeekOf(h.Clock.Now()), true
	}

	week := production.WeekOf(h.Clock.Now())
	start, end := week.Start, week.End

	var err error
	if startParam != "" {
		start, err = time.Parse("2006-01-02", startParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid startDate (use YYYY-MM-DD)")
			return production.Window{}, false
		}
	}
	if endParam != "" {
		end, err = time.Parse("2006-01-02", endParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid endDate (use YYYY-MM-DD)")
			return production.Window{}, false
		}
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "endDate precedes startDate")
		return production.Window{}, false
	}
	return production.NewWindow(start, end), true
}

func carrierSet(deals []agency.Deal) []string {
	seen := make(map[string]bool, len(deals))
	var ids []string
	for _, d := range deals {
		if d.CarrierID == "" || seen[d.CarrierID] {
			continue
		}
		seen[d.CarrierID] = true
		ids = append(ids, d.CarrierID)
	}
	return ids
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns the caller's visible roster.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	roster, err := h.scopedRoster(r, user)
	if err != nil {
		h.serverError(w, r, "failed to list agents", err)
		return
	}

	dtos := make([]AgentDTO, len(roster))
	for i, a := range roster {
		dtos[i] = toAgentDTO(a)
	}
	writeData(w, http.StatusOK, dtos)
}

// CreateAgent adds a pre_invite agent to the caller's agency.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		writeError(w, http.StatusBadRequest, "agent name is required")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	a := agency.Agent{
		ID:        req.ID,
		AgencyID:  user.AgencyID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		UplineID:  req.UplineID,
		Status:    agency.StatusPreInvite,
	}
	if err := h.Store.SaveAgent(r.Context(), a); err != nil {
		h.serverError(w, r, "failed to create agent", err)
		return
	}

	saved, err := h.Store.GetAgent(r.Context(), a.ID)
	if err != nil || saved == nil {
		h.serverError(w, r, "failed to reload agent", err)
		return
	}
	writeData(w, http.StatusCreated, toAgentDTO(*saved))
}

// GetAgent returns a single agent.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	a, err := h.Store.GetAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, r, "failed to get agent", err)
		return
	}
	if a == nil || a.AgencyID != user.AgencyID {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeData(w, http.StatusOK, toAgentDTO(*a))
}

// GetDownline returns the ids of every agent beneath the given agent.
func (h *Handler) GetDownline(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	id := chi.URLParam(r, "id")
	roster, err := h.Store.AgentsByAgency(r.Context(), user.AgencyID)
	if err != nil {
		h.serverError(w, r, "failed to load roster", err)
		return
	}

	writeData(w, http.StatusOK, DownlineDTO{
		AgentID:  id,
		Downline: agency.DownlineOf(id, roster),
	})
}

// AdvanceAgent moves an agent one onboarding step forward.
func (h *Handler) AdvanceAgent(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	a, err := h.Store.GetAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, r, "failed to get agent", err)
		return
	}
	if a == nil || a.AgencyID != user.AgencyID {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var req AdvanceAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := agency.OnboardingStatus(req.Status)
	if req.Status == "" {
		target = a.Status.Next()
	}

	next, err := a.Status.Advance(target)
	if err != nil {
		var terr *agency.TransitionError
		if errors.As(err, &terr) {
			writeError(w, http.StatusBadRequest, terr.Error())
			return
		}
		h.serverError(w, r, "failed to advance agent", err)
		return
	}

	if err := h.Store.UpdateAgentStatus(r.Context(), a.ID, next); err != nil {
		h.serverError(w, r, "failed to persist agent status", err)
		return
	}

	a.Status = next
	writeData(w, http.StatusOK, toAgentDTO(*a))
}

// =============================================================================
// DEAL HANDLERS
// =============================================================================

// ListDeals returns the caller's visible deals, optionally filtered by
// raw status and paged with limit/offset.
func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	roster, err := h.scopedRoster(r, user)
	if err != nil {
		h.serverError(w, r, "failed to load roster", err)
		return
	}

	filter := sqlite.DealFilter{
		AgentIDs: agentIDs(roster),
		Status:   r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	deals, err := h.Store.ListDeals(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "failed to list deals", err)
		return
	}

	dtos := make([]DealDTO, len(deals))
	for i, d := range deals {
		dtos[i] = toDealDTO(d)
	}
	writeData(w, http.StatusOK, dtos)
}

// CreateDeal records a policy sale.
func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	var req CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid effective_date (use YYYY-MM-DD)")
		return
	}
	if req.AnnualPremium < 0 {
		writeError(w, http.StatusBadRequest, "annual_premium must be non-negative")
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	d := agency.Deal{
		ID:            req.ID,
		AgentID:       req.AgentID,
		CarrierID:     req.CarrierID,
		PolicyNumber:  req.PolicyNumber,
		Product:       req.Product,
		ClientName:    req.ClientName,
		AnnualPremium: decimal.NewFromFloat(req.AnnualPremium),
		BillingCycle:  req.BillingCycle,
		EffectiveDate: effective,
		Status:        req.Status,
	}
	if err := h.Store.SaveDeal(r.Context(), d); err != nil {
		h.serverError(w, r, "failed to save deal", err)
		return
	}
	writeData(w, http.StatusCreated, toDealDTO(d))
}

// =============================================================================
// THREAD HANDLERS
// =============================================================================

// ListThreads returns an agent's SMS conversations.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	threads, err := h.Store.ThreadsByAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, r, "failed to list threads", err)
		return
	}

	dtos := make([]ThreadDTO, len(threads))
	for i, t := range threads {
		dtos[i] = toThreadDTO(t)
	}
	writeData(w, http.StatusOK, dtos)
}

// GetMessages returns a conversation's history in send order.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	threadID := chi.URLParam(r, "id")
	thread, err := h.Store.GetThread(r.Context(), threadID)
	if err != nil {
		h.serverError(w, r, "failed to get thread", err)
		return
	}
	if thread == nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	messages, err := h.Store.MessagesByThread(r.Context(), threadID)
	if err != nil {
		h.serverError(w, r, "failed to list messages", err)
		return
	}

	dtos := make([]MessageDTO, len(messages))
	for i, m := range messages {
		dtos[i] = toMessageDTO(m)
	}
	writeData(w, http.StatusOK, dtos)
}

// PostMessage appends an outbound message to a thread. Delivery is an
// external gateway concern; this records the conversation history.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := h.profile(w, r)
	if user == nil {
		return
	}

	threadID := chi.URLParam(r, "id")
	thread, err := h.Store.GetThread(r.Context(), threadID)
	if err != nil {
		h.serverError(w, r, "failed to get thread", err)
		return
	}
	if thread == nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "message body is required")
		return
	}

	m := agency.Message{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Direction: agency.DirectionOutbound,
		Body:      req.Body,
		SentAt:    h.Clock.Now(),
	}
	if err := h.Store.SaveMessage(r.Context(), m); err != nil {
		h.serverError(w, r, "failed to save message", err)
		return
	}
	writeData(w, http.StatusCreated, toMessageDTO(m))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
