/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract,
  allowing field renaming without breaking clients and API-specific
  shaping (decimal -> float64 at the boundary).

ENVELOPE:
  Every response is wrapped:
    success: {"success": true,  "data": {...}}
    failure: {"success": false, "error": "message"}

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - production/types.go: Domain shapes these mirror
*/
package api

import (
	"time"

	"github.com/keystone/agency-office/agency"
	"github.com/keystone/agency-office/production"
)

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// =============================================================================
// SCOREBOARD
// =============================================================================

// ScoreboardDTO is the payload of GET /api/scoreboard.
type ScoreboardDTO struct {
	Leaderboard []LeaderboardRowDTO `json:"leaderboard"`
	Stats       StatsDTO            `json:"stats"`
	DateRange   DateRangeDTO        `json:"dateRange"`
}

// LeaderboardRowDTO is one ranked agent row.
type LeaderboardRowDTO struct {
	Rank           int                `json:"rank"`
	AgentID        string             `json:"agentId"`
	Name           string             `json:"name"`
	Total          float64            `json:"total"`
	DealCount      int                `json:"dealCount"`
	DailyBreakdown map[string]float64 `json:"dailyBreakdown"`
}

// StatsDTO aggregates the final leaderboard.
type StatsDTO struct {
	TotalProduction float64 `json:"totalProduction"`
	TotalDeals      int     `json:"totalDeals"`
	ActiveAgents    int     `json:"activeAgents"`
}

// DateRangeDTO echoes the effective reporting window.
type DateRangeDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func toScoreboardDTO(sb production.Scoreboard) ScoreboardDTO {
	rows := make([]LeaderboardRowDTO, len(sb.Leaderboard))
	for i, row := range sb.Leaderboard {
		total, _ := row.Total.Float64()
		breakdown := make(map[string]float64, len(row.DailyBreakdown))
		for day, amount := range row.DailyBreakdown {
			breakdown[day], _ = amount.Float64()
		}
		rows[i] = LeaderboardRowDTO{
			Rank:           row.Rank,
			AgentID:        row.AgentID,
			Name:           row.Name,
			Total:          total,
			DealCount:      row.DealCount,
			DailyBreakdown: breakdown,
		}
	}

	totalProduction, _ := sb.Stats.TotalProduction.Float64()
	return ScoreboardDTO{
		Leaderboard: rows,
		Stats: StatsDTO{
			TotalProduction: totalProduction,
			TotalDeals:      sb.Stats.TotalDeals,
			ActiveAgents:    sb.Stats.ActiveAgents,
		},
		DateRange: DateRangeDTO{
			StartDate: sb.Window.Start.Format("2006-01-02"),
			EndDate:   sb.Window.End.Format("2006-01-02"),
		},
	}
}

// =============================================================================
// AGENTS
// =============================================================================

// AgentDTO represents an agent in API responses.
type AgentDTO struct {
	ID        string `json:"id"`
	AgencyID  string `json:"agency_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	UplineID  string `json:"upline_id,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateAgentRequest is the request to create an agent.
type CreateAgentRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	UplineID  string `json:"upline_id"`
}

// AdvanceAgentRequest moves an agent one onboarding step forward.
type AdvanceAgentRequest struct {
	Status string `json:"status"`
}

// DownlineDTO is the response of GET /api/agents/{id}/downline.
type DownlineDTO struct {
	AgentID  string   `json:"agent_id"`
	Downline []string `json:"downline"`
}

func toAgentDTO(a agency.Agent) AgentDTO {
	return AgentDTO{
		ID:        a.ID,
		AgencyID:  a.AgencyID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		UplineID:  a.UplineID,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// DEALS
// =============================================================================

// DealDTO represents a deal in API responses.
type DealDTO struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	CarrierID     string  `json:"carrier_id"`
	PolicyNumber  string  `json:"policy_number,omitempty"`
	Product       string  `json:"product,omitempty"`
	ClientName    string  `json:"client_name,omitempty"`
	AnnualPremium float64 `json:"annual_premium"`
	BillingCycle  string  `json:"billing_cycle"`
	EffectiveDate string  `json:"effective_date"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// CreateDealRequest is the request to record a deal.
type CreateDealRequest struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	CarrierID     string  `json:"carrier_id"`
	PolicyNumber  string  `json:"policy_number"`
	Product       string  `json:"product"`
	ClientName    string  `json:"client_name"`
	AnnualPremium float64 `json:"annual_premium"`
	BillingCycle  string  `json:"billing_cycle"`
	EffectiveDate string  `json:"effective_date"`
	Status        string  `json:"status"`
}

func toDealDTO(d agency.Deal) DealDTO {
	premium, _ := d.AnnualPremium.Float64()
	return DealDTO{
		ID:            d.ID,
		AgentID:       d.AgentID,
		CarrierID:     d.CarrierID,
		PolicyNumber:  d.PolicyNumber,
		Product:       d.Product,
		ClientName:    d.ClientName,
		AnnualPremium: premium,
		BillingCycle:  d.BillingCycle,
		EffectiveDate: d.EffectiveDate.Format("2006-01-02"),
		Status:        d.Status,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// THREADS AND MESSAGES
// =============================================================================

// ThreadDTO represents an SMS conversation.
type ThreadDTO struct {
	ID          string `json:"id"`
	AgentID     string `json:"agent_id"`
	ClientName  string `json:"client_name,omitempty"`
	ClientPhone string `json:"client_phone"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// MessageDTO represents one SMS in a thread.
type MessageDTO struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Direction string `json:"direction"`
	Body      string `json:"body"`
	SentAt    string `json:"sent_at"`
}

// PostMessageRequest appends an outbound message to a thread.
type PostMessageRequest struct {
	Body string `json:"body"`
}

func toThreadDTO(t agency.Thread) ThreadDTO {
	return ThreadDTO{
		ID:          t.ID,
		AgentID:     t.AgentID,
		ClientName:  t.ClientName,
		ClientPhone: t.ClientPhone,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toMessageDTO(m agency.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Direction: string(m.Direction),
		Body:      m.Body,
		SentAt:    m.SentAt.Format(time.RFC3339),
	}
}
