/*
seed.go - Demo data loader

PURPOSE:
  Populates the store with a small, deterministic demo agency so the
  frontend and manual API exploration have something to show. Dev-only;
  the endpoint is idempotent (INSERT OR REPLACE throughout the store).

DEMO SHAPE:
  One agency ("agency-demo") with an admin and three producers:

    Dana Whitfield (admin, active)
    +-- Marcus Reid (active)
    |   +-- Priya Natarajan (active)
    +-- Jordan Ellis (invited)

  Two carriers with status mappings, a spread of deals across billing
  cycles and statuses, and one SMS thread with a short conversation.

SEE ALSO:
  - server.go: POST /api/seed/demo routing
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystone/agency-office/agency"
	"github.com/keystone/agency-office/store/sqlite"
)

// SeedDemo loads the demo agency into the store.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if err := h.seedDemo(r.Context()); err != nil {
		h.serverError(w, r, "failed to seed demo data", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"agency_id": "agency-demo",
		"users":     []string{"user-dana", "user-marcus"},
	})
}

func (h *Handler) seedDemo(ctx context.Context) error {
	now := h.Clock.Now()
	base := now.AddDate(0, -2, 0)

	agents := []agency.Agent{
		{ID: "agent-dana", AgencyID: "agency-demo", FirstName: "Dana", LastName: "Whitfield",
			Email: "dana@demo.example", Status: agency.StatusActive, CreatedAt: base},
		{ID: "agent-marcus", AgencyID: "agency-demo", FirstName: "Marcus", LastName: "Reid",
			Email: "marcus@demo.example", UplineID: "agent-dana", Status: agency.StatusActive,
			CreatedAt: base.Add(1 * time.Minute)},
		{ID: "agent-priya", AgencyID: "agency-demo", FirstName: "Priya", LastName: "Natarajan",
			Email: "priya@demo.example", UplineID: "agent-marcus", Status: agency.StatusActive,
			CreatedAt: base.Add(2 * time.Minute)},
		{ID: "agent-jordan", AgencyID: "agency-demo", FirstName: "Jordan", LastName: "Ellis",
			Email: "jordan@demo.example", UplineID: "agent-dana", Status: agency.StatusInvited,
			CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, a := range agents {
		if err := h.Store.SaveAgent(ctx, a); err != nil {
			return err
		}
	}

	users := []sqlite.User{
		{ID: "user-dana", AgentID: "agent-dana", AgencyID: "agency-demo", Role: sqlite.RoleAdmin},
		{ID: "user-marcus", AgentID: "agent-marcus", AgencyID: "agency-demo", Role: sqlite.RoleAgent},
	}
	for _, u := range users {
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	carriers := []agency.Carrier{
		{ID: "carrier-atlas", Name: "Atlas Mutual"},
		{ID: "carrier-pinnacle", Name: "Pinnacle Life"},
	}
	for _, c := range carriers {
		if err := h.Store.SaveCarrier(ctx, c); err != nil {
			return err
		}
	}

	mappings := []agency.StatusMapping{
		{CarrierID: "carrier-atlas", RawStatus: "ISSUED", Impact: agency.ImpactPositive},
		{CarrierID: "carrier-atlas", RawStatus: "LAPSED", Impact: agency.ImpactNegative},
		{CarrierID: "carrier-pinnacle", RawStatus: "In Force", Impact: agency.ImpactPositive},
		{CarrierID: "carrier-pinnacle", RawStatus: "Pending", Impact: agency.ImpactNeutral},
	}
	for _, m := range mappings {
		if err := h.Store.SaveStatusMapping(ctx, m); err != nil {
			return err
		}
	}

	effective := now.AddDate(0, -1, 0)
	deals := []agency.Deal{
		{ID: "deal-1", AgentID: "agent-marcus", CarrierID: "carrier-atlas",
			PolicyNumber: "AT-10021", Product: "Term Life 20", ClientName: "R. Alvarez",
			AnnualPremium: decimal.NewFromInt(1200), BillingCycle: "monthly",
			EffectiveDate: effective, Status: "ISSUED"},
		{ID: "deal-2", AgentID: "agent-priya", CarrierID: "carrier-pinnacle",
			PolicyNumber: "PN-88410", Product: "Whole Life", ClientName: "T. Okafor",
			AnnualPremium: decimal.NewFromInt(4000), BillingCycle: "quarterly",
			EffectiveDate: effective, Status: "In Force"},
		{ID: "deal-3", AgentID: "agent-marcus", CarrierID: "carrier-atlas",
			PolicyNumber: "AT-10077", Product: "Term Life 10", ClientName: "S. Brandt",
			AnnualPremium: decimal.NewFromInt(900), BillingCycle: "monthly",
			EffectiveDate: effective, Status: "LAPSED"},
		{ID: "deal-4", AgentID: "agent-dana", CarrierID: "carrier-pinnacle",
			PolicyNumber: "PN-88422", Product: "Final Expense", ClientName: "M. Chen",
			AnnualPremium: decimal.NewFromInt(600), BillingCycle: "semi-annually",
			EffectiveDate: effective, Status: "In Force"},
	}
	for _, d := range deals {
		if err := h.Store.SaveDeal(ctx, d); err != nil {
			return err
		}
	}

	thread := agency.Thread{
		ID: "thread-1", AgentID: "agent-marcus",
		ClientName: "R. Alvarez", ClientPhone: "+15550100",
	}
	if err := h.Store.SaveThread(ctx, thread); err != nil {
		return err
	}
	messages := []agency.Message{
		{ID: "msg-1", ThreadID: "thread-1", Direction: agency.DirectionOutbound,
			Body: "Hi Rosa, your Atlas policy is now in force.", SentAt: now.Add(-2 * time.Hour)},
		{ID: "msg-2", ThreadID: "thread-1", Direction: agency.DirectionInbound,
			Body: "Great, thank you Marcus!", SentAt: now.Add(-1 * time.Hour)},
	}
	for _, m := range messages {
		if err := h.Store.SaveMessage(ctx, m); err != nil {
			return err
		}
	}

	return nil
}
