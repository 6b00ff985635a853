/*
sqlite_test.go - Store round-trip and query-shape tests

Uses in-memory SQLite; each test gets a fresh schema.
*/
package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/agency-office/agency"
)

func newStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// AGENTS
// =============================================================================

func TestAgentRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	reminded := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	in := agency.Agent{
		ID: "a-1", AgencyID: "ag-1",
		FirstName: "Dana", LastName: "Whitfield",
		Email: "dana@example.com", Phone: "+15550100",
		UplineID: "a-0", Status: agency.StatusInvited,
		LastRemindedAt: &reminded,
		CreatedAt:      day(2024, time.May, 1),
	}
	require.NoError(t, store.SaveAgent(ctx, in))

	out, err := store.GetAgent(ctx, "a-1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.FirstName, out.FirstName)
	assert.Equal(t, in.UplineID, out.UplineID)
	assert.Equal(t, agency.StatusInvited, out.Status)
	require.NotNil(t, out.LastRemindedAt)
	assert.True(t, out.LastRemindedAt.Equal(reminded))

	missing, err := store.GetAgent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAgentsByAgency_CreationOrder(t *testing.T) {
	// Roster order is the leaderboard tiebreak, so it must be stable
	// across reads regardless of insertion order.

	store := newStore(t)
	ctx := context.Background()

	base := day(2024, time.January, 1)
	for _, a := range []agency.Agent{
		{ID: "a-3", AgencyID: "ag-1", FirstName: "C", LastName: "Three",
			Status: agency.StatusActive, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a-1", AgencyID: "ag-1", FirstName: "A", LastName: "One",
			Status: agency.StatusActive, CreatedAt: base},
		{ID: "a-2", AgencyID: "ag-1", FirstName: "B", LastName: "Two",
			Status: agency.StatusActive, CreatedAt: base.Add(time.Hour)},
		{ID: "x-1", AgencyID: "ag-other", FirstName: "X", LastName: "Else",
			Status: agency.StatusActive, CreatedAt: base},
	} {
		require.NoError(t, store.SaveAgent(ctx, a))
	}

	roster, err := store.AgentsByAgency(ctx, "ag-1")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "a-1", roster[0].ID)
	assert.Equal(t, "a-2", roster[1].ID)
	assert.Equal(t, "a-3", roster[2].ID)
}

func TestUpdateAgentStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAgent(ctx, agency.Agent{
		ID: "a-1", AgencyID: "ag-1", FirstName: "Dana", LastName: "W",
		Status: agency.StatusPreInvite,
	}))

	require.NoError(t, store.UpdateAgentStatus(ctx, "a-1", agency.StatusInvited))
	a, err := store.GetAgent(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, agency.StatusInvited, a.Status)

	err = store.UpdateAgentStatus(ctx, "missing", agency.StatusInvited)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInvitedBefore_UsesReminderOverCreation(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	cutoff := day(2024, time.June, 10)

	// Created long ago but reminded recently: not due.
	recent := day(2024, time.June, 9)
	require.NoError(t, store.SaveAgent(ctx, agency.Agent{
		ID: "a-reminded", AgencyID: "ag-1", FirstName: "R", LastName: "R",
		Status: agency.StatusInvited, LastRemindedAt: &recent,
		CreatedAt: day(2024, time.January, 1),
	}))
	// Never reminded and created before the cutoff: due.
	require.NoError(t, store.SaveAgent(ctx, agency.Agent{
		ID: "a-due", AgencyID: "ag-1", FirstName: "D", LastName: "D",
		Status: agency.StatusInvited, CreatedAt: day(2024, time.June, 1),
	}))

	stale, err := store.InvitedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "a-due", stale[0].ID)
}

// =============================================================================
// STATUS MAPPINGS
// =============================================================================

func TestStatusMappings(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, m := range []agency.StatusMapping{
		{CarrierID: "c-1", RawStatus: "ISSUED", Impact: agency.ImpactPositive},
		{CarrierID: "c-1", RawStatus: "LAPSED", Impact: agency.ImpactNegative},
		{CarrierID: "c-2", RawStatus: "In Force", Impact: agency.ImpactPositive},
	} {
		require.NoError(t, store.SaveStatusMapping(ctx, m))
	}

	mappings, err := store.StatusMappings(ctx, []string{"c-1"})
	require.NoError(t, err)
	assert.Len(t, mappings, 2)

	// Saving the same (carrier, status) pair again replaces, not dups.
	require.NoError(t, store.SaveStatusMapping(ctx, agency.StatusMapping{
		CarrierID: "c-1", RawStatus: "ISSUED", Impact: agency.ImpactNeutral,
	}))
	mappings, err = store.StatusMappings(ctx, []string{"c-1"})
	require.NoError(t, err)
	assert.Len(t, mappings, 2)

	empty, err := store.StatusMappings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// =============================================================================
// DEALS
// =============================================================================

func saveDeal(t *testing.T, store *Store, id, agentID string, effective time.Time) {
	t.Helper()
	require.NoError(t, store.SaveDeal(context.Background(), agency.Deal{
		ID: id, AgentID: agentID, CarrierID: "c-1",
		AnnualPremium: decimal.NewFromInt(1200), BillingCycle: "monthly",
		EffectiveDate: effective, Status: "ISSUED",
	}))
}

func TestDealRoundTripPremium(t *testing.T) {
	// Premiums survive the TEXT column without float drift.

	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDeal(ctx, agency.Deal{
		ID: "d-1", AgentID: "a-1",
		AnnualPremium: decimal.RequireFromString("1234.56"),
		BillingCycle:  "quarterly",
		EffectiveDate: day(2024, time.June, 1), Status: "ISSUED",
	}))

	deals, err := store.ListDeals(ctx, DealFilter{AgentIDs: []string{"a-1"}})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.True(t, deals[0].AnnualPremium.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, day(2024, time.June, 1), deals[0].EffectiveDate)
}

func TestDealsForProduction_WindowBounds(t *testing.T) {
	// A 12-payment schedule at 12-month spacing reaches 11 years past
	// the effective date, so deals effective within [start - 11 years,
	// end] must survive the prefilter; only older and future deals are
	// excluded at the query.

	store := newStore(t)
	ctx := context.Background()

	start, end := day(2024, time.June, 1), day(2024, time.June, 30)
	saveDeal(t, store, "d-too-old", "a-1", day(2013, time.May, 15))
	saveDeal(t, store, "d-old-annual", "a-1", day(2014, time.June, 1))
	saveDeal(t, store, "d-old-quarterly", "a-1", day(2023, time.March, 1))
	saveDeal(t, store, "d-inside", "a-1", day(2024, time.June, 10))
	saveDeal(t, store, "d-future", "a-1", day(2024, time.July, 5))
	saveDeal(t, store, "d-other-agent", "a-2", day(2024, time.June, 10))

	deals, err := store.DealsForProduction(ctx, []string{"a-1"}, start, end)
	require.NoError(t, err)

	ids := make([]string, len(deals))
	for i, d := range deals {
		ids[i] = d.ID
	}
	assert.ElementsMatch(t, []string{"d-old-annual", "d-old-quarterly", "d-inside"}, ids)

	none, err := store.DealsForProduction(ctx, nil, start, end)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListDeals_FilterAndPaging(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, st := range []string{"ISSUED", "ISSUED", "LAPSED"} {
		require.NoError(t, store.SaveDeal(ctx, agency.Deal{
			ID: []string{"d-1", "d-2", "d-3"}[i], AgentID: "a-1",
			AnnualPremium: decimal.NewFromInt(100), BillingCycle: "monthly",
			EffectiveDate: day(2024, time.June, 1), Status: st,
			CreatedAt: day(2024, time.June, 1).Add(time.Duration(i) * time.Hour),
		}))
	}

	issued, err := store.ListDeals(ctx, DealFilter{AgentIDs: []string{"a-1"}, Status: "ISSUED"})
	require.NoError(t, err)
	assert.Len(t, issued, 2)

	// Newest first, one page at a time.
	page, err := store.ListDeals(ctx, DealFilter{AgentIDs: []string{"a-1"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d-3", page[0].ID)

	page, err = store.ListDeals(ctx, DealFilter{AgentIDs: []string{"a-1"}, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d-2", page[0].ID)
}

// =============================================================================
// THREADS AND MESSAGES
// =============================================================================

func TestThreadAndMessages(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThread(ctx, agency.Thread{
		ID: "th-1", AgentID: "a-1", ClientName: "Pat Lee", ClientPhone: "+15550100",
	}))

	th, err := store.GetThread(ctx, "th-1")
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, "+15550100", th.ClientPhone)

	missing, err := store.GetThread(ctx, "th-x")
	require.NoError(t, err)
	assert.Nil(t, missing)

	base := day(2024, time.June, 1)
	for _, m := range []agency.Message{
		{ID: "m-2", ThreadID: "th-1", Direction: agency.DirectionOutbound,
			Body: "second", SentAt: base.Add(time.Minute)},
		{ID: "m-1", ThreadID: "th-1", Direction: agency.DirectionInbound,
			Body: "first", SentAt: base},
	} {
		require.NoError(t, store.SaveMessage(ctx, m))
	}

	msgs, err := store.MessagesByThread(ctx, "th-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
	assert.Equal(t, agency.DirectionInbound, msgs[0].Direction)
}

// =============================================================================
// USERS
// =============================================================================

func TestUserRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, User{
		ID: "u-1", AgentID: "a-1", AgencyID: "ag-1", Role: RoleAdmin,
	}))

	u, err := store.GetUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a-1", u.AgentID)
	assert.Equal(t, RoleAdmin, u.Role)

	missing, err := store.GetUser(ctx, "u-x")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
