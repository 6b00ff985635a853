/*
scoreboard.go - Leaderboard computation

PURPOSE:
  Assembles the per-agent production scoreboard: filters deals to those
  whose carrier status maps to a positive impact, expands each
  surviving deal's payment schedule into the window, aggregates per
  agent, and ranks the result.

PIPELINE:
  1. Index status mappings by (carrier, raw status)  [in-memory hash-join]
  2. Seed one accrual row per agent, in roster order
  3. Per deal: filter, derive payment terms, expand schedule, add each
     in-window payment to the agent's total and daily breakdown
  4. Drop agents with zero contributing deals
  5. Sort by total descending (stable; ties keep roster order) and
     attach contiguous 1-based ranks
  6. Sum aggregate stats over the final rows

FILTER RULES:
  - Deals missing either carrier or status are excluded unconditionally
  - Deals with no mapping, or a non-positive mapping, are excluded
  - Deals with a zero, negative, or absent premium are skipped and do
    not bump dealCount

SEE ALSO:
  - schedule.go: Candidate date expansion and the future cap
  - api/handlers.go: HTTP wiring, scoping, and error mapping
*/
package production

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/keystone/agency-office/agency"
)

// Input is everything the calculator reads: the (already scoped) agent
// roster, their deals, and the status mappings for the carriers
// involved. The calculator treats the roster as an opaque id universe;
// admin-vs-downline scoping happens upstream.
type Input struct {
	Agents   []agency.Agent
	Deals    []agency.Deal
	Mappings []agency.StatusMapping
}

type mappingKey struct {
	carrierID string
	rawStatus string
}

// BuildScoreboard computes the ranked leaderboard for the window.
// The computation is pure given its inputs and the clock.
func BuildScoreboard(in Input, w Window, clock Clock) Scoreboard {
	impacts := make(map[mappingKey]agency.Impact, len(in.Mappings))
	for _, m := range in.Mappings {
		impacts[mappingKey{m.CarrierID, m.RawStatus}] = m.Impact
	}

	// One row per roster agent, keyed for deal attribution but ordered
	// for the stable tiebreak.
	rows := make(map[string]*AgentAccrual, len(in.Agents))
	order := make([]string, 0, len(in.Agents))
	for _, a := range in.Agents {
		rows[a.ID] = &AgentAccrual{
			AgentID:        a.ID,
			Name:           a.FullName(),
			Total:          decimal.Zero,
			DailyBreakdown: make(map[string]decimal.Decimal),
		}
		order = append(order, a.ID)
	}

	today := DateOf(clock.Now())

	for _, deal := range in.Deals {
		row, ok := rows[deal.AgentID]
		if !ok {
			continue // deal outside the scoped roster
		}
		if deal.CarrierID == "" || deal.Status == "" {
			continue
		}
		if impacts[mappingKey{deal.CarrierID, deal.Status}] != agency.ImpactPositive {
			continue
		}
		if !deal.AnnualPremium.IsPositive() {
			continue
		}

		terms := TermsFor(NormalizeCycle(deal.BillingCycle), deal.AnnualPremium)
		payments := PaymentDatesInWindow(DateOf(deal.EffectiveDate), terms.MonthsInterval, w, today)
		if len(payments) == 0 {
			continue
		}

		for _, at := range payments {
			key := at.Format("2006-01-02")
			row.Total = row.Total.Add(terms.Amount)
			row.DailyBreakdown[key] = row.DailyBreakdown[key].Add(terms.Amount)
		}
		row.DealCount++
	}

	leaderboard := make([]AgentAccrual, 0, len(order))
	for _, id := range order {
		if rows[id].DealCount == 0 {
			continue
		}
		leaderboard = append(leaderboard, *rows[id])
	}

	// Stable sort: equal totals keep roster fetch order.
	sort.SliceStable(leaderboard, func(i, j int) bool {
		return leaderboard[i].Total.GreaterThan(leaderboard[j].Total)
	})

	stats := Stats{TotalProduction: decimal.Zero}
	for i := range leaderboard {
		leaderboard[i].Rank = i + 1
		stats.TotalProduction = stats.TotalProduction.Add(leaderboard[i].Total)
		stats.TotalDeals += leaderboard[i].DealCount
	}
	stats.ActiveAgents = len(leaderboard)

	return Scoreboard{Leaderboard: leaderboard, Stats: stats, Window: w}
}
