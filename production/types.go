/*
Package production computes recognized-revenue scoreboards from deals.

PURPOSE:
  Given an agent roster, their deals, and the carrier status mappings,
  this package expands each in-force deal's theoretical payment
  schedule, intersects it with a reporting window, and produces a
  ranked per-agent leaderboard of recognized revenue.

KEY CONCEPTS IN THIS FILE (types.go):
  - BillingCycle: How often a policy's annual premium is collected
  - PaymentTerms: Per-payment amount and month spacing for a cycle
  - Window: An inclusive calendar-date reporting range
  - Clock: Injected "now" so the future-payment cap is testable
  - AgentAccrual: One leaderboard row
  - Scoreboard: Ranked rows plus aggregate stats

DESIGN PRINCIPLES:
  1. Purity: The computation reads no ambient state; "today" comes from
     the injected Clock
  2. Precision: decimal.Decimal for all money
  3. Request-scoped: Nothing here is persisted or cached; every call
     computes from scratch

SEE ALSO:
  - schedule.go: Payment-date expansion per deal
  - scoreboard.go: Filtering, aggregation, ranking
*/
package production

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BILLING CYCLE
// =============================================================================

// BillingCycle is the premium collection frequency of a policy.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "monthly"
	CycleQuarterly  BillingCycle = "quarterly"
	CycleSemiAnnual BillingCycle = "semi-annually"
	CycleAnnual     BillingCycle = "annually"
)

// NormalizeCycle maps a raw billing-cycle string onto a known cycle.
// Unrecognized values fall back to monthly. This is an explicit
// default, not an error: carrier feeds are messy and a deal must never
// be dropped over an unknown cadence.
func NormalizeCycle(raw string) BillingCycle {
	switch BillingCycle(raw) {
	case CycleQuarterly:
		return CycleQuarterly
	case CycleSemiAnnual:
		return CycleSemiAnnual
	case CycleAnnual:
		return CycleAnnual
	default:
		return CycleMonthly
	}
}

// PaymentTerms is the per-payment amount and spacing derived from an
// annual premium and a billing cycle.
type PaymentTerms struct {
	Amount         decimal.Decimal
	MonthsInterval int
}

var (
	twelve = decimal.NewFromInt(12)
	four   = decimal.NewFromInt(4)
	two    = decimal.NewFromInt(2)
)

// TermsFor splits an annual premium into level payments:
//
//	monthly        annual/12, 1-month spacing
//	quarterly      annual/4,  3-month spacing
//	semi-annually  annual/2,  6-month spacing
//	annually       annual,    12-month spacing
func TermsFor(cycle BillingCycle, annualPremium decimal.Decimal) PaymentTerms {
	switch cycle {
	case CycleQuarterly:
		return PaymentTerms{Amount: annualPremium.Div(four), MonthsInterval: 3}
	case CycleSemiAnnual:
		return PaymentTerms{Amount: annualPremium.Div(two), MonthsInterval: 6}
	case CycleAnnual:
		return PaymentTerms{Amount: annualPremium, MonthsInterval: 12}
	default:
		return PaymentTerms{Amount: annualPremium.Div(twelve), MonthsInterval: 1}
	}
}

// =============================================================================
// DATES AND CLOCK
// =============================================================================

// DateOf truncates t to a calendar date at UTC midnight. All window
// comparisons happen on normalized dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Window is an inclusive calendar-date reporting range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow normalizes both bounds to calendar dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: DateOf(start), End: DateOf(end)}
}

// WeekOf returns the Sunday-Saturday calendar week containing t, the
// default reporting window when the caller supplies no range.
func WeekOf(t time.Time) Window {
	day := DateOf(t)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// Clock supplies "now" for the future-payment cap. Inject a fixed
// clock in tests to pin the cap.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// FixedClock returns a Clock frozen at the given instant.
func FixedClock(at time.Time) Clock { return fixedClock{at: at} }

// =============================================================================
// SCOREBOARD OUTPUT
// =============================================================================

// AgentAccrual is one leaderboard row: an agent's recognized revenue
// for the window. Invariant: Total equals the sum of DailyBreakdown
// values, and DealCount counts contributing deals once each no matter
// how many payments they landed in the window.
type AgentAccrual struct {
	AgentID        string
	Name           string
	Rank           int
	Total          decimal.Decimal
	DealCount      int
	DailyBreakdown map[string]decimal.Decimal
}

// Stats are the aggregate totals over the final leaderboard.
type Stats struct {
	TotalProduction decimal.Decimal
	TotalDeals      int
	ActiveAgents    int
}

// Scoreboard is the computed result for one request.
type Scoreboard struct {
	Leaderboard []AgentAccrual
	Stats       Stats
	Window      Window
}
