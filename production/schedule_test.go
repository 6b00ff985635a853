package production

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// CYCLE NORMALIZATION
// =============================================================================

func TestNormalizeCycle(t *testing.T) {
	tests := []struct {
		raw  string
		want BillingCycle
	}{
		{"monthly", CycleMonthly},
		{"quarterly", CycleQuarterly},
		{"semi-annually", CycleSemiAnnual},
		{"annually", CycleAnnual},
		{"", CycleMonthly},
		{"weekly", CycleMonthly},
		{"MONTHLY", CycleMonthly}, // unknown casing falls back too
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCycle(tt.raw), "raw=%q", tt.raw)
	}
}

func TestTermsFor(t *testing.T) {
	annual := decimal.NewFromInt(1200)

	tests := []struct {
		cycle        BillingCycle
		wantAmount   string
		wantInterval int
	}{
		{CycleMonthly, "100", 1},
		{CycleQuarterly, "300", 3},
		{CycleSemiAnnual, "600", 6},
		{CycleAnnual, "1200", 12},
	}

	for _, tt := range tests {
		terms := TermsFor(tt.cycle, annual)
		assert.True(t, terms.Amount.Equal(decimal.RequireFromString(tt.wantAmount)),
			"cycle=%s amount=%s", tt.cycle, terms.Amount)
		assert.Equal(t, tt.wantInterval, terms.MonthsInterval, "cycle=%s", tt.cycle)
	}
}

// =============================================================================
// SCHEDULE EXPANSION
// =============================================================================

func TestPaymentDatesInWindow_MonthlyDeal(t *testing.T) {
	// GIVEN: A monthly deal effective Jan 15
	// WHEN: Expanding over Jan 1 - Mar 31 with today far in the future
	// THEN: Three payments land on the 15th of each month

	w := NewWindow(date(2024, time.January, 1), date(2024, time.March, 31))
	today := date(2024, time.December, 1)

	dates := PaymentDatesInWindow(date(2024, time.January, 15), 1, w, today)

	require.Len(t, dates, 3)
	assert.Equal(t, date(2024, time.January, 15), dates[0])
	assert.Equal(t, date(2024, time.February, 15), dates[1])
	assert.Equal(t, date(2024, time.March, 15), dates[2])
}

func TestPaymentDatesInWindow_QuarterlyDeal(t *testing.T) {
	// GIVEN: A quarterly deal effective Jan 1
	// WHEN: Expanding over the full calendar year
	// THEN: Four payments at 3-month spacing

	w := NewWindow(date(2024, time.January, 1), date(2024, time.December, 31))
	today := date(2025, time.June, 1)

	dates := PaymentDatesInWindow(date(2024, time.January, 1), 3, w, today)

	require.Len(t, dates, 4)
	assert.Equal(t, date(2024, time.January, 1), dates[0])
	assert.Equal(t, date(2024, time.April, 1), dates[1])
	assert.Equal(t, date(2024, time.July, 1), dates[2])
	assert.Equal(t, date(2024, time.October, 1), dates[3])
}

func TestPaymentDatesInWindow_FutureCap(t *testing.T) {
	// GIVEN: A deal whose only computable payment date is tomorrow
	// WHEN: The caller's window extends 30 days into the future
	// THEN: No payment is recognized - revenue is earned, not projected

	today := date(2024, time.June, 10)
	w := NewWindow(today, today.AddDate(0, 0, 30))

	dates := PaymentDatesInWindow(today.AddDate(0, 0, 1), 1, w, today)

	assert.Empty(t, dates)
}

func TestPaymentDatesInWindow_TodayInsideWindow(t *testing.T) {
	// GIVEN: A monthly deal effective the 1st and a window covering the
	//        whole month
	// WHEN: Today is mid-window
	// THEN: Only payments up to today count; today itself counts

	w := NewWindow(date(2024, time.June, 1), date(2024, time.June, 30))
	today := date(2024, time.June, 1)

	dates := PaymentDatesInWindow(date(2024, time.June, 1), 1, w, today)

	require.Len(t, dates, 1)
	assert.Equal(t, today, dates[0])
}

func TestPaymentDatesInWindow_OldDealStillPays(t *testing.T) {
	// GIVEN: A monthly deal effective months before the window
	// WHEN: Expanding over a one-month window
	// THEN: The recurring payments inside the window are found, none
	//       before the window start

	w := NewWindow(date(2024, time.May, 1), date(2024, time.May, 31))
	today := date(2024, time.December, 1)

	dates := PaymentDatesInWindow(date(2024, time.January, 20), 1, w, today)

	require.Len(t, dates, 1)
	assert.Equal(t, date(2024, time.May, 20), dates[0])
}

func TestPaymentDatesInWindow_ScheduleBoundedToTwelve(t *testing.T) {
	// GIVEN: A monthly deal effective more than a year before the window
	// WHEN: Expanding over a window past the 12th payment
	// THEN: Nothing is recognized - the schedule stops after one year

	w := NewWindow(date(2025, time.March, 1), date(2025, time.March, 31))
	today := date(2025, time.December, 1)

	dates := PaymentDatesInWindow(date(2024, time.January, 10), 1, w, today)

	assert.Empty(t, dates)
}

func TestPaymentDatesInWindow_OldQuarterlyDealStillPays(t *testing.T) {
	// GIVEN: A quarterly deal effective 15 months before the window
	// WHEN: Expanding over a one-month window
	// THEN: The 6th scheduled payment (i=5, 15 months out) is recognized

	w := NewWindow(date(2024, time.June, 1), date(2024, time.June, 30))
	today := date(2024, time.December, 1)

	dates := PaymentDatesInWindow(date(2023, time.March, 1), 3, w, today)

	require.Len(t, dates, 1)
	assert.Equal(t, date(2024, time.June, 1), dates[0])
}

func TestPaymentDatesInWindow_OldAnnualDealStillPays(t *testing.T) {
	// An annual deal's 12-payment schedule reaches 11 years past the
	// effective date, so a decade-old deal's anniversary still counts.

	w := NewWindow(date(2024, time.June, 1), date(2024, time.June, 30))
	today := date(2024, time.December, 1)

	dates := PaymentDatesInWindow(date(2014, time.June, 1), 12, w, today)

	require.Len(t, dates, 1)
	assert.Equal(t, date(2024, time.June, 1), dates[0])
}

func TestPaymentDatesInWindow_CapBeforeStart(t *testing.T) {
	// Window entirely in the future relative to today.
	w := NewWindow(date(2024, time.July, 1), date(2024, time.July, 31))
	today := date(2024, time.June, 1)

	dates := PaymentDatesInWindow(date(2024, time.July, 1), 1, w, today)

	assert.Empty(t, dates)
}
