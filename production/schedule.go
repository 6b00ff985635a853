/*
schedule.go - Payment schedule expansion

PURPOSE:
  Expands a deal's theoretical recurring-payment schedule and keeps the
  dates that fall inside the reporting window. This is the arithmetic
  heart of the scoreboard.

SCHEDULE MODEL:
  A deal generates up to 12 candidate payment dates:

    effective_date + i * monthsInterval months,  i = 0..11

  which bounds recognition to one year of recurring payments regardless
  of policy age (a monthly policy yields 12 candidates, an annual
  policy yields 12 candidates spread over 12 years but only the first
  can ever matter inside a one-year window).

FUTURE CAP:
  A candidate only counts inside [start, min(end, today)]. Payments
  dated after "today" are never recognized even when the caller's
  window extends into the future: revenue appears when it is earned,
  not when it is projected.

EARLY EXIT:
  Candidates are generated in date order, so expansion stops as soon as
  a candidate passes the capped window end.

SEE ALSO:
  - scoreboard.go: Aggregates the expanded payments per agent
*/
package production

import "time"

// maxScheduledPayments bounds expansion to one year of recurring
// payments per deal.
const maxScheduledPayments = 12

// PaymentDatesInWindow returns the deal payment dates recognized
// inside the window, capped at today. effective, the window bounds,
// and today must be calendar dates (see DateOf); monthsInterval is the
// spacing from TermsFor.
func PaymentDatesInWindow(effective time.Time, monthsInterval int, w Window, today time.Time) []time.Time {
	cappedEnd := w.End
	if today.Before(cappedEnd) {
		cappedEnd = today
	}
	if cappedEnd.Before(w.Start) {
		return nil
	}

	var dates []time.Time
	for i := 0; i < maxScheduledPayments; i++ {
		candidate := effective.AddDate(0, i*monthsInterval, 0)
		if candidate.After(cappedEnd) {
			break
		}
		if candidate.Before(w.Start) {
			continue
		}
		dates = append(dates, candidate)
	}
	return dates
}
