/*
Package agency defines the core records of the back-office domain.

PURPOSE:
  This package contains the domain types shared by the store, the HTTP
  layer, and the production calculator: agents and their hierarchy,
  deals (policy sales), carrier status mappings, and SMS conversation
  threads.

KEY CONCEPTS IN THIS FILE (types.go):
  - Agent: A licensed producer belonging to an agency, optionally
    recruited by an upline agent
  - Deal: A policy sale tying an agent, carrier, and premium terms
  - StatusMapping: Carrier-specific translation of a raw policy status
    string into a business-impact flag
  - Thread/Message: An SMS conversation between an agent and a client

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for premium amounts to avoid
     floating-point errors
  2. Plain data: These types carry no behavior beyond small helpers;
     business rules live in onboarding.go, hierarchy.go, and the
     production package

SEE ALSO:
  - onboarding.go: Agent status lifecycle
  - hierarchy.go: Downline resolution
  - production/: Accrual computation over deals
*/
package agency

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGENT
// =============================================================================

// Agent is a producer record. UplineID links the recruiting hierarchy;
// an empty UplineID means the agent sits at the top of their branch.
type Agent struct {
	ID             string
	AgencyID       string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	UplineID       string
	Status         OnboardingStatus
	LastRemindedAt *time.Time
	CreatedAt      time.Time
}

// FullName returns the display name used in scoreboard rows.
func (a Agent) FullName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// =============================================================================
// DEAL
// =============================================================================

// Deal is a policy sale record. BillingCycle is kept as the raw string
// the carrier feed supplied; the production package normalizes it.
type Deal struct {
	ID            string
	AgentID       string
	CarrierID     string
	PolicyNumber  string
	Product       string
	ClientName    string
	AnnualPremium decimal.Decimal
	BillingCycle  string
	EffectiveDate time.Time
	Status        string
	CreatedAt     time.Time
}

// =============================================================================
// CARRIER AND STATUS MAPPING
// =============================================================================

// Carrier is an insurance carrier the agency writes business with.
type Carrier struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Impact classifies a raw carrier status for accrual purposes.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// StatusMapping translates a carrier's raw policy status string into an
// Impact. Keyed by (CarrierID, RawStatus); statuses with no mapping are
// treated as not in force.
type StatusMapping struct {
	CarrierID string
	RawStatus string
	Impact    Impact
}

// =============================================================================
// SMS CONVERSATIONS
// =============================================================================

// Direction marks which side of a conversation sent a message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Thread is an SMS conversation between an agent and a client phone
// number. Messages hang off the thread.
type Thread struct {
	ID          string
	AgentID     string
	ClientName  string
	ClientPhone string
	CreatedAt   time.Time
}

// Message is a single SMS in a thread. Delivery is handled by an
// external gateway; this record is the stored conversation history.
type Message struct {
	ID        string
	ThreadID  string
	Direction Direction
	Body      string
	SentAt    time.Time
}
