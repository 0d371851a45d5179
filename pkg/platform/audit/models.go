package audit

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxDetailsLength bounds Event.Details, in runes.
const MaxDetailsLength = 512

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream of the outbox.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// derivation outcomes and every administrative change to the rule set.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers identity verification and access events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers low-risk read-path events that may be sampled.
	CategoryOperations EventCategory = "operations"
)

// EventType names the action being audited.
type EventType string

const (
	// Identity events
	EventIdentityVerified EventType = "identity_verified"

	// Derivation events
	EventDerivationStarted   EventType = "derivation_started"
	EventDerivationSucceeded EventType = "derivation_succeeded"
	EventDerivationFailed    EventType = "derivation_failed"
	EventDerivationNoMatch   EventType = "derivation_no_match"
	EventDerivationReclaimed EventType = "derivation_reclaimed"
	EventDerivationReopened  EventType = "derivation_reopened"

	// Policy administration events
	EventPolicyCreated   EventType = "policy_created"
	EventPolicyRetired   EventType = "policy_retired"
	EventPolicyVersioned EventType = "policy_versioned"

	// Rule administration events
	EventRuleCreated     EventType = "rule_created"
	EventRuleUpdated     EventType = "rule_updated"
	EventRuleDeactivated EventType = "rule_deactivated"

	// Destination administration events
	EventDestinationCreated     EventType = "destination_created"
	EventDestinationUpdated     EventType = "destination_updated"
	EventDestinationDeactivated EventType = "destination_deactivated"

	// Read-path events
	EventPolicyViewed    EventType = "policy_viewed"
	EventComplaintViewed EventType = "complaint_viewed"
)

var eventCategories = map[EventType]EventCategory{
	EventIdentityVerified: CategorySecurity,

	EventDerivationStarted:   CategoryCompliance,
	EventDerivationSucceeded: CategoryCompliance,
	EventDerivationFailed:    CategoryCompliance,
	EventDerivationNoMatch:   CategoryCompliance,
	EventDerivationReclaimed: CategoryCompliance,
	EventDerivationReopened:  CategoryCompliance,

	EventPolicyCreated:   CategoryCompliance,
	EventPolicyRetired:   CategoryCompliance,
	EventPolicyVersioned: CategoryCompliance,

	EventRuleCreated:     CategoryCompliance,
	EventRuleUpdated:     CategoryCompliance,
	EventRuleDeactivated: CategoryCompliance,

	EventDestinationCreated:     CategoryCompliance,
	EventDestinationUpdated:     CategoryCompliance,
	EventDestinationDeactivated: CategoryCompliance,

	EventPolicyViewed:    CategoryOperations,
	EventComplaintViewed: CategoryOperations,
}

// Category returns the EventCategory for this event type.
// Unknown types default to CategoryOperations.
func (t EventType) Category() EventCategory {
	if cat, ok := eventCategories[t]; ok {
		return cat
	}
	return CategoryOperations
}

// Outcome is the result recorded for an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeNoMatch Outcome = "NO_MATCH"
	OutcomeDenied  Outcome = "DENIED"
)

// Mode tells the recorder what to do when the store cannot persist an event.
type Mode int

const (
	// FailClosed returns the persistence error; the caller must abort the
	// operation being audited.
	FailClosed Mode = iota
	// BestEffort logs the persistence error and returns nil. Only for
	// read-path audits of low-risk events.
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "best_effort"
	}
	return "fail_closed"
}

// Event is an append-only audit record. Actor is always a pseudonymous handle
// or a role name, never a raw identity. Details never carry payload content.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	Outcome    Outcome
	Actor      string
	Timestamp  time.Time
	Details    string
	TrackingID string
	RequestID  string
}

// Category returns the category derived from the event type.
func (e Event) Category() EventCategory {
	return e.Type.Category()
}

// TruncateDetails cuts s to MaxDetailsLength runes.
func TruncateDetails(s string) string {
	if utf8.RuneCountInString(s) <= MaxDetailsLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxDetailsLength])
}
