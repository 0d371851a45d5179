package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "vozsegura/pkg/domain-errors"
)

// TrackingID is the public correlation handle of a complaint. It never encodes
// anything about the reporter.
type TrackingID uuid.UUID

// PolicyID, RuleID and DestinationID are database-assigned, monotonically
// increasing identifiers. Ordering by ID is ordering by creation.
type (
	PolicyID      int64
	RuleID        int64
	DestinationID int64
)

// NewTrackingID returns a fresh random tracking ID.
func NewTrackingID() TrackingID {
	return TrackingID(uuid.New())
}

// ParseTrackingID parses a tracking ID at a trust boundary.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseTrackingID(s string) (TrackingID, error) {
	if s == "" {
		return TrackingID{}, dErrors.New(dErrors.CodeInvalidInput, "tracking id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return TrackingID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid tracking id")
	}
	if parsed == uuid.Nil {
		return TrackingID{}, dErrors.New(dErrors.CodeInvalidInput, "tracking id cannot be nil")
	}
	return TrackingID(parsed), nil
}

func (t TrackingID) String() string {
	return uuid.UUID(t).String()
}

func (t TrackingID) IsNil() bool {
	return uuid.UUID(t) == uuid.Nil
}

func (t TrackingID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TrackingID) UnmarshalText(b []byte) error {
	parsed, err := ParseTrackingID(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParsePolicyID parses a positive policy identifier.
func ParsePolicyID(s string) (PolicyID, error) {
	v, err := parsePositive(s, "policy id")
	return PolicyID(v), err
}

// ParseRuleID parses a positive rule identifier.
func ParseRuleID(s string) (RuleID, error) {
	v, err := parsePositive(s, "rule id")
	return RuleID(v), err
}

// ParseDestinationID parses a positive destination identifier.
func ParseDestinationID(s string) (DestinationID, error) {
	v, err := parsePositive(s, "destination id")
	return DestinationID(v), err
}

func parsePositive(s, what string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return v, nil
}

func (id PolicyID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id RuleID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id DestinationID) String() string { return strconv.FormatInt(int64(id), 10) }
