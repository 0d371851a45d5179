package models

import (
	"net/url"
	"strings"
	"time"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

// Destination is an external authority that receives derived complaints.
// Destinations are deactivated, never deleted, so historic derivations keep
// resolving.
type Destination struct {
	ID        id.DestinationID `json:"id"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	Endpoint  string           `json:"endpoint"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (d *Destination) IsActive() bool {
	return d.Active
}

func (d *Destination) Deactivate(now time.Time) {
	d.Active = false
	d.UpdatedAt = now
}

// ValidateEndpoint accepts absolute https URLs with a host.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "destination endpoint must be an absolute https URL")
	}
	return nil
}

// ResolvedRule is a rule joined with its destination, the read model the
// matcher works on.
type ResolvedRule struct {
	Rule        Rule        `json:"rule"`
	Destination Destination `json:"destination"`
}

// Match is the winning rule for a classification under a given policy.
type Match struct {
	PolicyID    id.PolicyID
	Rule        Rule
	Destination Destination
}
