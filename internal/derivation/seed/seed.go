// Package seed loads an initial rule set (destinations, policies, rules) from
// YAML and applies it through the policy service, so seeding is validated and
// audited like any administrative change.
//
// Applying a file twice is a no-op: destinations are matched by code and
// policies by name and effective_from.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
)

type File struct {
	Destinations []Destination `yaml:"destinations"`
	Policies     []Policy      `yaml:"policies"`
}

type Destination struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
}

type Policy struct {
	Name          string `yaml:"name"`
	EffectiveFrom string `yaml:"effective_from"`
	EffectiveTo   string `yaml:"effective_to,omitempty"`
	Rules         []Rule `yaml:"rules"`
}

// Rule references its destination by code. Omitted match fields are wildcards.
type Rule struct {
	Severity      string `yaml:"severity,omitempty"`
	ComplaintType string `yaml:"complaint_type,omitempty"`
	Priority      int    `yaml:"priority"`
	Destination   string `yaml:"destination"`
}

// PolicyAdmin is the subset of the policy service the loader drives.
type PolicyAdmin interface {
	CreateDestination(ctx context.Context, req models.CreateDestinationRequest, actor models.Actor) (*models.Destination, error)
	FindDestinationByCode(ctx context.Context, code string) (*models.Destination, error)
	ListPolicies(ctx context.Context) ([]*models.Policy, error)
	CreatePolicy(ctx context.Context, req models.CreatePolicyRequest, actor models.Actor) (*models.Policy, error)
	CreateRule(ctx context.Context, req models.CreateRuleRequest, actor models.Actor) (*models.Rule, error)
}

// Summary counts what Apply created.
type Summary struct {
	Destinations int
	Policies     int
	Rules        int
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %q: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse seed file %q: %w", path, err)
	}
	return f, nil
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, err
	}
	return &f, nil
}

// Apply creates whatever part of f does not exist yet.
func Apply(ctx context.Context, svc PolicyAdmin, f *File, actor models.Actor, logger *slog.Logger) (Summary, error) {
	var sum Summary
	codes := make(map[string]id.DestinationID, len(f.Destinations))

	for _, d := range f.Destinations {
		code := strings.ToUpper(strings.TrimSpace(d.Code))
		existing, err := svc.FindDestinationByCode(ctx, code)
		if err != nil {
			return sum, fmt.Errorf("destination %s: %w", code, err)
		}
		if existing != nil {
			codes[code] = existing.ID
			continue
		}
		created, err := svc.CreateDestination(ctx, models.CreateDestinationRequest{
			Name: d.Name, Code: code, Endpoint: d.Endpoint,
		}, actor)
		if err != nil {
			return sum, fmt.Errorf("destination %s: %w", code, err)
		}
		codes[code] = created.ID
		sum.Destinations++
	}

	existing, err := svc.ListPolicies(ctx)
	if err != nil {
		return sum, fmt.Errorf("list policies: %w", err)
	}
	for _, p := range f.Policies {
		from, to, err := p.dates()
		if err != nil {
			return sum, err
		}
		if seeded(existing, p.Name, from) {
			logger.InfoContext(ctx, "seed policy already present", "policy", p.Name)
			continue
		}
		rules, err := p.ruleRequests(ctx, svc, codes)
		if err != nil {
			return sum, err
		}
		created, err := svc.CreatePolicy(ctx, models.CreatePolicyRequest{
			Name: p.Name, EffectiveFrom: from, EffectiveTo: to,
		}, actor)
		if err != nil {
			return sum, fmt.Errorf("policy %s: %w", p.Name, err)
		}
		sum.Policies++
		for i, req := range rules {
			req.PolicyID = created.ID
			if _, err := svc.CreateRule(ctx, req, actor); err != nil {
				return sum, fmt.Errorf("policy %s rule %d: %w", p.Name, i+1, err)
			}
			sum.Rules++
		}
	}

	logger.InfoContext(ctx, "seed applied",
		"destinations_created", sum.Destinations,
		"policies_created", sum.Policies,
		"rules_created", sum.Rules,
	)
	return sum, nil
}

func (p Policy) dates() (time.Time, *time.Time, error) {
	from, err := time.Parse(time.DateOnly, strings.TrimSpace(p.EffectiveFrom))
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("policy %s: effective_from must be YYYY-MM-DD", p.Name)
	}
	if strings.TrimSpace(p.EffectiveTo) == "" {
		return from, nil, nil
	}
	to, err := time.Parse(time.DateOnly, strings.TrimSpace(p.EffectiveTo))
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("policy %s: effective_to must be YYYY-MM-DD", p.Name)
	}
	return from, &to, nil
}

// ruleRequests resolves every rule before the policy is created, so a bad
// reference does not leave an empty policy behind.
func (p Policy) ruleRequests(ctx context.Context, svc PolicyAdmin, codes map[string]id.DestinationID) ([]models.CreateRuleRequest, error) {
	out := make([]models.CreateRuleRequest, 0, len(p.Rules))
	for i, r := range p.Rules {
		req := models.CreateRuleRequest{PriorityOrder: r.Priority}
		if r.Severity != "" {
			s, err := id.ParseSeverity(r.Severity)
			if err != nil {
				return nil, fmt.Errorf("policy %s rule %d: %w", p.Name, i+1, err)
			}
			req.SeverityMatch = &s
		}
		if r.ComplaintType != "" {
			t, err := id.ParseComplaintType(r.ComplaintType)
			if err != nil {
				return nil, fmt.Errorf("policy %s rule %d: %w", p.Name, i+1, err)
			}
			req.ComplaintTypeMatch = &t
		}
		code := strings.ToUpper(strings.TrimSpace(r.Destination))
		destID, ok := codes[code]
		if !ok {
			d, err := svc.FindDestinationByCode(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("policy %s rule %d: %w", p.Name, i+1, err)
			}
			if d == nil {
				return nil, fmt.Errorf("policy %s rule %d: unknown destination %q", p.Name, i+1, code)
			}
			destID = d.ID
		}
		req.DestinationID = destID
		out = append(out, req)
	}
	return out, nil
}

func seeded(existing []*models.Policy, name string, from time.Time) bool {
	for _, p := range existing {
		if p.Name == name && models.DateOf(p.EffectiveFrom).Equal(models.DateOf(from)) {
			return true
		}
	}
	return false
}
