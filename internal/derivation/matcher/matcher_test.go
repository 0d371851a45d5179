package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/testutil"
)

func sev(s id.Severity) *id.Severity           { return &s }
func typ(c id.ComplaintType) *id.ComplaintType { return &c }

func rule(ruleID id.RuleID, priority int, s *id.Severity, c *id.ComplaintType, dest string) models.ResolvedRule {
	return models.ResolvedRule{
		Rule: models.Rule{
			ID:                 ruleID,
			PolicyID:           1,
			SeverityMatch:      s,
			ComplaintTypeMatch: c,
			PriorityOrder:      priority,
			DestinationID:      id.DestinationID(ruleID),
			Active:             true,
		},
		Destination: models.Destination{ID: id.DestinationID(ruleID), Name: dest, Code: dest, Active: true},
	}
}

func TestSelect(t *testing.T) {
	testutil.Given(t, "an exact rule and a catch-all", func(t *testing.T) {
		rules := []models.ResolvedRule{
			rule(1, 10, sev(id.SeverityHigh), typ(id.ComplaintTypeCorruption), "Fiscalia"),
			rule(2, 100, nil, nil, "DefaultQueue"),
		}

		testutil.Then(t, "the exact classification goes to the exact rule", func(t *testing.T) {
			got, ok := Select(rules, id.SeverityHigh, id.ComplaintTypeCorruption)
			require.True(t, ok)
			assert.Equal(t, "Fiscalia", got.Destination.Name)
		})

		testutil.Then(t, "anything else falls through to the catch-all", func(t *testing.T) {
			got, ok := Select(rules, id.SeverityLow, id.ComplaintTypeOther)
			require.True(t, ok)
			assert.Equal(t, "DefaultQueue", got.Destination.Name)
		})
	})

	testutil.Given(t, "equal priorities", func(t *testing.T) {
		rules := []models.ResolvedRule{
			rule(1, 5, nil, nil, "Wildcard"),
			rule(2, 5, sev(id.SeverityCritical), nil, "SeverityOnly"),
			rule(3, 5, sev(id.SeverityCritical), typ(id.ComplaintTypeSafety), "Exact"),
		}

		testutil.Then(t, "the most specific rule wins", func(t *testing.T) {
			got, ok := Select(rules, id.SeverityCritical, id.ComplaintTypeSafety)
			require.True(t, ok)
			assert.Equal(t, "Exact", got.Destination.Name)

			got, ok = Select(rules, id.SeverityCritical, id.ComplaintTypeFraud)
			require.True(t, ok)
			assert.Equal(t, "SeverityOnly", got.Destination.Name)
		})
	})

	testutil.Given(t, "equal priority and specificity", func(t *testing.T) {
		rules := []models.ResolvedRule{
			rule(9, 1, sev(id.SeverityLow), nil, "Later"),
			rule(4, 1, nil, typ(id.ComplaintTypeFraud), "Earlier"),
		}

		testutil.Then(t, "the lowest rule id wins", func(t *testing.T) {
			got, ok := Select(rules, id.SeverityLow, id.ComplaintTypeFraud)
			require.True(t, ok)
			assert.Equal(t, id.RuleID(4), got.Rule.ID)
		})
	})

	testutil.Given(t, "a generic rule with a better priority than an exact rule", func(t *testing.T) {
		rules := []models.ResolvedRule{
			rule(1, 20, sev(id.SeverityHigh), typ(id.ComplaintTypeFraud), "Exact"),
			rule(2, 10, nil, nil, "Generic"),
		}

		testutil.Then(t, "priority beats specificity", func(t *testing.T) {
			got, ok := Select(rules, id.SeverityHigh, id.ComplaintTypeFraud)
			require.True(t, ok)
			assert.Equal(t, "Generic", got.Destination.Name)
		})
	})

	testutil.Given(t, "only inactive or non-matching rules", func(t *testing.T) {
		inactive := rule(1, 1, nil, nil, "Retired")
		inactive.Rule.Active = false
		rules := []models.ResolvedRule{
			inactive,
			rule(2, 2, sev(id.SeverityLow), nil, "LowOnly"),
		}

		testutil.Then(t, "nothing is selected", func(t *testing.T) {
			_, ok := Select(rules, id.SeverityHigh, id.ComplaintTypeFraud)
			assert.False(t, ok)
		})
	})

	testutil.Given(t, "no rules", func(t *testing.T) {
		testutil.Then(t, "nothing is selected", func(t *testing.T) {
			_, ok := Select(nil, id.SeverityHigh, id.ComplaintTypeFraud)
			assert.False(t, ok)
		})
	})
}

type stubSource struct {
	rules []models.ResolvedRule
	err   error
	calls int
}

func (s *stubSource) ResolvedRules(context.Context, id.PolicyID) ([]models.ResolvedRule, error) {
	s.calls++
	return s.rules, s.err
}

func TestMatcher_MatchRule(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the match with its destination", func(t *testing.T) {
		src := &stubSource{rules: []models.ResolvedRule{rule(1, 10, nil, nil, "DefaultQueue")}}
		m, err := New(src).MatchRule(ctx, 7, id.SeverityLow, id.ComplaintTypeOther)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, id.PolicyID(7), m.PolicyID)
		assert.Equal(t, "DefaultQueue", m.Destination.Name)
	})

	t.Run("no match is nil without error", func(t *testing.T) {
		m, err := New(&stubSource{}).MatchRule(ctx, 7, id.SeverityLow, id.ComplaintTypeOther)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("invalid classification is rejected before loading", func(t *testing.T) {
		src := &stubSource{}
		_, err := New(src).MatchRule(ctx, 7, id.Severity("URGENT"), id.ComplaintTypeOther)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = New(src).MatchRule(ctx, 7, id.SeverityLow, id.ComplaintType("SPAM"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Zero(t, src.calls)
	})

	t.Run("source errors propagate", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := New(&stubSource{err: boom}).MatchRule(ctx, 7, id.SeverityLow, id.ComplaintTypeOther)
		assert.ErrorIs(t, err, boom)
	})
}
