package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vozsegura/internal/derivation/models"
	"vozsegura/internal/platform/postgres"
	id "vozsegura/pkg/domain"
	txcontext "vozsegura/pkg/platform/tx"
)

// PostgresStore persists the rule set in PostgreSQL. Every method joins the
// ambient transaction when one is carried in ctx.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const policyColumns = `id, name, version, effective_from, effective_to, active, in_use, created_by, created_at, updated_at`

func (s *PostgresStore) CreatePolicy(ctx context.Context, p *models.Policy) error {
	const query = `
		INSERT INTO derivation_policies (name, version, effective_from, effective_to, active, in_use, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var newID int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		p.Name, p.Version, p.EffectiveFrom, nullTime(p.EffectiveTo), p.Active, p.InUse, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	).Scan(&newID)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	p.ID = id.PolicyID(newID)
	return nil
}

func (s *PostgresStore) GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM derivation_policies WHERE id = $1`
	return s.scanPolicy(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(policyID)))
}

// LockPolicy reads the policy with a row lock held until the ambient
// transaction ends, serializing rule changes against MarkInUse.
func (s *PostgresStore) LockPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM derivation_policies WHERE id = $1 FOR UPDATE`
	return s.scanPolicy(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(policyID)))
}

func (s *PostgresStore) UpdatePolicy(ctx context.Context, p *models.Policy) error {
	const query = `
		UPDATE derivation_policies
		SET name = $2, effective_from = $3, effective_to = $4, active = $5, in_use = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		int64(p.ID), p.Name, p.EffectiveFrom, nullTime(p.EffectiveTo), p.Active, p.InUse, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	return requireOneRow(res, "update policy")
}

func (s *PostgresStore) ListPolicies(ctx context.Context) ([]*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM derivation_policies ORDER BY effective_from DESC, id DESC`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*models.Policy
	for rows.Next() {
		p, err := s.scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return out, nil
}

// FindEffectivePolicy returns nil, nil when no active policy covers onDate.
func (s *PostgresStore) FindEffectivePolicy(ctx context.Context, onDate time.Time) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM derivation_policies
		WHERE active
		  AND effective_from <= $1
		  AND (effective_to IS NULL OR effective_to >= $1)
		ORDER BY effective_from DESC, id DESC
		LIMIT 1`
	p, err := s.scanPolicy(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, models.DateOf(onDate)))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// MarkInUse flags the policy and reports whether the flag changed.
func (s *PostgresStore) MarkInUse(ctx context.Context, policyID id.PolicyID, now time.Time) (bool, error) {
	const query = `UPDATE derivation_policies SET in_use = TRUE, updated_at = $2 WHERE id = $1 AND NOT in_use`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, int64(policyID), now)
	if err != nil {
		return false, fmt.Errorf("mark policy in use: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark policy in use rows affected: %w", err)
	}
	return n == 1, nil
}

const ruleColumns = `r.id, r.policy_id, r.severity_match, r.complaint_type_match, r.priority_order, r.destination_id, r.active, r.created_at, r.updated_at`

func (s *PostgresStore) CreateRule(ctx context.Context, r *models.Rule) error {
	const query = `
		INSERT INTO derivation_rules (policy_id, severity_match, complaint_type_match, priority_order, destination_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var newID int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		int64(r.PolicyID), severityArg(r.SeverityMatch), typeArg(r.ComplaintTypeMatch), r.PriorityOrder,
		int64(r.DestinationID), r.Active, r.CreatedAt, r.UpdatedAt,
	).Scan(&newID)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	r.ID = id.RuleID(newID)
	return nil
}

func (s *PostgresStore) GetRule(ctx context.Context, ruleID id.RuleID) (*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM derivation_rules r WHERE r.id = $1`
	r, err := scanRule(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(ruleID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateRule(ctx context.Context, r *models.Rule) error {
	const query = `
		UPDATE derivation_rules
		SET severity_match = $2, complaint_type_match = $3, priority_order = $4, destination_id = $5, active = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		int64(r.ID), severityArg(r.SeverityMatch), typeArg(r.ComplaintTypeMatch), r.PriorityOrder,
		int64(r.DestinationID), r.Active, r.UpdatedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update rule: %w", err)
	}
	return requireOneRow(res, "update rule")
}

func (s *PostgresStore) ListRules(ctx context.Context, policyID id.PolicyID) ([]*models.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM derivation_rules r WHERE r.policy_id = $1 ORDER BY r.priority_order, r.id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, int64(policyID))
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*models.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// ResolvedRules loads every rule of the policy joined with its destination in
// one round trip.
func (s *PostgresStore) ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error) {
	query := `SELECT ` + ruleColumns + `, ` + destinationColumns + `
		FROM derivation_rules r
		JOIN destination_authorities d ON d.id = r.destination_id
		WHERE r.policy_id = $1
		ORDER BY r.priority_order, r.id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, int64(policyID))
	if err != nil {
		return nil, fmt.Errorf("load resolved rules: %w", err)
	}
	defer rows.Close()

	var out []models.ResolvedRule
	for rows.Next() {
		var (
			rr       models.ResolvedRule
			severity sql.NullString
			ctype    sql.NullString
			ruleID   int64
			policy   int64
			ruleDest int64
			destID   int64
		)
		if err := rows.Scan(
			&ruleID, &policy, &severity, &ctype, &rr.Rule.PriorityOrder, &ruleDest, &rr.Rule.Active, &rr.Rule.CreatedAt, &rr.Rule.UpdatedAt,
			&destID, &rr.Destination.Name, &rr.Destination.Code, &rr.Destination.Endpoint, &rr.Destination.Active, &rr.Destination.CreatedAt, &rr.Destination.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resolved rule: %w", err)
		}
		rr.Rule.ID = id.RuleID(ruleID)
		rr.Rule.PolicyID = id.PolicyID(policy)
		rr.Rule.DestinationID = id.DestinationID(ruleDest)
		rr.Rule.SeverityMatch = severityPtr(severity)
		rr.Rule.ComplaintTypeMatch = typePtr(ctype)
		rr.Destination.ID = id.DestinationID(destID)
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved rules: %w", err)
	}
	return out, nil
}

const destinationColumns = `d.id, d.name, d.code, d.endpoint, d.active, d.created_at, d.updated_at`

func (s *PostgresStore) CreateDestination(ctx context.Context, d *models.Destination) error {
	const query = `
		INSERT INTO destination_authorities (name, code, endpoint, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var newID int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		d.Name, d.Code, d.Endpoint, d.Active, d.CreatedAt, d.UpdatedAt,
	).Scan(&newID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert destination: %w", err)
	}
	d.ID = id.DestinationID(newID)
	return nil
}

func (s *PostgresStore) GetDestination(ctx context.Context, destID id.DestinationID) (*models.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destination_authorities d WHERE d.id = $1`
	return scanDestination(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(destID)))
}

func (s *PostgresStore) FindDestinationByCode(ctx context.Context, code string) (*models.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destination_authorities d WHERE d.code = $1`
	return scanDestination(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, code))
}

func (s *PostgresStore) UpdateDestination(ctx context.Context, d *models.Destination) error {
	const query = `
		UPDATE destination_authorities SET name = $2, endpoint = $3, active = $4, updated_at = $5 WHERE id = $1
	`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, int64(d.ID), d.Name, d.Endpoint, d.Active, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update destination: %w", err)
	}
	return requireOneRow(res, "update destination")
}

func (s *PostgresStore) ListDestinations(ctx context.Context) ([]*models.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destination_authorities d ORDER BY d.id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer rows.Close()

	var out []*models.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanPolicy(row scanner) (*models.Policy, error) {
	var (
		p        models.Policy
		policyID int64
		to       sql.NullTime
	)
	err := row.Scan(&policyID, &p.Name, &p.Version, &p.EffectiveFrom, &to, &p.Active, &p.InUse, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	p.ID = id.PolicyID(policyID)
	p.EffectiveFrom = models.DateOf(p.EffectiveFrom)
	if to.Valid {
		d := models.DateOf(to.Time)
		p.EffectiveTo = &d
	}
	return &p, nil
}

func scanRule(row scanner) (*models.Rule, error) {
	var (
		r        models.Rule
		ruleID   int64
		policyID int64
		destID   int64
		severity sql.NullString
		ctype    sql.NullString
	)
	if err := row.Scan(&ruleID, &policyID, &severity, &ctype, &r.PriorityOrder, &destID, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.RuleID(ruleID)
	r.PolicyID = id.PolicyID(policyID)
	r.DestinationID = id.DestinationID(destID)
	r.SeverityMatch = severityPtr(severity)
	r.ComplaintTypeMatch = typePtr(ctype)
	return &r, nil
}

func scanDestination(row scanner) (*models.Destination, error) {
	var (
		d      models.Destination
		destID int64
	)
	if err := row.Scan(&destID, &d.Name, &d.Code, &d.Endpoint, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan destination: %w", err)
	}
	d.ID = id.DestinationID(destID)
	return &d, nil
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func severityArg(s *id.Severity) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func typeArg(c *id.ComplaintType) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func severityPtr(v sql.NullString) *id.Severity {
	if !v.Valid {
		return nil
	}
	s := id.Severity(v.String)
	return &s
}

func typePtr(v sql.NullString) *id.ComplaintType {
	if !v.Valid {
		return nil
	}
	c := id.ComplaintType(v.String)
	return &c
}
