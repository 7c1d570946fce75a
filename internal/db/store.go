package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/churnwatch/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ResetCustomers drops the whole customer dataset, including derived factor
// rows and applied actions. Used by the import endpoint before a fresh load.
func (s *Store) ResetCustomers(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `TRUNCATE customers, risk_factors, applied_actions RESTART IDENTITY`)
	return err
}

func (s *Store) InsertCustomers(ctx context.Context, customers []models.Customer) (int64, error) {
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{c.ID, c.Name, c.Email, c.Phone, c.AccountValue, c.RiskScore, c.LastActivity, c.Segment, c.CreatedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"customers"},
		[]string{"id", "name", "email", "phone", "account_value", "risk_score", "last_activity", "segment", "created_at"},
		pgx.CopyFromRows(rows))
}

func (s *Store) InsertRiskFactors(ctx context.Context, customerID string, factors []models.RiskFactor) (int64, error) {
	rows := make([][]any, 0, len(factors))
	for i, f := range factors {
		rows = append(rows, []any{customerID, f.Name, f.Contribution, i})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"risk_factors"},
		[]string{"customer_id", "name", "contribution", "position"},
		pgx.CopyFromRows(rows))
}

// ListCustomers returns all records without factor rows; factors are loaded
// per customer on the detail path.
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, email, phone, account_value, risk_score, last_activity, segment, created_at
		FROM customers
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.AccountValue, &c.RiskScore, &c.LastActivity, &c.Segment, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (models.Customer, error) {
	var c models.Customer
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, phone, account_value, risk_score, last_activity, segment, created_at
		FROM customers WHERE id = $1
	`, customerID).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.AccountValue, &c.RiskScore, &c.LastActivity, &c.Segment, &c.CreatedAt)
	if err != nil {
		return models.Customer{}, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT name, contribution FROM risk_factors WHERE customer_id = $1 ORDER BY position ASC
	`, customerID)
	if err != nil {
		return models.Customer{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var f models.RiskFactor
		if err := rows.Scan(&f.Name, &f.Contribution); err != nil {
			return models.Customer{}, err
		}
		c.Factors = append(c.Factors, f)
	}
	return c, rows.Err()
}

func (s *Store) UpdateCustomerScore(ctx context.Context, tx pgx.Tx, customerID string, score float64, factors []models.RiskFactor) error {
	if _, err := tx.Exec(ctx, `UPDATE customers SET risk_score = $1 WHERE id = $2`, score, customerID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM risk_factors WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	for i, f := range factors {
		if _, err := tx.Exec(ctx, `
			INSERT INTO risk_factors (customer_id, name, contribution, position) VALUES ($1, $2, $3, $4)
		`, customerID, f.Name, f.Contribution, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListRetentionActions(ctx context.Context) ([]models.RetentionAction, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, description, impact, cost, recovered_value
		FROM retention_actions
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RetentionAction
	for rows.Next() {
		var a models.RetentionAction
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Impact, &a.Cost, &a.RecoveredValue); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// EnsureDefaultActions seeds the catalog on first boot so a fresh install
// has something to recommend.
func (s *Store) EnsureDefaultActions(ctx context.Context) error {
	var count int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM retention_actions`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		id, name, description string
		impact                models.ImpactTier
		cost                  float64
		recovered             *float64
	}{
		{"fee-waiver-6mo", "Fee waiver - 6mo", "Waive monthly account fees for 6 months", models.ImpactHigh, 120, ptr(540.0)},
		{"savings-rate-boost", "Savings rate boost", "Offer +0.5% on savings for 1 year", models.ImpactMedium, 85, ptr(320.0)},
		{"personal-callback", "Personal callback", "Schedule relationship manager call", models.ImpactHigh, 50, ptr(420.0)},
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for i, d := range defaults {
			if _, err := tx.Exec(ctx, `
				INSERT INTO retention_actions (id, name, description, impact, cost, recovered_value, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, d.id, d.name, d.description, d.impact, d.cost, d.recovered, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) InsertAppliedAction(ctx context.Context, a models.AppliedAction) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO applied_actions (id, customer_id, action_id, applied_at) VALUES ($1, $2, $3, $4)
	`, a.ID, a.CustomerID, a.ActionID, a.AppliedAt)
	return err
}

func (s *Store) ListAppliedActions(ctx context.Context) ([]models.AppliedAction, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, customer_id, action_id, applied_at FROM applied_actions ORDER BY applied_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AppliedAction
	for rows.Next() {
		var a models.AppliedAction
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.ActionID, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, runID, status string) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, NOW())`, runID, status)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	var r models.Run
	err := s.Pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Summary)
	if err != nil {
		return models.Run{}, err
	}
	return r, nil
}

func ptr(v float64) *float64 {
	return &v
}
