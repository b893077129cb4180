package store

import (
	"context"

	"ielts-payments/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	planSelect = `SELECT id, name, period, price, writing_attempts, speaking_attempts,
		reading_attempts, listening_attempts, is_active FROM plans WHERE id = $1`
	packageSelect = `SELECT id, name, type, attempts, writing_attempts, speaking_attempts,
		reading_attempts, listening_attempts, price, is_active FROM attempt_packages WHERE id = $1`
)

// GetPlan retrieves a subscription plan by ID
func (s *Store) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	return getPlan(ctx, s.db, id)
}

// GetPackage retrieves an attempt package by ID
func (s *Store) GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error) {
	return getPackage(ctx, s.db, id)
}

func (t *pgTx) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	return getPlan(ctx, t.tx, id)
}

func (t *pgTx) GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error) {
	return getPackage(ctx, t.tx, id)
}

func getPlan(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Plan, error) {
	var plan models.Plan
	if err := sqlx.GetContext(ctx, q, &plan, planSelect, id); err != nil {
		return nil, notFound(err, "plan %d", id)
	}
	return &plan, nil
}

func getPackage(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.AttemptPackage, error) {
	var pkg models.AttemptPackage
	if err := sqlx.GetContext(ctx, q, &pkg, packageSelect, id); err != nil {
		return nil, notFound(err, "attempt package %d", id)
	}
	return &pkg, nil
}
