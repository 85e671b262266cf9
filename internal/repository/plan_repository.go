package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jbweber/homelab/samba/internal/domain"
)

// PlanReader is the read-only view of the plan journal
type PlanReader interface {
	Reader[domain.PlanRecord, int64]

	// FindLatestByVM returns the most recently saved plan for a machine
	FindLatestByVM(ctx context.Context, vmName string) (domain.PlanRecord, error)
}

// PlanRepository is the plan journal
type PlanRepository interface {
	PlanReader
	Writer[domain.PlanRecord, int64]

	// Close releases the repository's prepared statements
	Close() error
}

const (
	planColumns     = "id, environment, vm_name, vm_id, fqdn, document, created_at"
	planInsert      = "INSERT INTO plans (environment, vm_name, vm_id, fqdn, document) VALUES (?, ?, ?, ?, ?)"
	planByID        = "SELECT " + planColumns + " FROM plans WHERE id = ?"
	planAll         = "SELECT " + planColumns + " FROM plans ORDER BY id ASC"
	planLatestByVM  = "SELECT " + planColumns + " FROM plans WHERE vm_name = ? ORDER BY id DESC LIMIT 1"
	planDelete      = "DELETE FROM plans WHERE id = ?"
	planExistsCount = "SELECT COUNT(*) FROM plans WHERE id = ?"
)

type planRepositoryImpl struct {
	db    *sql.DB
	stmts *PreparedStatementCache
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB) PlanRepository {
	return &planRepositoryImpl{
		db:    db,
		stmts: NewPreparedStatementCache(db),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (domain.PlanRecord, error) {
	var p domain.PlanRecord
	err := row.Scan(&p.ID, &p.Environment, &p.VMName, &p.VMID, &p.FQDN, &p.Document, &p.CreatedAt)
	return p, err
}

func validatePlan(p domain.PlanRecord) error {
	switch {
	case p.VMName == "":
		return fmt.Errorf("plan has no vm name: %w", ErrInvalidEntity)
	case p.VMID <= 0:
		return fmt.Errorf("plan vm id %d is not positive: %w", p.VMID, ErrInvalidEntity)
	case p.Document == "":
		return fmt.Errorf("plan has no document: %w", ErrInvalidEntity)
	}
	return nil
}

// Save records a new plan. Journal entries are immutable, so an entity that
// already carries an ID is rejected.
func (r *planRepositoryImpl) Save(ctx context.Context, entity domain.PlanRecord) (domain.PlanRecord, error) {
	if entity.ID != 0 {
		return domain.PlanRecord{}, fmt.Errorf("update plan %d: %w", entity.ID, ErrOperationNotSupported)
	}
	if err := validatePlan(entity); err != nil {
		return domain.PlanRecord{}, err
	}

	stmt, err := r.stmts.Get(ctx, planInsert)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to prepare plan insert: %w", err)
	}
	res, err := stmt.ExecContext(ctx, entity.Environment, entity.VMName, entity.VMID, entity.FQDN, entity.Document)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to save plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return r.FindByID(ctx, id)
}

// FindByID retrieves a plan by its ID
func (r *planRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.PlanRecord, error) {
	stmt, err := r.stmts.Get(ctx, planByID)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to prepare plan lookup: %w", err)
	}
	p, err := scanPlan(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlanRecord{}, fmt.Errorf("plan with ID %d: %w", id, ErrNotFound)
		}
		return domain.PlanRecord{}, fmt.Errorf("failed to find plan: %w", err)
	}
	return p, nil
}

// FindAll retrieves all plans, oldest first
func (r *planRepositoryImpl) FindAll(ctx context.Context) ([]domain.PlanRecord, error) {
	rows, err := r.db.QueryContext(ctx, planAll)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.PlanRecord{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// DeleteByID deletes a plan by its ID
func (r *planRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	stmt, err := r.stmts.Get(ctx, planDelete)
	if err != nil {
		return fmt.Errorf("failed to prepare plan delete: %w", err)
	}
	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plan with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// ExistsByID checks if a plan exists by its ID
func (r *planRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	stmt, err := r.stmts.Get(ctx, planExistsCount)
	if err != nil {
		return false, fmt.Errorf("failed to prepare plan existence check: %w", err)
	}
	var count int
	if err := stmt.QueryRowContext(ctx, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check plan existence: %w", err)
	}
	return count > 0, nil
}

// FindLatestByVM returns the newest plan recorded for vmName
func (r *planRepositoryImpl) FindLatestByVM(ctx context.Context, vmName string) (domain.PlanRecord, error) {
	stmt, err := r.stmts.Get(ctx, planLatestByVM)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to prepare plan lookup: %w", err)
	}
	p, err := scanPlan(stmt.QueryRowContext(ctx, vmName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlanRecord{}, fmt.Errorf("plan for vm %q: %w", vmName, ErrNotFound)
		}
		return domain.PlanRecord{}, fmt.Errorf("failed to find plan: %w", err)
	}
	return p, nil
}

func (r *planRepositoryImpl) Close() error {
	return r.stmts.Close()
}
