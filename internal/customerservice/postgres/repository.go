// Package postgres implements the Customer service's persistence port
// (service.Repository) over pgx, grounded on
// internal/infrastructure/database/postgres/postgres.go pool-and-query
// idiom generalized from the account/transaction schema to person/customer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/customerservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, c *domain.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create customer: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO person (id, display_name, national_identifier, birth_date, address, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.CustomerID, c.Person.DisplayName, c.Person.NationalIdentifier,
		c.Person.BirthDate, c.Person.Address, c.Person.Phone, c.Person.Email,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO customer (person_id, active, password_hash, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.CustomerID, c.Active, c.PasswordHash, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const selectCustomer = `
	SELECT p.id, p.display_name, p.national_identifier, p.birth_date, p.address, p.phone, p.email,
	       c.active, c.password_hash, c.version, c.created_at, c.updated_at
	FROM customer c
	JOIN person p ON p.id = c.person_id
	WHERE p.id = $1`

func (r *Repository) GetByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, selectCustomer, customerID))
}

func (r *Repository) GetByNationalIdentifier(ctx context.Context, nationalID string) (*domain.Customer, error) {
	query := `
		SELECT p.id, p.display_name, p.national_identifier, p.birth_date, p.address, p.phone, p.email,
		       c.active, c.password_hash, c.version, c.created_at, c.updated_at
		FROM customer c
		JOIN person p ON p.id = c.person_id
		WHERE p.national_identifier = $1`
	return scanCustomer(r.pool.QueryRow(ctx, query, nationalID))
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.CustomerID, &c.Person.DisplayName, &c.Person.NationalIdentifier,
		&c.Person.BirthDate, &c.Person.Address, &c.Person.Phone, &c.Person.Email,
		&c.Active, &c.PasswordHash, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apierror.CustomerNotFound("")
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, filter service.ListFilter) ([]domain.Customer, error) {
	query := `
		SELECT p.id, p.display_name, p.national_identifier, p.birth_date, p.address, p.phone, p.email,
		       c.active, c.password_hash, c.version, c.created_at, c.updated_at
		FROM customer c
		JOIN person p ON p.id = c.person_id`
	args := []interface{}{}
	if filter.Active != nil {
		query += fmt.Sprintf(" WHERE c.active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	query += " ORDER BY c.created_at"

	page, size := filter.Page, filter.Size
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", size, page*size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.CustomerID, &c.Person.DisplayName, &c.Person.NationalIdentifier,
			&c.Person.BirthDate, &c.Person.Address, &c.Person.Phone, &c.Person.Email,
			&c.Active, &c.PasswordHash, &c.Version, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update mutates only the demographic/contact fields, under an optimistic
// concurrency compare-and-swap on version; active is left untouched.
func (r *Repository) Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Customer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE customer SET version = version + 1, updated_at = $1
		WHERE person_id = $2 AND version = $3`,
		time.Now().UTC(), cmd.CustomerID, cmd.ExpectedVersion,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, cmd.CustomerID); err != nil {
			return nil, err
		}
		return nil, apierror.VersionConflict()
	}

	_, err = tx.Exec(ctx, `
		UPDATE person SET display_name = $1, birth_date = $2, address = $3, phone = $4, email = $5
		WHERE id = $6`,
		cmd.Person.DisplayName, cmd.Person.BirthDate, cmd.Person.Address, cmd.Person.Phone, cmd.Person.Email,
		cmd.CustomerID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, cmd.CustomerID)
}

func (r *Repository) PatchState(ctx context.Context, cmd domain.PatchStateCommand) (*domain.Customer, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customer SET active = $1, version = version + 1, updated_at = $2
		WHERE person_id = $3 AND version = $4`,
		cmd.Active, time.Now().UTC(), cmd.CustomerID, cmd.ExpectedVersion,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, cmd.CustomerID); err != nil {
			return nil, err
		}
		return nil, apierror.VersionConflict()
	}
	return r.GetByID(ctx, cmd.CustomerID)
}

func (r *Repository) ChangePassword(ctx context.Context, cmd domain.ChangePasswordCommand) (*domain.Customer, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customer SET password_hash = $1, version = version + 1, updated_at = $2
		WHERE person_id = $3 AND version = $4`,
		cmd.NewPasswordHash, time.Now().UTC(), cmd.CustomerID, cmd.ExpectedVersion,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, cmd.CustomerID); err != nil {
			return nil, err
		}
		return nil, apierror.VersionConflict()
	}
	return r.GetByID(ctx, cmd.CustomerID)
}

func (r *Repository) Delete(ctx context.Context, customerID string, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM person WHERE id = $1 AND EXISTS (
			SELECT 1 FROM customer WHERE person_id = $1 AND version = $2
		)`, customerID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, customerID); err != nil {
			return err
		}
		return apierror.VersionConflict()
	}
	return nil
}
