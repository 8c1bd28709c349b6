package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmarcu/contacts-api/internal/model"
)

// ContactRepo provides access to the 'contacts' table. Every read and
// write takes the owner id and folds it into the WHERE clause, so an id
// that exists under another owner behaves exactly like a missing row. The
// check is part of the statement itself, never a separate query, to avoid
// a TOCTOU window between existence and permission checks.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

const contactColumns = "id, owner_id, name, email, phone, favorite, created_at, updated_at"

func scanContact(row *sql.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone,
		&c.Favorite, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns a page of the owner's contacts, optionally filtered on the
// favorite flag. skip/limit implement offset pagination.
func (r *ContactRepo) List(ctx context.Context, ownerID uint64, favorite *bool, skip, limit int) ([]model.Contact, error) {
	q := "SELECT " + contactColumns + " FROM contacts WHERE owner_id=?"
	args := []interface{}{ownerID}
	if favorite != nil {
		q += " AND favorite=?"
		args = append(args, *favorite)
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone,
			&c.Favorite, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByIDAndOwner retrieves a contact by id scoped to its owner.
func (r *ContactRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	return scanContact(r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id=? AND owner_id=?", id, ownerID))
}

// Create inserts a contact already bound to its owner and populates the ID.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contacts (owner_id, name, email, phone, favorite) VALUES (?,?,?,?,?)",
		c.OwnerID, c.Name, c.Email, c.Phone, c.Favorite)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// UpdateByIDAndOwner replaces the mutable fields (name, email, phone) and
// returns the fresh record. ErrContactNotFound covers both a missing id
// and an id owned by someone else.
func (r *ContactRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name, email, phone string) (*model.Contact, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE contacts SET name=?, email=?, phone=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND owner_id=?",
		name, email, phone, id, ownerID)
	if err != nil {
		return nil, err
	}
	// MySQL reports rows changed, not rows matched, so a no-op update looks
	// identical to a missing row; the scoped re-read settles it either way.
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// UpdateFavoriteByIDAndOwner mutates only the favorite flag.
func (r *ContactRepo) UpdateFavoriteByIDAndOwner(ctx context.Context, id, ownerID uint64, favorite bool) (*model.Contact, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE contacts SET favorite=?, updated_at=CURRENT_TIMESTAMP WHERE id=? AND owner_id=?",
		favorite, id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner removes a contact and returns its last state. The
// delete statement repeats the compound predicate, so a concurrent owner
// change between read and delete still cannot remove someone else's row.
func (r *ContactRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	c, err := r.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM contacts WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrContactNotFound
	}
	return c, nil
}
