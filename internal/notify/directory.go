package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type Directory interface {
	FarmerEmails(ctx context.Context, farmerIDs []int64) (map[int64]string, error)
}

// UserDirectory reads contact addresses from the users table.
type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// FarmerEmails maps each known farmer id to its email. Farmers without an
// address are included with an empty string; unknown ids are absent.
func (d *UserDirectory) FarmerEmails(ctx context.Context, farmerIDs []int64) (map[int64]string, error) {
	emails := make(map[int64]string, len(farmerIDs))
	if len(farmerIDs) == 0 {
		return emails, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT user_id, email
		FROM users
		WHERE user_id = ANY($1) AND role = 'farmer'
	`, pq.Array(farmerIDs))
	if err != nil {
		return nil, fmt.Errorf("read farmer emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id    int64
			email string
		)
		if err := rows.Scan(&id, &email); err != nil {
			return nil, fmt.Errorf("scan farmer email: %w", err)
		}
		emails[id] = email
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read farmer emails: %w", err)
	}

	return emails, nil
}
