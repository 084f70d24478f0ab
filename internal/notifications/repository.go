// internal/notifications/repository.go

package notifications

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetDriverContactForTrip(ctx context.Context, tripID int64) (*DriverContact, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
        INSERT INTO notifications (id, owner_id, type, title, message, data)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at
    `

	return r.db.QueryRowxContext(
		ctx, query,
		n.ID, n.OwnerID, n.Type, n.Title, n.Message, n.Data,
	).Scan(&n.CreatedAt)
}

func (r *postgresRepository) GetDriverContactForTrip(ctx context.Context, tripID int64) (*DriverContact, error) {
	var contact DriverContact
	query := `
        SELECT d.id AS driver_id, d.name, d.email, d.phone
        FROM drivers d
        JOIN trips t ON t.driver_id = d.id
        WHERE t.id = $1
    `

	err := r.db.GetContext(ctx, &contact, query, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &contact, nil
}
