package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RideRepository handles database operations for rides. Status changes are
// conditional updates keyed on the expected current status, so concurrent
// transitions on one ride have a single winner.
type RideRepository struct {
	db *pgxpool.Pool
}

// NewRideRepository creates a new ride repository
func NewRideRepository(db *pgxpool.Pool) *RideRepository {
	return &RideRepository{db: db}
}

const rideSelect = `
	SELECT r.id, r.user_id, r.captain_id, r.pickup, r.destination, r.vehicle_type,
	       r.status, r.fare, r.otp, r.created_at,
	       u.id, u.first_name, u.last_name, u.email, u.mobile, u.socket_id,
	       u.email_verified, u.mobile_verified, u.created_at,
	       c.id, c.first_name, c.last_name, c.email, c.socket_id, c.status,
	       c.vehicle_color, c.vehicle_plate, c.vehicle_capacity, c.vehicle_type,
	       c.lat, c.lng, c.created_at
	FROM rides r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN captains c ON c.id = r.captain_id
`

// Create creates a new ride
func (r *RideRepository) Create(ctx context.Context, ride *models.Ride) error {
	query := `
		INSERT INTO rides (id, user_id, pickup, destination, vehicle_type, status, fare, otp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		ride.ID, ride.UserID, ride.Pickup, ride.Destination, string(ride.VehicleType),
		string(ride.Status), ride.Fare, ride.OTP, ride.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

// GetByID retrieves a ride with its user and captain
func (r *RideRepository) GetByID(ctx context.Context, id string, proj models.Projection) (*models.Ride, error) {
	ride, err := scanRide(r.db.QueryRow(ctx, rideSelect+` WHERE r.id = $1`, id), proj)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ride not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

// ListByUser returns a user's rides, newest first
func (r *RideRepository) ListByUser(ctx context.Context, userID string) ([]*models.Ride, error) {
	return r.list(ctx, rideSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
}

// ListByCaptain returns a captain's rides, newest first
func (r *RideRepository) ListByCaptain(ctx context.Context, captainID string) ([]*models.Ride, error) {
	return r.list(ctx, rideSelect+` WHERE r.captain_id = $1 ORDER BY r.created_at DESC`, captainID)
}

func (r *RideRepository) list(ctx context.Context, query, arg string) ([]*models.Ride, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get rides: %w", err)
	}
	defer rows.Close()

	rides := []*models.Ride{}
	for rows.Next() {
		ride, err := scanRide(rows, models.WithoutOTP)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rides: %w", err)
	}
	return rides, nil
}

// Accept binds the captain and moves a requested ride to accepted.
// It reports false when the ride is missing or no longer requested.
func (r *RideRepository) Accept(ctx context.Context, rideID, captainID string) (bool, error) {
	query := `
		UPDATE rides SET status = 'accepted', captain_id = $2
		WHERE id = $1 AND status = 'requested'
	`
	result, err := r.db.Exec(ctx, query, rideID, captainID)
	if err != nil {
		return false, fmt.Errorf("failed to accept ride: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Start moves an accepted ride to ongoing when the code matches.
// It reports false when the ride is missing, not accepted or the code differs.
func (r *RideRepository) Start(ctx context.Context, rideID, otp string) (bool, error) {
	query := `
		UPDATE rides SET status = 'ongoing'
		WHERE id = $1 AND status = 'accepted' AND otp = $2
	`
	result, err := r.db.Exec(ctx, query, rideID, otp)
	if err != nil {
		return false, fmt.Errorf("failed to start ride: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Complete moves the captain's ongoing ride to completed.
// It reports false when no ongoing ride matches the id and captain.
func (r *RideRepository) Complete(ctx context.Context, rideID, captainID string) (bool, error) {
	query := `
		UPDATE rides SET status = 'completed'
		WHERE id = $1 AND captain_id = $2 AND status = 'ongoing'
	`
	result, err := r.db.Exec(ctx, query, rideID, captainID)
	if err != nil {
		return false, fmt.Errorf("failed to complete ride: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanRide(row pgx.Row, proj models.Projection) (*models.Ride, error) {
	var ride models.Ride
	var user models.User
	var (
		cID, cFirst, cLast, cEmail, cSocket, cStatus *string
		cColor, cPlate, cType                        *string
		cCapacity                                    *int
		cLat, cLng                                   *float64
		cCreated                                     *time.Time
	)

	err := row.Scan(
		&ride.ID, &ride.UserID, &ride.CaptainID, &ride.Pickup, &ride.Destination, &ride.VehicleType,
		&ride.Status, &ride.Fare, &ride.OTP, &ride.CreatedAt,
		&user.ID, &user.FullName.FirstName, &user.FullName.LastName, &user.Email, &user.Mobile,
		&user.SocketID, &user.EmailVerified, &user.MobileVerified, &user.CreatedAt,
		&cID, &cFirst, &cLast, &cEmail, &cSocket, &cStatus,
		&cColor, &cPlate, &cCapacity, &cType,
		&cLat, &cLng, &cCreated,
	)
	if err != nil {
		return nil, err
	}

	if proj != models.WithOTP {
		ride.OTP = ""
	}
	ride.User = &user

	if cID != nil {
		c := &models.Captain{
			ID:       *cID,
			FullName: models.FullName{FirstName: deref(cFirst), LastName: deref(cLast)},
			Email:    deref(cEmail),
			SocketID: cSocket,
			Status:   models.CaptainStatus(deref(cStatus)),
			Vehicle: models.Vehicle{
				Color:       deref(cColor),
				Plate:       deref(cPlate),
				VehicleType: models.VehicleType(deref(cType)),
			},
		}
		if cCapacity != nil {
			c.Vehicle.Capacity = *cCapacity
		}
		if cLat != nil && cLng != nil {
			c.Location = &models.Location{Lat: *cLat, Lng: *cLng}
		}
		if cCreated != nil {
			c.CreatedAt = *cCreated
		}
		ride.Captain = c
	}
	return &ride, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
