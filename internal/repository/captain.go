package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const captainGeoKey = "captains:geo"

// CaptainRepository handles database operations for captains. Positions are
// also kept in a Redis GEO set for radius lookups.
type CaptainRepository struct {
	db  *pgxpool.Pool
	rdb *redis.Client
}

// NewCaptainRepository creates a new captain repository
func NewCaptainRepository(db *pgxpool.Pool, rdb *redis.Client) *CaptainRepository {
	return &CaptainRepository{db: db, rdb: rdb}
}

const captainColumns = `id, first_name, last_name, email, password_hash, socket_id, status,
		vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type, lat, lng, created_at`

// Create creates a new captain
func (r *CaptainRepository) Create(ctx context.Context, c *models.Captain) error {
	query := `
		INSERT INTO captains (id, first_name, last_name, email, password_hash, status,
			vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.FullName.FirstName, c.FullName.LastName, c.Email, c.PasswordHash, string(c.Status),
		c.Vehicle.Color, c.Vehicle.Plate, c.Vehicle.Capacity, string(c.Vehicle.VehicleType), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("captain email taken: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create captain: %w", err)
	}
	return nil
}

// GetByID retrieves a captain by ID
func (r *CaptainRepository) GetByID(ctx context.Context, id string) (*models.Captain, error) {
	query := `SELECT ` + captainColumns + ` FROM captains WHERE id = $1`
	c, err := scanCaptain(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("captain not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get captain: %w", err)
	}
	return c, nil
}

// GetByEmail retrieves a captain by email
func (r *CaptainRepository) GetByEmail(ctx context.Context, email string) (*models.Captain, error) {
	query := `SELECT ` + captainColumns + ` FROM captains WHERE email = $1`
	c, err := scanCaptain(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("captain not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get captain by email: %w", err)
	}
	return c, nil
}

// UpdateSocketID stores the live connection id of a captain; nil clears it
func (r *CaptainRepository) UpdateSocketID(ctx context.Context, captainID string, socketID *string) error {
	query := `UPDATE captains SET socket_id = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, socketID, captainID)
	if err != nil {
		return fmt.Errorf("failed to update socket id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("captain not found: %w", ErrNotFound)
	}
	return nil
}

// ClearSocketID clears the captain's connection id if it is still socketID
func (r *CaptainRepository) ClearSocketID(ctx context.Context, captainID, socketID string) error {
	query := `UPDATE captains SET socket_id = NULL WHERE id = $1 AND socket_id = $2`
	if _, err := r.db.Exec(ctx, query, captainID, socketID); err != nil {
		return fmt.Errorf("failed to clear socket id: %w", err)
	}
	return nil
}

// UpdateLocation stores the captain's position and indexes it for radius queries
func (r *CaptainRepository) UpdateLocation(ctx context.Context, captainID string, loc models.Location) error {
	query := `UPDATE captains SET lat = $1, lng = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, loc.Lat, loc.Lng, captainID)
	if err != nil {
		return fmt.Errorf("failed to update captain location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("captain not found: %w", ErrNotFound)
	}

	err = r.rdb.GeoAdd(ctx, captainGeoKey, &redis.GeoLocation{
		Name:      captainID,
		Longitude: loc.Lng,
		Latitude:  loc.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index captain location: %w", err)
	}
	return nil
}

// FindInRadius returns the captains within radiusKm of the point, nearest first
func (r *CaptainRepository) FindInRadius(ctx context.Context, center models.Location, radiusKm float64) ([]*models.Captain, error) {
	ids, err := r.rdb.GeoSearch(ctx, captainGeoKey, &redis.GeoSearchQuery{
		Longitude:  center.Lng,
		Latitude:   center.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search captain locations: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + captainColumns + ` FROM captains WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get captains: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Captain, len(ids))
	for rows.Next() {
		c, err := scanCaptain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan captain: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating captains: %w", err)
	}

	// keep the distance order from the GEO search
	captains := make([]*models.Captain, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			captains = append(captains, c)
		}
	}
	return captains, nil
}

func scanCaptain(row pgx.Row) (*models.Captain, error) {
	var c models.Captain
	var lat, lng *float64
	err := row.Scan(
		&c.ID, &c.FullName.FirstName, &c.FullName.LastName, &c.Email, &c.PasswordHash,
		&c.SocketID, &c.Status, &c.Vehicle.Color, &c.Vehicle.Plate, &c.Vehicle.Capacity,
		&c.Vehicle.VehicleType, &lat, &lng, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		c.Location = &models.Location{Lat: *lat, Lng: *lng}
	}
	return &c, nil
}
