package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chetan6969/Testing-r/internal/metrics"
	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RideStore persists rides. Accept, Start and Complete are conditional
// updates that report whether a row changed.
type RideStore interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string, proj models.Projection) (*models.Ride, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ride, error)
	ListByCaptain(ctx context.Context, captainID string) ([]*models.Ride, error)
	Accept(ctx context.Context, rideID, captainID string) (bool, error)
	Start(ctx context.Context, rideID, otp string) (bool, error)
	Complete(ctx context.Context, rideID, captainID string) (bool, error)
}

// Geocoder resolves an address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// Mailer sends a plain text email
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// EventPublisher announces ride lifecycle events to other systems
type EventPublisher interface {
	Publish(ctx context.Context, event string, ride *models.Ride) error
}

// ReceiptStore archives completed rides
type ReceiptStore interface {
	PutReceipt(ctx context.Context, ride *models.Ride) error
	ReceiptURL(ctx context.Context, rideID string) (string, error)
}

// Notifier pushes an event to a live connection, if there is one
type Notifier interface {
	SendTo(socketID *string, event string, payload interface{})
}

// Ride event names published to the event stream
const (
	RideEventRequested = "ride.requested"
	RideEventAccepted  = "ride.accepted"
	RideEventStarted   = "ride.started"
	RideEventCompleted = "ride.completed"
)

// RideService owns the ride lifecycle
type RideService struct {
	rides    RideStore
	fares    *FareService
	captains CaptainStore
	notifier Notifier
	geocoder Geocoder
	radiusKm float64

	mailer     Mailer
	adminEmail string
	publisher  EventPublisher
	receipts   ReceiptStore
}

// NewRideService creates a new ride service
func NewRideService(rides RideStore, fares *FareService, captains CaptainStore, notifier Notifier, geocoder Geocoder, radiusKm float64) *RideService {
	return &RideService{
		rides:    rides,
		fares:    fares,
		captains: captains,
		notifier: notifier,
		geocoder: geocoder,
		radiusKm: radiusKm,
	}
}

// SetMailer enables the new ride email to the admin address
func (s *RideService) SetMailer(mailer Mailer, adminEmail string) {
	s.mailer = mailer
	s.adminEmail = adminEmail
}

// SetPublisher enables lifecycle events
func (s *RideService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// SetReceipts enables receipt archiving for completed rides
func (s *RideService) SetReceipts(receipts ReceiptStore) {
	s.receipts = receipts
}

// RequestRideInput is a rider's ride request
type RequestRideInput struct {
	UserID      string
	Pickup      string
	Destination string
	VehicleType string
}

// Request quotes the route, fixes the fare of the chosen class and stores a
// new ride in requested state. Notifications run after the ride is stored and
// never fail the request.
func (s *RideService) Request(ctx context.Context, in RequestRideInput) (*models.Ride, error) {
	pickup := strings.TrimSpace(in.Pickup)
	destination := strings.TrimSpace(in.Destination)
	if in.UserID == "" || pickup == "" || destination == "" || in.VehicleType == "" {
		return nil, fmt.Errorf("%w: user, pickup, destination and vehicle type are required", ErrInput)
	}
	vt, ok := models.ParseVehicleType(in.VehicleType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInput, in.VehicleType)
	}

	quote, err := s.fares.ComputeFare(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	otp, err := GenerateOTP(RideOTPDigits)
	if err != nil {
		return nil, err
	}

	ride := &models.Ride{
		ID:          uuid.New().String(),
		UserID:      in.UserID,
		Pickup:      pickup,
		Destination: destination,
		VehicleType: vt,
		Status:      models.RideRequested,
		Fare:        quote[vt],
		OTP:         otp,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideRequested)).Inc()

	log.Info().
		Str("ride_id", ride.ID).
		Str("user_id", ride.UserID).
		Str("vehicle_type", string(vt)).
		Int64("fare", ride.Fare).
		Msg("Ride requested")

	s.publish(ctx, RideEventRequested, ride)
	s.notifyAdmin(ctx, ride)
	s.broadcastToNearbyCaptains(ctx, ride)

	return ride, nil
}

// Quote returns the fare of every vehicle class for a route
func (s *RideService) Quote(ctx context.Context, pickup, destination string) (models.FareQuote, error) {
	return s.fares.ComputeFare(ctx, pickup, destination)
}

// Confirm binds the captain to a requested ride and moves it to accepted.
// A ride that has already left requested state is not taken over.
func (s *RideService) Confirm(ctx context.Context, rideID string, captain *models.Captain) (*models.Ride, error) {
	if rideID == "" || captain == nil {
		return nil, fmt.Errorf("%w: ride id and captain are required", ErrInput)
	}

	ok, err := s.rides.Accept(ctx, rideID, captain.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.reject(ctx, "confirm", rideID, func(ride *models.Ride) error {
			return fmt.Errorf("%w: ride already %s", ErrState, ride.Status)
		})
	}

	return s.transitioned(ctx, rideID, models.RideAccepted, RideEventAccepted, EventRideConfirmed)
}

// Start moves an accepted ride to ongoing once the rider's code matches.
// A wrong code leaves the ride accepted.
func (s *RideService) Start(ctx context.Context, rideID, otp string, captain *models.Captain) (*models.Ride, error) {
	if rideID == "" || otp == "" || captain == nil {
		return nil, fmt.Errorf("%w: ride id, otp and captain are required", ErrInput)
	}

	ok, err := s.rides.Start(ctx, rideID, otp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.reject(ctx, "start", rideID, func(ride *models.Ride) error {
			if ride.Status != models.RideAccepted {
				return fmt.Errorf("%w: ride not accepted", ErrState)
			}
			if ride.OTP != otp {
				return fmt.Errorf("%w: invalid otp", ErrAuth)
			}
			return fmt.Errorf("%w: ride changed concurrently", ErrState)
		})
	}

	return s.transitioned(ctx, rideID, models.RideOngoing, RideEventStarted, EventRideStarted)
}

// End completes the captain's ongoing ride. Rides bound to another captain
// are reported as missing.
func (s *RideService) End(ctx context.Context, rideID string, captain *models.Captain) (*models.Ride, error) {
	if rideID == "" || captain == nil {
		return nil, fmt.Errorf("%w: ride id and captain are required", ErrInput)
	}

	ok, err := s.rides.Complete(ctx, rideID, captain.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.reject(ctx, "end", rideID, func(ride *models.Ride) error {
			if ride.CaptainID == nil || *ride.CaptainID != captain.ID {
				return fmt.Errorf("%w: ride not found", ErrNotFound)
			}
			return fmt.Errorf("%w: ride not ongoing", ErrState)
		})
	}

	ride, err := s.transitioned(ctx, rideID, models.RideCompleted, RideEventCompleted, EventRideEnded)
	if err != nil {
		return nil, err
	}

	if s.receipts != nil {
		if err := s.receipts.PutReceipt(ctx, withoutOTP(ride)); err != nil {
			log.Error().Err(err).Str("ride_id", ride.ID).Msg("Failed to archive receipt")
		}
	}
	return ride, nil
}

// Get returns a ride with its user and captain, without the code
func (s *RideService) Get(ctx context.Context, rideID string) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID, models.WithoutOTP)
	if err != nil {
		return nil, translateNotFound(err, "ride not found")
	}
	return ride, nil
}

// HistoryForUser returns the rider's rides, newest first
func (s *RideService) HistoryForUser(ctx context.Context, userID string) ([]*models.Ride, error) {
	return s.rides.ListByUser(ctx, userID)
}

// HistoryForCaptain returns the captain's rides, newest first
func (s *RideService) HistoryForCaptain(ctx context.Context, captainID string) ([]*models.Ride, error) {
	return s.rides.ListByCaptain(ctx, captainID)
}

// ReceiptURL returns a short-lived download link for a completed ride's
// receipt. Only the ride's rider and captain may fetch it.
func (s *RideService) ReceiptURL(ctx context.Context, rideID string, caller *Identity) (string, error) {
	if s.receipts == nil {
		return "", fmt.Errorf("%w: receipts disabled", ErrNotFound)
	}

	ride, err := s.Get(ctx, rideID)
	if err != nil {
		return "", err
	}
	if !isParticipant(ride, caller) {
		return "", fmt.Errorf("%w: ride not found", ErrNotFound)
	}
	if ride.Status != models.RideCompleted {
		return "", fmt.Errorf("%w: ride not completed", ErrState)
	}

	return s.receipts.ReceiptURL(ctx, ride.ID)
}

// transitioned reloads a ride after a successful status change, records it
// and tells the rider.
func (s *RideService) transitioned(ctx context.Context, rideID string, status models.RideStatus, event, notifyEvent string) (*models.Ride, error) {
	metrics.RideTransitionsTotal.WithLabelValues(string(status)).Inc()

	ride, err := s.rides.GetByID(ctx, rideID, models.WithOTP)
	if err != nil {
		return nil, translateNotFound(err, "ride not found")
	}

	log.Info().Str("ride_id", ride.ID).Str("status", string(status)).Msg("Ride status changed")

	s.publish(ctx, event, ride)
	if ride.User != nil {
		s.notifier.SendTo(ride.User.SocketID, notifyEvent, ride)
	}
	return ride, nil
}

// reject explains why a conditional update changed nothing
func (s *RideService) reject(ctx context.Context, op, rideID string, classify func(*models.Ride) error) error {
	ride, err := s.rides.GetByID(ctx, rideID, models.WithOTP)
	if err != nil {
		err = translateNotFound(err, "ride not found")
	} else {
		err = classify(ride)
	}

	metrics.RideTransitionRejectsTotal.WithLabelValues(op, reason(err)).Inc()
	log.Warn().Err(err).Str("op", op).Str("ride_id", rideID).Msg("Ride transition rejected")
	return err
}

func (s *RideService) publish(ctx context.Context, event string, ride *models.Ride) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, withoutOTP(ride)); err != nil {
		log.Error().Err(err).Str("ride_id", ride.ID).Str("event", event).Msg("Failed to publish ride event")
	}
}

func (s *RideService) notifyAdmin(ctx context.Context, ride *models.Ride) {
	if s.mailer == nil || s.adminEmail == "" {
		return
	}

	rider := "unknown"
	if full, err := s.rides.GetByID(ctx, ride.ID, models.WithoutOTP); err == nil && full.User != nil {
		rider = strings.TrimSpace(full.User.FullName.FirstName + " " + full.User.FullName.LastName)
	}

	body := fmt.Sprintf(
		"New ride request received\n\nUser: %s\nPickup: %s\nDestination: %s\nVehicle type: %s\nFare: %d\n",
		rider, ride.Pickup, ride.Destination, ride.VehicleType, ride.Fare,
	)
	if err := s.mailer.SendEmail(ctx, s.adminEmail, "New Ride Request", body); err != nil {
		log.Error().Err(err).Str("ride_id", ride.ID).Msg("Failed to email admin")
	}
}

// broadcastToNearbyCaptains offers a new ride to captains around the pickup
func (s *RideService) broadcastToNearbyCaptains(ctx context.Context, ride *models.Ride) {
	if s.geocoder == nil || s.captains == nil || s.radiusKm <= 0 {
		return
	}

	coords, err := s.geocoder.Geocode(ctx, ride.Pickup)
	if err != nil {
		log.Warn().Err(err).Str("ride_id", ride.ID).Msg("Failed to geocode pickup")
		return
	}

	captains, err := s.captains.FindInRadius(ctx, models.Location{Lat: coords.Lat, Lng: coords.Lng}, s.radiusKm)
	if err != nil {
		log.Error().Err(err).Str("ride_id", ride.ID).Msg("Failed to find nearby captains")
		return
	}
	if len(captains) == 0 {
		return
	}

	payload, err := s.rides.GetByID(ctx, ride.ID, models.WithoutOTP)
	if err != nil {
		payload = withoutOTP(ride)
	}
	for _, c := range captains {
		s.notifier.SendTo(c.SocketID, EventNewRide, payload)
	}

	log.Debug().Str("ride_id", ride.ID).Int("captains", len(captains)).Msg("New ride broadcast")
}

func withoutOTP(ride *models.Ride) *models.Ride {
	r := *ride
	r.OTP = ""
	return &r
}

func isParticipant(ride *models.Ride, caller *Identity) bool {
	if caller == nil {
		return false
	}
	switch caller.Role {
	case models.RoleUser:
		return ride.UserID == caller.ID()
	case models.RoleCaptain:
		return ride.CaptainID != nil && *ride.CaptainID == caller.ID()
	}
	return false
}

func translateNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return err
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrAuth):
		return "otp"
	default:
		return "error"
	}
}
