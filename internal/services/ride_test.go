package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services/servicetest"
)

type rideEnv struct {
	users     *servicetest.Users
	captains  *servicetest.Captains
	rides     *servicetest.Rides
	notifier  *servicetest.Notifier
	mailer    *servicetest.Mailer
	publisher *servicetest.Publisher
	receipts  *servicetest.Receipts
	svc       *RideService

	user    *models.User
	captain *models.Captain
}

func strPtr(s string) *string { return &s }

func newRideEnv(t *testing.T) *rideEnv {
	t.Helper()
	ctx := context.Background()

	env := &rideEnv{
		users:     servicetest.NewUsers(),
		captains:  servicetest.NewCaptains(),
		notifier:  &servicetest.Notifier{},
		mailer:    &servicetest.Mailer{},
		publisher: &servicetest.Publisher{},
		receipts:  &servicetest.Receipts{},
	}
	env.rides = servicetest.NewRides(env.users, env.captains)

	env.user = &models.User{
		ID:       "user-1",
		FullName: models.FullName{FirstName: "Asha", LastName: "Rao"},
		Email:    "asha@example.com",
		SocketID: strPtr("sock-user-1"),
	}
	if err := env.users.Create(ctx, env.user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	env.captain = env.addCaptain(t, "captain-1", nil)

	fares := NewFareService(&servicetest.Distance{Meters: 5000, Seconds: 600})
	geocoder := &servicetest.Geocoder{Point: models.Location{Lat: 28.6139, Lng: 77.2090}}
	env.svc = NewRideService(env.rides, fares, env.captains, env.notifier, geocoder, 2)
	env.svc.SetMailer(env.mailer, "admin@example.com")
	env.svc.SetPublisher(env.publisher)
	env.svc.SetReceipts(env.receipts)
	return env
}

func (e *rideEnv) addCaptain(t *testing.T, id string, loc *models.Location) *models.Captain {
	t.Helper()
	c := &models.Captain{
		ID:       id,
		FullName: models.FullName{FirstName: "Captain", LastName: id},
		Email:    id + "@example.com",
		SocketID: strPtr("sock-" + id),
		Status:   models.CaptainActive,
		Vehicle:  models.Vehicle{Color: "white", Plate: "DL01AB1234", Capacity: 4, VehicleType: models.VehicleSmall},
		Location: loc,
	}
	if err := e.captains.Create(context.Background(), c); err != nil {
		t.Fatalf("create captain: %v", err)
	}
	return c
}

func (e *rideEnv) request(t *testing.T) *models.Ride {
	t.Helper()
	ride, err := e.svc.Request(context.Background(), RequestRideInput{
		UserID:      e.user.ID,
		Pickup:      "A",
		Destination: "B",
		VehicleType: "small",
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return ride
}

func (e *rideEnv) status(t *testing.T, rideID string) models.RideStatus {
	t.Helper()
	ride, err := e.rides.GetByID(context.Background(), rideID, models.WithoutOTP)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return ride.Status
}

func TestRideLifecycle(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	ride := env.request(t)
	if ride.Status != models.RideRequested {
		t.Fatalf("status = %s, want requested", ride.Status)
	}
	if ride.Fare != 100 {
		t.Errorf("fare = %d, want 100", ride.Fare)
	}
	if len(ride.OTP) != RideOTPDigits {
		t.Errorf("otp = %q", ride.OTP)
	}
	if ride.CaptainID != nil {
		t.Errorf("captain bound at request time")
	}

	got, err := env.svc.Get(ctx, ride.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OTP != "" {
		t.Errorf("Get exposed the otp")
	}
	if got.User == nil || got.User.ID != env.user.ID {
		t.Errorf("Get did not populate the user")
	}

	accepted, err := env.svc.Confirm(ctx, ride.ID, env.captain)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if accepted.Status != models.RideAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}
	if accepted.CaptainID == nil || *accepted.CaptainID != env.captain.ID {
		t.Errorf("captain not bound: %v", accepted.CaptainID)
	}
	if accepted.Captain == nil || accepted.User == nil {
		t.Errorf("participants not populated")
	}
	if accepted.OTP != ride.OTP {
		t.Errorf("confirmed ride otp = %q, want %q", accepted.OTP, ride.OTP)
	}

	started, err := env.svc.Start(ctx, ride.ID, ride.OTP, env.captain)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != models.RideOngoing {
		t.Errorf("status = %s, want ongoing", started.Status)
	}

	ended, err := env.svc.End(ctx, ride.ID, env.captain)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.Status != models.RideCompleted {
		t.Errorf("status = %s, want completed", ended.Status)
	}
	if ended.Fare != 100 || ended.OTP != ride.OTP {
		t.Errorf("fare or otp changed during the ride: %d %q", ended.Fare, ended.OTP)
	}

	var userEvents []string
	for _, n := range env.notifier.Sent() {
		if n.SocketID == "sock-user-1" {
			userEvents = append(userEvents, n.Event)
		}
	}
	wantEvents := []string{EventRideConfirmed, EventRideStarted, EventRideEnded}
	if fmt.Sprint(userEvents) != fmt.Sprint(wantEvents) {
		t.Errorf("rider notifications = %v, want %v", userEvents, wantEvents)
	}

	var published []string
	for _, e := range env.publisher.Events() {
		published = append(published, e.Name)
		if e.Ride.OTP != "" {
			t.Errorf("%s event carried the otp", e.Name)
		}
	}
	wantPublished := []string{RideEventRequested, RideEventAccepted, RideEventStarted, RideEventCompleted}
	if fmt.Sprint(published) != fmt.Sprint(wantPublished) {
		t.Errorf("published = %v, want %v", published, wantPublished)
	}

	if _, ok := env.receipts.Stored(ride.ID); !ok {
		t.Error("receipt not archived")
	}

	mails := env.mailer.Sent()
	if len(mails) != 1 || mails[0].To != "admin@example.com" || mails[0].Subject != "New Ride Request" {
		t.Errorf("admin mails = %+v", mails)
	}
}

func TestRequestAcceptsSeatAliases(t *testing.T) {
	env := newRideEnv(t)

	ride, err := env.svc.Request(context.Background(), RequestRideInput{
		UserID: env.user.ID, Pickup: "A", Destination: "B", VehicleType: "7-seater",
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if ride.VehicleType != models.VehicleMedium || ride.Fare != 155 {
		t.Errorf("got %s at %d, want medium at 155", ride.VehicleType, ride.Fare)
	}
}

func TestRequestValidation(t *testing.T) {
	env := newRideEnv(t)

	tests := []struct {
		name string
		in   RequestRideInput
	}{
		{"missing user", RequestRideInput{Pickup: "A", Destination: "B", VehicleType: "small"}},
		{"missing pickup", RequestRideInput{UserID: "user-1", Destination: "B", VehicleType: "small"}},
		{"missing destination", RequestRideInput{UserID: "user-1", Pickup: "A", VehicleType: "small"}},
		{"missing vehicle", RequestRideInput{UserID: "user-1", Pickup: "A", Destination: "B"}},
		{"unknown vehicle", RequestRideInput{UserID: "user-1", Pickup: "A", Destination: "B", VehicleType: "bus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.Request(context.Background(), tt.in); !errors.Is(err, ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
		})
	}

	rides, _ := env.svc.HistoryForUser(context.Background(), "user-1")
	if len(rides) != 0 {
		t.Errorf("invalid requests stored %d rides", len(rides))
	}
}

func TestRequestWithoutRoute(t *testing.T) {
	env := newRideEnv(t)
	env.svc.fares = NewFareService(&servicetest.Distance{Err: fmt.Errorf("%w: no routes found", ErrUpstream)})

	_, err := env.svc.Request(context.Background(), RequestRideInput{
		UserID: env.user.ID, Pickup: "A", Destination: "B", VehicleType: "small",
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	rides, _ := env.svc.HistoryForUser(context.Background(), env.user.ID)
	if len(rides) != 0 {
		t.Errorf("ride stored despite failed quote")
	}
}

func TestRequestSurvivesSideEffectFailures(t *testing.T) {
	env := newRideEnv(t)
	env.mailer.Err = errors.New("smtp down")
	env.publisher.Err = errors.New("broker down")

	ride := env.request(t)

	if _, err := env.svc.Get(context.Background(), ride.ID); err != nil {
		t.Fatalf("ride not persisted: %v", err)
	}
	if len(env.mailer.Sent()) != 1 {
		t.Errorf("admin email not attempted")
	}
}

func TestRequestBroadcastsToNearbyCaptains(t *testing.T) {
	env := newRideEnv(t)
	env.addCaptain(t, "near", &models.Location{Lat: 28.6150, Lng: 77.2100})
	env.addCaptain(t, "far", &models.Location{Lat: 19.0760, Lng: 72.8777})

	ride := env.request(t)

	var offered []string
	for _, n := range env.notifier.Sent() {
		if n.Event != EventNewRide {
			continue
		}
		offered = append(offered, n.SocketID)
		payload, ok := n.Payload.(*models.Ride)
		if !ok {
			t.Fatalf("payload is %T", n.Payload)
		}
		if payload.ID != ride.ID || payload.OTP != "" {
			t.Errorf("broadcast payload = %+v", payload)
		}
		if payload.User == nil {
			t.Errorf("broadcast payload has no rider details")
		}
	}
	if len(offered) != 1 || offered[0] != "sock-near" {
		t.Errorf("offered to %v, want [sock-near]", offered)
	}
}

func TestRequestWithoutBroadcastRadius(t *testing.T) {
	env := newRideEnv(t)
	env.svc.radiusKm = 0
	env.addCaptain(t, "near", &models.Location{Lat: 28.6150, Lng: 77.2100})

	env.request(t)

	for _, n := range env.notifier.Sent() {
		if n.Event == EventNewRide {
			t.Errorf("broadcast sent to %s with dispatch disabled", n.SocketID)
		}
	}
}

func TestConfirmOnlyFromRequested(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()
	other := env.addCaptain(t, "captain-2", nil)

	ride := env.request(t)
	if _, err := env.svc.Confirm(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err := env.svc.Confirm(ctx, ride.ID, other)
	if !errors.Is(err, ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}

	got, _ := env.rides.GetByID(ctx, ride.ID, models.WithoutOTP)
	if got.CaptainID == nil || *got.CaptainID != env.captain.ID {
		t.Errorf("captain binding overwritten: %v", got.CaptainID)
	}
}

func TestConfirmUnknownRide(t *testing.T) {
	env := newRideEnv(t)

	if _, err := env.svc.Confirm(context.Background(), "missing", env.captain); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentConfirmHasOneWinner(t *testing.T) {
	env := newRideEnv(t)
	ride := env.request(t)

	const racers = 20
	captains := make([]*models.Captain, racers)
	for i := range captains {
		captains[i] = env.addCaptain(t, fmt.Sprintf("racer-%d", i), nil)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []string
	stateErrors := 0
	for _, c := range captains {
		wg.Add(1)
		go func(c *models.Captain) {
			defer wg.Done()
			_, err := env.svc.Confirm(context.Background(), ride.ID, c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, c.ID)
			case errors.Is(err, ErrState):
				stateErrors++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(c)
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %v, want exactly one", winners)
	}
	if stateErrors != racers-1 {
		t.Errorf("state errors = %d, want %d", stateErrors, racers-1)
	}

	got, _ := env.rides.GetByID(context.Background(), ride.ID, models.WithoutOTP)
	if got.CaptainID == nil || *got.CaptainID != winners[0] {
		t.Errorf("bound captain %v, winner %s", got.CaptainID, winners[0])
	}
}

func TestStartWithWrongOTP(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	ride := env.request(t)
	if _, err := env.svc.Confirm(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err := env.svc.Start(ctx, ride.ID, "000000", env.captain)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if s := env.status(t, ride.ID); s != models.RideAccepted {
		t.Errorf("status = %s, want accepted", s)
	}
}

func TestStartTwice(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	ride := env.request(t)
	if _, err := env.svc.Confirm(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := env.svc.Start(ctx, ride.ID, ride.OTP, env.captain); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	_, err := env.svc.Start(ctx, ride.ID, ride.OTP, env.captain)
	if !errors.Is(err, ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}
	if s := env.status(t, ride.ID); s != models.RideOngoing {
		t.Errorf("status = %s, want ongoing", s)
	}
}

func TestStartBeforeAccept(t *testing.T) {
	env := newRideEnv(t)
	ride := env.request(t)

	_, err := env.svc.Start(context.Background(), ride.ID, ride.OTP, env.captain)
	if !errors.Is(err, ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}
}

func TestStartUnknownRide(t *testing.T) {
	env := newRideEnv(t)

	_, err := env.svc.Start(context.Background(), "missing", "123456", env.captain)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEndByAnotherCaptain(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()
	other := env.addCaptain(t, "captain-2", nil)

	ride := env.request(t)
	if _, err := env.svc.Confirm(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := env.svc.Start(ctx, ride.ID, ride.OTP, env.captain); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := env.svc.End(ctx, ride.ID, other)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s := env.status(t, ride.ID); s != models.RideOngoing {
		t.Errorf("status = %s, want ongoing", s)
	}
}

func TestEndBeforeStart(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	ride := env.request(t)
	if _, err := env.svc.Confirm(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err := env.svc.End(ctx, ride.ID, env.captain)
	if !errors.Is(err, ErrState) {
		t.Fatalf("expected ErrState, got %v", err)
	}
	if _, ok := env.receipts.Stored(ride.ID); ok {
		t.Error("receipt archived for an unfinished ride")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new", "mid"} {
		offset := map[string]time.Duration{"old": 0, "mid": time.Hour, "new": 2 * time.Hour}[id]
		env.rides.Put(&models.Ride{
			ID:          id,
			UserID:      env.user.ID,
			CaptainID:   &env.captain.ID,
			Pickup:      "A",
			Destination: "B",
			VehicleType: models.VehicleSmall,
			Status:      models.RideCompleted,
			Fare:        int64(100 + i),
			OTP:         "123456",
			CreatedAt:   base.Add(offset),
		})
	}

	for name, list := range map[string]func() ([]*models.Ride, error){
		"user":    func() ([]*models.Ride, error) { return env.svc.HistoryForUser(ctx, env.user.ID) },
		"captain": func() ([]*models.Ride, error) { return env.svc.HistoryForCaptain(ctx, env.captain.ID) },
	} {
		rides, err := list()
		if err != nil {
			t.Fatalf("%s history: %v", name, err)
		}
		var ids []string
		for _, r := range rides {
			ids = append(ids, r.ID)
			if r.OTP != "" {
				t.Errorf("%s history exposed the otp", name)
			}
		}
		if fmt.Sprint(ids) != "[new mid old]" {
			t.Errorf("%s history order = %v", name, ids)
		}
	}
}

func TestReceiptURL(t *testing.T) {
	env := newRideEnv(t)
	ctx := context.Background()

	ride := env.request(t)
	rider := &Identity{Role: models.RoleUser, User: env.user}
	driver := &Identity{Role: models.RoleCaptain, Captain: env.captain}
	stranger := &Identity{Role: models.RoleUser, User: &models.User{ID: "someone-else"}}

	if _, err := env.svc.ReceiptURL(ctx, ride.ID, rider); !errors.Is(err, ErrState) {
		t.Fatalf("before completion: expected ErrState, got %v", err)
	}

	env.svc.Confirm(ctx, ride.ID, env.captain)
	env.svc.Start(ctx, ride.ID, ride.OTP, env.captain)
	if _, err := env.svc.End(ctx, ride.ID, env.captain); err != nil {
		t.Fatalf("End: %v", err)
	}

	for name, caller := range map[string]*Identity{"rider": rider, "captain": driver} {
		url, err := env.svc.ReceiptURL(ctx, ride.ID, caller)
		if err != nil {
			t.Fatalf("%s: ReceiptURL: %v", name, err)
		}
		if url == "" {
			t.Errorf("%s: empty url", name)
		}
	}

	if _, err := env.svc.ReceiptURL(ctx, ride.ID, stranger); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger: expected ErrNotFound, got %v", err)
	}

	env.svc.SetReceipts(nil)
	if _, err := env.svc.ReceiptURL(ctx, ride.ID, rider); !errors.Is(err, ErrNotFound) {
		t.Errorf("disabled: expected ErrNotFound, got %v", err)
	}
}
