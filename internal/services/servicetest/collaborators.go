package servicetest

import (
	"context"
	"sync"

	"github.com/Chetan6969/Testing-r/internal/models"
)

// Distance answers every route query with the same measurement or error
type Distance struct {
	Meters  int
	Seconds float64
	Err     error

	mu    sync.Mutex
	Calls int
}

func (d *Distance) DistanceTime(ctx context.Context, origin, destination string) (*models.DistanceTime, error) {
	d.mu.Lock()
	d.Calls++
	d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return &models.DistanceTime{DistanceMeters: d.Meters, DurationSeconds: d.Seconds}, nil
}

// Geocoder resolves every address to the same point
type Geocoder struct {
	Point models.Location
	Err   error
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return &models.Coordinates{Lat: g.Point.Lat, Lng: g.Point.Lng, FormattedAddress: address}, nil
}

// Notification is one recorded push
type Notification struct {
	SocketID string
	Event    string
	Payload  interface{}
}

// Notifier records pushes to connections that have an id
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *Notifier) SendTo(socketID *string, event string, payload interface{}) {
	if socketID == nil || *socketID == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{SocketID: *socketID, Event: event, Payload: payload})
}

// Sent returns the recorded pushes
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

// Email is one recorded message
type Email struct {
	To, Subject, Body string
}

// Mailer records emails and fails them all when Err is set
type Mailer struct {
	Err error

	mu   sync.Mutex
	sent []Email
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Email{To: to, Subject: subject, Body: body})
	return m.Err
}

// Sent returns the recorded emails
func (m *Mailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

// SMS is one recorded text message
type SMS struct {
	To, Body string
}

// SMSSender records text messages
type SMSSender struct {
	Err error

	mu   sync.Mutex
	sent []SMS
}

func (s *SMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SMS{To: to, Body: body})
	return s.Err
}

// Sent returns the recorded messages
func (s *SMSSender) Sent() []SMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SMS(nil), s.sent...)
}

// Event is one recorded lifecycle event
type Event struct {
	Name string
	Ride *models.Ride
}

// Publisher records lifecycle events
type Publisher struct {
	Err error

	mu     sync.Mutex
	events []Event
}

func (p *Publisher) Publish(ctx context.Context, event string, ride *models.Ride) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Name: event, Ride: ride})
	return p.Err
}

// Events returns the recorded events
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Receipts keeps receipts in memory and hands out fake links
type Receipts struct {
	mu   sync.Mutex
	puts map[string]*models.Ride
}

func (r *Receipts) PutReceipt(ctx context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.puts == nil {
		r.puts = make(map[string]*models.Ride)
	}
	r.puts[ride.ID] = ride
	return nil
}

func (r *Receipts) ReceiptURL(ctx context.Context, rideID string) (string, error) {
	return "https://receipts.test/" + rideID + ".json", nil
}

// Stored returns the archived receipt of a ride, if any
func (r *Receipts) Stored(rideID string) (*models.Ride, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.puts[rideID]
	return ride, ok
}
