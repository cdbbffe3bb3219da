package models

import (
	"strings"
	"time"
)

// Role identifies which kind of account a token or connection belongs to
type Role string

const (
	RoleUser    Role = "user"
	RoleCaptain Role = "captain"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleCaptain
}

// FullName holds a person's first and last name
type FullName struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname,omitempty"`
}

// User represents a rider account
type User struct {
	ID             string    `json:"id"`
	FullName       FullName  `json:"fullname"`
	Email          string    `json:"email"`
	Mobile         string    `json:"mobile,omitempty"`
	PasswordHash   string    `json:"-"`
	SocketID       *string   `json:"socketId,omitempty"`
	EmailVerified  bool      `json:"emailVerified"`
	MobileVerified bool      `json:"mobileVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Location is a geographic point
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Vehicle describes the car a captain drives
type Vehicle struct {
	Color       string      `json:"color"`
	Plate       string      `json:"plate"`
	Capacity    int         `json:"capacity"`
	VehicleType VehicleType `json:"vehicleType"`
}

// CaptainStatus is the availability of a captain
type CaptainStatus string

const (
	CaptainActive   CaptainStatus = "active"
	CaptainInactive CaptainStatus = "inactive"
)

// Captain represents a driver account
type Captain struct {
	ID           string        `json:"id"`
	FullName     FullName      `json:"fullname"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	SocketID     *string       `json:"socketId,omitempty"`
	Status       CaptainStatus `json:"status"`
	Vehicle      Vehicle       `json:"vehicle"`
	Location     *Location     `json:"location,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// VehicleType is the vehicle class a ride is priced and requested for
type VehicleType string

const (
	VehicleSmall  VehicleType = "small"
	VehicleMedium VehicleType = "medium"
	VehicleLarge  VehicleType = "large"
)

// VehicleTypes lists every class a fare is quoted for
var VehicleTypes = []VehicleType{VehicleSmall, VehicleMedium, VehicleLarge}

var vehicleAliases = map[string]VehicleType{
	"small":     VehicleSmall,
	"medium":    VehicleMedium,
	"large":     VehicleLarge,
	"4-seater":  VehicleSmall,
	"7-seater":  VehicleMedium,
	"11-seater": VehicleLarge,
}

// ParseVehicleType resolves a class name, including the seat-count aliases
func ParseVehicleType(s string) (VehicleType, bool) {
	vt, ok := vehicleAliases[strings.ToLower(strings.TrimSpace(s))]
	return vt, ok
}

// RideStatus is the lifecycle state of a ride
type RideStatus string

const (
	RideRequested RideStatus = "requested"
	RideAccepted  RideStatus = "accepted"
	RideOngoing   RideStatus = "ongoing"
	RideCompleted RideStatus = "completed"
)

// Ride represents one trip request and its lifecycle
type Ride struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	CaptainID   *string     `json:"captainId,omitempty"`
	Pickup      string      `json:"pickup"`
	Destination string      `json:"destination"`
	VehicleType VehicleType `json:"vehicleType"`
	Status      RideStatus  `json:"status"`
	Fare        int64       `json:"fare"`
	OTP         string      `json:"otp,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`

	// Populated on reads that join the ride's participants
	User    *User    `json:"user,omitempty"`
	Captain *Captain `json:"captain,omitempty"`
}

// Projection chooses which guarded ride fields a read returns
type Projection int

const (
	// WithoutOTP leaves Ride.OTP empty
	WithoutOTP Projection = iota
	// WithOTP includes the ride's start code
	WithOTP
)

// FareQuote maps each vehicle class to its fare
type FareQuote map[VehicleType]int64

// DistanceTime is a route measurement between two addresses
type DistanceTime struct {
	DistanceMeters  int     `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
	DistanceText    string  `json:"distanceText,omitempty"`
	DurationText    string  `json:"durationText,omitempty"`
}

// Coordinates is a geocoded address
type Coordinates struct {
	Lat              float64 `json:"ltd"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
}
