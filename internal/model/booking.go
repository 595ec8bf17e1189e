package model

import "time"

// ResourceType identifies which catalog table a booking points at.
type ResourceType string

const (
    ResourceAccommodation ResourceType = "ACCOMMODATION"
    ResourceTransport     ResourceType = "TRANSPORT"
    ResourceMeal          ResourceType = "MEAL"
    ResourceClub          ResourceType = "CLUB"
)

// BookingStatus is the persisted lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "PENDING"
    BookingConfirmed BookingStatus = "CONFIRMED"
    BookingCancelled BookingStatus = "CANCELLED"
)

// Booking links a student to one catalog resource.  A row is
// written only after the paired payment completed and is never
// deleted; cancellation flips Status to CANCELLED.
//
// Fields:
//  BookingID    – identifier of the form "booking_{timestamp}_{suffix}".
//  StudentID    – user who made the booking.
//  ResourceID   – ID of the accommodation, transport, meal or club.
//  ResourceType – which catalog the resource belongs to.
//  BookingDate  – when the booking was created.
//  Status       – PENDING, CONFIRMED or CANCELLED.
//  TotalAmount  – amount charged for the booking.
type Booking struct {
    BookingID    string        `json:"bookingID"`    // bookings.bookingID
    StudentID    string        `json:"studentID"`    // bookings.studentID
    ResourceID   string        `json:"resourceID"`   // bookings.resourceID
    ResourceType ResourceType  `json:"resourceType"` // bookings.resourceType
    BookingDate  time.Time     `json:"bookingDate"`  // bookings.bookingDate
    Status       BookingStatus `json:"status"`       // bookings.status
    TotalAmount  float64       `json:"totalAmount"`  // bookings.totalAmount
}

// Active reports whether the booking still holds its resource.
func (b Booking) Active() bool { return b.Status != BookingCancelled }
