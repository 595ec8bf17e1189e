package model

// Accommodation is a bookable housing option stored in the
// `accommodations` table.  Catalog rows are seeded once and are
// not mutated by student operations.
type Accommodation struct {
    AccommodationID string   `json:"accommodationID"`       // accommodations.accommodationID
    Name            string   `json:"name"`                  // accommodations.name
    Location        string   `json:"location"`              // accommodations.location
    Capacity        int      `json:"capacity"`              // accommodations.capacity
    PricePerNight   float64  `json:"pricePerNight"`         // accommodations.pricePerNight
    ImageURL        string   `json:"imageUrl,omitempty"`    // accommodations.imageUrl
    Description     string   `json:"description,omitempty"` // accommodations.description
    Amenities       []string `json:"amenities,omitempty"`   // accommodations.amenities
}

// Transport is a seat based service stored in the `transport`
// table.  SeatsAvailable is the only catalog field changed by
// bookings: each booking takes a seat and each cancellation gives
// one back.  It never goes below zero.
type Transport struct {
    TransportID    string  `json:"transportID"`             // transport.transportID
    Type           string  `json:"type"`                    // transport.type
    Schedule       string  `json:"schedule"`                // transport.schedule
    SeatsAvailable int     `json:"seatsAvailable"`          // transport.seatsAvailable
    PricePerSeat   float64 `json:"pricePerSeat"`            // transport.pricePerSeat
    Route          string  `json:"route,omitempty"`         // transport.route
    DepartureTime  string  `json:"departureTime,omitempty"` // transport.departureTime
}

// Meal is an orderable meal stored in the `meals` table.  Type is
// the category students select by (REGULAR, HEALTHY).
type Meal struct {
    MealID      string   `json:"mealID"`                // meals.mealID
    Name        string   `json:"name"`                  // meals.name
    Type        string   `json:"type"`                  // meals.type
    Price       float64  `json:"price"`                 // meals.price
    Calories    int      `json:"calories,omitempty"`    // meals.calories
    Description string   `json:"description,omitempty"` // meals.description
    Ingredients []string `json:"ingredients,omitempty"` // meals.ingredients
}

// Club is a student club stored in the `clubs` table.  MemberCount
// holds the seeded baseline; the service adds active memberships on
// read.
type Club struct {
    ClubID          string  `json:"clubID"`                    // clubs.clubID
    Name            string  `json:"name"`                      // clubs.name
    Description     string  `json:"description,omitempty"`     // clubs.description
    MembershipFee   float64 `json:"membershipFee"`             // clubs.membershipFee
    MemberCount     int     `json:"memberCount,omitempty"`     // clubs.memberCount
    Category        string  `json:"category,omitempty"`        // clubs.category
    MeetingSchedule string  `json:"meetingSchedule,omitempty"` // clubs.meetingSchedule
}
