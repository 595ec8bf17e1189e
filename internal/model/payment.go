package model

import "time"

// PaymentStatus records the processor outcome for a payment attempt.
type PaymentStatus string

const (
    PaymentCompleted PaymentStatus = "COMPLETED"
    PaymentFailed    PaymentStatus = "FAILED"
    PaymentRefunded  PaymentStatus = "REFUNDED" // charged, then returned because no booking was stored
)

// Payment is one payment attempt stored in the `payments` table.
// Failed attempts are kept so the student's history shows every
// charge that was tried.
type Payment struct {
    PaymentID     string        `json:"paymentID"`             // payments.paymentID
    StudentID     string        `json:"studentID"`             // payments.studentID
    Amount        float64       `json:"amount"`                // payments.amount
    Date          time.Time     `json:"date"`                  // payments.date
    PaymentMethod string        `json:"paymentMethod"`         // payments.paymentMethod
    Status        PaymentStatus `json:"status"`                // payments.status
    Description   string        `json:"description,omitempty"` // payments.description
}
