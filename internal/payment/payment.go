// Package payment holds the simulated payment processors.  None of
// them talks to a real gateway.
package payment

import (
	"fmt"
	"strings"
)

// Processor is the interface every payment method implements.
type Processor interface {
	ProcessPayment(amount float64) bool
	RefundPayment(transactionID string) bool
	ValidatePayment(amount float64) bool
}

// Processor names accepted by New.
const (
	NameVisa   = "visa"
	NameVCoins = "vcoins"
)

// New returns the processor registered under name.
func New(name string) (Processor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameVisa:
		return VisaProcessor{}, nil
	case NameVCoins:
		return NewVirtualCoinsAdapter(&VirtualCoins{}), nil
	default:
		return nil, fmt.Errorf("unknown payment processor %q", name)
	}
}

// VisaLimit is the exclusive upper bound of a card charge.
const VisaLimit = 10000

// VisaProcessor accepts any amount in (0, VisaLimit).
type VisaProcessor struct{}

func (VisaProcessor) ValidatePayment(amount float64) bool {
	return amount > 0 && amount < VisaLimit
}

func (v VisaProcessor) ProcessPayment(amount float64) bool {
	return v.ValidatePayment(amount)
}

func (VisaProcessor) RefundPayment(string) bool { return true }
