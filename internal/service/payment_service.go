package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/payment"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
	"github.com/iliyamo/student-services-portal/internal/utils"
)

// PaymentService charges students through the configured processor
// and keeps one `payments` row per attempt.
type PaymentService struct {
	repo      *repository.Repository
	processor payment.Processor
	method    string
	log       *logrus.Logger
}

// NewPaymentService wires a processor.  method is the label written
// to payments.paymentMethod when a caller does not give one.
func NewPaymentService(r *repository.Repository, p payment.Processor, method string, log *logrus.Logger) *PaymentService {
	if r == nil || p == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	if method == "" {
		method = "CARD"
	}
	return &PaymentService{repo: r, processor: p, method: method, log: orDiscard(log)}
}

// Method returns the default payment method label.
func (s *PaymentService) Method() string { return s.method }

// ProcessTransaction validates amount with the processor, charges
// it and records the attempt.  An amount the processor rejects is an
// ErrInvalidInput and leaves no row.  Otherwise exactly one row is
// written, COMPLETED or FAILED, and the processor's verdict returned.
func (s *PaymentService) ProcessTransaction(ctx context.Context, studentID string, amount float64, method, description string) (bool, error) {
	p, err := s.pay(ctx, studentID, amount, method, description)
	if err != nil {
		return false, err
	}
	return p.Status == model.PaymentCompleted, nil
}

// pay is ProcessTransaction returning the stored row.
func (s *PaymentService) pay(ctx context.Context, studentID string, amount float64, method, description string) (model.Payment, error) {
	l := s.log.WithFields(logrus.Fields{"student_id": studentID, "amount": amount})
	if !s.processor.ValidatePayment(amount) {
		l.Warn("payment rejected by validation")
		return model.Payment{}, NewError(ErrInvalidInput, "Invalid payment amount")
	}
	ok := s.processor.ProcessPayment(amount)

	if method == "" {
		method = s.method
	}
	p := model.Payment{
		PaymentID:     utils.NewID("payment"),
		StudentID:     studentID,
		Amount:        amount,
		Date:          time.Now().UTC(),
		PaymentMethod: method,
		Status:        model.PaymentCompleted,
		Description:   description,
	}
	if !ok {
		p.Status = model.PaymentFailed
	}
	if p.Description == "" {
		p.Description = "Payment processed"
		if !ok {
			p.Description = "Payment failed"
		}
	}
	if err := s.repo.Save(ctx, p, repository.TablePayments); err != nil {
		return model.Payment{}, err
	}
	l.WithField("status", p.Status).Info("payment recorded")
	return p, nil
}

// Refund returns a COMPLETED payment through the processor and marks
// the row REFUNDED.
func (s *PaymentService) Refund(ctx context.Context, p model.Payment) error {
	if p.Status != model.PaymentCompleted {
		return NewError(ErrConflict, "Only completed payments can be refunded")
	}
	if !s.processor.RefundPayment(p.PaymentID) {
		return fmt.Errorf("refund %s: processor refused", p.PaymentID)
	}
	if _, err := s.repo.Patch(ctx, p.PaymentID, repository.TablePayments, repository.IDPayment,
		storage.Record{"status": string(model.PaymentRefunded)}); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"student_id": p.StudentID, "payment_id": p.PaymentID}).Info("payment refunded")
	return nil
}

// History returns the student's payments, newest first.
func (s *PaymentService) History(ctx context.Context, studentID string) ([]model.Payment, error) {
	rows, err := repository.Query[model.Payment](ctx, s.repo, repository.TablePayments, storage.Criteria{"studentID": studentID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows, nil
}
