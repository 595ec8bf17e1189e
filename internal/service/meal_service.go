package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// Meal types.
const (
	MealRegular = "REGULAR"
	MealHealthy = "HEALTHY"
)

// MealService takes meal orders.  Orders are CONFIRMED immediately.
type MealService struct {
	flow *bookingFlow
}

func NewMealService(r *repository.Repository, p *PaymentService, log *logrus.Logger) *MealService {
	return &MealService{flow: newBookingFlow(r, p, log, model.ResourceMeal)}
}

// SelectMeal orders the first meal of mealType.
func (s *MealService) SelectMeal(ctx context.Context, studentID, mealType string) (model.Booking, error) {
	meals, err := s.GetAvailableMeals(ctx, mealType)
	if err != nil {
		return model.Booking{}, err
	}
	if strings.TrimSpace(mealType) == "" || len(meals) == 0 {
		return model.Booking{}, NewError(ErrNotFound, "Meal not found")
	}
	return s.order(ctx, studentID, meals[0])
}

// OrderMeal orders a specific meal.
func (s *MealService) OrderMeal(ctx context.Context, studentID, mealID string) (model.Booking, error) {
	m, ok, err := repository.Get[model.Meal](ctx, s.flow.repo, repository.TableMeals, repository.IDMeal, mealID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, NewError(ErrNotFound, "Meal not found")
	}
	return s.order(ctx, studentID, m)
}

func (s *MealService) order(ctx context.Context, studentID string, m model.Meal) (model.Booking, error) {
	return s.flow.book(ctx, studentID, m.MealID, model.BookingConfirmed, m.Price,
		fmt.Sprintf("Meal order: %s", m.Name))
}

// CancelOrder cancels one of the student's meal orders.
func (s *MealService) CancelOrder(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	return s.flow.cancel(ctx, studentID, bookingID)
}

// GetAvailableMeals lists meals of mealType, or every meal when
// mealType is empty.  The type is matched case-insensitively.
func (s *MealService) GetAvailableMeals(ctx context.Context, mealType string) ([]model.Meal, error) {
	mealType = strings.ToUpper(strings.TrimSpace(mealType))
	if mealType == "" {
		return repository.List[model.Meal](ctx, s.flow.repo, repository.TableMeals)
	}
	return repository.Query[model.Meal](ctx, s.flow.repo, repository.TableMeals, storage.Criteria{"type": mealType})
}

func (s *MealService) GetStudentOrders(ctx context.Context, studentID string) ([]model.Booking, error) {
	return s.flow.studentBookings(ctx, studentID)
}

// ComboFor returns the side dishes served with a meal of mealType.
func (s *MealService) ComboFor(mealType string) (MealCombo, error) {
	k, err := KitFor(mealType)
	if err != nil {
		return MealCombo{}, err
	}
	return BuildCombo(k), nil
}
