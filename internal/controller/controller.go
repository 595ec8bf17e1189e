// Package controller is the single entry point for booking requests.
// Each request is authorized, handed to its domain service and
// answered with a SYSTEM notification.  Failures are notified and
// then returned unchanged.
package controller

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// Services groups the collaborators of a Controller.
type Services struct {
	Accommodation *service.AccommodationService
	Transport     *service.TransportService
	Meal          *service.MealService
	Club          *service.ClubService
	Booking       *service.BookingService
	Notification  *service.NotificationService
	Authorization *service.AuthorizationService
}

type Controller struct {
	svc Services
	log *logrus.Logger
}

func New(svc Services, log *logrus.Logger) *Controller {
	if svc.Accommodation == nil || svc.Transport == nil || svc.Meal == nil || svc.Club == nil ||
		svc.Booking == nil || svc.Notification == nil || svc.Authorization == nil {
		panic("nil service passed to controller.New")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{svc: svc, log: log}
}

// request describes one gated operation.
type request struct {
	resource string // permission resource
	action   string // permission action
	denied   string // message when the permission check fails
	success  string // SYSTEM notification on success
	failure  string // prefix of the SYSTEM notification on failure
}

var (
	bookAccommodation = request{"accommodation", "book", "Unauthorized: Cannot book accommodation",
		"Your accommodation booking has been confirmed!", "Accommodation booking failed"}
	bookTransport = request{"transport", "book", "Unauthorized: Cannot book transport",
		"Your transport booking has been confirmed!", "Transport booking failed"}
	orderMeal = request{"meal", "order", "Unauthorized: Cannot order meal",
		"Your meal order has been confirmed!", "Meal order failed"}
	joinClub = request{"club", "join", "Unauthorized: Cannot join club",
		"Your club membership has been confirmed!", "Club membership failed"}
	leaveClub = request{"club", "leave", "Unauthorized: Cannot leave club",
		"Your club membership has been cancelled.", "Leaving club failed"}
)

// cancelRequests maps a booking's resource type to its cancel gate.
var cancelRequests = map[model.ResourceType]request{
	model.ResourceAccommodation: {"accommodation", "cancel", "Unauthorized: Cannot cancel accommodation",
		"Your accommodation booking has been cancelled.", "Accommodation cancellation failed"},
	model.ResourceTransport: {"transport", "cancel", "Unauthorized: Cannot cancel transport",
		"Your transport booking has been cancelled.", "Transport cancellation failed"},
	model.ResourceMeal: {"meal", "cancel", "Unauthorized: Cannot cancel meal order",
		"Your meal order has been cancelled.", "Meal cancellation failed"},
	model.ResourceClub: {"club", "leave", "Unauthorized: Cannot leave club",
		"Your club membership has been cancelled.", "Club cancellation failed"},
}

// cancelUnknown gates a cancellation whose booking could not be
// loaded, so its resource type is unknown.  Holding any cancel
// permission is enough.
var cancelUnknown = request{"booking", "cancel", "Unauthorized: Cannot cancel booking",
	"", "Cancellation failed"}

// HandleAccommodationRequest books accommodationID for studentID.
func (c *Controller) HandleAccommodationRequest(ctx context.Context, studentID, accommodationID string) (model.Booking, error) {
	return c.run(ctx, studentID, bookAccommodation, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Accommodation.BookHousing(ctx, studentID, accommodationID)
	})
}

// HandleTransportRequest books a seat on transportID for studentID.
func (c *Controller) HandleTransportRequest(ctx context.Context, studentID, transportID string) (model.Booking, error) {
	return c.run(ctx, studentID, bookTransport, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Transport.BookTransport(ctx, studentID, transportID)
	})
}

// HandleMealRequest orders the first meal of mealType for studentID.
func (c *Controller) HandleMealRequest(ctx context.Context, studentID, mealType string) (model.Booking, error) {
	return c.run(ctx, studentID, orderMeal, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Meal.SelectMeal(ctx, studentID, mealType)
	})
}

// HandleMealOrder orders a specific meal for studentID.
func (c *Controller) HandleMealOrder(ctx context.Context, studentID, mealID string) (model.Booking, error) {
	return c.run(ctx, studentID, orderMeal, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Meal.OrderMeal(ctx, studentID, mealID)
	})
}

// HandleClubRequest makes studentID a member of clubID.
func (c *Controller) HandleClubRequest(ctx context.Context, studentID, clubID string) (model.Booking, error) {
	return c.run(ctx, studentID, joinClub, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Club.ChooseClub(ctx, studentID, clubID)
	})
}

// HandleClubLeave ends studentID's membership of clubID.
func (c *Controller) HandleClubLeave(ctx context.Context, studentID, clubID string) (model.Booking, error) {
	return c.run(ctx, studentID, leaveClub, func(ctx context.Context) (model.Booking, error) {
		return c.svc.Club.CancelClubMembership(ctx, studentID, clubID)
	})
}

// HandleCancellation cancels one of studentID's bookings of any kind.
func (c *Controller) HandleCancellation(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	ctx = storage.WithActor(ctx, studentID)
	b, err := c.svc.Booking.Get(ctx, bookingID)
	if err != nil {
		return c.run(ctx, studentID, cancelUnknown, func(context.Context) (model.Booking, error) {
			return model.Booking{}, err
		})
	}
	req, ok := cancelRequests[b.ResourceType]
	if !ok {
		err := service.NewError(service.ErrInvalidInput, "Unknown resource type %q", b.ResourceType)
		return c.run(ctx, studentID, cancelUnknown, func(context.Context) (model.Booking, error) {
			return model.Booking{}, err
		})
	}
	return c.run(ctx, studentID, req, func(ctx context.Context) (model.Booking, error) {
		switch b.ResourceType {
		case model.ResourceAccommodation:
			return c.svc.Accommodation.CancelBooking(ctx, studentID, bookingID)
		case model.ResourceTransport:
			return c.svc.Transport.CancelBooking(ctx, studentID, bookingID)
		case model.ResourceMeal:
			return c.svc.Meal.CancelOrder(ctx, studentID, bookingID)
		default:
			return c.svc.Club.CancelByBooking(ctx, studentID, bookingID)
		}
	})
}

// SendStudentNotification stores a notification for studentID.
func (c *Controller) SendStudentNotification(ctx context.Context, studentID, message string, typ model.NotificationType) (model.Notification, error) {
	return c.svc.Notification.SendNotification(storage.WithActor(ctx, studentID), studentID, message, typ)
}

// run is the authorize, execute, notify sequence.  A denied request
// has no side effects; any other failure is notified and returned.
func (c *Controller) run(ctx context.Context, studentID string, req request, op func(context.Context) (model.Booking, error)) (model.Booking, error) {
	ctx = storage.WithActor(ctx, studentID)
	l := c.log.WithFields(logrus.Fields{"student_id": studentID, "permission": req.resource + ":" + req.action})

	allowed, err := c.permitted(ctx, studentID, req)
	if err != nil {
		return model.Booking{}, err
	}
	if !allowed {
		l.Warn("request denied")
		return model.Booking{}, service.NewError(service.ErrUnauthorized, "%s", req.denied)
	}

	b, err := op(ctx)
	if err != nil {
		l.WithError(err).Warn("request failed")
		c.notify(ctx, studentID, fmt.Sprintf("%s: %s", req.failure, err.Error()))
		return model.Booking{}, err
	}
	c.notify(ctx, studentID, req.success)
	l.WithField("booking_id", b.BookingID).Info("request handled")
	return b, nil
}

func (c *Controller) permitted(ctx context.Context, studentID string, req request) (bool, error) {
	if req != cancelUnknown {
		return c.svc.Authorization.CheckPermission(ctx, studentID, req.resource, req.action)
	}
	for _, kind := range []model.ResourceType{model.ResourceAccommodation, model.ResourceTransport, model.ResourceMeal, model.ResourceClub} {
		r := cancelRequests[kind]
		ok, err := c.svc.Authorization.CheckPermission(ctx, studentID, r.resource, r.action)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// notify never masks the outcome of the request it reports on.
func (c *Controller) notify(ctx context.Context, studentID, msg string) {
	if _, err := c.svc.Notification.SendNotification(ctx, studentID, msg, model.NotificationSystem); err != nil {
		c.log.WithError(err).WithField("student_id", studentID).Error("send notification")
	}
}
