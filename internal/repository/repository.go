// Package repository maps domain entities onto storage tables.  It
// knows table and id-field names but nothing about business rules;
// absence is reported with ok=false, never as an error.
package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/student-services-portal/internal/storage"
)

// Table names.
const (
	TableUsers          = "users"
	TableStudents       = "students"
	TableAdmins         = "admins"
	TableAccommodations = "accommodations"
	TableTransport      = "transport"
	TableMeals          = "meals"
	TableClubs          = "clubs"
	TableBookings       = "bookings"
	TablePayments       = "payments"
	TableNotifications  = "notifications"
	TableRevokedTokens  = "revoked_tokens"
)

// Id-field names, one per table.
const (
	IDUser          = "userID"
	IDStudent       = "studentID"
	IDAdmin         = "adminID"
	IDAccommodation = "accommodationID"
	IDTransport     = "transportID"
	IDMeal          = "mealID"
	IDClub          = "clubID"
	IDBooking       = "bookingID"
	IDPayment       = "paymentID"
	IDNotification  = "notificationID"
	IDRevokedToken  = "tokenHash"
)

// Repository is the generic entity store used by every service.
type Repository struct {
	da storage.DataAccess
}

// New returns a Repository over da, normally a *storage.Proxy.
func New(da storage.DataAccess) *Repository {
	if da == nil {
		panic("nil data access passed to repository.New")
	}
	return &Repository{da: da}
}

// Save inserts entity into table.
func (r *Repository) Save(ctx context.Context, entity any, table string) error {
	rec, err := storage.ToRecord(entity)
	if err != nil {
		return err
	}
	return r.da.Insert(ctx, table, rec)
}

// FindByID returns the first record whose idField equals id.
func (r *Repository) FindByID(ctx context.Context, id, table, idField string) (storage.Record, bool, error) {
	return r.da.FindOne(ctx, table, storage.Criteria{idField: id})
}

// Update merges entity onto the records sharing its idField value
// and returns how many changed.
func (r *Repository) Update(ctx context.Context, entity any, table, idField string) (int, error) {
	rec, err := storage.ToRecord(entity)
	if err != nil {
		return 0, err
	}
	id, ok := rec[idField]
	if !ok || id == "" || id == nil {
		return 0, fmt.Errorf("update %s: entity has no %s", table, idField)
	}
	return r.da.Update(ctx, table, storage.Criteria{idField: id}, rec)
}

// Patch merges only the given fields onto the record with this id.
func (r *Repository) Patch(ctx context.Context, id, table, idField string, patch storage.Record) (int, error) {
	return r.da.Update(ctx, table, storage.Criteria{idField: id}, patch)
}

// PatchWhere is Patch restricted to a record that also matches
// expect.  The match and the write happen in one storage operation, so
// a zero count means the record was missing or no longer matched.
func (r *Repository) PatchWhere(ctx context.Context, id, table, idField string, expect storage.Criteria, patch storage.Record) (int, error) {
	c := storage.Criteria{idField: id}
	for k, v := range expect {
		c[k] = v
	}
	return r.da.Update(ctx, table, c, patch)
}

// Delete removes the records whose idField equals id.
func (r *Repository) Delete(ctx context.Context, id, table, idField string) (int, error) {
	return r.da.Delete(ctx, table, storage.Criteria{idField: id})
}

// FindAll returns every record in table.
func (r *Repository) FindAll(ctx context.Context, table string) ([]storage.Record, error) {
	return r.da.FindAll(ctx, table)
}

// FindByQuery returns every record of table matching criteria.
func (r *Repository) FindByQuery(ctx context.Context, criteria storage.Criteria, table string) ([]storage.Record, error) {
	rows, err := r.da.FindAll(ctx, table)
	if err != nil {
		return nil, err
	}
	return storage.Filter(rows, criteria)
}

// Get loads one entity by id and decodes it into T.
func Get[T any](ctx context.Context, r *Repository, table, idField, id string) (T, bool, error) {
	var zero T
	rec, ok, err := r.FindByID(ctx, id, table, idField)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := storage.FromRecord[T](rec)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// List loads every entity of table.
func List[T any](ctx context.Context, r *Repository, table string) ([]T, error) {
	rows, err := r.FindAll(ctx, table)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](rows)
}

// Query loads every entity of table matching criteria.
func Query[T any](ctx context.Context, r *Repository, table string, criteria storage.Criteria) ([]T, error) {
	rows, err := r.FindByQuery(ctx, criteria, table)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](rows)
}

func decodeAll[T any](rows []storage.Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, rec := range rows {
		v, err := storage.FromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
