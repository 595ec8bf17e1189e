package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/storage"
	"github.com/iliyamo/student-services-portal/internal/utils"
)

// UserRepo persists users and the role specific copy (students or
// admins) written alongside each one.
type UserRepo struct {
	repo *Repository
	mu   sync.Mutex // serialises the unique-email check and insert
}

func NewUserRepo(r *Repository) *UserRepo { return &UserRepo{repo: r} }

// Create inserts u and its role copy.  u.Email is normalised first.
// The password hash must already be set.
func (r *UserRepo) Create(ctx context.Context, u model.User, name string) (model.User, error) {
	u.Email = utils.NormalizeEmail(u.Email)
	if !u.Role.Valid() {
		return model.User{}, ErrUnknownRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok, err := r.GetByEmail(ctx, u.Email); err != nil {
		return model.User{}, err
	} else if ok {
		return model.User{}, ErrEmailExists
	}
	if err := r.repo.Save(ctx, u, TableUsers); err != nil {
		return model.User{}, err
	}
	var err error
	switch u.Role {
	case model.RoleStudent:
		err = r.repo.Save(ctx, model.Student{
			StudentID:        u.UserID,
			Name:             name,
			Email:            u.Email,
			PasswordHash:     u.PasswordHash,
			Role:             u.Role,
			RegistrationDate: u.CreatedDate,
		}, TableStudents)
	case model.RoleAdmin:
		err = r.repo.Save(ctx, model.Admin{
			AdminID:      u.UserID,
			Name:         name,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
			Permissions:  []string{"*:*"},
		}, TableAdmins)
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, bool, error) {
	rows, err := Query[model.User](ctx, r.repo, TableUsers, storage.Criteria{"email": utils.NormalizeEmail(email)})
	if err != nil || len(rows) == 0 {
		return model.User{}, false, err
	}
	return rows[0], true, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, bool, error) {
	return Get[model.User](ctx, r.repo, TableUsers, IDUser, id)
}

// UpdatePasswordHash stores a new hash on the user and its role copy.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, u model.User, hash string) error {
	patch := storage.Record{"passwordHash": hash}
	if _, err := r.repo.Patch(ctx, u.UserID, TableUsers, IDUser, patch); err != nil {
		return err
	}
	table, idField := TableStudents, IDStudent
	if u.Role == model.RoleAdmin {
		table, idField = TableAdmins, IDAdmin
	}
	_, err := r.repo.Patch(ctx, u.UserID, table, idField, patch)
	return err
}

// Students lists the student role table.
func (r *UserRepo) Students(ctx context.Context) ([]model.Student, error) {
	return List[model.Student](ctx, r.repo, TableStudents)
}
