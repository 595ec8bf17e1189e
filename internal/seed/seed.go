// Package seed writes the sample catalog on first start.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the decoded sample data, one slice of records per table.
type Catalog map[string][]map[string]any

// catalogTables are written in this order.  The guard table comes
// last so an interrupted seed is retried on the next start.
var catalogTables = []string{
	repository.TableTransport,
	repository.TableMeals,
	repository.TableClubs,
	repository.TableAccommodations,
}

var emptyTables = []string{
	repository.TableBookings,
	repository.TablePayments,
	repository.TableNotifications,
	repository.TableUsers,
	repository.TableStudents,
	repository.TableAdmins,
}

// LoadCatalog decodes the embedded catalog.
func LoadCatalog() (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for _, t := range catalogTables {
		if len(c[t]) == 0 {
			return nil, fmt.Errorf("catalog has no %s", t)
		}
	}
	return c, nil
}

// Seed writes the catalog unless the accommodations table already
// exists, and reports whether it wrote anything.  Running it twice
// leaves a single copy of every row.
func Seed(ctx context.Context, e *storage.Engine, log *logrus.Logger) (bool, error) {
	done, err := e.Exists(ctx, repository.TableAccommodations)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}
	cat, err := LoadCatalog()
	if err != nil {
		return false, err
	}
	for _, t := range emptyTables {
		ok, err := e.Exists(ctx, t)
		if err != nil {
			return false, err
		}
		if !ok {
			if err := e.Put(ctx, t, nil); err != nil {
				return false, err
			}
		}
	}
	for _, t := range catalogTables {
		rows := make([]storage.Record, 0, len(cat[t]))
		for _, raw := range cat[t] {
			rec, err := storage.ToRecord(raw)
			if err != nil {
				return false, fmt.Errorf("seed %s: %w", t, err)
			}
			rows = append(rows, rec)
		}
		if err := e.Put(ctx, t, rows); err != nil {
			return false, err
		}
	}
	if log != nil {
		log.WithField("tables", len(catalogTables)).Info("sample catalog seeded")
	}
	return true, nil
}

// EnsureAdmin registers an ADMIN account for email unless one exists.
// An empty email skips it.
func EnsureAdmin(ctx context.Context, auth *service.AuthenticationService, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	_, err := auth.Register(ctx, service.RegisterInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if errors.Is(err, service.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
