package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/search"
	"github.com/iliyamo/student-services-portal/internal/service"
)

// CatalogHandler serves the public, read-only catalog listings.  No
// authentication is required.
type CatalogHandler struct {
	Accommodation *service.AccommodationService
	Transport     *service.TransportService
	Meal          *service.MealService
	Club          *service.ClubService
}

func NewCatalogHandler(a *service.AccommodationService, t *service.TransportService, m *service.MealService, cl *service.ClubService) *CatalogHandler {
	if a == nil || t == nil || m == nil || cl == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Accommodation: a, Transport: t, Meal: m, Club: cl}
}

// filter binds a query parameter to the strategy that interprets it.
type filter[T any] struct {
	param    string
	strategy search.Strategy[T]
}

// applyFilters narrows items by every filter whose parameter is present,
// in order.
func applyFilters[T any](c echo.Context, items []T, filters ...filter[T]) ([]T, error) {
	sc := search.NewContext[T](nil)
	for _, f := range filters {
		q := c.QueryParam(f.param)
		if q == "" {
			continue
		}
		sc.SetStrategy(f.strategy)
		var err error
		if items, err = sc.ExecuteSearch(q, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// GET /v1/accommodations?name=&location=&price=min-max
func (h *CatalogHandler) ListAccommodations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Accommodation.GetAvailableAccommodations(ctx)
	if err != nil {
		return fail(c, err)
	}
	items, err = applyFilters(c, items,
		filter[model.Accommodation]{"name", search.AccommodationByName},
		filter[model.Accommodation]{"location", search.AccommodationByLocation},
		filter[model.Accommodation]{"price", search.AccommodationByPrice},
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /v1/transport?q=&price=min-max
func (h *CatalogHandler) ListTransport(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Transport.GetAvailableTransport(ctx)
	if err != nil {
		return fail(c, err)
	}
	items, err = applyFilters(c, items,
		filter[model.Transport]{"q", search.TransportByName},
		filter[model.Transport]{"price", search.TransportByPrice},
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /v1/meals?type=&name=&price=min-max
func (h *CatalogHandler) ListMeals(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Meal.GetAvailableMeals(ctx, c.QueryParam("type"))
	if err != nil {
		return fail(c, err)
	}
	items, err = applyFilters(c, items,
		filter[model.Meal]{"name", search.MealByName},
		filter[model.Meal]{"price", search.MealByPrice},
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GET /v1/meals/combo/:type
func (h *CatalogHandler) MealCombo(c echo.Context) error {
	combo, err := h.Meal.ComboFor(c.Param("type"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, combo)
}

// GET /v1/clubs?name=&category=
func (h *CatalogHandler) ListClubs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Club.GetAvailableClubs(ctx)
	if err != nil {
		return fail(c, err)
	}
	items, err = applyFilters(c, items,
		filter[model.Club]{"name", search.ClubByName},
		filter[model.Club]{"category", search.ClubByCategory},
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
