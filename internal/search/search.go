// Package search implements interchangeable filters over catalog
// listings.  Every strategy is pure: it never mutates its input and
// returns the input slice itself when nothing is filtered out.
package search

import (
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/student-services-portal/internal/model"
)

// ErrNoStrategy is returned by Context.ExecuteSearch before a
// strategy has been set.
var ErrNoStrategy = errors.New("search strategy not set")

// Strategy filters items by query.
type Strategy[T any] interface {
	Search(query string, items []T) []T
}

// PriceRange keeps items whose price lies in "min-max" inclusive.
// A query that does not parse leaves items untouched.
type PriceRange[T any] struct {
	Price func(T) float64
}

func (p PriceRange[T]) Search(query string, items []T) []T {
	lo, hi, ok := parseRange(query)
	if !ok {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if v := p.Price(it); v >= lo && v <= hi {
			out = append(out, it)
		}
	}
	return out
}

func parseRange(q string) (float64, float64, bool) {
	a, b, found := strings.Cut(strings.TrimSpace(q), "-")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// Substring keeps items whose field contains query, ignoring case.
// An empty query leaves items untouched.
type Substring[T any] struct {
	Field func(T) string
}

func (s Substring[T]) Search(query string, items []T) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(s.Field(it)), q) {
			out = append(out, it)
		}
	}
	return out
}

// Ready-made strategies for the catalog types.
var (
	AccommodationByPrice    = PriceRange[model.Accommodation]{Price: func(a model.Accommodation) float64 { return a.PricePerNight }}
	AccommodationByLocation = Substring[model.Accommodation]{Field: func(a model.Accommodation) string { return a.Location }}
	AccommodationByName     = Substring[model.Accommodation]{Field: func(a model.Accommodation) string { return a.Name }}
	TransportByName         = Substring[model.Transport]{Field: func(t model.Transport) string { return t.Type + " " + t.Route }}
	TransportByPrice        = PriceRange[model.Transport]{Price: func(t model.Transport) float64 { return t.PricePerSeat }}
	MealByName              = Substring[model.Meal]{Field: func(m model.Meal) string { return m.Name }}
	MealByPrice             = PriceRange[model.Meal]{Price: func(m model.Meal) float64 { return m.Price }}
	ClubByName              = Substring[model.Club]{Field: func(c model.Club) string { return c.Name }}
	ClubByCategory          = Substring[model.Club]{Field: func(c model.Club) string { return c.Category }}
)

// Context holds the selected strategy and runs searches with it.
type Context[T any] struct {
	strategy Strategy[T]
}

// NewContext returns a context using s, which may be nil.
func NewContext[T any](s Strategy[T]) *Context[T] { return &Context[T]{strategy: s} }

// SetStrategy replaces the current strategy.
func (c *Context[T]) SetStrategy(s Strategy[T]) { c.strategy = s }

// ExecuteSearch runs the current strategy.
func (c *Context[T]) ExecuteSearch(query string, items []T) ([]T, error) {
	if c.strategy == nil {
		return nil, ErrNoStrategy
	}
	return c.strategy.Search(query, items), nil
}
