package service

import "strings"

// MealKit produces the three courses of a combo.  Each meal type has
// its own kit.
type MealKit interface {
	MainDish() string
	Drink() string
	Dessert() string
}

type healthyKit struct{}

func (healthyKit) MainDish() string { return "Grilled Chicken" }
func (healthyKit) Drink() string    { return "Water" }
func (healthyKit) Dessert() string  { return "Fruit" }

type regularKit struct{}

func (regularKit) MainDish() string { return "Burger" }
func (regularKit) Drink() string    { return "Soda" }
func (regularKit) Dessert() string  { return "Cake" }

// KitFor returns the kit for mealType.
func KitFor(mealType string) (MealKit, error) {
	switch strings.ToUpper(strings.TrimSpace(mealType)) {
	case MealHealthy:
		return healthyKit{}, nil
	case MealRegular:
		return regularKit{}, nil
	}
	return nil, NewError(ErrInvalidInput, "Unknown meal type %q", mealType)
}

// MealCombo is an assembled three course meal.
type MealCombo struct {
	Main    string `json:"main"`
	Drink   string `json:"drink"`
	Dessert string `json:"dessert"`
}

// BuildCombo assembles a combo from k.
func BuildCombo(k MealKit) MealCombo {
	return MealCombo{Main: k.MainDish(), Drink: k.Drink(), Dessert: k.Dessert()}
}
