package domain

type AddOnCategory string

const (
	AddOnCategoryMeal      AddOnCategory = "meal"
	AddOnCategoryBaggage   AddOnCategory = "baggage"
	AddOnCategoryInsurance AddOnCategory = "insurance"
	AddOnCategoryUpgrade   AddOnCategory = "upgrade"
)

func (c AddOnCategory) Valid() bool {
	switch c {
	case AddOnCategoryMeal, AddOnCategoryBaggage, AddOnCategoryInsurance, AddOnCategoryUpgrade:
		return true
	}
	return false
}

// Exclusive reports whether at most one add-on of the category may be
// selected at a time.
func (c AddOnCategory) Exclusive() bool {
	return c == AddOnCategoryMeal || c == AddOnCategoryInsurance
}

type AddOn struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Price       float64       `json:"price" yaml:"price"`
	Category    AddOnCategory `json:"category" yaml:"category"`
}
