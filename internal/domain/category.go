package domain

// Category is one of the fixed activity categories.
type Category string

const (
	CategorySport     Category = "Sportti"
	CategoryGames     Category = "Pelit"
	CategoryAfterWork Category = "After Work"
	CategoryOther     Category = "Muut"
)

// Categories lists every valid category in menu order.
func Categories() []Category {
	return []Category{CategorySport, CategoryGames, CategoryAfterWork, CategoryOther}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
