package inventory

// Category groups ingredients for accounting. Each category maps to its own
// inventory and COGS accounts.
type Category string

const (
	CategoryIngredients Category = "ingredients"
	CategoryPacking     Category = "packing"
	CategoryKitchen     Category = "kitchen"
	CategoryOther       Category = "other"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// IsValid returns true if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryIngredients, CategoryPacking, CategoryKitchen, CategoryOther:
		return true
	}
	return false
}

// AllCategories returns every category in reporting order
func AllCategories() []Category {
	return []Category{CategoryIngredients, CategoryPacking, CategoryKitchen, CategoryOther}
}
