package expense

// Category is a closed enumeration: validation and persistence share the same
// allow-list, so an invalid category is unrepresentable past the boundary.
type Category string

const (
	CategoryFoodDining     Category = "Food & Dining"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEducation      Category = "Education"
	CategoryBillsUtilities Category = "Bills & Utilities"
	CategoryTravel         Category = "Travel"
	CategoryOther          Category = "Other"
)

var allCategories = []Category{
	CategoryFoodDining,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealthcare,
	CategoryEducation,
	CategoryBillsUtilities,
	CategoryTravel,
	CategoryOther,
}

// Categories returns the full allow-list in display order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}

	return "", false
}

func (c Category) String() string {
	return string(c)
}
