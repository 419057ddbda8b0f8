package models

// Category is the closed set of activity categories.
type Category string

const (
	CategoryProductivity  Category = "Productivity"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategorySocial        Category = "Social"
	CategoryOther         Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryProductivity, CategoryHealth, CategoryEntertainment, CategorySocial, CategoryOther:
		return true
	}
	return false
}

func Categories() []Category {
	return []Category{
		CategoryProductivity,
		CategoryHealth,
		CategoryEntertainment,
		CategorySocial,
		CategoryOther,
	}
}
