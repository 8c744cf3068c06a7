package types

// Category is one entry of the fixed topical taxonomy items are classified
// into. The ids are stable; the classifier collaborator returns them directly.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category ids as assigned by the classifier model.
const (
	CategoryBusiness      int64 = 0
	CategoryEntertainment int64 = 1
	CategoryHealth        int64 = 2
	CategoryTechScience   int64 = 3
	CategoryEnvironment   int64 = 4
	CategoryLGBT          int64 = 5
	CategoryYouth         int64 = 6
)

// DefaultCategories returns the fixed category taxonomy, in id order. These
// are seeded into storage at startup so that foreign keys resolve.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryBusiness, Name: "business"},
		{ID: CategoryEntertainment, Name: "entertainment"},
		{ID: CategoryHealth, Name: "health"},
		{ID: CategoryTechScience, Name: "tech & science"},
		{ID: CategoryEnvironment, Name: "environment"},
		{ID: CategoryLGBT, Name: "lgbt"},
		{ID: CategoryYouth, Name: "youth"},
	}
}
