package model

// UncategorizedName is shown for transactions without a category, and for
// category references the directory cannot resolve.
const UncategorizedName = "Uncategorized"

// Category is a spending category a transaction can be assigned to.
type Category struct {
	Name     string `json:"name"`
	ID       int64  `json:"id"`
	IsCustom bool   `json:"is_custom"`
}
