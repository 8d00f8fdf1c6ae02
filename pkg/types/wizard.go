package types

// LineItem is one food item being composed in the donation wizard. The store
// accepts partially filled items while the user edits; required fields are
// only enforced at submission.
type LineItem struct {
	ID          string   `json:"id" form:"id"`
	Name        string   `json:"name" form:"name"`
	Quantity    string   `json:"quantity" form:"quantity"`
	Allergens   []string `json:"allergens" form:"allergens"`
	Description string   `json:"description,omitempty" form:"description"`
	ImageURLs   []string `json:"image_urls,omitempty" form:"-"`
}

// RequestDetails is the single payload of the request flow, the counterpart
// of the donation flow's line items.
type RequestDetails struct {
	Description string `json:"description" form:"description"`
	PeopleCount int    `json:"people_count" form:"people_count"`
}
