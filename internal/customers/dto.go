package customers

// CreateInput is the payload for a new customer.
type CreateInput struct {
	Name    string `json:"name" form:"name" validate:"required,max=200"`
	Phone   string `json:"phone" form:"phone" validate:"required,max=50"`
	Address string `json:"address" form:"address" validate:"max=300"`
	Email   string `json:"email" form:"email" validate:"omitempty,email"`
	Notes   string `json:"notes" form:"notes" validate:"max=1000"`
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=1,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=300"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Status  *Status `json:"status,omitempty" validate:"omitempty,oneof=active waiting_address archived"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Empty reports whether no field is set.
func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Phone == nil && in.Address == nil &&
		in.Email == nil && in.Status == nil && in.Notes == nil
}

// ListFilter narrows the dashboard listing.
type ListFilter struct {
	Query  string
	Status Status
	Limit  int
	Offset int
}
