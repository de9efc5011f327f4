package request

// CreateTodoRequest takes any text, including "", but the field must be present.
type CreateTodoRequest struct {
	Text *string `json:"text" validate:"required"`
}

// UpdateTodoRequest keeps pointers so an absent field is distinguishable from a zero value.
type UpdateTodoRequest struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
