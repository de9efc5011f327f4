package domain

type Todo struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type CreateTodo struct {
	Text string `json:"text"`
}

// UpdateTodo carries a partial update. A nil field leaves the stored value untouched.
type UpdateTodo struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func NewTodo(id int, text string) Todo {
	return Todo{
		ID:        id,
		Text:      text,
		Completed: false,
	}
}

// Apply merges the update into t and returns the result. The ID is kept.
func (t Todo) Apply(payload UpdateTodo) Todo {
	merged := t

	if payload.Text != nil {
		merged.Text = *payload.Text
	}

	if payload.Completed != nil {
		merged.Completed = *payload.Completed
	}

	return merged
}

func (u UpdateTodo) IsEmpty() bool {
	return u.Text == nil && u.Completed == nil
}

func (t *Todo) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":        t.ID,
		"text":      t.Text,
		"completed": t.Completed,
	}
}
