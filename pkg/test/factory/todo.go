package factory

import (
	fab "github.com/Goldziher/fabricator"

	"todoapi/internal/core/domain"
)

func NewTodo[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	if len(customData) > 0 {
		return instance.Build(customData...)
	}

	return instance.Build()
}

// NewCreateTodo builds a create payload with generated text unless Text is overridden.
func NewCreateTodo(customData ...map[string]any) domain.CreateTodo {
	payload := NewTodo[domain.CreateTodo](customData...)

	if payload.Text == "" {
		payload.Text = "todo text"
	}

	return payload
}

func Ptr[T any](value T) *T {
	return &value
}
