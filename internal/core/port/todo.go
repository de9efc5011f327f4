package port

import (
	"context"

	"todoapi/internal/core/domain"
)

// TodoRepository is the storage contract every backend satisfies. Implementations must be
// safe for concurrent use and return copies, never references into their own state.
type TodoRepository interface {
	Create(ctx context.Context, payload domain.CreateTodo) (domain.Todo, error)
	Find(ctx context.Context, id int) (domain.Todo, error)
	All(ctx context.Context) ([]domain.Todo, error)
	Update(ctx context.Context, id int, payload domain.UpdateTodo) (domain.Todo, error)
	Delete(ctx context.Context, id int) error
}

type TodoService interface {
	Create(ctx context.Context, payload domain.CreateTodo) (domain.Todo, error)
	Find(ctx context.Context, id int) (domain.Todo, error)
	All(ctx context.Context) ([]domain.Todo, error)
	Update(ctx context.Context, id int, payload domain.UpdateTodo) (domain.Todo, error)
	Delete(ctx context.Context, id int) error
}
