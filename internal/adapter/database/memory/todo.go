// Package memory provides a concurrency-safe, map-backed todo repository.
package memory

import (
	"context"
	"sync"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
)

// TodoRepository keeps todos in a map guarded by a single RWMutex. Reads run in parallel;
// Create, Update and Delete are exclusive. Values are stored and returned by copy so no
// caller ever holds a reference into the map.
type TodoRepository struct {
	mu     sync.RWMutex
	store  map[int]domain.Todo
	lastID int
}

var _ port.TodoRepository = (*TodoRepository)(nil)

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{
		store: make(map[int]domain.Todo),
	}
}

// Create assigns the next id from a counter that only grows, so ids of deleted todos are
// never handed out again.
func (r *TodoRepository) Create(ctx context.Context, payload domain.CreateTodo) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	todo := domain.NewTodo(r.lastID, payload.Text)
	r.store[todo.ID] = todo

	return todo, nil
}

func (r *TodoRepository) Find(ctx context.Context, id int) (domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todo, ok := r.store[id]

	if !ok {
		return domain.Todo{}, domain.NewNotFoundError(id)
	}

	return todo, nil
}

func (r *TodoRepository) All(ctx context.Context) ([]domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := make([]domain.Todo, 0, len(r.store))

	for _, todo := range r.store {
		todos = append(todos, todo)
	}

	return todos, nil
}

// Update merges payload into the value read under the write lock.
func (r *TodoRepository) Update(ctx context.Context, id int, payload domain.UpdateTodo) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[id]

	if !ok {
		return domain.Todo{}, domain.NewNotFoundError(id)
	}

	todo := current.Apply(payload)
	r.store[id] = todo

	return todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.NewNotFoundError(id)
	}

	delete(r.store, id)

	return nil
}

func (r *TodoRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.store)
}

func (r *TodoRepository) Close() error {
	return nil
}
