package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todoapi/internal/adapter/database/mysql"
	"todoapi/internal/adapter/database/observe"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
)

type TodoRepository struct {
	db      *gorm.DB
	observe *observe.Observer
}

func NewTodoRepository(db *gorm.DB, telemetry port.Telemetry, queryTimeout time.Duration) port.TodoRepository {
	return &TodoRepository{
		db:      db,
		observe: observe.New(telemetry, "mysql", queryTimeout),
	}
}

func (tr *TodoRepository) Create(ctx context.Context, payload domain.CreateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Create", map[string]interface{}{"db.operation": "INSERT"})
	defer func() { finish(err) }()

	po := mysql.TodoPO{Text: payload.Text}

	if err := tr.db.WithContext(ctx).Create(&po).Error; err != nil {
		return domain.Todo{}, domain.NewBackendError("mysql.todo.Create", err)
	}

	return toDomain(po), nil
}

func (tr *TodoRepository) Find(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Find", map[string]interface{}{"db.operation": "SELECT", "todo.id": id})
	defer func() { finish(err) }()

	var po mysql.TodoPO

	if err := tr.db.WithContext(ctx).First(&po, "id = ?", id).Error; err != nil {
		return domain.Todo{}, mapError("mysql.todo.Find", id, err)
	}

	return toDomain(po), nil
}

func (tr *TodoRepository) All(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "All", map[string]interface{}{"db.operation": "SELECT"})
	defer func() { finish(err) }()

	var pos []mysql.TodoPO

	if err := tr.db.WithContext(ctx).Order("id").Find(&pos).Error; err != nil {
		return nil, domain.NewBackendError("mysql.todo.All", err)
	}

	todos = make([]domain.Todo, 0, len(pos))
	for _, po := range pos {
		todos = append(todos, toDomain(po))
	}

	return todos, nil
}

// Update locks the row for the duration of the merge so concurrent partial updates never
// overwrite each other's fields.
func (tr *TodoRepository) Update(ctx context.Context, id int, payload domain.UpdateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Update", map[string]interface{}{
		"db.operation":     "UPDATE",
		"todo.id":          id,
		"update.text":      payload.Text != nil,
		"update.completed": payload.Completed != nil,
	})
	defer func() { finish(err) }()

	err = tr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po mysql.TodoPO

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, "id = ?", id).Error; err != nil {
			return err
		}

		todo = toDomain(po).Apply(payload)

		if payload.IsEmpty() {
			return nil
		}

		return tx.Model(&mysql.TodoPO{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"text": todo.Text, "completed": todo.Completed}).
			Error
	})

	if err != nil {
		return domain.Todo{}, mapError("mysql.todo.Update", id, err)
	}

	return todo, nil
}

func (tr *TodoRepository) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tr.observe.Start(ctx, "Delete", map[string]interface{}{"db.operation": "DELETE", "todo.id": id})
	defer func() { finish(err) }()

	result := tr.db.WithContext(ctx).Delete(&mysql.TodoPO{}, "id = ?", id)

	if result.Error != nil {
		return domain.NewBackendError("mysql.todo.Delete", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(id)
	}

	return nil
}

func toDomain(po mysql.TodoPO) domain.Todo {
	return domain.Todo{ID: po.ID, Text: po.Text, Completed: po.Completed}
}

func mapError(op string, id int, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError(id)
	}

	return domain.NewBackendError(op, err)
}
