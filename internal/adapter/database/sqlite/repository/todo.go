package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todoapi/internal/adapter/database/observe"
	"todoapi/internal/adapter/database/sqlite"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
)

var columns = []string{"id", "text", "completed"}

type TodoRepository struct {
	db      *sqlite.DB
	observe *observe.Observer
}

func NewTodoRepository(db *sqlite.DB, telemetry port.Telemetry, queryTimeout time.Duration) port.TodoRepository {
	return &TodoRepository{
		db:      db,
		observe: observe.New(telemetry, "sqlite", queryTimeout),
	}
}

func (tr *TodoRepository) Create(ctx context.Context, payload domain.CreateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Create", map[string]interface{}{"db.operation": "INSERT"})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Insert("todos").
		Columns("text", "completed").
		Values(payload.Text, false).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Create", query, args)

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Create", err)
	}

	id, err := result.LastInsertId()

	if err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Create", err)
	}

	return domain.NewTodo(int(id), payload.Text), nil
}

func (tr *TodoRepository) Find(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Find", map[string]interface{}{"db.operation": "SELECT", "todo.id": id})
	defer func() { finish(err) }()

	return tr.findWith(ctx, tr.db, id)
}

func (tr *TodoRepository) All(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "All", map[string]interface{}{"db.operation": "SELECT"})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Select(columns...).
		From("todos").
		OrderBy("id").
		ToSql()

	if err != nil {
		return nil, err
	}

	tr.observe.Query(ctx, "All", query, args)

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, domain.NewBackendError("sqlite.todo.All", err)
	}

	defer rows.Close()

	todos = make([]domain.Todo, 0)

	for rows.Next() {
		var todo domain.Todo

		if err := rows.Scan(&todo.ID, &todo.Text, &todo.Completed); err != nil {
			return nil, domain.NewBackendError("sqlite.todo.All", err)
		}

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewBackendError("sqlite.todo.All", err)
	}

	return todos, nil
}

// Update reads and writes inside one immediate transaction so the merge sees the
// values it overwrites.
func (tr *TodoRepository) Update(ctx context.Context, id int, payload domain.UpdateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Update", map[string]interface{}{
		"db.operation":     "UPDATE",
		"todo.id":          id,
		"update.text":      payload.Text != nil,
		"update.completed": payload.Completed != nil,
	})
	defer func() { finish(err) }()

	tx, err := tr.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Update", err)
	}

	defer tx.Rollback()

	current, err := tr.findWith(ctx, tx, id)

	if err != nil {
		return domain.Todo{}, err
	}

	todo = current.Apply(payload)

	if payload.IsEmpty() {
		return todo, nil
	}

	query, args, err := tr.db.QueryBuilder.Update("todos").
		Set("text", todo.Text).
		Set("completed", todo.Completed).
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Update", query, args)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Update", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Update", err)
	}

	return todo, nil
}

func (tr *TodoRepository) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tr.observe.Start(ctx, "Delete", map[string]interface{}{"db.operation": "DELETE", "todo.id": id})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Delete("todos").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return err
	}

	tr.observe.Query(ctx, "Delete", query, args)

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.NewBackendError("sqlite.todo.Delete", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return domain.NewBackendError("sqlite.todo.Delete", err)
	}

	if rowsAffected == 0 {
		return domain.NewNotFoundError(id)
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (tr *TodoRepository) findWith(ctx context.Context, db queryRower, id int) (domain.Todo, error) {
	query, args, err := tr.db.QueryBuilder.Select(columns...).
		From("todos").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Find", query, args)

	var todo domain.Todo
	err = db.QueryRowContext(ctx, query, args...).Scan(&todo.ID, &todo.Text, &todo.Completed)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Todo{}, domain.NewNotFoundError(id)
	}

	if err != nil {
		return domain.Todo{}, domain.NewBackendError("sqlite.todo.Find", err)
	}

	return todo, nil
}
