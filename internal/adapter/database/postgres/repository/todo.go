package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"todoapi/internal/adapter/database/observe"
	"todoapi/internal/adapter/database/postgres"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
)

const returning = "RETURNING id, text, completed"

type TodoRepository struct {
	db      *postgres.DB
	observe *observe.Observer
}

func NewTodoRepository(db *postgres.DB, telemetry port.Telemetry, queryTimeout time.Duration) port.TodoRepository {
	return &TodoRepository{
		db:      db,
		observe: observe.New(telemetry, "postgresql", queryTimeout),
	}
}

func (tr *TodoRepository) Create(ctx context.Context, payload domain.CreateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Create", map[string]interface{}{"db.operation": "INSERT"})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Insert("todos").
		Columns("text", "completed").
		Values(payload.Text, false).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Create", query, args)

	err = tr.db.QueryRow(ctx, query, args...).Scan(&todo.ID, &todo.Text, &todo.Completed)

	if err != nil {
		return domain.Todo{}, domain.NewBackendError("postgres.todo.Create", err)
	}

	return todo, nil
}

func (tr *TodoRepository) Find(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Find", map[string]interface{}{"db.operation": "SELECT", "todo.id": id})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Select("id", "text", "completed").
		From("todos").
		Where(sq.Eq{"id": id}).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Find", query, args)

	return scanOne(tr.db.QueryRow(ctx, query, args...), "postgres.todo.Find", id)
}

func (tr *TodoRepository) All(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "All", map[string]interface{}{"db.operation": "SELECT"})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Select("id", "text", "completed").
		From("todos").
		OrderBy("id").
		ToSql()

	if err != nil {
		return nil, err
	}

	tr.observe.Query(ctx, "All", query, args)

	rows, err := tr.db.Query(ctx, query, args...)

	if err != nil {
		return nil, domain.NewBackendError("postgres.todo.All", err)
	}

	todos, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Todo])

	if err != nil {
		return nil, domain.NewBackendError("postgres.todo.All", err)
	}

	if todos == nil {
		todos = make([]domain.Todo, 0)
	}

	return todos, nil
}

// Update merges in a single statement; COALESCE keeps the stored value for every nil field.
func (tr *TodoRepository) Update(ctx context.Context, id int, payload domain.UpdateTodo) (todo domain.Todo, err error) {
	ctx, finish := tr.observe.Start(ctx, "Update", map[string]interface{}{
		"db.operation":     "UPDATE",
		"todo.id":          id,
		"update.text":      payload.Text != nil,
		"update.completed": payload.Completed != nil,
	})
	defer func() { finish(err) }()

	query, args, err := tr.db.QueryBuilder.Update("todos").
		Set("text", sq.Expr("COALESCE(?::text, text)", payload.Text)).
		Set("completed", sq.Expr("COALESCE(?::boolean, completed)", payload.Completed)).
		Where(sq.Eq{"id": id}).
		Suffix(returning).
		ToSql()

	if err != nil {
		return domain.Todo{}, err
	}

	tr.observe.Query(ctx, "Update", query, args)

	return scanOne(tr.db.QueryRow(ctx, query, args...), "postgres.todo.Update", id)
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

	tag, err := tr.db.Exec(ctx, query, args...)

	if err != nil {
		return domain.NewBackendError("postgres.todo.Delete", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError(id)
	}

	return nil
}

func scanOne(row pgx.Row, op string, id int) (domain.Todo, error) {
	var todo domain.Todo

	err := row.Scan(&todo.ID, &todo.Text, &todo.Completed)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Todo{}, domain.NewNotFoundError(id)
	}

	if err != nil {
		return domain.Todo{}, domain.NewBackendError(op, err)
	}

	return todo, nil
}
