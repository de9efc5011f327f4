package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

const serviceName = "todo"

// CacheMetrics is satisfied by telemetry.AppMetrics.
type CacheMetrics interface {
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
}

type TodoService struct {
	repo      port.TodoRepository
	cache     port.CacheRepository
	cacheTTL  time.Duration
	metrics   CacheMetrics
	telemetry port.Telemetry
	logger    *zap.Logger

	// writes counts Update and Delete calls. A fill is stored only if no write completed
	// while the repository read was in flight.
	cacheMu sync.Mutex
	writes  uint64
}

type Option func(*TodoService)

// WithCache enables read-through caching of single todos. Entries are evicted on update and
// delete.
func WithCache(cache port.CacheRepository, ttl time.Duration, metrics CacheMetrics) Option {
	return func(ts *TodoService) {
		ts.cache = cache
		ts.cacheTTL = ttl
		ts.metrics = metrics
	}
}

func WithTelemetry(telemetry port.Telemetry) Option {
	return func(ts *TodoService) {
		if telemetry != nil {
			ts.telemetry = telemetry
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(ts *TodoService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

func NewTodoService(repo port.TodoRepository, opts ...Option) *TodoService {
	ts := &TodoService{
		repo:      repo,
		telemetry: tel.NewNoOpProbe(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts
}

func (ts *TodoService) Create(ctx context.Context, payload domain.CreateTodo) (todo domain.Todo, err error) {
	ctx, finish := ts.start(ctx, "Create", nil)
	defer func() { finish(err) }()

	todo, err = ts.repo.Create(ctx, payload)

	if err != nil {
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "created", serviceName, strconv.Itoa(todo.ID), nil)

	return todo, nil
}

func (ts *TodoService) Find(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, finish := ts.start(ctx, "Find", map[string]interface{}{"todo.id": id})
	defer func() { finish(err) }()

	if cached, ok := ts.readCache(ctx, id); ok {
		return cached, nil
	}

	generation := ts.writeGeneration()

	todo, err = ts.repo.Find(ctx, id)

	if err != nil {
		return domain.Todo{}, err
	}

	ts.writeCache(ctx, todo, generation)

	return todo, nil
}

func (ts *TodoService) All(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, finish := ts.start(ctx, "All", nil)
	defer func() { finish(err) }()

	todos, err = ts.repo.All(ctx)

	if err != nil {
		return nil, err
	}

	if todos == nil {
		todos = make([]domain.Todo, 0)
	}

	return todos, nil
}

func (ts *TodoService) Update(ctx context.Context, id int, payload domain.UpdateTodo) (todo domain.Todo, err error) {
	ctx, finish := ts.start(ctx, "Update", map[string]interface{}{
		"todo.id":          id,
		"update.text":      payload.Text != nil,
		"update.completed": payload.Completed != nil,
	})
	defer func() { finish(err) }()

	todo, err = ts.repo.Update(ctx, id, payload)

	if err != nil {
		return domain.Todo{}, err
	}

	ts.evictCache(ctx, id)

	ts.telemetry.RecordBusinessEvent(ctx, "updated", serviceName, strconv.Itoa(id), map[string]interface{}{
		"completed": todo.Completed,
	})

	return todo, nil
}

func (ts *TodoService) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := ts.start(ctx, "Delete", map[string]interface{}{"todo.id": id})
	defer func() { finish(err) }()

	if err = ts.repo.Delete(ctx, id); err != nil {
		return err
	}

	ts.evictCache(ctx, id)

	ts.telemetry.RecordBusinessEvent(ctx, "deleted", serviceName, strconv.Itoa(id), nil)

	return nil
}

func (ts *TodoService) start(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, func(error)) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, operation, attrs)

	return ctx, func(err error) {
		defer span.End()

		if err == nil || domain.IsNotFound(err) {
			span.SetStatus("ok", "")
			return
		}

		span.SetStatus("error", err.Error())
		span.RecordError(err)
		ts.telemetry.RecordError(ctx, "service.todo."+operation, err, attrs)
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("todo:%d", id)
}

func (ts *TodoService) readCache(ctx context.Context, id int) (domain.Todo, bool) {
	if ts.cache == nil {
		return domain.Todo{}, false
	}

	data, err := ts.cache.Get(ctx, cacheKey(id))

	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			ts.logger.Warn("Cache read failed", zap.Int("todo_id", id), zap.Error(err))
		}
		ts.recordCache(ctx, false)
		return domain.Todo{}, false
	}

	var todo domain.Todo
	if err := json.Unmarshal(data, &todo); err != nil {
		ts.logger.Warn("Cache entry is corrupt", zap.Int("todo_id", id), zap.Error(err))
		ts.recordCache(ctx, false)
		return domain.Todo{}, false
	}

	ts.recordCache(ctx, true)

	return todo, true
}

func (ts *TodoService) writeGeneration() uint64 {
	ts.cacheMu.Lock()
	defer ts.cacheMu.Unlock()

	return ts.writes
}

func (ts *TodoService) writeCache(ctx context.Context, todo domain.Todo, generation uint64) {
	if ts.cache == nil {
		return
	}

	data, err := json.Marshal(todo)
	if err != nil {
		return
	}

	ts.cacheMu.Lock()
	defer ts.cacheMu.Unlock()

	if ts.writes != generation {
		return
	}

	if err := ts.cache.Set(ctx, cacheKey(todo.ID), data, ts.cacheTTL); err != nil {
		ts.logger.Warn("Cache write failed", zap.Int("todo_id", todo.ID), zap.Error(err))
	}
}

func (ts *TodoService) evictCache(ctx context.Context, id int) {
	if ts.cache == nil {
		return
	}

	ts.cacheMu.Lock()
	defer ts.cacheMu.Unlock()

	ts.writes++

	if err := ts.cache.Delete(ctx, cacheKey(id)); err != nil {
		ts.logger.Warn("Cache eviction failed", zap.Int("todo_id", id), zap.Error(err))
	}
}

func (ts *TodoService) recordCache(ctx context.Context, hit bool) {
	if ts.metrics == nil {
		return
	}

	if hit {
		ts.metrics.RecordCacheHit(ctx)
	} else {
		ts.metrics.RecordCacheMiss(ctx)
	}
}
