package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	cache "todoapi/internal/adapter/cache/memory"
	"todoapi/internal/adapter/database/memory"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/service"
	"todoapi/pkg/test/factory"
)

type countingRepository struct {
	port.TodoRepository
	finds atomic.Int32
}

func (r *countingRepository) Find(ctx context.Context, id int) (domain.Todo, error) {
	r.finds.Add(1)
	return r.TodoRepository.Find(ctx, id)
}

// pausingRepository holds Find after the row was read until release is closed.
type pausingRepository struct {
	port.TodoRepository
	pause   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingRepository() *pausingRepository {
	return &pausingRepository{
		TodoRepository: memory.NewTodoRepository(),
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (r *pausingRepository) Find(ctx context.Context, id int) (domain.Todo, error) {
	todo, err := r.TodoRepository.Find(ctx, id)

	if r.pause.CompareAndSwap(true, false) {
		r.read <- struct{}{}
		<-r.release
	}

	return todo, err
}

type failingRepository struct {
	port.TodoRepository
}

func (failingRepository) All(context.Context) ([]domain.Todo, error) {
	return nil, domain.NewBackendError("test.todo.All", errors.New("connection refused"))
}

type cacheCounter struct {
	hits, misses atomic.Int32
}

func (c *cacheCounter) RecordCacheHit(context.Context)  { c.hits.Add(1) }
func (c *cacheCounter) RecordCacheMiss(context.Context) { c.misses.Add(1) }

type TodoServiceTestSuite struct {
	suite.Suite
	Service *service.TodoService
	Repo    *countingRepository
	Metrics *cacheCounter
	ctx     context.Context
}

func (s *TodoServiceTestSuite) SetupTest() {
	RegisterTestingT(s.T())
	s.ctx = context.Background()
	s.Repo = &countingRepository{TodoRepository: memory.NewTodoRepository()}
	s.Metrics = &cacheCounter{}
	s.Service = service.NewTodoService(s.Repo,
		service.WithCache(cache.NewCache(time.Minute), time.Minute, s.Metrics),
	)
}

func TestTodoServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TodoServiceTestSuite))
}

func (s *TodoServiceTestSuite) TestService_Create() {
	todo, err := s.Service.Create(s.ctx, factory.NewCreateTodo(map[string]any{"Text": "buy milk"}))

	Expect(err).To(BeNil())
	Expect(todo).To(Equal(domain.Todo{ID: 1, Text: "buy milk"}))
}

func (s *TodoServiceTestSuite) TestService_All_Empty() {
	todos, err := s.Service.All(s.ctx)

	Expect(err).To(BeNil())
	Expect(todos).NotTo(BeNil())
	Expect(todos).To(BeEmpty())
}

func (s *TodoServiceTestSuite) TestService_Find_UsesCache() {
	created, _ := s.Service.Create(s.ctx, domain.CreateTodo{Text: "cached"})

	first, err := s.Service.Find(s.ctx, created.ID)
	Expect(err).To(BeNil())

	second, err := s.Service.Find(s.ctx, created.ID)
	Expect(err).To(BeNil())

	Expect(second).To(Equal(first))
	assert.Equal(s.T(), int32(1), s.Repo.finds.Load())
	assert.Equal(s.T(), int32(1), s.Metrics.hits.Load())
	assert.Equal(s.T(), int32(1), s.Metrics.misses.Load())
}

func (s *TodoServiceTestSuite) TestService_Update_EvictsCache() {
	created, _ := s.Service.Create(s.ctx, domain.CreateTodo{Text: "before"})
	_, _ = s.Service.Find(s.ctx, created.ID)

	updated, err := s.Service.Update(s.ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("after")})
	Expect(err).To(BeNil())
	Expect(updated.Text).To(Equal("after"))

	found, err := s.Service.Find(s.ctx, created.ID)

	Expect(err).To(BeNil())
	Expect(found.Text).To(Equal("after"))
	assert.Equal(s.T(), int32(2), s.Repo.finds.Load())
}

func (s *TodoServiceTestSuite) TestService_Delete_EvictsCache() {
	created, _ := s.Service.Create(s.ctx, domain.CreateTodo{Text: "gone soon"})
	_, _ = s.Service.Find(s.ctx, created.ID)

	Expect(s.Service.Delete(s.ctx, created.ID)).To(Succeed())

	_, err := s.Service.Find(s.ctx, created.ID)

	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestService_NotFoundPassesThrough() {
	_, err := s.Service.Update(s.ctx, 42, domain.UpdateTodo{Completed: factory.Ptr(true)})
	Expect(err).To(MatchError(domain.ErrNotFound))

	err = s.Service.Delete(s.ctx, 42)
	Expect(err).To(MatchError(domain.ErrNotFound))
}

func TestService_BackendErrorPassesThrough(t *testing.T) {
	RegisterTestingT(t)

	svc := service.NewTodoService(failingRepository{})

	_, err := svc.All(context.Background())

	Expect(err).To(MatchError(domain.ErrBackend))
}

func TestService_WithoutCache(t *testing.T) {
	RegisterTestingT(t)

	repo := &countingRepository{TodoRepository: memory.NewTodoRepository()}
	svc := service.NewTodoService(repo)

	created, _ := svc.Create(context.Background(), domain.CreateTodo{Text: "plain"})
	_, _ = svc.Find(context.Background(), created.ID)
	_, _ = svc.Find(context.Background(), created.ID)

	Expect(repo.finds.Load()).To(Equal(int32(2)))
}

func TestService_DeleteDuringFindDoesNotRefillCache(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := newPausingRepository()
	svc := service.NewTodoService(repo, service.WithCache(cache.NewCache(time.Minute), time.Minute, nil))

	created, err := svc.Create(ctx, domain.CreateTodo{Text: "buy milk"})
	Expect(err).To(BeNil())

	repo.pause.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Find(ctx, created.ID)
		done <- err
	}()

	<-repo.read
	Expect(svc.Delete(ctx, created.ID)).To(Succeed())
	close(repo.release)
	Expect(<-done).To(BeNil())

	_, err = svc.Find(ctx, created.ID)

	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func TestService_UpdateDuringFindDoesNotRefillCache(t *testing.T) {
	RegisterTestingT(t)

	ctx := context.Background()
	repo := newPausingRepository()
	svc := service.NewTodoService(repo, service.WithCache(cache.NewCache(time.Minute), time.Minute, nil))

	created, err := svc.Create(ctx, domain.CreateTodo{Text: "before"})
	Expect(err).To(BeNil())

	repo.pause.Store(true)

	done := make(chan domain.Todo, 1)
	go func() {
		todo, _ := svc.Find(ctx, created.ID)
		done <- todo
	}()

	<-repo.read
	_, err = svc.Update(ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("after"), Completed: factory.Ptr(true)})
	Expect(err).To(BeNil())
	close(repo.release)
	Expect((<-done).Text).To(Equal("before"))

	found, err := svc.Find(ctx, created.ID)

	Expect(err).To(BeNil())
	Expect(found).To(Equal(domain.Todo{ID: created.ID, Text: "after", Completed: true}))
}
