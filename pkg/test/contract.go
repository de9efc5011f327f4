package test

import (
	"context"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/pkg/test/factory"
)

// TodoRepositorySuite checks the repository contract. NewRepository must return an empty
// repository for every test.
type TodoRepositorySuite struct {
	suite.Suite
	NewRepository func(t *testing.T) port.TodoRepository

	Repo port.TodoRepository
	ctx  context.Context
}

func RunTodoRepositorySuite(t *testing.T, newRepository func(t *testing.T) port.TodoRepository) {
	suite.Run(t, &TodoRepositorySuite{NewRepository: newRepository})
}

// SetupTest binds the package-level Expect to the running subtest.
func (s *TodoRepositorySuite) SetupTest() {
	RegisterTestingT(s.T())
	s.ctx = context.Background()
	s.Repo = s.NewRepository(s.T())
}

func (s *TodoRepositorySuite) create(text string) domain.Todo {
	todo, err := s.Repo.Create(s.ctx, factory.NewCreateTodo(map[string]any{"Text": text}))
	s.Require().NoError(err)

	return todo
}

func (s *TodoRepositorySuite) TestCreate_AssignsIDAndDefaults() {
	todo := s.create("buy milk")

	Expect(todo.ID).To(BeNumerically(">", 0))
	Expect(todo.Text).To(Equal("buy milk"))
	Expect(todo.Completed).To(BeFalse())
}

func (s *TodoRepositorySuite) TestCreate_UniqueIDs() {
	seen := map[int]bool{}

	for i := 0; i < 20; i++ {
		todo := s.create("task")

		Expect(todo.ID).To(BeNumerically(">", 0))
		Expect(seen).ToNot(HaveKey(todo.ID))
		seen[todo.ID] = true
	}
}

func (s *TodoRepositorySuite) TestCreate_IDsNotReusedAfterDelete() {
	first := s.create("first")
	second := s.create("second")

	s.Require().NoError(s.Repo.Delete(s.ctx, second.ID))

	third := s.create("third")

	Expect(third.ID).To(BeNumerically(">", second.ID))
	Expect(third.ID).ToNot(Equal(first.ID))
}

func (s *TodoRepositorySuite) TestFind_ReadAfterWrite() {
	created := s.create("buy milk")

	found, err := s.Repo.Find(s.ctx, created.ID)

	Expect(err).To(BeNil())
	Expect(found).To(Equal(created))
}

func (s *TodoRepositorySuite) TestFind_NotFound() {
	_, err := s.Repo.Find(s.ctx, 999)

	Expect(domain.IsNotFound(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring("999"))
}

func (s *TodoRepositorySuite) TestAll_Empty() {
	todos, err := s.Repo.All(s.ctx)

	Expect(err).To(BeNil())
	Expect(todos).ToNot(BeNil())
	Expect(todos).To(BeEmpty())
}

func (s *TodoRepositorySuite) TestAll_ReturnsExactlyPresentTodos() {
	var created []domain.Todo

	for i := 0; i < 5; i++ {
		created = append(created, s.create("task"))
	}

	s.Require().NoError(s.Repo.Delete(s.ctx, created[1].ID))
	s.Require().NoError(s.Repo.Delete(s.ctx, created[3].ID))

	updated, err := s.Repo.Update(s.ctx, created[4].ID, domain.UpdateTodo{Completed: factory.Ptr(true)})
	s.Require().NoError(err)

	todos, err := s.Repo.All(s.ctx)

	Expect(err).To(BeNil())
	Expect(todos).To(ConsistOf(created[0], created[2], updated))
}

func (s *TodoRepositorySuite) TestUpdate_Partial() {
	created := s.create("a")

	todo, err := s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("b")})

	Expect(err).To(BeNil())
	Expect(todo).To(Equal(domain.Todo{ID: created.ID, Text: "b", Completed: false}))

	todo, err = s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Completed: factory.Ptr(true)})

	Expect(err).To(BeNil())
	Expect(todo).To(Equal(domain.Todo{ID: created.ID, Text: "b", Completed: true}))

	found, err := s.Repo.Find(s.ctx, created.ID)

	Expect(err).To(BeNil())
	Expect(found).To(Equal(todo))
}

func (s *TodoRepositorySuite) TestEmptyTextIsAValue() {
	created, err := s.Repo.Create(s.ctx, domain.CreateTodo{Text: ""})
	s.Require().NoError(err)
	Expect(created.Text).To(BeEmpty())

	found, err := s.Repo.Find(s.ctx, created.ID)
	Expect(err).To(BeNil())
	Expect(found.Text).To(BeEmpty())

	renamed, err := s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("named")})
	Expect(err).To(BeNil())
	Expect(renamed.Text).To(Equal("named"))

	cleared, err := s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("")})
	Expect(err).To(BeNil())
	Expect(cleared).To(Equal(domain.Todo{ID: created.ID, Text: "", Completed: false}))

	found, err = s.Repo.Find(s.ctx, created.ID)
	Expect(err).To(BeNil())
	Expect(found).To(Equal(cleared))
}

func (s *TodoRepositorySuite) TestUpdate_EmptyPayloadKeepsTodo() {
	created := s.create("unchanged")

	todo, err := s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{})

	Expect(err).To(BeNil())
	Expect(todo).To(Equal(created))
}

func (s *TodoRepositorySuite) TestUpdate_NotFound() {
	_, err := s.Repo.Update(s.ctx, 999, domain.UpdateTodo{Completed: factory.Ptr(true)})

	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func (s *TodoRepositorySuite) TestDelete_RemovesTodo() {
	created := s.create("buy milk")

	Expect(s.Repo.Delete(s.ctx, created.ID)).To(Succeed())

	_, err := s.Repo.Find(s.ctx, created.ID)
	Expect(domain.IsNotFound(err)).To(BeTrue())

	todos, err := s.Repo.All(s.ctx)
	Expect(err).To(BeNil())
	Expect(todos).ToNot(ContainElement(created))

	err = s.Repo.Delete(s.ctx, created.ID)
	Expect(domain.IsNotFound(err)).To(BeTrue())
}

func (s *TodoRepositorySuite) TestCrudScenario() {
	todo := s.create("buy milk")

	found, err := s.Repo.Find(s.ctx, todo.ID)
	s.Require().NoError(err)
	s.Equal(domain.Todo{ID: todo.ID, Text: "buy milk", Completed: false}, found)

	updated, err := s.Repo.Update(s.ctx, todo.ID, domain.UpdateTodo{Completed: factory.Ptr(true)})
	s.Require().NoError(err)
	s.Equal(domain.Todo{ID: todo.ID, Text: "buy milk", Completed: true}, updated)

	s.Require().NoError(s.Repo.Delete(s.ctx, todo.ID))

	_, err = s.Repo.Find(s.ctx, todo.ID)
	s.ErrorIs(err, domain.ErrNotFound)

	err = s.Repo.Delete(s.ctx, todo.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *TodoRepositorySuite) TestConcurrentCreates() {
	const workers = 25

	var wg sync.WaitGroup
	ids := make(chan int, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			todo, err := s.Repo.Create(s.ctx, factory.NewCreateTodo())
			if err != nil {
				errs <- err
				return
			}

			ids <- todo.ID
		}()
	}

	wg.Wait()
	close(ids)
	close(errs)

	Expect(errs).To(BeEmpty())

	seen := map[int]bool{}
	for id := range ids {
		Expect(seen).ToNot(HaveKey(id))
		seen[id] = true
	}

	todos, err := s.Repo.All(s.ctx)
	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(workers))
}

func (s *TodoRepositorySuite) TestConcurrentPartialUpdatesKeepBothFields() {
	created := s.create("before")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Text: factory.Ptr("after")})
	}()

	go func() {
		defer wg.Done()
		_, _ = s.Repo.Update(s.ctx, created.ID, domain.UpdateTodo{Completed: factory.Ptr(true)})
	}()

	wg.Wait()

	found, err := s.Repo.Find(s.ctx, created.ID)

	Expect(err).To(BeNil())
	Expect(found).To(Equal(domain.Todo{ID: created.ID, Text: "after", Completed: true}))
}
