package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todoapi/internal/adapter/database/memory"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"
	"todoapi/internal/core/service"
	"todoapi/pkg/test/factory"
)

type TodoHandlerSuite struct {
	suite.Suite
	TodoRepo port.TodoRepository
	Router   *gin.Engine
}

var ctx = context.Background()

func (s *TodoHandlerSuite) SetupTest() {
	RegisterTestingT(s.T())
	s.TodoRepo = memory.NewTodoRepository()
	s.Router = setupTodoTestRouter(NewTodoHandler(service.NewTodoService(s.TodoRepo), nil))
}

func TestTodoHandlerSuite(t *testing.T) {
	suite.Run(t, new(TodoHandlerSuite))
}

func setupTodoTestRouter(todoHandler *TodoHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(gin.Recovery())

	router.GET("/", todoHandler.Hello)
	router.GET("/health", todoHandler.Health)
	router.GET("/todos", todoHandler.GetAllTodos)
	router.POST("/todos", todoHandler.CreateTodo)
	router.GET("/todos/:id", todoHandler.GetTodo)
	router.PATCH("/todos/:id", todoHandler.UpdateTodo)
	router.DELETE("/todos/:id", todoHandler.DeleteTodo)

	return router
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(rr, req)

	return rr
}

func decodeTodo(rr *httptest.ResponseRecorder) domain.Todo {
	var body struct {
		Data domain.Todo `json:"data"`
	}
	Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())

	return body.Data
}

func decodeError(rr *httptest.ResponseRecorder) response.ResponseError {
	var body response.ErrorResponse
	Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())

	return body.Error
}

func (s *TodoHandlerSuite) CreateTodo(text string) domain.Todo {
	todo, err := s.TodoRepo.Create(ctx, factory.NewCreateTodo(map[string]any{"Text": text}))
	s.Require().NoError(err)

	return todo
}

func (s *TodoHandlerSuite) TestHello() {
	rr := serve(s.Router, http.MethodGet, "/", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(Equal("Hello World"))
}

func (s *TodoHandlerSuite) TestHealth() {
	rr := serve(s.Router, http.MethodGet, "/health", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`{"status":"ok"}`))
}

func (s *TodoHandlerSuite) TestGetAllTodos_Empty() {
	rr := serve(s.Router, http.MethodGet, "/todos", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	Expect(rr.Body.String()).To(MatchJSON(`{"data":[]}`))
}

func (s *TodoHandlerSuite) TestGetAllTodos_WithData() {
	s.CreateTodo("first")
	s.CreateTodo("second")

	rr := serve(s.Router, http.MethodGet, "/todos", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`{"data":[
		{"id":1,"text":"first","completed":false},
		{"id":2,"text":"second","completed":false}
	]}`))
}

func (s *TodoHandlerSuite) TestCreateTodo_Success() {
	rr := serve(s.Router, http.MethodPost, "/todos", `{"text":"buy milk"}`)

	Expect(rr.Code).To(Equal(http.StatusCreated))
	Expect(decodeTodo(rr)).To(Equal(domain.Todo{ID: 1, Text: "buy milk", Completed: false}))

	stored, err := s.TodoRepo.Find(ctx, 1)
	Expect(err).To(BeNil())
	Expect(stored.Text).To(Equal("buy milk"))
}

func (s *TodoHandlerSuite) TestCreateTodo_MissingText() {
	rr := serve(s.Router, http.MethodPost, "/todos", `{}`)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	apiErr := decodeError(rr)
	Expect(apiErr.Code).To(Equal("VALIDATION_ERROR"))
	Expect(apiErr.Errors).To(ContainElement(response.ValidationError{Field: "text", Message: "text is required"}))
}

func (s *TodoHandlerSuite) TestCreateTodo_NullText() {
	rr := serve(s.Router, http.MethodPost, "/todos", `{"text":null}`)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Code).To(Equal("VALIDATION_ERROR"))
}

func (s *TodoHandlerSuite) TestCreateTodo_FreeFormText() {
	long := strings.Repeat("a", 1000)

	for _, text := range []string{"", long, "emoji ✓ and \"quotes\""} {
		body, err := json.Marshal(map[string]string{"text": text})
		s.Require().NoError(err)

		rr := serve(s.Router, http.MethodPost, "/todos", string(body))

		Expect(rr.Code).To(Equal(http.StatusCreated), "text %q", text)
		Expect(decodeTodo(rr).Text).To(Equal(text))
	}
}

func (s *TodoHandlerSuite) TestCreateTodo_MalformedJSON() {
	rr := serve(s.Router, http.MethodPost, "/todos", `{"text":`)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Code).To(Equal("BAD_REQUEST"))
}

func (s *TodoHandlerSuite) TestGetTodo() {
	created := s.CreateTodo("read me")

	rr := serve(s.Router, http.MethodGet, "/todos/1", "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decodeTodo(rr)).To(Equal(created))
}

func (s *TodoHandlerSuite) TestGetTodo_NotFound() {
	rr := serve(s.Router, http.MethodGet, "/todos/99", "")

	Expect(rr.Code).To(Equal(http.StatusNotFound))

	apiErr := decodeError(rr)
	Expect(apiErr.Code).To(Equal("NOT_FOUND"))
	Expect(apiErr.Errors[0].Message).To(ContainSubstring("99"))
}

func (s *TodoHandlerSuite) TestGetTodo_InvalidID() {
	for _, id := range []string{"abc", "1.5", "99999999999"} {
		rr := serve(s.Router, http.MethodGet, "/todos/"+id, "")

		Expect(rr.Code).To(Equal(http.StatusBadRequest), "id %s", id)
		Expect(decodeError(rr).Code).To(Equal("BAD_REQUEST"))
	}
}

func (s *TodoHandlerSuite) TestNonPositiveIDIsNotFound() {
	for _, id := range []string{"0", "-1"} {
		rr := serve(s.Router, http.MethodGet, "/todos/"+id, "")
		Expect(rr.Code).To(Equal(http.StatusNotFound), "GET id %s", id)
		Expect(decodeError(rr).Code).To(Equal("NOT_FOUND"))

		rr = serve(s.Router, http.MethodPatch, "/todos/"+id, `{"completed":true}`)
		Expect(rr.Code).To(Equal(http.StatusNotFound), "PATCH id %s", id)

		rr = serve(s.Router, http.MethodDelete, "/todos/"+id, "")
		Expect(rr.Code).To(Equal(http.StatusNotFound), "DELETE id %s", id)
	}
}

func (s *TodoHandlerSuite) TestUpdateTodo_Partial() {
	s.CreateTodo("original")

	rr := serve(s.Router, http.MethodPatch, "/todos/1", `{"completed":true}`)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decodeTodo(rr)).To(Equal(domain.Todo{ID: 1, Text: "original", Completed: true}))

	rr = serve(s.Router, http.MethodPatch, "/todos/1", `{"text":"renamed"}`)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decodeTodo(rr)).To(Equal(domain.Todo{ID: 1, Text: "renamed", Completed: true}))
}

func (s *TodoHandlerSuite) TestUpdateTodo_EmptyPayload() {
	created := s.CreateTodo("unchanged")

	rr := serve(s.Router, http.MethodPatch, "/todos/1", `{}`)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decodeTodo(rr)).To(Equal(created))
}

func (s *TodoHandlerSuite) TestUpdateTodo_EmptyText() {
	s.CreateTodo("keep")

	rr := serve(s.Router, http.MethodPatch, "/todos/1", `{"text":""}`)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decodeTodo(rr)).To(Equal(domain.Todo{ID: 1, Text: "", Completed: false}))
}

func (s *TodoHandlerSuite) TestUpdateTodo_WrongType() {
	s.CreateTodo("keep")

	rr := serve(s.Router, http.MethodPatch, "/todos/1", `{"completed":"yes"}`)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Code).To(Equal("BAD_REQUEST"))
}

func (s *TodoHandlerSuite) TestUpdateTodo_NotFound() {
	rr := serve(s.Router, http.MethodPatch, "/todos/7", `{"completed":true}`)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(decodeError(rr).Code).To(Equal("NOT_FOUND"))
}

func (s *TodoHandlerSuite) TestDeleteTodo() {
	s.CreateTodo("bye")

	rr := serve(s.Router, http.MethodDelete, "/todos/1", "")

	Expect(rr.Code).To(Equal(http.StatusNoContent))
	Expect(rr.Body.Len()).To(BeZero())

	rr = serve(s.Router, http.MethodGet, "/todos/1", "")
	Expect(rr.Code).To(Equal(http.StatusNotFound))

	rr = serve(s.Router, http.MethodDelete, "/todos/1", "")
	Expect(rr.Code).To(Equal(http.StatusNotFound))
}

type failingService struct {
	port.TodoService
	err error
}

func (f failingService) All(context.Context) ([]domain.Todo, error) {
	return nil, f.err
}

func (f failingService) Find(context.Context, int) (domain.Todo, error) {
	return domain.Todo{}, f.err
}

func TestTodoHandler_BackendErrorIsServiceUnavailable(t *testing.T) {
	RegisterTestingT(t)

	backendErr := domain.NewBackendError("test.todo.All", errors.New("connection refused"))
	router := setupTodoTestRouter(NewTodoHandler(failingService{err: backendErr}, nil))

	rr := serve(router, http.MethodGet, "/todos", "")

	Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(decodeError(rr).Code).To(Equal("SERVICE_UNAVAILABLE"))
	Expect(rr.Body.String()).NotTo(ContainSubstring("connection refused"))
}

func TestTodoHandler_UnexpectedErrorIsInternal(t *testing.T) {
	RegisterTestingT(t)

	router := setupTodoTestRouter(NewTodoHandler(failingService{err: errors.New("boom")}, nil))

	rr := serve(router, http.MethodGet, "/todos/1", "")

	Expect(rr.Code).To(Equal(http.StatusInternalServerError))
	Expect(decodeError(rr).Code).To(Equal("INTERNAL_ERROR"))
}
