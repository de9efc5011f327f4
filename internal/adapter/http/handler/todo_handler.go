package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "todoapi/internal/adapter/http/helper"
	. "todoapi/internal/adapter/http/validation"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/request"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"
	"todoapi/internal/core/util"
	"todoapi/pkg/config"
	. "todoapi/pkg/tracing"
)

type TodoHandler struct {
	svc    port.TodoService
	Logger *config.LokiLogger
}

func NewTodoHandler(todoService port.TodoService, logger *config.LokiLogger) *TodoHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &TodoHandler{
		svc:    todoService,
		Logger: logger,
	}
}

func (t *TodoHandler) Hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello World")
}

func (t *TodoHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.GetAllTodos", []attribute.KeyValue{
		attribute.String("handler.operation", "GetAllTodos"),
	})
	defer span.End()

	todos, err := t.svc.All(ctx)

	if err != nil {
		AddSpanError(span, err)
		t.sendServiceError(c, err, "Error getting todos")
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))

	SendSuccess(c, http.StatusOK, todos)
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	id, err := util.ParamID(c, "id")

	if err != nil {
		SendBadRequestError(c, "id", err.Error())
		return
	}

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.GetTodo", []attribute.KeyValue{
		attribute.String("handler.operation", "GetTodo"),
		attribute.Int("todo.id", id),
	})
	defer span.End()

	todo, err := t.svc.Find(ctx, id)

	if err != nil {
		AddSpanError(span, err)
		t.sendServiceError(c, err, "Error getting todo")
		return
	}

	SendSuccess(c, http.StatusOK, todo)
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.CreateTodo", []attribute.KeyValue{
		attribute.String("handler.operation", "CreateTodo"),
	})
	defer span.End()

	params, err := util.ParamsToMap[request.CreateTodoRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.Create(ctx, domain.CreateTodo{Text: *params.Text})

	if err != nil {
		AddSpanError(span, err)
		t.sendServiceError(c, err, "Error creating todo")
		return
	}

	span.SetAttributes(attribute.Int("todo.id", todo.ID))

	SendSuccess(c, http.StatusCreated, todo)
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	id, err := util.ParamID(c, "id")

	if err != nil {
		SendBadRequestError(c, "id", err.Error())
		return
	}

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.UpdateTodo", []attribute.KeyValue{
		attribute.String("handler.operation", "UpdateTodo"),
		attribute.Int("todo.id", id),
	})
	defer span.End()

	params, err := util.ParamsToMap[request.UpdateTodoRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.Update(ctx, id, domain.UpdateTodo{
		Text:      params.Text,
		Completed: params.Completed,
	})

	if err != nil {
		AddSpanError(span, err)
		t.sendServiceError(c, err, "Error updating todo")
		return
	}

	SendSuccess(c, http.StatusOK, todo)
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	id, err := util.ParamID(c, "id")

	if err != nil {
		SendBadRequestError(c, "id", err.Error())
		return
	}

	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.DeleteTodo", []attribute.KeyValue{
		attribute.String("handler.operation", "DeleteTodo"),
		attribute.Int("todo.id", id),
	})
	defer span.End()

	if err := t.svc.Delete(ctx, id); err != nil {
		AddSpanError(span, err)
		t.sendServiceError(c, err, "Error deleting todo")
		return
	}

	SendNoContent(c)
}

func (t *TodoHandler) sendServiceError(c *gin.Context, err error, message string) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrBackend):
		t.Logger.ErrorWithTrace(ctx, message, zap.Error(err))
		SendServiceUnavailableError(c, "Storage is temporarily unavailable")
	default:
		t.Logger.ErrorWithTrace(ctx, message, zap.Error(err))
		SendInternalError(c, message)
	}
}
