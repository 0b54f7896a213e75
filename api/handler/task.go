package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/api/transport"
	"github.com/fastygo/tasktrail/domain"
	"github.com/fastygo/tasktrail/pkg/httpcontext"
	taskUC "github.com/fastygo/tasktrail/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks, newest first unless sort is given
// @Tags tasks
// @Param status query string false "Pending, In Progress or Completed"
// @Param search query string false "matches title, description or status"
// @Param sort query string false "dueDate-asc, dueDate-desc, status-asc, status-desc"
// @Router /tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	query, err := parseQuery(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	tasks, err := h.uc.List(stdCtx, query)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, tasks)
}

// @Summary Get task
// @Tags tasks
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Accept json
// @Router /tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.TaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	created, err := h.uc.Create(stdCtx, toInput(req), actor)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// @Summary Replace task fields
// @Tags tasks
// @Accept json
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.TaskRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	updated, err := h.uc.Update(stdCtx, pathParam(ctx, "id"), toInput(req), actor)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Change task status
// @Tags tasks
// @Accept json
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.StatusRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, domain.ErrInvalidStatus)
		return
	}

	updated, err := h.uc.UpdateStatus(stdCtx, pathParam(ctx, "id"), req.Status, actor)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	actor, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, pathParam(ctx, "id"), actor); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Message: "Task deleted successfully"})
}

// @Summary Task activity history with rendered summaries
// @Tags tasks
// @Router /tasks/{id}/activity [get]
func (h *TaskHandler) Activity(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	log, err := h.uc.Activity(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewActivity(log))
}

func parseQuery(args *fasthttp.Args) (domain.TaskQuery, error) {
	var q domain.TaskQuery
	if raw := string(args.Peek("status")); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	sort, err := domain.ParseTaskSort(string(args.Peek("sort")))
	if err != nil {
		return q, err
	}
	q.Sort = sort
	q.Search = string(args.Peek("search"))
	return q, nil
}

func toInput(req transport.TaskRequest) taskUC.Input {
	return taskUC.Input{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		DueDate:       req.DueDate,
		DueTime:       req.DueTime,
		AssignedUsers: req.AssignedUsers,
	}
}
