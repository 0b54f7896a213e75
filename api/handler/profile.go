package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/api/transport"
	"github.com/fastygo/tasktrail/pkg/httpcontext"
	profileUC "github.com/fastygo/tasktrail/usecase/profile"
	statsUC "github.com/fastygo/tasktrail/usecase/stats"
)

type ProfileHandler struct {
	baseHandler
	uc     *profileUC.UseCase
	ledger *statsUC.Ledger
}

func NewProfileHandler(uc *profileUC.UseCase, ledger *statsUC.Ledger, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		ledger:      ledger,
	}
}

// @Summary Sign-in hook: create or refresh the caller's profile
// @Tags users
// @Router /users/me [post]
func (h *ProfileHandler) SignIn(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.SignInRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	user, err := h.uc.SignIn(stdCtx, id, req.Name)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Rename the caller
// @Tags users
// @Router /users/me [put]
func (h *ProfileHandler) UpdateMe(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.ProfileUpdateRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	user, err := h.uc.Rename(stdCtx, id.UID, req.Name)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary List users for assignment
// @Tags users
// @Router /users [get]
func (h *ProfileHandler) List(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.List(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewUserList(users))
}

// @Summary Get a profile
// @Tags users
// @Router /users/{uid} [get]
func (h *ProfileHandler) Get(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Get(stdCtx, pathParam(ctx, "uid"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Task statistics for a user
// @Tags users
// @Router /users/{uid}/stats [get]
func (h *ProfileHandler) Stats(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.ledger.GetStats(stdCtx, pathParam(ctx, "uid"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, stats)
}
