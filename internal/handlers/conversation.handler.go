package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/admissions-inbox/internal/model"
	xhttp "github.com/nimasrn/admissions-inbox/pkg/http"
)

type ConversationService interface {
	Get(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error)
	Close(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error)
	Reopen(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error)
	SetTags(ctx context.Context, conversationID, tenantID int64, tags []string) (*model.Conversation, error)
	MarkRead(ctx context.Context, conversationID, tenantID int64, messageIDs []int64) (int64, error)
}

type ConversationHandler struct {
	svc ConversationService
}

func RegisterConversationRoutes(e *router.Group, h *ConversationHandler) {
	e.GET("/conversations/{id}", h.GetConversation)
	e.POST("/conversations/{id}/close", h.CloseConversation)
	e.POST("/conversations/{id}/reopen", h.ReopenConversation)
	e.PUT("/conversations/{id}/tags", h.SetTags)
	e.POST("/conversations/{id}/read", h.MarkRead)
}

func NewConversationHandler(svc ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

type markReadRequest struct {
	MessageIDs []int64 `json:"message_ids"`
}

type markReadResponse struct {
	ConversationID int64 `json:"conversation_id"`
	UnreadCount    int64 `json:"unread_count"`
}

func (h *ConversationHandler) GetConversation(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	conv, err := h.svc.Get(ctx, id, tenant)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, conv)
}

func (h *ConversationHandler) CloseConversation(ctx *xhttp.RequestCtx) {
	h.transition(ctx, h.svc.Close)
}

func (h *ConversationHandler) ReopenConversation(ctx *xhttp.RequestCtx) {
	h.transition(ctx, h.svc.Reopen)
}

func (h *ConversationHandler) transition(ctx *xhttp.RequestCtx, do func(context.Context, int64, int64) (*model.Conversation, error)) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	conv, err := do(ctx, id, tenant)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, conv)
}

func (h *ConversationHandler) SetTags(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	var req setTagsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	conv, err := h.svc.SetTags(ctx, id, tenant, req.Tags)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, conv)
}

// MarkRead accepts an empty body, meaning every message in the conversation.
func (h *ConversationHandler) MarkRead(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	var req markReadRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	count, err := h.svc.MarkRead(ctx, id, tenant, req.MessageIDs)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, markReadResponse{ConversationID: id, UnreadCount: count})
}
