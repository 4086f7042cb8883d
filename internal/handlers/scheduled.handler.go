package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/admissions-inbox/internal/model"
	xhttp "github.com/nimasrn/admissions-inbox/pkg/http"
)

type ScheduleService interface {
	Schedule(ctx context.Context, req model.ScheduleRequest) (*model.ScheduledMessage, error)
	Get(ctx context.Context, tenantID, id int64) (*model.ScheduledMessage, error)
	List(ctx context.Context, f model.ScheduledMessageFilter) ([]*model.ScheduledMessage, int64, error)
	ListAttempts(ctx context.Context, tenantID, id int64) ([]*model.DeliveryAttempt, error)
	Requeue(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.ScheduledMessage, error)
}

type ScheduledMessageHandler struct {
	svc ScheduleService
}

func RegisterScheduledMessageRoutes(e *router.Group, h *ScheduledMessageHandler) {
	e.POST("/scheduled-messages", h.CreateScheduledMessage)
	e.GET("/scheduled-messages", h.ListScheduledMessages)
	e.GET("/scheduled-messages/{id}", h.GetScheduledMessage)
	e.GET("/scheduled-messages/{id}/attempts", h.ListAttempts)
	e.POST("/scheduled-messages/{id}/requeue", h.Requeue)
}

func NewScheduledMessageHandler(svc ScheduleService) *ScheduledMessageHandler {
	return &ScheduledMessageHandler{svc: svc}
}

type requeueRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *ScheduledMessageHandler) CreateScheduledMessage(ctx *xhttp.RequestCtx) {
	tenant, err := tenantID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusUnauthorized, err.Error())
		return
	}
	var req model.ScheduleRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.TenantID = tenant

	sm, err := h.svc.Schedule(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, sm)
}

func (h *ScheduledMessageHandler) ListScheduledMessages(ctx *xhttp.RequestCtx) {
	tenant, err := tenantID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusUnauthorized, err.Error())
		return
	}
	f := model.ScheduledMessageFilter{TenantID: tenant}

	if v := query(ctx, "conversation_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.ConversationID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.ScheduledStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.ScheduledMessage]{Items: items, Total: total})
}

func (h *ScheduledMessageHandler) GetScheduledMessage(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	sm, err := h.svc.Get(ctx, tenant, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, sm)
}

func (h *ScheduledMessageHandler) ListAttempts(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	attempts, err := h.svc.ListAttempts(ctx, tenant, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.DeliveryAttempt]{Items: attempts, Total: int64(len(attempts))})
}

func (h *ScheduledMessageHandler) Requeue(ctx *xhttp.RequestCtx) {
	tenant, id, ok := requestScope(ctx)
	if !ok {
		return
	}
	var req requeueRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	sm, err := h.svc.Requeue(ctx, tenant, id, req.ScheduledAt)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, sm)
}
