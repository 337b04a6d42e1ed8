package handler

import (
	"context"
	"errors"
	"net/http"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/schedules/service"
	"scheduling_backend/internal/schedules/transport"
	"scheduling_backend/platform/httpkit"
	"scheduling_backend/platform/logger"
	"scheduling_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Confirmer is the service surface used by the handler.
type Confirmer interface {
	Confirm(ctx context.Context, id uuid.UUID, caller service.Caller) (*service.Result, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ScheduleRecord, error)
}

// EffectDispatcher executes confirmation side effects outside the request.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []domain.Effect) error
}

// Handler handles HTTP requests for schedule records
type Handler struct {
	svc        Confirmer
	dispatcher EffectDispatcher
	val        *validator.Validator
	log        *logger.Logger
}

// New creates a new schedules handler. dispatcher may be nil.
func New(svc Confirmer, dispatcher EffectDispatcher, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, dispatcher: dispatcher, val: val, log: log}
}

// RegisterRoutes registers the schedule routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/confirm", h.Confirm)
}

// GetByID handles GET /api/v1/schedules/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToRecordResponse(rec))
}

// Confirm handles POST /api/v1/schedules/:id/confirm
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	caller := service.Caller{
		UserID: identity.UserID().String(),
		Email:  identity.Email(),
		Roles:  identity.Roles(),
	}
	result, err := h.svc.Confirm(c.Request.Context(), id, caller)
	if err != nil {
		var syncErr *service.SyncError
		if errors.As(err, &syncErr) {
			_ = c.Error(err)
			httpkit.JSON(c, http.StatusBadGateway, transport.ConfirmFailureResponse{
				Confirmed:   false,
				ZuperSynced: false,
				ZuperError:  syncErr.Message,
				Error:       "failed to sync schedule with field-service provider",
			})
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	h.dispatch(c.Request.Context(), result.Effects)

	httpkit.OK(c, transport.ConfirmResponse{
		Confirmed:       result.Confirmed,
		ZuperJobUID:     result.ZuperJobUID,
		HubSpotWarnings: result.HubSpotWarnings,
	})
}

// dispatch hands effects off. Failures are logged and never reach the caller.
func (h *Handler) dispatch(ctx context.Context, effects []domain.Effect) {
	if h.dispatcher == nil || len(effects) == 0 {
		return
	}
	if err := h.dispatcher.Dispatch(context.WithoutCancel(ctx), effects); err != nil {
		h.log.WithContext(ctx).Warn("failed to dispatch schedule effects", "error", err, "count", len(effects))
	}
}

func (h *Handler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var params transport.RecordIDParams
	if err := c.ShouldBindUri(&params); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return uuid.UUID{}, false
	}
	if httpkit.HandleError(c, h.val.Struct(params)) {
		return uuid.UUID{}, false
	}
	return uuid.MustParse(params.ID), true
}
