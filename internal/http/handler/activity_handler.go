package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// List godoc
// @Summary List activities
// @Description Get recent activity log entries, optionally scoped to one client or document
// @Tags Activities
// @Accept json
// @Produce json
// @Param targetType query string false "Target type" Enums(Client, Document, Project)
// @Param targetId query string false "Target ID" format(uuid)
// @Param limit query int false "Max entries" default(20)
// @Success 200 {array} domain.ActivityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	targetType := r.URL.Query().Get("targetType")
	targetRaw := r.URL.Query().Get("targetId")

	var (
		activities []domain.ActivityDTO
		err        error
	)
	if targetType != "" && targetRaw != "" {
		targetID, parseErr := uuid.Parse(targetRaw)
		if parseErr != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid targetId format",
			})
			return
		}
		activities, err = h.activityService.ListByTarget(r.Context(), domain.ActivityTargetType(targetType), targetID, limit)
	} else {
		activities, err = h.activityService.ListRecent(r.Context(), limit)
	}

	if err != nil {
		h.logger.Error("failed to list activities", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list activities",
		})
		return
	}

	respondJSON(w, http.StatusOK, activities)
}
