package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

type TemplateHandler struct {
	templateService *service.TemplateService
	logger          *zap.Logger
}

func NewTemplateHandler(templateService *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// List godoc
// @Summary List templates
// @Description Get all PDF layout templates
// @Tags Templates
// @Accept json
// @Produce json
// @Success 200 {array} domain.TemplateDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list templates", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list templates",
		})
		return
	}

	respondJSON(w, http.StatusOK, templates)
}

// GetByID godoc
// @Summary Get template by ID
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Success 200 {object} domain.TemplateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	template, err := h.templateService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Template not found",
			})
			return
		}
		h.logger.Error("failed to get template", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get template",
		})
		return
	}

	respondJSON(w, http.StatusOK, template)
}

// Update godoc
// @Summary Update template
// @Description Rename or recolor a template, or mark it as default for its document type
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.UpdateTemplateRequest true "Template data"
// @Success 200 {object} domain.TemplateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	template, err := h.templateService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Template not found",
			})
			return
		}
		h.logger.Error("failed to update template", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update template",
		})
		return
	}

	respondJSON(w, http.StatusOK, template)
}
