package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

const maxLogoUpload = 5 << 20

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetProfile godoc
// @Summary Get business profile
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} domain.BusinessProfileDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/profile [get]
func (h *SettingsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.settingsService.GetProfile(r.Context())
	if err != nil {
		h.logger.Error("failed to get business profile", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get business profile",
		})
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update business profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateBusinessProfileRequest true "Profile data"
// @Success 200 {object} domain.BusinessProfileDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/profile [put]
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBusinessProfileRequest
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

	profile, err := h.settingsService.UpdateProfile(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to update business profile", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update business profile",
		})
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UploadLogo godoc
// @Summary Upload logo
// @Description Upload the business logo (png, jpeg or svg, max 5 MB) as multipart form field "logo"
// @Tags Settings
// @Accept multipart/form-data
// @Produce json
// @Param logo formData file true "Logo image"
// @Success 201 {object} domain.FileDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/logo [post]
func (h *SettingsHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoUpload); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Form field 'logo' is required",
		})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	dto, err := h.settingsService.UploadLogo(r.Context(), header.Filename, contentType, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to upload logo", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to upload logo",
		})
		return
	}

	respondJSON(w, http.StatusCreated, dto)
}

// GetLogo godoc
// @Summary Download logo
// @Tags Settings
// @Produce image/png
// @Success 200 {file} binary
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/logo [get]
func (h *SettingsHandler) GetLogo(w http.ResponseWriter, r *http.Request) {
	reader, file, err := h.settingsService.GetLogo(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "No logo uploaded",
			})
			return
		}
		h.logger.Error("failed to get logo", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get logo",
		})
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// DeleteLogo godoc
// @Summary Delete logo
// @Tags Settings
// @Produce json
// @Success 204 "No Content"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/logo [delete]
func (h *SettingsHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.DeleteLogo(r.Context()); err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "No logo uploaded",
			})
			return
		}
		h.logger.Error("failed to delete logo", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete logo",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetNumbering godoc
// @Summary Get numbering scheme
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} domain.NumberingSchemeDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/numbering [get]
func (h *SettingsHandler) GetNumbering(w http.ResponseWriter, r *http.Request) {
	scheme, err := h.settingsService.GetNumbering(r.Context())
	if err != nil {
		h.logger.Error("failed to get numbering scheme", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get numbering scheme",
		})
		return
	}

	respondJSON(w, http.StatusOK, scheme)
}

// UpdateNumbering godoc
// @Summary Update numbering scheme
// @Description Change prefixes and padding for future document numbers. Issued numbers are unaffected.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateNumberingRequest true "Numbering scheme"
// @Success 200 {object} domain.NumberingSchemeDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings/numbering [put]
func (h *SettingsHandler) UpdateNumbering(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNumberingRequest
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

	scheme, err := h.settingsService.UpdateNumbering(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to update numbering scheme", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update numbering scheme",
		})
		return
	}

	respondJSON(w, http.StatusOK, scheme)
}
