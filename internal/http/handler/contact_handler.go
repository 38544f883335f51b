package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// List godoc
// @Summary List contacts
// @Description Get paginated list of contacts, optionally filtered by client
// @Tags Contacts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param search query string false "Search by name or email"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContactDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPagination(r)

	var clientID *uuid.UUID
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid clientId format",
			})
			return
		}
		clientID = &id
	}
	search := r.URL.Query().Get("search")

	result, err := h.contactService.List(r.Context(), page, pageSize, clientID, search)
	if err != nil {
		h.logger.Error("failed to list contacts", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list contacts",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get contact by ID
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contact not found",
			})
			return
		}
		h.logger.Error("failed to get contact", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get contact",
		})
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// Create godoc
// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.CreateContactRequest true "Contact data"
// @Success 201 {object} domain.ContactDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Client not found"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
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

	contact, err := h.contactService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to create contact", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create contact",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/contacts/"+contact.ID.String())
	respondJSON(w, http.StatusCreated, contact)
}

// Update godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Param request body domain.UpdateContactRequest true "Contact data"
// @Success 200 {object} domain.ContactDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateContactRequest
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

	contact, err := h.contactService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contact not found",
			})
			return
		}
		if errors.Is(err, service.ErrClientNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to update contact", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update contact",
		})
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.contactService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contact not found",
			})
			return
		}
		h.logger.Error("failed to delete contact", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete contact",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
