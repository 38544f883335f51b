package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// List godoc
// @Summary List clients
// @Description Get paginated list of clients with optional filters
// @Tags Clients
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name, email or organization number"
// @Param status query string false "Filter by status" Enums(active, inactive, archived)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ClientDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPagination(r)

	var status *domain.ClientStatus
	if s := r.URL.Query().Get("status"); s != "" {
		cs := domain.ClientStatus(s)
		status = &cs
	}
	search := r.URL.Query().Get("search")

	result, err := h.clientService.List(r.Context(), page, pageSize, status, search)
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list clients",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get client by ID
// @Description Get a client with document counts and recent documents
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID" format(uuid)
// @Success 200 {object} domain.ClientWithDetailsDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to get client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get client",
		})
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Create godoc
// @Summary Create client
// @Description Create a new client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
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

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create client",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/clients/"+client.ID.String())
	respondJSON(w, http.StatusCreated, client)
}

// Update godoc
// @Summary Update client
// @Description Update an existing client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID" format(uuid)
// @Param request body domain.UpdateClientRequest true "Client data"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateClientRequest
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

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		h.logger.Error("failed to update client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update client",
		})
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete client
// @Description Delete a client without any documents
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Client has documents"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Client not found",
			})
			return
		}
		if errors.Is(err, service.ErrConflict) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Client has documents and cannot be deleted",
			})
			return
		}
		h.logger.Error("failed to delete client", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete client",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
