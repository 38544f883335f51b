package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/service"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// List godoc
// @Summary List documents
// @Description Get paginated list of quotes and invoices with filters and sorting
// @Tags Documents
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param type query string false "Filter by type" Enums(QUOTE, INVOICE)
// @Param status query string false "Filter by status" Enums(DRAFT, SENT, APPROVED, REJECTED, CONVERTED, PARTIAL, PAID, OVERDUE, CANCELLED)
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param projectId query string false "Filter by project ID" format(uuid)
// @Param search query string false "Search by number or title"
// @Param sortBy query string false "Sort column" Enums(createdAt, updatedAt, issueDate, dueDate, number, total, status)
// @Param sortDir query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.DocumentDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPagination(r)
	q := r.URL.Query()

	filter := repository.DocumentFilter{Search: q.Get("search")}

	if t := q.Get("type"); t != "" {
		dt := domain.DocumentType(t)
		if !dt.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid document type filter",
			})
			return
		}
		filter.Type = &dt
	}
	if s := q.Get("status"); s != "" {
		ds := domain.DocumentStatus(s)
		filter.Status = &ds
	}
	if raw := q.Get("clientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid clientId format",
			})
			return
		}
		filter.ClientID = &id
	}
	if raw := q.Get("projectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid projectId format",
			})
			return
		}
		filter.ProjectID = &id
	}

	result, err := h.documentService.List(r.Context(), page, pageSize, filter, q.Get("sortBy"), q.Get("sortDir"))
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list documents",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get document by ID
// @Description Get a document with items and payments
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.documentService.GetByID(r.Context(), id)
	if err != nil {
		h.respondDocumentError(w, err, "get document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Create godoc
// @Summary Create document
// @Description Create a new quote or invoice, optionally with initial items. Totals are computed server-side.
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body domain.CreateDocumentRequest true "Document data"
// @Success 201 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Client, contact, project or product not found"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents [post]
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDocumentRequest
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

	doc, err := h.documentService.Create(r.Context(), &req)
	if err != nil {
		h.respondDocumentError(w, err, "create document")
		return
	}

	w.Header().Set("Location", "/api/v1/documents/"+doc.ID.String())
	respondJSON(w, http.StatusCreated, doc)
}

// Update godoc
// @Summary Update document
// @Description Update document header fields. Tax rate or discount changes recompute the totals. Terminal documents are locked.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.UpdateDocumentRequest true "Document data"
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Document is locked"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateDocumentRequest
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

	doc, err := h.documentService.Update(r.Context(), id, &req)
	if err != nil {
		h.respondDocumentError(w, err, "update document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Delete godoc
// @Summary Delete document
// @Description Delete a document. Invoices with recorded payments cannot be deleted.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Document is locked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.documentService.Delete(r.Context(), id); err != nil {
		h.respondDocumentError(w, err, "delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListItems godoc
// @Summary List document items
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {array} domain.DocumentItemDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/items [get]
func (h *DocumentHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.documentService.ListItems(r.Context(), id)
	if err != nil {
		h.respondDocumentError(w, err, "list items")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// AddItem godoc
// @Summary Add document item
// @Description Append a line to a document. The updated document with recomputed totals is returned.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.CreateDocumentItemRequest true "Item data"
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Document is locked"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/items [post]
func (h *DocumentHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.CreateDocumentItemRequest
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

	doc, err := h.documentService.AddItem(r.Context(), id, &req)
	if err != nil {
		h.respondDocumentError(w, err, "add item")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// UpdateItem godoc
// @Summary Update document item
// @Description Patch fields of a line. Quantity or unit price changes recompute the line amount and the document totals.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param itemId path string true "Item ID" format(uuid)
// @Param request body domain.UpdateDocumentItemRequest true "Item patch"
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Document is locked"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/items/{itemId} [put]
func (h *DocumentHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := urlParamUUID(w, r, "itemId")
	if !ok {
		return
	}

	var req domain.UpdateDocumentItemRequest
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

	doc, err := h.documentService.UpdateItem(r.Context(), id, itemID, &req)
	if err != nil {
		h.respondDocumentError(w, err, "update item")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// RemoveItem godoc
// @Summary Remove document item
// @Description Delete a line and return the document with recomputed totals
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param itemId path string true "Item ID" format(uuid)
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Document is locked"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/items/{itemId} [delete]
func (h *DocumentHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := urlParamUUID(w, r, "itemId")
	if !ok {
		return
	}

	doc, err := h.documentService.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		h.respondDocumentError(w, err, "remove item")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// respondDocumentError maps service errors to HTTP responses shared by all
// document endpoints
func (h *DocumentHandler) respondDocumentError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Document not found",
		})
	case errors.Is(err, service.ErrItemNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Document item not found",
		})
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrContactNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrDocumentLocked):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Document is in a terminal state and cannot be modified",
		})
	case errors.Is(err, service.ErrInvalidDocumentType), errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	default:
		h.logger.Error("failed to "+action, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to " + action,
		})
	}
}
