package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/service"
)

// DocumentLifecycleHandler exposes the status transitions, payment recording
// and PDF rendering endpoints
type DocumentLifecycleHandler struct {
	lifecycleService *service.DocumentLifecycleService
	pdfService       *service.PDFService
	logger           *zap.Logger
}

func NewDocumentLifecycleHandler(
	lifecycleService *service.DocumentLifecycleService,
	pdfService *service.PDFService,
	logger *zap.Logger,
) *DocumentLifecycleHandler {
	return &DocumentLifecycleHandler{
		lifecycleService: lifecycleService,
		pdfService:       pdfService,
		logger:           logger,
	}
}

// Send godoc
// @Summary Send document
// @Description Mark a draft as sent. Fills in missing issue and due dates.
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/send [post]
func (h *DocumentLifecycleHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.lifecycleService.Send(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "send document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Approve godoc
// @Summary Approve quote
// @Description Mark a sent quote as approved
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/approve [post]
func (h *DocumentLifecycleHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.lifecycleService.Approve(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "approve quote")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Reject godoc
// @Summary Reject quote
// @Description Mark a sent quote as rejected with an optional reason
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Param request body domain.RejectDocumentRequest false "Rejection reason"
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/reject [post]
func (h *DocumentLifecycleHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.RejectDocumentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid request body",
			})
			return
		}
	}

	doc, err := h.lifecycleService.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.respondLifecycleError(w, err, "reject quote")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Cancel godoc
// @Summary Cancel document
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/cancel [post]
func (h *DocumentLifecycleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.lifecycleService.Cancel(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "cancel document")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Duplicate godoc
// @Summary Duplicate document
// @Description Copy a document into a fresh draft with a new number. Items are copied, payments are not.
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 201 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/duplicate [post]
func (h *DocumentLifecycleHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.lifecycleService.Duplicate(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "duplicate document")
		return
	}

	w.Header().Set("Location", "/api/v1/documents/"+doc.ID.String())
	respondJSON(w, http.StatusCreated, doc)
}

// Convert godoc
// @Summary Convert quote to invoice
// @Description Create a draft invoice from an approved or sent quote. The quote moves to CONVERTED.
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 201 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/convert [post]
func (h *DocumentLifecycleHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	invoice, err := h.lifecycleService.Convert(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "convert quote")
		return
	}

	w.Header().Set("Location", "/api/v1/documents/"+invoice.ID.String())
	respondJSON(w, http.StatusCreated, invoice)
}

// ListPayments godoc
// @Summary List document payments
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Document ID" format(uuid)
// @Success 200 {array} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/payments [get]
func (h *DocumentLifecycleHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	payments, err := h.lifecycleService.ListPayments(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "list payments")
		return
	}

	respondJSON(w, http.StatusOK, payments)
}

// RecordPayment godoc
// @Summary Record payment
// @Description Record a payment against an invoice. Recomputes amountPaid and amountDue and derives PARTIAL or PAID.
// @Tags Document lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Param request body domain.RecordPaymentRequest true "Payment data"
// @Success 200 {object} domain.DocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/payments [post]
func (h *DocumentLifecycleHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.RecordPaymentRequest
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

	doc, err := h.lifecycleService.RecordPayment(r.Context(), id, &req)
	if err != nil {
		h.respondLifecycleError(w, err, "record payment")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// RenderPDF godoc
// @Summary Render document PDF
// @Description Generate the PDF for a document using its template
// @Tags Document lifecycle
// @Produce application/pdf
// @Param id path string true "Document ID" format(uuid)
// @Param download query bool false "Force download via Content-Disposition attachment" default(false)
// @Success 200 {file} binary
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /documents/{id}/pdf [get]
func (h *DocumentLifecycleHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	data, filename, err := h.pdfService.Render(r.Context(), id)
	if err != nil {
		h.respondLifecycleError(w, err, "render pdf")
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *DocumentLifecycleHandler) respondLifecycleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Document not found",
		})
	case errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrDocumentLocked):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotAQuote),
		errors.Is(err, service.ErrNotAnInvoice),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrInvalidInput):
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
