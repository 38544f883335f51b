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

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// List godoc
// @Summary List products
// @Description Get paginated list of catalog products
// @Tags Products
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param activeOnly query bool false "Only return active products" default(false)
// @Param search query string false "Search by name"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ProductDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPagination(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))
	search := r.URL.Query().Get("search")

	result, err := h.productService.List(r.Context(), page, pageSize, activeOnly, search)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list products",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get product by ID
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 200 {object} domain.ProductDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Product not found",
			})
			return
		}
		h.logger.Error("failed to get product", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get product",
		})
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// Create godoc
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Param request body domain.CreateProductRequest true "Product data"
// @Success 201 {object} domain.ProductDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
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

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create product", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create product",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+product.ID.String())
	respondJSON(w, http.StatusCreated, product)
}

// Update godoc
// @Summary Update product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Param request body domain.UpdateProductRequest true "Product data"
// @Success 200 {object} domain.ProductDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateProductRequest
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

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Product not found",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to update product", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update product",
		})
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// Delete godoc
// @Summary Delete product
// @Description Remove a product from the catalog. Existing document lines keep their copied values.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Product not found",
			})
			return
		}
		h.logger.Error("failed to delete product", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete product",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
