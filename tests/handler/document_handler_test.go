package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/config"
	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/http/handler"
	"github.com/fakturo/billing-api/internal/pdf"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/service"
	"github.com/fakturo/billing-api/internal/storage"
	"github.com/fakturo/billing-api/tests/testutil"
)

type documentAPI struct {
	db     *gorm.DB
	router chi.Router
	client *domain.Client
}

func setupDocumentAPI(t *testing.T) *documentAPI {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	numberSeq := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		repository.NewBusinessProfileRepository(db),
		log,
	)
	documentRepo := repository.NewDocumentRepository(db)
	itemRepo := repository.NewDocumentItemRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	profileRepo := repository.NewBusinessProfileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	documentService := service.NewDocumentService(
		documentRepo,
		itemRepo,
		repository.NewClientRepository(db),
		repository.NewContactRepository(db),
		repository.NewProjectRepository(db),
		repository.NewProductRepository(db),
		templateRepo,
		profileRepo,
		numberSeq,
		activityRepo,
		log,
		db,
	)
	lifecycleService := service.NewDocumentLifecycleService(
		documentRepo, itemRepo, repository.NewPaymentRepository(db), numberSeq, activityRepo, log,
	)

	store, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, log)
	require.NoError(t, err)
	pdfService := service.NewPDFService(
		documentRepo, profileRepo, templateRepo, repository.NewFileRepository(db),
		store, pdf.NewRenderer(log), log,
	)

	documentHandler := handler.NewDocumentHandler(documentService, log)
	lifecycleHandler := handler.NewDocumentLifecycleHandler(lifecycleService, pdfService, log)

	r := chi.NewRouter()
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", documentHandler.List)
		r.Post("/", documentHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", documentHandler.GetByID)
			r.Put("/", documentHandler.Update)
			r.Delete("/", documentHandler.Delete)
			r.Get("/items", documentHandler.ListItems)
			r.Post("/items", documentHandler.AddItem)
			r.Put("/items/{itemId}", documentHandler.UpdateItem)
			r.Delete("/items/{itemId}", documentHandler.RemoveItem)
			r.Post("/send", lifecycleHandler.Send)
			r.Post("/approve", lifecycleHandler.Approve)
			r.Post("/reject", lifecycleHandler.Reject)
			r.Post("/cancel", lifecycleHandler.Cancel)
			r.Post("/duplicate", lifecycleHandler.Duplicate)
			r.Post("/convert", lifecycleHandler.Convert)
			r.Get("/payments", lifecycleHandler.ListPayments)
			r.Post("/payments", lifecycleHandler.RecordPayment)
			r.Get("/pdf", lifecycleHandler.RenderPDF)
		})
	})

	return &documentAPI{
		db:     db,
		router: r,
		client: testutil.CreateTestClient(t, db, "API Test Client"),
	}
}

func (a *documentAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeDocument(t *testing.T, rec *httptest.ResponseRecorder) domain.DocumentDTO {
	t.Helper()

	var doc domain.DocumentDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc
}

func (a *documentAPI) createInvoice(t *testing.T) domain.DocumentDTO {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/documents", map[string]interface{}{
		"type":          "INVOICE",
		"clientId":      a.client.ID,
		"taxRate":       "10",
		"discountValue": "5.00",
		"items": []map[string]interface{}{
			{"description": "Design work", "quantity": "2", "unitPrice": "50.00"},
			{"description": "Hosting", "quantity": "1", "unitPrice": "25.50"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeDocument(t, rec)
}

func TestDocumentHandler_Create(t *testing.T) {
	t.Run("creates invoice with computed totals", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodPost, "/documents", map[string]interface{}{
			"type":          "INVOICE",
			"clientId":      api.client.ID,
			"taxRate":       "10",
			"discountValue": "5.00",
			"items": []map[string]interface{}{
				{"description": "Design work", "quantity": "2", "unitPrice": "50.00"},
				{"description": "Hosting", "quantity": "1", "unitPrice": "25.50"},
			},
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Location"), "/api/v1/documents/")

		doc := decodeDocument(t, rec)
		assert.Equal(t, domain.DocumentStatusDraft, doc.Status)
		assert.True(t, decimal.RequireFromString("125.50").Equal(doc.Subtotal))
		assert.True(t, decimal.RequireFromString("12.55").Equal(doc.TaxAmount))
		assert.True(t, decimal.RequireFromString("133.05").Equal(doc.Total))
		assert.True(t, decimal.RequireFromString("133.05").Equal(doc.AmountDue))
		assert.Len(t, doc.Items, 2)
	})

	t.Run("unknown client yields 404", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodPost, "/documents", map[string]interface{}{
			"type":     "INVOICE",
			"clientId": uuid.New(),
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)

		req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing required fields yield validation errors", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodPost, "/documents", map[string]interface{}{})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr domain.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, "Validation Error", apiErr.Title)
		assert.Contains(t, apiErr.Errors, "type")
	})
}

func TestDocumentHandler_GetByID(t *testing.T) {
	t.Run("returns document with items", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodGet, "/documents/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		doc := decodeDocument(t, rec)
		assert.Equal(t, created.ID, doc.ID)
		assert.Len(t, doc.Items, 2)
		assert.Equal(t, "Design work", doc.Items[0].Description)
	})

	t.Run("unknown id yields 404", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodGet, "/documents/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodGet, "/documents/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDocumentHandler_List(t *testing.T) {
	t.Run("paginates and filters by type", func(t *testing.T) {
		api := setupDocumentAPI(t)
		api.createInvoice(t)
		api.createInvoice(t)

		rec := api.do(t, http.MethodGet, "/documents?type=INVOICE&pageSize=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result domain.PaginatedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, 1, result.PageSize)
		assert.Equal(t, 2, result.TotalPages)
	})

	t.Run("invalid type filter yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodGet, "/documents?type=RECEIPT", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid clientId filter yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodGet, "/documents?clientId=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDocumentHandler_Update(t *testing.T) {
	t.Run("tax rate change recomputes totals", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodPut, "/documents/"+created.ID.String(), map[string]interface{}{
			"taxRate": "25",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		doc := decodeDocument(t, rec)
		assert.True(t, decimal.RequireFromString("31.38").Equal(doc.TaxAmount))
		assert.True(t, decimal.RequireFromString("151.88").Equal(doc.Total))
	})

	t.Run("cancelled document yields 409", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+created.ID.String()+"/cancel", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPut, "/documents/"+created.ID.String(), map[string]interface{}{
			"title": "too late",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDocumentHandler_Delete(t *testing.T) {
	t.Run("draft is deleted", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodDelete, "/documents/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(t, http.MethodGet, "/documents/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("paid invoice yields 409", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+created.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = api.do(t, http.MethodPost, "/documents/"+created.ID.String()+"/payments", map[string]interface{}{
			"amount": "133.05",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = api.do(t, http.MethodDelete, "/documents/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestDocumentHandler_Items(t *testing.T) {
	t.Run("add item returns recomputed document", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+created.ID.String()+"/items", map[string]interface{}{
			"description": "Support",
			"quantity":    "4",
			"unitPrice":   "25.00",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		doc := decodeDocument(t, rec)
		require.Len(t, doc.Items, 3)
		assert.True(t, decimal.RequireFromString("225.50").Equal(doc.Subtotal))
		assert.Equal(t, 2, doc.Items[2].SortOrder)
	})

	t.Run("update item recomputes line and totals", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		itemID := created.Items[0].ID
		rec := api.do(t, http.MethodPut,
			fmt.Sprintf("/documents/%s/items/%s", created.ID, itemID),
			map[string]interface{}{"quantity": "3"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		doc := decodeDocument(t, rec)
		assert.True(t, decimal.RequireFromString("150.00").Equal(doc.Items[0].Amount))
		assert.True(t, decimal.RequireFromString("175.50").Equal(doc.Subtotal))
	})

	t.Run("remove item renumbers the rest", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodDelete,
			fmt.Sprintf("/documents/%s/items/%s", created.ID, created.Items[0].ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		doc := decodeDocument(t, rec)
		require.Len(t, doc.Items, 1)
		assert.Equal(t, "Hosting", doc.Items[0].Description)
		assert.Equal(t, 0, doc.Items[0].SortOrder)
	})

	t.Run("unknown item yields 404", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodDelete,
			fmt.Sprintf("/documents/%s/items/%s", created.ID, uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list items", func(t *testing.T) {
		api := setupDocumentAPI(t)
		created := api.createInvoice(t)

		rec := api.do(t, http.MethodGet, "/documents/"+created.ID.String()+"/items", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var items []domain.DocumentItemDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		assert.Len(t, items, 2)
	})
}

func TestDocumentLifecycleHandler_Transitions(t *testing.T) {
	createQuote := func(t *testing.T, api *documentAPI) domain.DocumentDTO {
		rec := api.do(t, http.MethodPost, "/documents", map[string]interface{}{
			"type":     "QUOTE",
			"clientId": api.client.ID,
			"items": []map[string]interface{}{
				{"description": "Consulting", "quantity": "1", "unitPrice": "100.00"},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decodeDocument(t, rec)
	}

	t.Run("send then approve then convert", func(t *testing.T) {
		api := setupDocumentAPI(t)
		quote := createQuote(t, api)

		rec := api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.DocumentStatusSent, decodeDocument(t, rec).Status)

		rec = api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/approve", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/convert", nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		invoice := decodeDocument(t, rec)
		assert.Equal(t, domain.DocumentTypeInvoice, invoice.Type)
		require.NotNil(t, invoice.SourceQuoteID)
		assert.Equal(t, quote.ID, *invoice.SourceQuoteID)
		assert.Contains(t, rec.Header().Get("Location"), invoice.ID.String())
	})

	t.Run("double send yields 409", func(t *testing.T) {
		api := setupDocumentAPI(t)
		quote := createQuote(t, api)

		rec := api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/send", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("approving an invoice yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+invoice.ID.String()+"/approve", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reject with reason", func(t *testing.T) {
		api := setupDocumentAPI(t)
		quote := createQuote(t, api)

		rec := api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/reject", map[string]interface{}{
			"reason": "budget cut",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.DocumentStatusRejected, decodeDocument(t, rec).Status)
	})

	t.Run("duplicate returns a fresh draft", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+invoice.ID.String()+"/duplicate", nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		copy := decodeDocument(t, rec)
		assert.NotEqual(t, invoice.Number, copy.Number)
		assert.Equal(t, domain.DocumentStatusDraft, copy.Status)
	})
}

func TestDocumentLifecycleHandler_Payments(t *testing.T) {
	t.Run("record and list payments", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+invoice.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = api.do(t, http.MethodPost, "/documents/"+invoice.ID.String()+"/payments", map[string]interface{}{
			"amount": "33.05",
			"method": "card",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		doc := decodeDocument(t, rec)
		assert.Equal(t, domain.DocumentStatusPartial, doc.Status)
		assert.True(t, decimal.RequireFromString("100.00").Equal(doc.AmountDue))

		rec = api.do(t, http.MethodGet, "/documents/"+invoice.ID.String()+"/payments", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var payments []domain.PaymentDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
		require.Len(t, payments, 1)
		assert.Equal(t, domain.PaymentMethodCard, payments[0].Method)
	})

	t.Run("payment on a draft yields 409", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodPost, "/documents/"+invoice.ID.String()+"/payments", map[string]interface{}{
			"amount": "10.00",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("payment on a quote yields 400", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodPost, "/documents", map[string]interface{}{
			"type":     "QUOTE",
			"clientId": api.client.ID,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		quote := decodeDocument(t, rec)

		rec = api.do(t, http.MethodPost, "/documents/"+quote.ID.String()+"/payments", map[string]interface{}{
			"amount": "10.00",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDocumentLifecycleHandler_RenderPDF(t *testing.T) {
	t.Run("returns a pdf inline", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodGet, "/documents/"+invoice.ID.String()+"/pdf", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), invoice.Number+".pdf")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("download forces attachment", func(t *testing.T) {
		api := setupDocumentAPI(t)
		invoice := api.createInvoice(t)

		rec := api.do(t, http.MethodGet, "/documents/"+invoice.ID.String()+"/pdf?download=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	})

	t.Run("unknown document yields 404", func(t *testing.T) {
		api := setupDocumentAPI(t)

		rec := api.do(t, http.MethodGet, "/documents/"+uuid.NewString()+"/pdf", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
