package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/totals"
)

// DocumentService manages quotes and invoices and keeps their stored
// aggregates consistent with their items. Every item or parameter mutation
// recomputes and persists the full monetary snapshot in one step.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	itemRepo     *repository.DocumentItemRepository
	clientRepo   *repository.ClientRepository
	contactRepo  *repository.ContactRepository
	projectRepo  *repository.ProjectRepository
	productRepo  *repository.ProductRepository
	templateRepo *repository.TemplateRepository
	profileRepo  *repository.BusinessProfileRepository
	numberSeq    *NumberSequenceService
	activities   *activityLogger
	logger       *zap.Logger
	db           *gorm.DB
}

func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	itemRepo *repository.DocumentItemRepository,
	clientRepo *repository.ClientRepository,
	contactRepo *repository.ContactRepository,
	projectRepo *repository.ProjectRepository,
	productRepo *repository.ProductRepository,
	templateRepo *repository.TemplateRepository,
	profileRepo *repository.BusinessProfileRepository,
	numberSeq *NumberSequenceService,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		itemRepo:     itemRepo,
		clientRepo:   clientRepo,
		contactRepo:  contactRepo,
		projectRepo:  projectRepo,
		productRepo:  productRepo,
		templateRepo: templateRepo,
		profileRepo:  profileRepo,
		numberSeq:    numberSeq,
		activities:   newActivityLogger(activityRepo, logger),
		logger:       logger,
		db:           db,
	}
}

// Create creates a new quote or invoice with optional initial items.
// Currency, tax rate, terms and due date default from the business profile
// when the request leaves them out.
func (s *DocumentService) Create(ctx context.Context, req *domain.CreateDocumentRequest) (*domain.DocumentDTO, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocumentType, req.Type)
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to verify client: %w", err)
	}

	if req.ContactID != nil {
		if _, err := s.contactRepo.GetByID(ctx, *req.ContactID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrContactNotFound
			}
			return nil, fmt.Errorf("failed to verify contact: %w", err)
		}
	}
	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to verify project: %w", err)
		}
	}

	profile := s.profileDefaults(ctx)

	currency := req.Currency
	if currency == "" {
		currency = profile.DefaultCurrency
	}
	taxRate := profile.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	discountType := req.DiscountType
	if discountType == "" {
		discountType = domain.DiscountTypeAmount
	}
	if !discountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidInput, discountType)
	}
	discountValue := decimal.Zero
	if req.DiscountValue != nil {
		discountValue = *req.DiscountValue
	}
	terms := req.Terms
	if terms == "" {
		terms = profile.DefaultTerms
	}

	issueDate, err := parseDatePtr(req.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: issue date: %v", ErrInvalidInput, err)
	}
	dueDate, err := parseDatePtr(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due date: %v", ErrInvalidInput, err)
	}
	if issueDate == nil {
		now := time.Now().UTC().Truncate(24 * time.Hour)
		issueDate = &now
	}
	if dueDate == nil && req.Type == domain.DocumentTypeInvoice {
		d := issueDate.AddDate(0, 0, profile.DueDays)
		dueDate = &d
	}

	templateID := req.TemplateID
	if templateID == nil {
		if tpl, err := s.templateRepo.GetDefault(ctx, req.Type); err == nil {
			templateID = &tpl.ID
		}
	}

	number, err := s.numberSeq.GenerateNumber(ctx, req.Type)
	if err != nil {
		return nil, err
	}

	// Build items through the calculation engine so amounts and aggregates
	// are consistent from the first write.
	var items []domain.DocumentItem
	var agg totals.Totals
	for _, itemReq := range req.Items {
		defaults, err := s.itemDefaults(ctx, &itemReq)
		if err != nil {
			return nil, err
		}
		items, agg = totals.AddItem(items, defaults, taxRate, discountType, discountValue, decimal.Zero)
	}
	if len(req.Items) == 0 {
		agg = totals.Compute(nil, taxRate, discountType, discountValue, decimal.Zero)
	}

	doc := &domain.Document{
		Type:          req.Type,
		Status:        domain.DocumentStatusDraft,
		Number:        number,
		Title:         req.Title,
		Currency:      currency,
		TaxRate:       taxRate,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Notes:         req.Notes,
		Terms:         terms,
		ShowBusiness:  true,
		ShowClient:    true,
		TemplateID:    templateID,
		ClientID:      client.ID,
		ClientName:    client.Name,
		ContactID:     req.ContactID,
		ProjectID:     req.ProjectID,
		Items:         items,
	}
	applyTotals(doc, agg)

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Document created", fmt.Sprintf("%s %s was created for %s", doc.Type, doc.Number, client.Name))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// GetByID retrieves a document with items and payments
func (s *DocumentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// List returns a paginated, filtered, sorted list of documents
func (s *DocumentService) List(ctx context.Context, page, pageSize int, filter repository.DocumentFilter, sortBy, sortDir string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	docs, total, err := s.documentRepo.List(ctx, page, pageSize, filter, sortBy, sortDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = mapper.ToDocumentDTO(&docs[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}

// Update updates document header fields. Changing the tax rate or discount
// recomputes the aggregates from the stored items.
func (s *DocumentService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateDocumentRequest) (*domain.DocumentDTO, error) {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return nil, ErrDocumentLocked
	}

	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.ContactID != nil {
		doc.ContactID = req.ContactID
	}
	if req.ProjectID != nil {
		doc.ProjectID = req.ProjectID
	}
	if req.Currency != "" {
		doc.Currency = req.Currency
	}
	if req.Notes != "" {
		doc.Notes = req.Notes
	}
	if req.Terms != "" {
		doc.Terms = req.Terms
	}
	if req.ShowBusiness != nil {
		doc.ShowBusiness = *req.ShowBusiness
	}
	if req.ShowClient != nil {
		doc.ShowClient = *req.ShowClient
	}
	if req.TemplateID != nil {
		if _, err := s.templateRepo.GetByID(ctx, *req.TemplateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, fmt.Errorf("failed to verify template: %w", err)
		}
		doc.TemplateID = req.TemplateID
	}

	if issueDate, err := parseDatePtr(req.IssueDate); err != nil {
		return nil, fmt.Errorf("%w: issue date: %v", ErrInvalidInput, err)
	} else if issueDate != nil {
		doc.IssueDate = issueDate
	}
	if dueDate, err := parseDatePtr(req.DueDate); err != nil {
		return nil, fmt.Errorf("%w: due date: %v", ErrInvalidInput, err)
	} else if dueDate != nil {
		doc.DueDate = dueDate
	}

	recompute := false
	if req.TaxRate != nil {
		doc.TaxRate = *req.TaxRate
		recompute = true
	}
	if req.DiscountType != "" {
		if !req.DiscountType.IsValid() {
			return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidInput, req.DiscountType)
		}
		doc.DiscountType = req.DiscountType
		recompute = true
	}
	if req.DiscountValue != nil {
		doc.DiscountValue = *req.DiscountValue
		recompute = true
	}

	if recompute {
		agg := totals.Compute(doc.Items, doc.TaxRate, doc.DiscountType, doc.DiscountValue, doc.AmountPaid)
		applyTotals(doc, agg)
	}

	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Document updated", fmt.Sprintf("%s %s was updated", doc.Type, doc.Number))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// Delete removes a document. Paid invoices cannot be deleted.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.DocumentStatusPaid || doc.Status == domain.DocumentStatusPartial {
		return ErrDocumentLocked
	}

	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.Info("document deleted",
		zap.String("document_id", id.String()),
		zap.String("number", doc.Number),
	)
	return nil
}

// ListItems returns the ordered items of a document
func (s *DocumentService) ListItems(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentItemDTO, error) {
	if _, err := s.getDocument(ctx, documentID); err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	dtos := make([]domain.DocumentItemDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToDocumentItemDTO(&items[i])
	}
	return dtos, nil
}

// AddItem appends a line to a document and persists the recomputed snapshot.
// The new line and the updated aggregates land in the same transaction.
func (s *DocumentService) AddItem(ctx context.Context, documentID uuid.UUID, req *domain.CreateDocumentItemRequest) (*domain.DocumentDTO, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return nil, ErrDocumentLocked
	}

	defaults, err := s.itemDefaults(ctx, req)
	if err != nil {
		return nil, err
	}

	items, agg := totals.AddItem(doc.Items, defaults, doc.TaxRate, doc.DiscountType, doc.DiscountValue, doc.AmountPaid)

	if err := s.persistItems(ctx, doc, items, agg); err != nil {
		return nil, err
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Item added", fmt.Sprintf("Line added to %s %s", doc.Type, doc.Number))

	return s.GetByID(ctx, documentID)
}

// UpdateItem patches a line and persists the recomputed snapshot. An unknown
// item id returns ErrItemNotFound; the collection itself tolerates unknown
// ids, the lookup guard runs here at the API boundary.
func (s *DocumentService) UpdateItem(ctx context.Context, documentID, itemID uuid.UUID, req *domain.UpdateDocumentItemRequest) (*domain.DocumentDTO, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return nil, ErrDocumentLocked
	}

	found := false
	for i := range doc.Items {
		if doc.Items[i].ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	patch := totals.ItemPatch{
		Description:  req.Description,
		ItemType:     req.ItemType,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Amount:       req.Amount,
		ShowQuantity: req.ShowQuantity,
		SortOrder:    req.SortOrder,
	}
	if req.ItemType != nil && !req.ItemType.IsValid() {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, *req.ItemType)
	}

	items, agg := totals.UpdateItem(doc.Items, itemID, patch, doc.TaxRate, doc.DiscountType, doc.DiscountValue, doc.AmountPaid)

	if err := s.persistItems(ctx, doc, items, agg); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, documentID)
}

// RemoveItem deletes a line and persists the recomputed snapshot
func (s *DocumentService) RemoveItem(ctx context.Context, documentID, itemID uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return nil, ErrDocumentLocked
	}

	found := false
	for i := range doc.Items {
		if doc.Items[i].ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	items, agg := totals.RemoveItem(doc.Items, itemID, doc.TaxRate, doc.DiscountType, doc.DiscountValue, doc.AmountPaid)

	if err := s.persistItems(ctx, doc, items, agg); err != nil {
		return nil, err
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Item removed", fmt.Sprintf("Line removed from %s %s", doc.Type, doc.Number))

	return s.GetByID(ctx, documentID)
}

// getDocument loads a document with items, mapping missing rows to the
// service-level sentinel
func (s *DocumentService) getDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// itemDefaults builds engine defaults from a create-item request, pulling
// description and price from the referenced product when present
func (s *DocumentService) itemDefaults(ctx context.Context, req *domain.CreateDocumentItemRequest) (totals.ItemDefaults, error) {
	defaults := totals.ItemDefaults{
		Description:  req.Description,
		ItemType:     req.ItemType,
		Quantity:     decimal.NewFromInt(1),
		ShowQuantity: true,
		ProductID:    req.ProductID,
	}
	if req.ItemType != "" && !req.ItemType.IsValid() {
		return totals.ItemDefaults{}, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, req.ItemType)
	}
	if req.Quantity != nil {
		defaults.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		defaults.UnitPrice = *req.UnitPrice
	}
	if req.ShowQuantity != nil {
		defaults.ShowQuantity = *req.ShowQuantity
	}

	if req.ProductID != nil {
		product, err := s.productRepo.GetByID(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return totals.ItemDefaults{}, ErrProductNotFound
			}
			return totals.ItemDefaults{}, fmt.Errorf("failed to get product: %w", err)
		}
		if defaults.Description == "" {
			defaults.Description = product.Name
		}
		if req.UnitPrice == nil {
			defaults.UnitPrice = product.UnitPrice
		}
		if req.ItemType == "" {
			defaults.ItemType = product.ItemType
		}
	}

	return defaults, nil
}

// persistItems writes the new item collection and the document's recomputed
// aggregates together
func (s *DocumentService) persistItems(ctx context.Context, doc *domain.Document, items []domain.DocumentItem, agg totals.Totals) error {
	if err := s.itemRepo.ReplaceForDocument(ctx, doc.ID, items); err != nil {
		return fmt.Errorf("failed to persist items: %w", err)
	}

	doc.Items = nil // avoid re-saving stale associations
	applyTotals(doc, agg)
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to persist totals: %w", err)
	}
	return nil
}

// profileDefaults loads business profile defaults, with fallbacks when no
// profile row exists yet
func (s *DocumentService) profileDefaults(ctx context.Context) *domain.BusinessProfile {
	profile, err := s.profileRepo.Get(ctx)
	if err != nil {
		return &domain.BusinessProfile{
			DefaultCurrency: "NOK",
			DefaultTaxRate:  decimal.NewFromInt(25),
			DueDays:         14,
		}
	}
	if profile.DefaultCurrency == "" {
		profile.DefaultCurrency = "NOK"
	}
	if profile.DueDays == 0 {
		profile.DueDays = 14
	}
	return profile
}

func applyTotals(doc *domain.Document, agg totals.Totals) {
	doc.Subtotal = agg.Subtotal
	doc.TaxAmount = agg.TaxAmount
	doc.DiscountAmount = agg.DiscountAmount
	doc.Total = agg.Total
	doc.AmountDue = agg.AmountDue
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
