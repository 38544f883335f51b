package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for API responses. Monetary fields are decimal and serialize as
// quoted decimal strings, never floats.

type ClientDTO struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	OrgNumber     string       `json:"orgNumber,omitempty"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	Address       string       `json:"address,omitempty"`
	City          string       `json:"city,omitempty"`
	PostalCode    string       `json:"postalCode,omitempty"`
	Country       string       `json:"country"`
	ContactPerson string       `json:"contactPerson,omitempty"`
	Status        ClientStatus `json:"status"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     string       `json:"createdAt"` // ISO 8601
	UpdatedAt     string       `json:"updatedAt"` // ISO 8601
}

// ClientWithDetailsDTO includes client data with related entities
type ClientWithDetailsDTO struct {
	ClientDTO
	Contacts        []ContactDTO  `json:"contacts,omitempty"`
	Projects        []ProjectDTO  `json:"projects,omitempty"`
	RecentDocuments []DocumentDTO `json:"recentDocuments,omitempty"`
}

type ContactDTO struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Title      string     `json:"title,omitempty"`
	ClientID   *uuid.UUID `json:"clientId,omitempty"`
	ClientName string     `json:"clientName,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

type ProjectDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ClientID    uuid.UUID     `json:"clientId"`
	ClientName  string        `json:"clientName,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ItemType    ItemType        `json:"itemType"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit,omitempty"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

type DocumentDTO struct {
	ID             uuid.UUID         `json:"id"`
	Type           DocumentType      `json:"type"`
	Status         DocumentStatus    `json:"status"`
	Number         string            `json:"number,omitempty"` // e.g. "INV-2026-007"
	Title          string            `json:"title,omitempty"`
	Currency       string            `json:"currency"`
	TaxRate        decimal.Decimal   `json:"taxRate"`
	DiscountType   DiscountType      `json:"discountType"`
	DiscountValue  decimal.Decimal   `json:"discountValue"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	TaxAmount      decimal.Decimal   `json:"taxAmount"`
	DiscountAmount decimal.Decimal   `json:"discountAmount"`
	Total          decimal.Decimal   `json:"total"`
	AmountPaid     decimal.Decimal   `json:"amountPaid"`
	AmountDue      decimal.Decimal   `json:"amountDue"`
	IssueDate      *string           `json:"issueDate,omitempty"` // ISO 8601 date
	DueDate        *string           `json:"dueDate,omitempty"`
	SentAt         *string           `json:"sentAt,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Terms          string            `json:"terms,omitempty"`
	ShowBusiness   bool              `json:"showBusiness"`
	ShowClient     bool              `json:"showClient"`
	TemplateID     *uuid.UUID        `json:"templateId,omitempty"`
	ClientID       uuid.UUID         `json:"clientId"`
	ClientName     string            `json:"clientName,omitempty"`
	ContactID      *uuid.UUID        `json:"contactId,omitempty"`
	ProjectID      *uuid.UUID        `json:"projectId,omitempty"`
	SourceQuoteID  *uuid.UUID        `json:"sourceQuoteId,omitempty"`
	Items          []DocumentItemDTO `json:"items"`
	Payments       []PaymentDTO      `json:"payments,omitempty"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

type DocumentItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	Description  string          `json:"description,omitempty"`
	ItemType     ItemType        `json:"itemType"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Amount       decimal.Decimal `json:"amount"`
	ShowQuantity bool            `json:"showQuantity"`
	SortOrder    int             `json:"sortOrder"`
	ProductID    *uuid.UUID      `json:"productId,omitempty"`
}

type PaymentDTO struct {
	ID         uuid.UUID       `json:"id"`
	DocumentID uuid.UUID       `json:"documentId"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     string          `json:"paidAt"`
	Method     PaymentMethod   `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

type TemplateDTO struct {
	ID           uuid.UUID    `json:"id"`
	Key          TemplateKey  `json:"key"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	AccentColor  string       `json:"accentColor"`
	IsDefault    bool         `json:"isDefault"`
	DocumentType DocumentType `json:"documentType"`
}

type BusinessProfileDTO struct {
	ID              uuid.UUID          `json:"id"`
	BusinessName    string             `json:"businessName"`
	OrgNumber       string             `json:"orgNumber,omitempty"`
	Email           string             `json:"email,omitempty"`
	Phone           string             `json:"phone,omitempty"`
	Address         string             `json:"address,omitempty"`
	City            string             `json:"city,omitempty"`
	PostalCode      string             `json:"postalCode,omitempty"`
	Country         string             `json:"country,omitempty"`
	BankAccount     string             `json:"bankAccount,omitempty"`
	LogoFileID      *uuid.UUID         `json:"logoFileId,omitempty"`
	AccentColor     string             `json:"accentColor"`
	DefaultCurrency string             `json:"defaultCurrency"`
	DefaultTaxRate  decimal.Decimal    `json:"defaultTaxRate"`
	DefaultTerms    string             `json:"defaultTerms,omitempty"`
	DueDays         int                `json:"dueDays"`
	Numbering       NumberingSchemeDTO `json:"numbering"`
}

type NumberingSchemeDTO struct {
	QuotePrefix   string `json:"quotePrefix"`
	InvoicePrefix string `json:"invoicePrefix"`
	Padding       int    `json:"padding"`
	IncludeYear   bool   `json:"includeYear"`
}

type ActivityDTO struct {
	ID          uuid.UUID          `json:"id"`
	TargetType  ActivityTargetType `json:"targetType"`
	TargetID    uuid.UUID          `json:"targetId"`
	TargetName  string             `json:"targetName,omitempty"`
	Title       string             `json:"title"`
	Body        string             `json:"body,omitempty"`
	OccurredAt  string             `json:"occurredAt"`
	CreatorName string             `json:"creatorName,omitempty"`
	CreatedAt   string             `json:"createdAt"`
}

type FileDTO struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   string    `json:"createdAt"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps list data with pagination metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateClientRequest struct {
	Name          string       `json:"name" validate:"required,max=200"`
	OrgNumber     string       `json:"orgNumber,omitempty" validate:"max=20"`
	Email         string       `json:"email" validate:"required,email,max=255"`
	Phone         string       `json:"phone,omitempty" validate:"max=50"`
	Address       string       `json:"address,omitempty" validate:"max=500"`
	City          string       `json:"city,omitempty" validate:"max=100"`
	PostalCode    string       `json:"postalCode,omitempty" validate:"max=20"`
	Country       string       `json:"country,omitempty" validate:"max=100"`
	ContactPerson string       `json:"contactPerson,omitempty" validate:"max=200"`
	Status        ClientStatus `json:"status,omitempty"`
	Notes         string       `json:"notes,omitempty" validate:"max=2000"`
}

type UpdateClientRequest struct {
	Name          string       `json:"name" validate:"required,max=200"`
	OrgNumber     string       `json:"orgNumber,omitempty" validate:"max=20"`
	Email         string       `json:"email" validate:"required,email,max=255"`
	Phone         string       `json:"phone,omitempty" validate:"max=50"`
	Address       string       `json:"address,omitempty" validate:"max=500"`
	City          string       `json:"city,omitempty" validate:"max=100"`
	PostalCode    string       `json:"postalCode,omitempty" validate:"max=20"`
	Country       string       `json:"country,omitempty" validate:"max=100"`
	ContactPerson string       `json:"contactPerson,omitempty" validate:"max=200"`
	Status        ClientStatus `json:"status,omitempty"`
	Notes         string       `json:"notes,omitempty" validate:"max=2000"`
}

type CreateContactRequest struct {
	FirstName string     `json:"firstName" validate:"required,max=100"`
	LastName  string     `json:"lastName" validate:"required,max=100"`
	Email     string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string     `json:"phone,omitempty" validate:"max=50"`
	Title     string     `json:"title,omitempty" validate:"max=100"`
	ClientID  *uuid.UUID `json:"clientId,omitempty"`
	Notes     string     `json:"notes,omitempty" validate:"max=2000"`
}

type UpdateContactRequest struct {
	FirstName string     `json:"firstName" validate:"required,max=100"`
	LastName  string     `json:"lastName" validate:"required,max=100"`
	Email     string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     string     `json:"phone,omitempty" validate:"max=50"`
	Title     string     `json:"title,omitempty" validate:"max=100"`
	ClientID  *uuid.UUID `json:"clientId,omitempty"`
	Notes     string     `json:"notes,omitempty" validate:"max=2000"`
	IsActive  *bool      `json:"isActive,omitempty"`
}

type CreateProjectRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	ClientID    uuid.UUID `json:"clientId" validate:"required"`
}

type UpdateProjectRequest struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description,omitempty" validate:"max=2000"`
	Status      ProjectStatus `json:"status,omitempty"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	ItemType    ItemType        `json:"itemType,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit,omitempty" validate:"max=50"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	ItemType    ItemType        `json:"itemType,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit,omitempty" validate:"max=50"`
	IsActive    *bool           `json:"isActive,omitempty"`
}

type CreateDocumentRequest struct {
	Type          DocumentType                `json:"type" validate:"required"`
	Title         string                      `json:"title,omitempty" validate:"max=200"`
	ClientID      uuid.UUID                   `json:"clientId" validate:"required"`
	ContactID     *uuid.UUID                  `json:"contactId,omitempty"`
	ProjectID     *uuid.UUID                  `json:"projectId,omitempty"`
	Currency      string                      `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRate       *decimal.Decimal            `json:"taxRate,omitempty"`
	DiscountType  DiscountType                `json:"discountType,omitempty"`
	DiscountValue *decimal.Decimal            `json:"discountValue,omitempty"`
	IssueDate     *string                     `json:"issueDate,omitempty"` // ISO 8601 date
	DueDate       *string                     `json:"dueDate,omitempty"`
	Notes         string                      `json:"notes,omitempty" validate:"max=5000"`
	Terms         string                      `json:"terms,omitempty" validate:"max=5000"`
	TemplateID    *uuid.UUID                  `json:"templateId,omitempty"`
	Items         []CreateDocumentItemRequest `json:"items,omitempty" validate:"dive"`
}

type UpdateDocumentRequest struct {
	Title         string           `json:"title,omitempty" validate:"max=200"`
	ContactID     *uuid.UUID       `json:"contactId,omitempty"`
	ProjectID     *uuid.UUID       `json:"projectId,omitempty"`
	Currency      string           `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRate       *decimal.Decimal `json:"taxRate,omitempty"`
	DiscountType  DiscountType     `json:"discountType,omitempty"`
	DiscountValue *decimal.Decimal `json:"discountValue,omitempty"`
	IssueDate     *string          `json:"issueDate,omitempty"`
	DueDate       *string          `json:"dueDate,omitempty"`
	Notes         string           `json:"notes,omitempty" validate:"max=5000"`
	Terms         string           `json:"terms,omitempty" validate:"max=5000"`
	ShowBusiness  *bool            `json:"showBusiness,omitempty"`
	ShowClient    *bool            `json:"showClient,omitempty"`
	TemplateID    *uuid.UUID       `json:"templateId,omitempty"`
}

type CreateDocumentItemRequest struct {
	Description  string           `json:"description,omitempty" validate:"max=2000"`
	ItemType     ItemType         `json:"itemType,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	ShowQuantity *bool            `json:"showQuantity,omitempty"`
	ProductID    *uuid.UUID       `json:"productId,omitempty"`
}

type UpdateDocumentItemRequest struct {
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ItemType     *ItemType        `json:"itemType,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	ShowQuantity *bool            `json:"showQuantity,omitempty"`
	SortOrder    *int             `json:"sortOrder,omitempty"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    *string         `json:"paidAt,omitempty"` // defaults to now
	Method    PaymentMethod   `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty" validate:"max=200"`
	Notes     string          `json:"notes,omitempty" validate:"max=2000"`
}

type RejectDocumentRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=2000"`
}

type UpdateBusinessProfileRequest struct {
	BusinessName    string           `json:"businessName" validate:"required,max=200"`
	OrgNumber       string           `json:"orgNumber,omitempty" validate:"max=20"`
	Email           string           `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string           `json:"phone,omitempty" validate:"max=50"`
	Address         string           `json:"address,omitempty" validate:"max=500"`
	City            string           `json:"city,omitempty" validate:"max=100"`
	PostalCode      string           `json:"postalCode,omitempty" validate:"max=20"`
	Country         string           `json:"country,omitempty" validate:"max=100"`
	BankAccount     string           `json:"bankAccount,omitempty" validate:"max=50"`
	AccentColor     string           `json:"accentColor,omitempty" validate:"max=20"`
	DefaultCurrency string           `json:"defaultCurrency,omitempty" validate:"omitempty,len=3"`
	DefaultTaxRate  *decimal.Decimal `json:"defaultTaxRate,omitempty"`
	DefaultTerms    string           `json:"defaultTerms,omitempty" validate:"max=5000"`
	DueDays         *int             `json:"dueDays,omitempty" validate:"omitempty,min=0,max=365"`
}

type UpdateNumberingRequest struct {
	QuotePrefix   string `json:"quotePrefix" validate:"required,max=20"`
	InvoicePrefix string `json:"invoicePrefix" validate:"required,max=20"`
	Padding       int    `json:"padding" validate:"min=1,max=10"`
	IncludeYear   *bool  `json:"includeYear,omitempty"`
}

type UpdateTemplateRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	AccentColor string `json:"accentColor,omitempty" validate:"max=20"`
	IsDefault   *bool  `json:"isDefault,omitempty"`
}
