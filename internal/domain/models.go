package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the database does not (sqlite in tests).
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusArchived ClientStatus = "archived"
)

// Client represents a business customer that documents are issued to
type Client struct {
	BaseModel
	Name          string       `gorm:"type:varchar(200);not null;index"`
	OrgNumber     string       `gorm:"type:varchar(20);index;column:org_number"`
	Email         string       `gorm:"type:varchar(255);not null"`
	Phone         string       `gorm:"type:varchar(50)"`
	Address       string       `gorm:"type:varchar(500)"`
	City          string       `gorm:"type:varchar(100)"`
	PostalCode    string       `gorm:"type:varchar(20);column:postal_code"`
	Country       string       `gorm:"type:varchar(100);not null;default:'Norway'"`
	ContactPerson string       `gorm:"type:varchar(200);column:contact_person"`
	Status        ClientStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	Notes         string       `gorm:"type:text"`
	Contacts      []Contact    `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Projects      []Project    `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	Documents     []Document   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

// Contact represents an individual person, optionally attached to a client
type Contact struct {
	BaseModel
	FirstName string     `gorm:"type:varchar(100);not null;column:first_name"`
	LastName  string     `gorm:"type:varchar(100);not null;column:last_name"`
	Email     string     `gorm:"type:varchar(255);index"`
	Phone     string     `gorm:"type:varchar(50)"`
	Title     string     `gorm:"type:varchar(100)"`
	ClientID  *uuid.UUID `gorm:"type:uuid;index;column:client_id"`
	Client    *Client    `gorm:"foreignKey:ClientID"`
	Notes     string     `gorm:"type:text"`
	IsActive  bool       `gorm:"not null;default:true;column:is_active"`
}

// FullName returns the contact's full name
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ProjectStatus represents the status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project groups documents for a client
type Project struct {
	BaseModel
	Name        string        `gorm:"type:varchar(200);not null;index"`
	Description string        `gorm:"type:text"`
	ClientID    uuid.UUID     `gorm:"type:uuid;not null;index;column:client_id"`
	Client      *Client       `gorm:"foreignKey:ClientID"`
	ClientName  string        `gorm:"type:varchar(200);column:client_name"`
	Status      ProjectStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	Documents   []Document    `gorm:"foreignKey:ProjectID"`
}

// ItemType classifies a catalog product or a document line
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

// IsValid checks if the ItemType is a valid enum value
func (it ItemType) IsValid() bool {
	return it == ItemTypeProduct || it == ItemTypeService
}

// Product represents a saved catalog item used to pre-fill document lines
type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Description string          `gorm:"type:text"`
	ItemType    ItemType        `gorm:"type:varchar(50);not null;default:'product';column:item_type"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null;column:unit_price"`
	Unit        string          `gorm:"type:varchar(50);default:'unit'"`
	IsActive    bool            `gorm:"not null;default:true;column:is_active"`
}

// DocumentType distinguishes quotes from invoices
type DocumentType string

const (
	DocumentTypeQuote   DocumentType = "QUOTE"
	DocumentTypeInvoice DocumentType = "INVOICE"
)

// IsValid checks if the DocumentType is a valid enum value
func (dt DocumentType) IsValid() bool {
	return dt == DocumentTypeQuote || dt == DocumentTypeInvoice
}

// DocumentStatus represents the workflow state of a document
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusSent      DocumentStatus = "SENT"
	DocumentStatusApproved  DocumentStatus = "APPROVED"
	DocumentStatusRejected  DocumentStatus = "REJECTED"
	DocumentStatusConverted DocumentStatus = "CONVERTED"
	DocumentStatusPartial   DocumentStatus = "PARTIAL"
	DocumentStatusPaid      DocumentStatus = "PAID"
	DocumentStatusOverdue   DocumentStatus = "OVERDUE"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// IsTerminal reports whether the status permits no further content mutations.
// Terminal documents reject item, tax and discount edits.
func (ds DocumentStatus) IsTerminal() bool {
	switch ds {
	case DocumentStatusPaid, DocumentStatusCancelled, DocumentStatusConverted, DocumentStatusRejected:
		return true
	}
	return false
}

// ValidStatusesFor returns the statuses a document of the given type may hold
func ValidStatusesFor(dt DocumentType) []DocumentStatus {
	if dt == DocumentTypeQuote {
		return []DocumentStatus{
			DocumentStatusDraft, DocumentStatusSent, DocumentStatusApproved,
			DocumentStatusRejected, DocumentStatusConverted, DocumentStatusCancelled,
		}
	}
	return []DocumentStatus{
		DocumentStatusDraft, DocumentStatusSent, DocumentStatusPartial,
		DocumentStatusPaid, DocumentStatusOverdue, DocumentStatusCancelled,
	}
}

// DiscountType controls how the discount value is interpreted
type DiscountType string

const (
	DiscountTypeAmount  DiscountType = "amount"
	DiscountTypePercent DiscountType = "percent"
)

// IsValid checks if the DiscountType is a valid enum value
func (d DiscountType) IsValid() bool {
	return d == DiscountTypeAmount || d == DiscountTypePercent
}

// Document represents a quote or an invoice with its computed monetary fields
type Document struct {
	BaseModel
	Type           DocumentType    `gorm:"type:varchar(20);not null;index"`
	Status         DocumentStatus  `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Number         string          `gorm:"type:varchar(50);index"`
	Title          string          `gorm:"type:varchar(200)"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'NOK'"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0;column:tax_rate"`
	DiscountType   DiscountType    `gorm:"type:varchar(20);not null;default:'amount';column:discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:discount_value"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:amount_paid"`
	AmountDue      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:amount_due"`
	IssueDate      *time.Time      `gorm:"type:date;column:issue_date"`
	DueDate        *time.Time      `gorm:"type:date;column:due_date"`
	SentAt         *time.Time      `gorm:"column:sent_at"`
	Notes          string          `gorm:"type:text"`
	Terms          string          `gorm:"type:text"`
	ShowBusiness   bool            `gorm:"not null;default:true;column:show_business"`
	ShowClient     bool            `gorm:"not null;default:true;column:show_client"`
	TemplateID     *uuid.UUID      `gorm:"type:uuid;column:template_id"`
	Template       *Template       `gorm:"foreignKey:TemplateID"`
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index;column:client_id"`
	Client         *Client         `gorm:"foreignKey:ClientID"`
	ClientName     string          `gorm:"type:varchar(200);column:client_name"`
	ContactID      *uuid.UUID      `gorm:"type:uuid;column:contact_id"`
	Contact        *Contact        `gorm:"foreignKey:ContactID"`
	ProjectID      *uuid.UUID      `gorm:"type:uuid;index;column:project_id"`
	Project        *Project        `gorm:"foreignKey:ProjectID"`
	SourceQuoteID  *uuid.UUID      `gorm:"type:uuid;column:source_quote_id"` // set on invoices converted from a quote
	Items          []DocumentItem  `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	Payments       []Payment       `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// DocumentItem represents one line of a quote or invoice.
// Amount equals Quantity * UnitPrice while ShowQuantity is set; otherwise
// Amount is a direct price entry and Quantity/UnitPrice are ignored.
type DocumentItem struct {
	BaseModel
	DocumentID   uuid.UUID       `gorm:"type:uuid;not null;index;column:document_id"`
	Document     *Document       `gorm:"foreignKey:DocumentID"`
	Description  string          `gorm:"type:text"`
	ItemType     ItemType        `gorm:"type:varchar(50);not null;default:'product';column:item_type"`
	Quantity     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	ShowQuantity bool            `gorm:"not null;default:true;column:show_quantity"`
	SortOrder    int             `gorm:"not null;default:0;column:sort_order"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;column:product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID"`
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodOther        PaymentMethod = "other"
)

// Payment records money received against an invoice
type Payment struct {
	BaseModel
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index;column:document_id"`
	Document   *Document       `gorm:"foreignKey:DocumentID"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaidAt     time.Time       `gorm:"not null;column:paid_at"`
	Method     PaymentMethod   `gorm:"type:varchar(50);not null;default:'bank_transfer'"`
	Reference  string          `gorm:"type:varchar(200)"`
	Notes      string          `gorm:"type:text"`
}

// TemplateKey identifies a registered visual layout
type TemplateKey string

const (
	TemplateKeyClassic TemplateKey = "classic"
	TemplateKeyModern  TemplateKey = "modern"
	TemplateKeyMinimal TemplateKey = "minimal"
)

// IsValid checks if the TemplateKey is a registered layout
func (tk TemplateKey) IsValid() bool {
	return tk == TemplateKeyClassic || tk == TemplateKeyModern || tk == TemplateKeyMinimal
}

// Template represents a visual layout selectable per document
type Template struct {
	BaseModel
	Key          TemplateKey  `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Description  string       `gorm:"type:text"`
	AccentColor  string       `gorm:"type:varchar(20);not null;default:'#1a1a2e';column:accent_color"`
	IsDefault    bool         `gorm:"not null;default:false;column:is_default"`
	DocumentType DocumentType `gorm:"type:varchar(20);not null;default:'INVOICE';column:document_type"`
}

// NumberingScheme holds per-document-type number formatting settings
type NumberingScheme struct {
	QuotePrefix   string `gorm:"type:varchar(20);not null;default:'QUO';column:quote_prefix"`
	InvoicePrefix string `gorm:"type:varchar(20);not null;default:'INV';column:invoice_prefix"`
	Padding       int    `gorm:"not null;default:3"`
	IncludeYear   bool   `gorm:"not null;default:true;column:include_year"`
}

// BusinessProfile holds the issuing business identity, branding and defaults.
// A single row is expected; the settings service upserts it.
type BusinessProfile struct {
	BaseModel
	BusinessName    string          `gorm:"type:varchar(200);not null;column:business_name"`
	OrgNumber       string          `gorm:"type:varchar(20);column:org_number"`
	Email           string          `gorm:"type:varchar(255)"`
	Phone           string          `gorm:"type:varchar(50)"`
	Address         string          `gorm:"type:varchar(500)"`
	City            string          `gorm:"type:varchar(100)"`
	PostalCode      string          `gorm:"type:varchar(20);column:postal_code"`
	Country         string          `gorm:"type:varchar(100);default:'Norway'"`
	BankAccount     string          `gorm:"type:varchar(50);column:bank_account"`
	LogoFileID      *uuid.UUID      `gorm:"type:uuid;column:logo_file_id"`
	LogoFile        *File           `gorm:"foreignKey:LogoFileID"`
	AccentColor     string          `gorm:"type:varchar(20);default:'#1a1a2e';column:accent_color"`
	DefaultCurrency string          `gorm:"type:varchar(3);not null;default:'NOK';column:default_currency"`
	DefaultTaxRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:25;column:default_tax_rate"`
	DefaultTerms    string          `gorm:"type:text;column:default_terms"`
	DueDays         int             `gorm:"not null;default:14;column:due_days"`
	Numbering       NumberingScheme `gorm:"embedded"`
}

// NumberSequence tracks the last used sequence per document type and year.
// Quote and invoice numbers count independently.
type NumberSequence struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key"`
	DocumentType DocumentType `gorm:"type:varchar(20);not null;uniqueIndex:idx_seq_type_year;column:document_type"`
	Year         int          `gorm:"not null;uniqueIndex:idx_seq_type_year"`
	LastSequence int          `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when the database does not
func (n *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// ActivityTargetType represents the type of entity an activity is associated with
type ActivityTargetType string

const (
	ActivityTargetClient   ActivityTargetType = "Client"
	ActivityTargetDocument ActivityTargetType = "Document"
	ActivityTargetProject  ActivityTargetType = "Project"
)

// Activity represents an event log entry for any entity
type Activity struct {
	BaseModel
	TargetType  ActivityTargetType `gorm:"type:varchar(50);not null;index;column:target_type"`
	TargetID    uuid.UUID          `gorm:"type:uuid;not null;index;column:target_id"`
	TargetName  string             `gorm:"type:varchar(200);column:target_name"`
	Title       string             `gorm:"type:varchar(200);not null"`
	Body        string             `gorm:"type:varchar(2000)"`
	OccurredAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	CreatorID   string             `gorm:"type:varchar(100);column:creator_id"`
	CreatorName string             `gorm:"type:varchar(200);column:creator_name"`
}

// File represents an uploaded file (logo, attachment)
type File struct {
	BaseModel
	Filename    string     `gorm:"type:varchar(255);not null"`
	ContentType string     `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64      `gorm:"not null"`
	StoragePath string     `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index;column:document_id"`
	Document    *Document  `gorm:"foreignKey:DocumentID"`
}
