package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrClientNotFound is returned when a client is not found
	ErrClientNotFound = errors.New("client not found")

	// ErrContactNotFound is returned when a contact is not found
	ErrContactNotFound = errors.New("contact not found")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrProductNotFound is returned when a product is not found
	ErrProductNotFound = errors.New("product not found")

	// ErrDocumentNotFound is returned when a document is not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrItemNotFound is returned when a document item is not found
	ErrItemNotFound = errors.New("document item not found")

	// ErrTemplateNotFound is returned when a template is not found
	ErrTemplateNotFound = errors.New("template not found")

	// ErrPaymentNotFound is returned when a payment is not found
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrFileNotFound is returned when a file is not found
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidDocumentType is returned for an unknown document type
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrDocumentLocked is returned when mutating a document in a terminal state
	ErrDocumentLocked = errors.New("document is in a terminal state and cannot be modified")

	// ErrInvalidStatusTransition is returned for a disallowed workflow transition
	ErrInvalidStatusTransition = errors.New("invalid document status transition")

	// ErrNotAQuote is returned when a quote-only operation targets an invoice
	ErrNotAQuote = errors.New("operation only valid for quotes")

	// ErrNotAnInvoice is returned when an invoice-only operation targets a quote
	ErrNotAnInvoice = errors.New("operation only valid for invoices")

	// ErrInvalidPaymentAmount is returned when a payment amount is zero or negative
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
)
