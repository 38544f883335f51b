package mapper

import (
	"time"

	"github.com/fakturo/billing-api/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:            client.ID,
		Name:          client.Name,
		OrgNumber:     client.OrgNumber,
		Email:         client.Email,
		Phone:         client.Phone,
		Address:       client.Address,
		City:          client.City,
		PostalCode:    client.PostalCode,
		Country:       client.Country,
		ContactPerson: client.ContactPerson,
		Status:        client.Status,
		Notes:         client.Notes,
		CreatedAt:     client.CreatedAt.Format(timestampFormat),
		UpdatedAt:     client.UpdatedAt.Format(timestampFormat),
	}
}

// ToClientWithDetailsDTO converts Client plus related entities to a detail DTO
func ToClientWithDetailsDTO(client *domain.Client, recentDocs []domain.Document) domain.ClientWithDetailsDTO {
	dto := domain.ClientWithDetailsDTO{
		ClientDTO: ToClientDTO(client),
	}
	for i := range client.Contacts {
		dto.Contacts = append(dto.Contacts, ToContactDTO(&client.Contacts[i]))
	}
	for i := range client.Projects {
		dto.Projects = append(dto.Projects, ToProjectDTO(&client.Projects[i]))
	}
	for i := range recentDocs {
		dto.RecentDocuments = append(dto.RecentDocuments, ToDocumentDTO(&recentDocs[i]))
	}
	return dto
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	dto := domain.ContactDTO{
		ID:        contact.ID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		FullName:  contact.FullName(),
		Email:     contact.Email,
		Phone:     contact.Phone,
		Title:     contact.Title,
		ClientID:  contact.ClientID,
		Notes:     contact.Notes,
		IsActive:  contact.IsActive,
		CreatedAt: contact.CreatedAt.Format(timestampFormat),
		UpdatedAt: contact.UpdatedAt.Format(timestampFormat),
	}
	if contact.Client != nil {
		dto.ClientName = contact.Client.Name
	}
	return dto
}

// ToProjectDTO converts Project to ProjectDTO
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		ClientID:    project.ClientID,
		ClientName:  project.ClientName,
		Status:      project.Status,
		CreatedAt:   project.CreatedAt.Format(timestampFormat),
		UpdatedAt:   project.UpdatedAt.Format(timestampFormat),
	}
	if dto.ClientName == "" && project.Client != nil {
		dto.ClientName = project.Client.Name
	}
	return dto
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	return domain.ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		ItemType:    product.ItemType,
		UnitPrice:   product.UnitPrice,
		Unit:        product.Unit,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt.Format(timestampFormat),
		UpdatedAt:   product.UpdatedAt.Format(timestampFormat),
	}
}

// ToDocumentDTO converts Document to DocumentDTO
func ToDocumentDTO(doc *domain.Document) domain.DocumentDTO {
	items := make([]domain.DocumentItemDTO, len(doc.Items))
	for i := range doc.Items {
		items[i] = ToDocumentItemDTO(&doc.Items[i])
	}

	dto := domain.DocumentDTO{
		ID:             doc.ID,
		Type:           doc.Type,
		Status:         doc.Status,
		Number:         doc.Number,
		Title:          doc.Title,
		Currency:       doc.Currency,
		TaxRate:        doc.TaxRate,
		DiscountType:   doc.DiscountType,
		DiscountValue:  doc.DiscountValue,
		Subtotal:       doc.Subtotal,
		TaxAmount:      doc.TaxAmount,
		DiscountAmount: doc.DiscountAmount,
		Total:          doc.Total,
		AmountPaid:     doc.AmountPaid,
		AmountDue:      doc.AmountDue,
		Notes:          doc.Notes,
		Terms:          doc.Terms,
		ShowBusiness:   doc.ShowBusiness,
		ShowClient:     doc.ShowClient,
		TemplateID:     doc.TemplateID,
		ClientID:       doc.ClientID,
		ClientName:     doc.ClientName,
		ContactID:      doc.ContactID,
		ProjectID:      doc.ProjectID,
		SourceQuoteID:  doc.SourceQuoteID,
		Items:          items,
		CreatedAt:      doc.CreatedAt.Format(timestampFormat),
		UpdatedAt:      doc.UpdatedAt.Format(timestampFormat),
	}

	if dto.ClientName == "" && doc.Client != nil {
		dto.ClientName = doc.Client.Name
	}
	dto.IssueDate = formatDatePtr(doc.IssueDate)
	dto.DueDate = formatDatePtr(doc.DueDate)
	if doc.SentAt != nil {
		sentAt := doc.SentAt.Format(timestampFormat)
		dto.SentAt = &sentAt
	}
	for i := range doc.Payments {
		dto.Payments = append(dto.Payments, ToPaymentDTO(&doc.Payments[i]))
	}

	return dto
}

// ToDocumentItemDTO converts DocumentItem to DocumentItemDTO
func ToDocumentItemDTO(item *domain.DocumentItem) domain.DocumentItemDTO {
	return domain.DocumentItemDTO{
		ID:           item.ID,
		Description:  item.Description,
		ItemType:     item.ItemType,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Amount:       item.Amount,
		ShowQuantity: item.ShowQuantity,
		SortOrder:    item.SortOrder,
		ProductID:    item.ProductID,
	}
}

// ToPaymentDTO converts Payment to PaymentDTO
func ToPaymentDTO(payment *domain.Payment) domain.PaymentDTO {
	return domain.PaymentDTO{
		ID:         payment.ID,
		DocumentID: payment.DocumentID,
		Amount:     payment.Amount,
		PaidAt:     payment.PaidAt.Format(timestampFormat),
		Method:     payment.Method,
		Reference:  payment.Reference,
		Notes:      payment.Notes,
		CreatedAt:  payment.CreatedAt.Format(timestampFormat),
	}
}

// ToTemplateDTO converts Template to TemplateDTO
func ToTemplateDTO(template *domain.Template) domain.TemplateDTO {
	return domain.TemplateDTO{
		ID:           template.ID,
		Key:          template.Key,
		Name:         template.Name,
		Description:  template.Description,
		AccentColor:  template.AccentColor,
		IsDefault:    template.IsDefault,
		DocumentType: template.DocumentType,
	}
}

// ToBusinessProfileDTO converts BusinessProfile to BusinessProfileDTO
func ToBusinessProfileDTO(profile *domain.BusinessProfile) domain.BusinessProfileDTO {
	return domain.BusinessProfileDTO{
		ID:              profile.ID,
		BusinessName:    profile.BusinessName,
		OrgNumber:       profile.OrgNumber,
		Email:           profile.Email,
		Phone:           profile.Phone,
		Address:         profile.Address,
		City:            profile.City,
		PostalCode:      profile.PostalCode,
		Country:         profile.Country,
		BankAccount:     profile.BankAccount,
		LogoFileID:      profile.LogoFileID,
		AccentColor:     profile.AccentColor,
		DefaultCurrency: profile.DefaultCurrency,
		DefaultTaxRate:  profile.DefaultTaxRate,
		DefaultTerms:    profile.DefaultTerms,
		DueDays:         profile.DueDays,
		Numbering:       ToNumberingSchemeDTO(profile.Numbering),
	}
}

// ToNumberingSchemeDTO converts NumberingScheme to NumberingSchemeDTO
func ToNumberingSchemeDTO(scheme domain.NumberingScheme) domain.NumberingSchemeDTO {
	return domain.NumberingSchemeDTO{
		QuotePrefix:   scheme.QuotePrefix,
		InvoicePrefix: scheme.InvoicePrefix,
		Padding:       scheme.Padding,
		IncludeYear:   scheme.IncludeYear,
	}
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:          activity.ID,
		TargetType:  activity.TargetType,
		TargetID:    activity.TargetID,
		TargetName:  activity.TargetName,
		Title:       activity.Title,
		Body:        activity.Body,
		OccurredAt:  activity.OccurredAt.Format(timestampFormat),
		CreatorName: activity.CreatorName,
		CreatedAt:   activity.CreatedAt.Format(timestampFormat),
	}
}

// ToFileDTO converts File to FileDTO
func ToFileDTO(file *domain.File) domain.FileDTO {
	return domain.FileDTO{
		ID:          file.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		CreatedAt:   file.CreatedAt.Format(timestampFormat),
	}
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}
