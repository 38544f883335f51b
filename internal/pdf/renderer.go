package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
)

// Renderer produces A4 PDF documents for quotes and invoices. The layout is
// picked from the document's template key; unknown keys fall back to classic.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderInput carries everything a layout needs
type RenderInput struct {
	Document *domain.Document
	Profile  *domain.BusinessProfile
	Template *domain.Template
	// Logo is the raw logo image, nil when none is set
	Logo     io.Reader
	LogoType string
}

// Render generates the PDF and returns its bytes
func (r *Renderer) Render(input RenderInput) ([]byte, error) {
	if input.Document == nil {
		return nil, fmt.Errorf("document is required")
	}

	key := domain.TemplateKeyClassic
	accent := "#1a1a2e"
	if input.Template != nil {
		key = input.Template.Key
		accent = input.Template.AccentColor
	}
	if input.Profile != nil && input.Profile.AccentColor != "" && input.Template == nil {
		accent = input.Profile.AccentColor
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	p := &page{
		pdf:    pdf,
		doc:    input.Document,
		prof:   input.Profile,
		accent: parseHexColor(accent),
	}

	if input.Logo != nil {
		p.registerLogo(input.Logo, input.LogoType)
	}

	switch key {
	case domain.TemplateKeyModern:
		p.renderModern()
	case domain.TemplateKeyMinimal:
		p.renderMinimal()
	default:
		p.renderClassic()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate pdf: %w", err)
	}

	if r.logger != nil {
		r.logger.Debug("rendered pdf",
			zap.String("number", input.Document.Number),
			zap.String("template", string(key)),
			zap.Int("bytes", buf.Len()))
	}
	return buf.Bytes(), nil
}

type rgb struct{ r, g, b int }

type page struct {
	pdf      *gofpdf.Fpdf
	doc      *domain.Document
	prof     *domain.BusinessProfile
	accent   rgb
	logoName string
}

const (
	pageWidth  = 210.0
	marginX    = 15.0
	contentW   = pageWidth - 2*marginX
	colDescW   = 90.0
	colQtyW    = 25.0
	colPriceW  = 32.5
	colAmountW = 32.5
)

func (p *page) registerLogo(logo io.Reader, contentType string) {
	imageType := "PNG"
	switch contentType {
	case "image/jpeg":
		imageType = "JPG"
	case "image/svg+xml":
		// gofpdf has no SVG raster support, skip the logo
		return
	}
	p.logoName = "logo"
	p.pdf.RegisterImageOptionsReader(p.logoName, gofpdf.ImageOptions{ImageType: imageType}, logo)
	if p.pdf.Err() {
		p.logoName = ""
		p.pdf.ClearError()
	}
}

func (p *page) title() string {
	if p.doc.Type == domain.DocumentTypeQuote {
		return "QUOTE"
	}
	return "INVOICE"
}

// renderClassic draws the traditional layout: black title, framed totals box
func (p *page) renderClassic() {
	pdf := p.pdf

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(p.accent.r, p.accent.g, p.accent.b)
	pdf.SetXY(marginX, 18)
	pdf.CellFormat(contentW/2, 10, p.title(), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	p.drawLogo(pageWidth-marginX-30, 14, 30)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginX, 30)
	pdf.CellFormat(contentW/2, 5, p.doc.Number, "", 2, "L", false, 0, "")
	p.drawDates(marginX, pdf.GetY()+1)

	p.drawParties(52)
	y := p.drawItemTable(84)
	y = p.drawTotals(y + 4)
	p.drawFooter(y + 8)
}

// renderModern draws a full-width accent banner behind the header
func (p *page) renderModern() {
	pdf := p.pdf

	pdf.SetFillColor(p.accent.r, p.accent.g, p.accent.b)
	pdf.Rect(0, 0, pageWidth, 38, "F")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(marginX, 12)
	pdf.CellFormat(contentW/2, 9, p.title(), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 5, p.doc.Number, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	p.drawLogo(pageWidth-marginX-26, 6, 26)

	p.drawDates(marginX, 44)
	p.drawParties(58)
	y := p.drawItemTable(90)
	y = p.drawTotals(y + 4)
	p.drawFooter(y + 8)
}

// renderMinimal draws a sparse layout with thin rules and no fills
func (p *page) renderMinimal() {
	pdf := p.pdf

	pdf.SetFont("Helvetica", "", 18)
	pdf.SetXY(marginX, 20)
	title := "Invoice"
	if p.doc.Type == domain.DocumentTypeQuote {
		title = "Quote"
	}
	pdf.CellFormat(contentW/2, 8, title, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(contentW/2, 5, p.doc.Number, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(marginX, 34, pageWidth-marginX, 34)

	p.drawDates(marginX, 38)
	p.drawParties(52)
	y := p.drawItemTable(84)
	y = p.drawTotals(y + 4)
	p.drawFooter(y + 8)
}

func (p *page) drawLogo(x, y, w float64) {
	if p.logoName == "" {
		return
	}
	p.pdf.ImageOptions(p.logoName, x, y, w, 0, false, gofpdf.ImageOptions{}, 0, "")
	if p.pdf.Err() {
		p.pdf.ClearError()
	}
}

func (p *page) drawDates(x, y float64) {
	pdf := p.pdf
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(x, y)

	if p.doc.IssueDate != nil {
		label := "Issue date"
		if p.doc.Type == domain.DocumentTypeQuote {
			label = "Date"
		}
		pdf.CellFormat(45, 5, label+": "+formatDate(*p.doc.IssueDate), "", 0, "L", false, 0, "")
	}
	if p.doc.DueDate != nil {
		pdf.CellFormat(45, 5, "Due date: "+formatDate(*p.doc.DueDate), "", 0, "L", false, 0, "")
	}
}

// drawParties draws the issuing business on the left and the client on the
// right, honoring the document's visibility flags
func (p *page) drawParties(y float64) {
	pdf := p.pdf
	colW := contentW / 2

	if p.doc.ShowBusiness && p.prof != nil && p.prof.BusinessName != "" {
		pdf.SetXY(marginX, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(colW, 5, "From", "", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(colW, 4.5, p.businessLines(), "", "L", false)
	}

	if p.doc.ShowClient {
		pdf.SetXY(marginX+colW, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(colW, 5, "Bill to", "", 2, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(marginX + colW)
		pdf.MultiCell(colW, 4.5, p.clientLines(), "", "L", false)
	}
}

func (p *page) businessLines() string {
	lines := []string{p.prof.BusinessName}
	if p.prof.OrgNumber != "" {
		lines = append(lines, "Org no "+p.prof.OrgNumber)
	}
	if p.prof.Address != "" {
		lines = append(lines, p.prof.Address)
	}
	if p.prof.PostalCode != "" || p.prof.City != "" {
		lines = append(lines, strings.TrimSpace(p.prof.PostalCode+" "+p.prof.City))
	}
	if p.prof.Email != "" {
		lines = append(lines, p.prof.Email)
	}
	if p.prof.Phone != "" {
		lines = append(lines, p.prof.Phone)
	}
	return strings.Join(lines, "\n")
}

func (p *page) clientLines() string {
	lines := []string{p.doc.ClientName}
	if c := p.doc.Client; c != nil {
		if c.Address != "" {
			lines = append(lines, c.Address)
		}
		if c.PostalCode != "" || c.City != "" {
			lines = append(lines, strings.TrimSpace(c.PostalCode+" "+c.City))
		}
		if c.Email != "" {
			lines = append(lines, c.Email)
		}
	}
	if p.doc.Contact != nil {
		lines = append(lines, "Attn: "+p.doc.Contact.FullName())
	}
	return strings.Join(lines, "\n")
}

// drawItemTable renders the line items and returns the y position below them
func (p *page) drawItemTable(y float64) float64 {
	pdf := p.pdf

	pdf.SetXY(marginX, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(p.accent.r, p.accent.g, p.accent.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(colDescW, 7, "  Description", "", 0, "L", true, 0, "")
	pdf.CellFormat(colQtyW, 7, "Qty", "", 0, "R", true, 0, "")
	pdf.CellFormat(colPriceW, 7, "Unit price", "", 0, "R", true, 0, "")
	pdf.CellFormat(colAmountW, 7, "Amount  ", "", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetDrawColor(220, 220, 220)
	for i := range p.doc.Items {
		item := &p.doc.Items[i]
		pdf.SetX(marginX)
		qty, price := "", ""
		if item.ShowQuantity {
			qty = item.Quantity.String()
			price = item.UnitPrice.StringFixed(2)
		}
		pdf.CellFormat(colDescW, 7, "  "+truncate(item.Description, 60), "B", 0, "L", false, 0, "")
		pdf.CellFormat(colQtyW, 7, qty, "B", 0, "R", false, 0, "")
		pdf.CellFormat(colPriceW, 7, price, "B", 0, "R", false, 0, "")
		pdf.CellFormat(colAmountW, 7, item.Amount.StringFixed(2)+"  ", "B", 1, "R", false, 0, "")
	}

	return pdf.GetY()
}

// drawTotals renders the aggregate block right-aligned and returns the y
// position below it
func (p *page) drawTotals(y float64) float64 {
	pdf := p.pdf
	labelX := pageWidth - marginX - 80
	labelW, valueW := 45.0, 35.0

	row := func(label string, value decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.SetX(labelX)
		pdf.CellFormat(labelW, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 6, value.StringFixed(2)+" "+p.doc.Currency, "", 1, "R", false, 0, "")
	}

	pdf.SetY(y)
	row("Subtotal", p.doc.Subtotal, false)
	if !p.doc.TaxRate.IsZero() {
		row(fmt.Sprintf("Tax (%s%%)", p.doc.TaxRate.String()), p.doc.TaxAmount, false)
	}
	if !p.doc.DiscountAmount.IsZero() {
		row("Discount", p.doc.DiscountAmount.Neg(), false)
	}

	pdf.SetDrawColor(p.accent.r, p.accent.g, p.accent.b)
	pdf.Line(labelX, pdf.GetY()+0.5, pageWidth-marginX, pdf.GetY()+0.5)
	pdf.SetY(pdf.GetY() + 1.5)
	row("Total", p.doc.Total, true)

	if p.doc.AmountPaid.IsPositive() {
		row("Paid", p.doc.AmountPaid.Neg(), false)
		row("Amount due", p.doc.AmountDue, true)
	}

	return pdf.GetY()
}

func (p *page) drawFooter(y float64) {
	pdf := p.pdf
	pdf.SetY(y)

	if p.doc.Notes != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetX(marginX)
		pdf.CellFormat(contentW, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(marginX)
		pdf.MultiCell(contentW, 4.5, p.doc.Notes, "", "L", false)
		pdf.SetY(pdf.GetY() + 3)
	}

	if p.doc.Terms != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetX(marginX)
		pdf.CellFormat(contentW, 5, "Terms", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(marginX)
		pdf.MultiCell(contentW, 4.5, p.doc.Terms, "", "L", false)
		pdf.SetY(pdf.GetY() + 3)
	}

	if p.doc.Type == domain.DocumentTypeInvoice && p.prof != nil && p.prof.BankAccount != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(marginX)
		pdf.CellFormat(contentW, 5, "Payment to account "+p.prof.BankAccount, "", 1, "L", false, 0, "")
	}
}

func parseHexColor(s string) rgb {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return rgb{26, 26, 46}
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return rgb{26, 26, 46}
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
