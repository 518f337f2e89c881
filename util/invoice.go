package util

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceData carries everything printed on a billing invoice.
type InvoiceData struct {
	BillingID   uint
	BillDate    string
	PatientName string
	Phone       string
	Treatments  []string
	Total       string
	Paid        string
	Pending     string
	Settled     bool
	DoctorLabel string
	ClinicName  string
	ClinicCity  string
}

// invoiceHTMLTemplate mirrors the PDF layout. Its output doubles as the
// diagnostic payload returned when PDF generation fails.
var invoiceHTMLTemplate = template.Must(template.New("invoice").Parse(`<html>
<head><title>Invoice #{{.BillingID}} - {{.ClinicName}}</title></head>
<body>
<h1>{{.ClinicName}}, {{.ClinicCity}}</h1>
<h2>Invoice #{{.BillingID}} ({{.BillDate}})</h2>
<p>Patient: {{.PatientName}} ({{.Phone}})</p>
<p>Attending: {{.DoctorLabel}}</p>
<table>
{{range .Treatments}}<tr><td>{{.}}</td></tr>
{{end}}</table>
<p>Total: Rs.{{.Total}}</p>
<p>Paid: Rs.{{.Paid}}</p>
{{if .Settled}}<p><b>Fully Paid</b></p>{{else}}<p><b>Balance Due: Rs.{{.Pending}}</b></p>{{end}}
</body>
</html>
`))

// RenderInvoiceHTML renders the invoice as HTML markup.
func RenderInvoiceHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceHTMLTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderInvoicePDF builds the invoice PDF document and returns its bytes.
func RenderInvoicePDF(data InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(190, 10, fmt.Sprintf("%s, %s", data.ClinicName, data.ClinicCity), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(190, 8, fmt.Sprintf("Invoice #%d  (%s)", data.BillingID, data.BillDate), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(190, 7, fmt.Sprintf("Patient: %s (%s)", data.PatientName, data.Phone), "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 7, fmt.Sprintf("Attending: %s", data.DoctorLabel), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(190, 7, "Treatments", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, t := range data.Treatments {
		pdf.CellFormat(190, 7, t, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(95, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(95, 8, "Rs."+data.Total, "T", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(95, 8, "Paid", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 8, "Rs."+data.Paid, "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	if data.Settled {
		pdf.CellFormat(190, 8, "Fully Paid", "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(95, 8, "Balance Due", "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 8, "Rs."+data.Pending, "", 1, "R", false, 0, "")
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
