package endpoint

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smilespace/clinic-api/config"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"github.com/smilespace/clinic-api/util"
	"gorm.io/gorm"
)

type createBillingRequest struct {
	PatientID   uint            `json:"patient_id" example:"1"`
	Treatments  []string        `json:"treatments" example:"Root canal,Cleaning"`
	TotalAmount decimal.Decimal `json:"total_amount" example:"1500.00"`
	AmountPaid  decimal.Decimal `json:"amount_paid,omitempty" example:"500.00"`
}

// CreateBilling godoc
// @Summary      Create a billing record
// @Description  Issue a bill to a patient; the payment status is derived from the amounts
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body createBillingRequest true "Billing information"
// @Success      200 {object} util.APIResponse{data=model.Billing} "Billing created"
// @Failure      400 {object} util.APIResponse "Invalid request or unknown patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /billing [post]
func CreateBilling(c *gin.Context) {
	req := createBillingRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.PatientID == 0 || len(req.Treatments) == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Billing payload is empty or missing required fields",
			Err: fmt.Errorf("patient_id and treatments are required"),
		})
		return
	}
	if req.TotalAmount.Sign() < 0 || req.AmountPaid.Sign() < 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Amounts must not be negative",
			Err: fmt.Errorf("invalid amount"),
		})
		return
	}

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	var patient model.Patient
	if err := db.First(&patient, req.PatientID).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return
	}

	billing := model.Billing{
		PatientID:   patient.ID,
		Treatments:  strings.Join(req.Treatments, ","),
		TotalAmount: req.TotalAmount,
		AmountPaid:  req.AmountPaid,
	}
	billing.PaymentStatus = billing.DerivePaymentStatus()

	if err := db.Create(&billing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create billing",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Billing created",
		Data: billing,
	})
}

func fetchBillings(db *gorm.DB, limit, offset int, paymentStatus string, patientID uint) ([]model.ListBillingResponse, int64, error) {
	var billings []model.ListBillingResponse
	var total int64

	query := db.Table("billings").
		Joins("LEFT JOIN patients ON patients.id = billings.patient_id").
		Select("billings.*, patients.full_name as patient_name, patients.phone as patient_phone").
		Where("billings.deleted_at IS NULL").
		Order("billings.created_at DESC")
	if paymentStatus != "" {
		query = query.Where("billings.payment_status = ?", paymentStatus)
	}
	if patientID != 0 {
		query = query.Where("billings.patient_id = ?", patientID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&billings).Error; err != nil {
		return nil, 0, err
	}

	// Balance columns are always derived on read, never persisted.
	for i := range billings {
		billings[i].PendingAmount = billings[i].Billing.PendingAmount()
		billings[i].BalanceLabel = billings[i].Billing.BalanceLabel()
	}

	countQuery := db.Model(&model.Billing{})
	if paymentStatus != "" {
		countQuery = countQuery.Where("payment_status = ?", paymentStatus)
	}
	if patientID != 0 {
		countQuery = countQuery.Where("patient_id = ?", patientID)
	}
	countQuery.Count(&total)

	return billings, total, nil
}

// ListBillings godoc
// @Summary      List billing records
// @Description  Get billings joined with patient names and derived balances
// @Tags         Billing
// @Produce      json
// @Param        payment_status query string false "Filter by payment status (paid|partial|pending)"
// @Param        patient_id query int false "Filter by patient"
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Success      200 {object} util.APIResponse{data=object} "Billings retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /billing [get]
func ListBillings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	patientID, _ := strconv.ParseUint(c.Query("patient_id"), 10, 32)
	paymentStatus := c.Query("payment_status")

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billings, total, err := fetchBillings(db, limit, offset, paymentStatus, uint(patientID))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve billings",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Billings retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(billings), "billings": billings},
	})
}

func getBillingByID(c *gin.Context, db *gorm.DB) (model.Billing, error) {
	id := c.Param("id")
	if id == "" {
		err := fmt.Errorf("billing ID is required")
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing billing ID", Err: err})
		return model.Billing{}, err
	}

	var billing model.Billing
	if err := db.First(&billing, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Billing not found",
			Err: err,
		})
		return model.Billing{}, err
	}
	return billing, nil
}

// GetBillingInfo godoc
// @Summary      Get billing information with derived balance
// @Tags         Billing
// @Produce      json
// @Param        id path string true "Billing ID"
// @Success      200 {object} util.APIResponse{data=object} "Billing retrieved"
// @Failure      404 {object} util.APIResponse "Billing not found"
// @Router       /billing/{id} [get]
func GetBillingInfo(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billing, err := getBillingByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Billing retrieved",
		Data: map[string]interface{}{
			"billing":        billing,
			"pending_amount": billing.PendingAmount(),
			"balance_label":  billing.BalanceLabel(),
		},
	})
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" example:"500.00"`
}

// RecordPayment godoc
// @Summary      Record a payment against a billing
// @Description  Adds the amount to amount_paid and re-derives the payment status. Overpayment is permitted and shows up as a negative pending balance.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        id path string true "Billing ID"
// @Param        request body recordPaymentRequest true "Payment amount"
// @Success      200 {object} util.APIResponse{data=object} "Payment recorded"
// @Failure      400 {object} util.APIResponse "Invalid amount"
// @Failure      404 {object} util.APIResponse "Billing not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /billing/{id}/payment [patch]
func RecordPayment(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billing, err := getBillingByID(c, db)
	if err != nil {
		return
	}

	req := recordPaymentRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.Amount.Sign() <= 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Payment amount must be positive",
			Err: fmt.Errorf("invalid amount"),
		})
		return
	}

	billing.AmountPaid = billing.AmountPaid.Add(req.Amount)
	billing.PaymentStatus = billing.DerivePaymentStatus()

	if err := db.Save(&billing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to record payment",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPaymentRecorded,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Payment of %s recorded on billing %d", req.Amount.StringFixed(2), billing.ID),
		Details: map[string]interface{}{
			"billing_id":     billing.ID,
			"amount":         req.Amount.StringFixed(2),
			"payment_status": billing.PaymentStatus,
		},
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Payment recorded",
		Data: map[string]interface{}{
			"billing":        billing,
			"pending_amount": billing.PendingAmount(),
			"balance_label":  billing.BalanceLabel(),
		},
	})
}

// DeleteBilling godoc
// @Summary      Delete a billing record
// @Tags         Billing
// @Produce      json
// @Param        id path string true "Billing ID"
// @Success      200 {object} util.APIResponse "Billing deleted"
// @Failure      404 {object} util.APIResponse "Billing not found"
// @Router       /billing/{id} [delete]
func DeleteBilling(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billing, err := getBillingByID(c, db)
	if err != nil {
		return
	}

	if err := db.Delete(&billing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete billing",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Billing deleted",
	})
}

func buildInvoiceData(billing model.Billing, patient model.Patient, cfg *config.Config) util.InvoiceData {
	return util.InvoiceData{
		BillingID:   billing.ID,
		BillDate:    billing.CreatedAt.Format(dateLayout),
		PatientName: patient.FullName,
		Phone:       patient.Phone,
		Treatments:  strings.Split(billing.Treatments, ","),
		Total:       billing.TotalAmount.StringFixed(2),
		Paid:        billing.AmountPaid.StringFixed(2),
		Pending:     billing.PendingAmount().StringFixed(2),
		Settled:     billing.PendingAmount().Sign() <= 0,
		DoctorLabel: cfg.InvoiceDoctorLabel,
		ClinicName:  cfg.ClinicName,
		ClinicCity:  cfg.ClinicCity,
	}
}

// GenerateInvoice godoc
// @Summary      Download a billing invoice as PDF
// @Description  Renders the invoice PDF as an attachment named Invoice_<patient name>.pdf. When PDF generation fails the rendered HTML markup is returned as a diagnostic payload.
// @Tags         Billing
// @Produce      application/pdf
// @Param        id path string true "Billing ID"
// @Success      200 {file} binary "PDF document"
// @Failure      404 {object} util.APIResponse "Billing not found"
// @Failure      500 {string} string "Diagnostic HTML when rendering fails"
// @Router       /billing/{id}/invoice [get]
func GenerateInvoice(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billing, err := getBillingByID(c, db)
	if err != nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, billing.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return
	}

	data := buildInvoiceData(billing, patient, config.LoadConfig())

	pdfBytes, err := util.RenderInvoicePDF(data)
	if err != nil {
		// Surface the rendered markup so the failure is diagnosable instead
		// of silently dropping the document.
		html, htmlErr := util.RenderInvoiceHTML(data)
		if htmlErr != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to render invoice",
				Err: err,
			})
			return
		}
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte("We had some errors generating the PDF <pre>"+html+"</pre>"))
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventInvoiceGenerated,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Invoice generated for billing %d", billing.ID),
	})

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="Invoice_%s.pdf"`, patient.FullName))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GetBillingNotifyLink godoc
// @Summary      Build a WhatsApp billing-summary link
// @Tags         Billing
// @Produce      json
// @Param        id path string true "Billing ID"
// @Success      200 {object} util.APIResponse{data=object} "Link built"
// @Failure      404 {object} util.APIResponse "Billing not found"
// @Router       /billing/{id}/notify-link [get]
func GetBillingNotifyLink(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	billing, err := getBillingByID(c, db)
	if err != nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, billing.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}

	cfg := config.LoadConfig()
	invoiceURL := fmt.Sprintf("http://%s/billing/%d/invoice", c.Request.Host, billing.ID)
	pending := billing.PendingAmount()
	message := util.BillingSummaryMessage(
		patient.FullName,
		billing.TotalAmount.StringFixed(2),
		billing.AmountPaid.StringFixed(2),
		pending.StringFixed(2),
		pending.Sign() > 0,
		invoiceURL,
		cfg.ClinicName,
	)
	link := util.BuildWhatsAppLink(cfg.CountryCode, patient.Phone, message)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Notification link built",
		Data: map[string]interface{}{"url": link},
	})
}
