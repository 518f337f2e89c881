package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// endpointTestModels defines the standard set of models migrated for endpoint tests
var endpointTestModels = []interface{}{
	&model.Doctor{},
	&model.Patient{},
	&model.Appointment{},
	&model.Billing{},
	&model.AuditLog{},
}

// setupEndpointTestDB creates an in-memory SQLite database with all standard
// models migrated. The DSN is uniquified per test to prevent cross-test
// contamination when tests run in the same process.
func setupEndpointTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	if err := db.AutoMigrate(endpointTestModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return db
}

// setupEndpointTest returns a Gin engine with the full clinic route table and
// a database connection configured for endpoint tests.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := setupEndpointTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))

	r.POST("/appointment", BookAppointment)
	r.GET("/appointment", ListAppointments)
	r.GET("/appointment/:id", GetAppointmentInfo)
	r.PATCH("/appointment/:id", UpdateAppointment)
	r.DELETE("/appointment/:id", DeleteAppointment)
	r.GET("/appointment/:id/notify-link", GetAppointmentNotifyLink)

	r.POST("/doctor", CreateDoctor)
	r.GET("/doctor", ListDoctors)
	r.GET("/doctor/:id", GetDoctorInfo)
	r.PATCH("/doctor/:id", UpdateDoctor)
	r.DELETE("/doctor/:id", DeleteDoctor)

	r.GET("/patient", ListPatients)
	r.GET("/patient/:id", GetPatientInfo)
	r.PATCH("/patient/:id", UpdatePatient)
	r.DELETE("/patient/:id", DeletePatient)

	r.POST("/billing", CreateBilling)
	r.GET("/billing", ListBillings)
	r.GET("/billing/:id", GetBillingInfo)
	r.PATCH("/billing/:id/payment", RecordPayment)
	r.DELETE("/billing/:id", DeleteBilling)
	r.GET("/billing/:id/invoice", GenerateInvoice)
	r.GET("/billing/:id/notify-link", GetBillingNotifyLink)

	return r, db
}

// performRequest issues an HTTP request against the test router. A non-nil
// body is JSON-encoded.
func performRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseResponse decodes the APIResponse envelope into a generic map.
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp
}

func createTestDoctor(t *testing.T, db *gorm.DB, name, specialization string) model.Doctor {
	t.Helper()

	doctor := model.Doctor{FullName: name, Specialization: specialization}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("create test doctor: %v", err)
	}
	return doctor
}

func createTestPatient(t *testing.T, db *gorm.DB, name, phone string) model.Patient {
	t.Helper()

	patient := model.Patient{FullName: name, Phone: phone}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return patient
}

func createTestBilling(t *testing.T, db *gorm.DB, patientID uint, treatments, total, paid string) model.Billing {
	t.Helper()

	billing := model.Billing{
		PatientID:   patientID,
		Treatments:  treatments,
		TotalAmount: mustDecimal(t, total),
		AmountPaid:  mustDecimal(t, paid),
	}
	billing.PaymentStatus = billing.DerivePaymentStatus()
	if err := db.Create(&billing).Error; err != nil {
		t.Fatalf("create test billing: %v", err)
	}
	return billing
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func bookingPayload(doctorID uint) map[string]interface{} {
	return map[string]interface{}{
		"name":      "Asha",
		"phone":     "9999999999",
		"date":      "2024-01-10",
		"time":      "10:00",
		"doctor_id": doctorID,
		"symptoms":  "toothache",
	}
}
