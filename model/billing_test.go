package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return d
}

func TestBillingPendingAmount(t *testing.T) {
	b := Billing{TotalAmount: dec(t, "1500.00"), AmountPaid: dec(t, "500.00")}
	assert.Equal(t, "1000.00", b.PendingAmount().StringFixed(2))

	b.AmountPaid = dec(t, "1500.00")
	assert.True(t, b.PendingAmount().IsZero())

	// Overpayment is not clamped
	b.AmountPaid = dec(t, "1600.00")
	assert.Equal(t, "-100.00", b.PendingAmount().StringFixed(2))
}

func TestBillingBalanceLabel(t *testing.T) {
	b := Billing{TotalAmount: dec(t, "1500.00"), AmountPaid: dec(t, "500.00")}
	assert.Equal(t, "due:1000.00", b.BalanceLabel())

	b.AmountPaid = b.TotalAmount
	assert.Equal(t, "settled", b.BalanceLabel())

	b.AmountPaid = dec(t, "2000.00")
	assert.Equal(t, "settled", b.BalanceLabel())
}

func TestBillingDerivePaymentStatus(t *testing.T) {
	b := Billing{TotalAmount: dec(t, "1000.00"), AmountPaid: decimal.Zero}
	assert.Equal(t, PaymentPending, b.DerivePaymentStatus())

	b.AmountPaid = dec(t, "400.00")
	assert.Equal(t, PaymentPartial, b.DerivePaymentStatus())

	b.AmountPaid = dec(t, "1000.00")
	assert.Equal(t, PaymentPaid, b.DerivePaymentStatus())

	b.AmountPaid = dec(t, "1200.00")
	assert.Equal(t, PaymentPaid, b.DerivePaymentStatus())
}

func TestBillingRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:billing_model_test?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&Patient{}, &Billing{}))

	patient := Patient{FullName: "Asha", Phone: "9999999999"}
	assert.NoError(t, db.Create(&patient).Error)

	billing := Billing{
		PatientID:   patient.ID,
		Treatments:  "Root canal,Cleaning",
		TotalAmount: dec(t, "1500.00"),
		AmountPaid:  dec(t, "500.00"),
	}
	billing.PaymentStatus = billing.DerivePaymentStatus()
	assert.NoError(t, db.Create(&billing).Error)

	var stored Billing
	assert.NoError(t, db.First(&stored, billing.ID).Error)
	assert.Equal(t, PaymentPartial, stored.PaymentStatus)
	assert.Equal(t, "1000.00", stored.PendingAmount().StringFixed(2))
}
