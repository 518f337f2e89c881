package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Billing payment status values.
const (
	PaymentPaid    = "paid"
	PaymentPartial = "partial"
	PaymentPending = "pending"
)

// Billing represents a bill issued to a patient. Treatments holds a
// comma-joined list of treatment descriptions. Amounts are stored as
// decimal(10,2); the pending balance is always derived, never persisted.
type Billing struct {
	gorm.Model
	PatientID     uint            `json:"patient_id" gorm:"column:patient_id;not null;index"`
	Treatments    string          `json:"treatments" gorm:"column:treatments;type:text" example:"Root canal,Cleaning"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"column:total_amount;type:decimal(10,2)"`
	AmountPaid    decimal.Decimal `json:"amount_paid" gorm:"column:amount_paid;type:decimal(10,2);default:0"`
	PaymentStatus string          `json:"payment_status" gorm:"column:payment_status;size:20;default:pending"`
}

// PendingAmount returns total minus paid. Overpayment is not clamped, so the
// result can be negative; callers decide how to display that.
func (b Billing) PendingAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.AmountPaid)
}

// BalanceLabel renders the pending balance for display: "settled" once
// nothing (or less than nothing) remains due, otherwise "due:<amount>".
func (b Billing) BalanceLabel() string {
	pending := b.PendingAmount()
	if pending.Sign() <= 0 {
		return "settled"
	}
	return "due:" + pending.StringFixed(2)
}

// DerivePaymentStatus recomputes the payment status from the amounts.
func (b Billing) DerivePaymentStatus() string {
	switch {
	case b.AmountPaid.Cmp(b.TotalAmount) >= 0:
		return PaymentPaid
	case b.AmountPaid.Sign() > 0:
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// ListBillingResponse is a billing row joined with the patient name and the
// derived balance columns for admin listings.
type ListBillingResponse struct {
	Billing
	PatientName   string          `json:"patient_name" gorm:"column:patient_name"`
	PatientPhone  string          `json:"patient_phone" gorm:"column:patient_phone"`
	PendingAmount decimal.Decimal `json:"pending_amount" gorm:"-"`
	BalanceLabel  string          `json:"balance_label" gorm:"-"`
}
