package util

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildWhatsAppLink returns a wa.me deep link that opens a chat with the
// given phone number and the message pre-filled. A leading "+" marks the
// number as already internationally qualified; bare national numbers (ten
// digits or fewer) get countryCode prepended. Matching on the country-code
// digits alone is not enough: a national number may start with them.
func BuildWhatsAppLink(countryCode, phone, message string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "+"):
		phone = strings.TrimPrefix(phone, "+")
	case len(phone) <= 10:
		phone = countryCode + phone
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}

// AppointmentConfirmationMessage renders the confirmation text sent to a
// patient once an admin confirms the appointment.
func AppointmentConfirmationMessage(patientName, doctorName, date, timeOfDay, clinicName, clinicCity string) string {
	return fmt.Sprintf(
		"Hello %s, \nYour appointment is CONFIRMED!\n\nDr. %s\n%s at %s\n%s, %s",
		patientName, doctorName, date, timeOfDay, clinicName, clinicCity,
	)
}

// BillingSummaryMessage renders the billing summary text with a link to the
// PDF invoice. The closing line flags any outstanding balance.
func BillingSummaryMessage(patientName, total, paid, pending string, pendingDue bool, invoiceURL, clinicName string) string {
	statusText := "*Fully Paid*"
	if pendingDue {
		statusText = fmt.Sprintf("*Payment Pending: Rs.%s*", pending)
	}
	return fmt.Sprintf(
		"*INVOICE: %s*\n\nHello %s, \nHere is your billing summary:\n*View PDF:* %s\n\nTotal: Rs.%s\nPaid: Rs.%s\n%s",
		clinicName, patientName, invoiceURL, total, paid, statusText,
	)
}
