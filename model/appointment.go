package model

import "gorm.io/gorm"

// Appointment status lifecycle. New bookings always start as pending and
// move to the other states through administrative updates.
const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// AppointmentStatuses lists every valid appointment status.
var AppointmentStatuses = []string{
	AppointmentPending,
	AppointmentConfirmed,
	AppointmentCompleted,
	AppointmentCancelled,
}

// Appointment represents one booked slot: a (doctor, date, time) triple tied
// to a patient. Date uses 2006-01-02, Time uses 15:04.
type Appointment struct {
	gorm.Model
	PatientID uint   `json:"patient_id" gorm:"column:patient_id;not null;index"`
	DoctorID  uint   `json:"doctor_id" gorm:"column:doctor_id;not null;index:idx_doctor_slot"`
	Date      string `json:"date" gorm:"column:date;size:10;index:idx_doctor_slot" example:"2024-01-10"`
	Time      string `json:"time" gorm:"column:time;size:5;index:idx_doctor_slot" example:"10:00"`
	Symptoms  string `json:"symptoms" gorm:"column:symptoms;type:text" example:"toothache"`
	Status    string `json:"status" gorm:"column:status;size:20;default:pending" example:"pending"`
}

// UpdateAppointmentRequest carries the editable appointment fields for PATCH
// requests. Zero values mean "leave unchanged".
type UpdateAppointmentRequest struct {
	DoctorID uint   `json:"doctor_id,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Symptoms string `json:"symptoms,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ListAppointmentResponse is an appointment row joined with the patient and
// doctor names for admin listings.
type ListAppointmentResponse struct {
	Appointment
	PatientName  string `json:"patient_name" gorm:"column:patient_name"`
	PatientPhone string `json:"patient_phone" gorm:"column:patient_phone"`
	DoctorName   string `json:"doctor_name" gorm:"column:doctor_name"`
}
