package model

import "gorm.io/gorm"

// Patient represents a patient entity. Phone is the natural key used to
// deduplicate patients created through the public booking form.
type Patient struct {
	gorm.Model
	FullName string `json:"full_name" gorm:"column:full_name" example:"Asha Patel"`
	Phone    string `json:"phone" gorm:"column:phone;size:15;uniqueIndex" example:"9999999999"`
	Age      int    `json:"age" gorm:"column:age" example:"30"`
}

// UpdatePatientRequest carries the editable patient fields for PATCH requests.
type UpdatePatientRequest struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Age      int    `json:"age,omitempty"`
}
