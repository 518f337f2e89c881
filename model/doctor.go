package model

import "gorm.io/gorm"

// Doctor represents a doctor entity
// @Description Doctor information shown on the public booking page
type Doctor struct {
	gorm.Model
	FullName       string `json:"full_name" gorm:"column:full_name" example:"Dr. Meera Shah"`
	Specialization string `json:"specialization" gorm:"column:specialization" example:"Orthodontist"`
	Bio            string `json:"bio" gorm:"column:bio;type:text" example:"15 years of practice"`
	PhotoURL       string `json:"photo_url" gorm:"column:photo_url" example:"https://cdn.example.com/doctors/meera.jpg"`
}

// UpdateDoctorRequest carries the editable doctor fields for PATCH requests.
type UpdateDoctorRequest struct {
	FullName       string `json:"full_name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Bio            string `json:"bio,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`
}
