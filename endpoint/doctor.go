package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"github.com/smilespace/clinic-api/util"
	"gorm.io/gorm"
)

// rosterCache keeps the public doctor roster in memory; any doctor write
// invalidates it.
var rosterCache = cache.New(5*time.Minute, 10*time.Minute)

const rosterCacheKey = "doctor_roster"

func invalidateRosterCache() {
	rosterCache.Delete(rosterCacheKey)
}

type createDoctorRequest struct {
	FullName       string `json:"full_name" example:"Dr. Meera Shah"`
	Specialization string `json:"specialization" example:"Orthodontist"`
	Bio            string `json:"bio,omitempty" example:"15 years of practice"`
	PhotoURL       string `json:"photo_url,omitempty"`
}

// CreateDoctor godoc
// @Summary      Create a new doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        request body createDoctorRequest true "Doctor information"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor [post]
func CreateDoctor(c *gin.Context) {
	req := createDoctorRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if req.FullName == "" || req.Specialization == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Doctor payload is empty or missing required fields",
			Err: fmt.Errorf("full_name and specialization are required"),
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

	doctor := model.Doctor{
		FullName:       util.NormalizeName(req.FullName),
		Specialization: req.Specialization,
		Bio:            req.Bio,
		PhotoURL:       req.PhotoURL,
	}
	if err := db.Create(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create doctor",
			Err: err,
		})
		return
	}
	invalidateRosterCache()

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor created",
		Data: doctor,
	})
}

// ListDoctors godoc
// @Summary      List all doctors
// @Description  Public roster shown on the booking page; served from an in-memory cache when no filter is given
// @Tags         Doctor
// @Produce      json
// @Param        specialization query string false "Filter by specialization"
// @Success      200 {object} util.APIResponse{data=object} "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor [get]
func ListDoctors(c *gin.Context) {
	specialization := c.Query("specialization")

	if specialization == "" {
		if v, ok := rosterCache.Get(rosterCacheKey); ok {
			if doctors, ok := v.([]model.Doctor); ok {
				util.CallSuccessOK(c, util.APISuccessParams{
					Msg:  "Doctors retrieved",
					Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
				})
				return
			}
		}
	}

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	var doctors []model.Doctor
	query := db.Order("full_name ASC")
	if specialization != "" {
		query = query.Where("specialization = ?", specialization)
	}
	if err := query.Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve doctors",
			Err: err,
		})
		return
	}

	if specialization == "" {
		rosterCache.Set(rosterCacheKey, doctors, cache.DefaultExpiration)
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

func getDoctorByID(c *gin.Context, db *gorm.DB) (model.Doctor, error) {
	id := c.Param("id")
	if id == "" {
		err := fmt.Errorf("doctor ID is required")
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing doctor ID", Err: err})
		return model.Doctor{}, err
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Doctor not found",
			Err: err,
		})
		return model.Doctor{}, err
	}
	return doctor, nil
}

// GetDoctorInfo godoc
// @Summary      Get doctor information
// @Tags         Doctor
// @Produce      json
// @Param        id path string true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctor/{id} [get]
func GetDoctorInfo(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	doctor, err := getDoctorByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor retrieved",
		Data: doctor,
	})
}

// UpdateDoctor godoc
// @Summary      Update doctor information
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        id path string true "Doctor ID"
// @Param        request body model.UpdateDoctorRequest true "Updated doctor information"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor/{id} [patch]
func UpdateDoctor(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	doctor, err := getDoctorByID(c, db)
	if err != nil {
		return
	}

	req := model.UpdateDoctorRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	if req.FullName != "" {
		doctor.FullName = util.NormalizeName(req.FullName)
	}
	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.Bio != "" {
		doctor.Bio = req.Bio
	}
	if req.PhotoURL != "" {
		doctor.PhotoURL = req.PhotoURL
	}

	if err := db.Save(&doctor).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update doctor",
			Err: err,
		})
		return
	}
	invalidateRosterCache()

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor updated",
		Data: doctor,
	})
}

// DeleteDoctor godoc
// @Summary      Delete a doctor
// @Tags         Doctor
// @Produce      json
// @Param        id path string true "Doctor ID"
// @Success      200 {object} util.APIResponse "Doctor deleted"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Router       /doctor/{id} [delete]
func DeleteDoctor(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	doctor, err := getDoctorByID(c, db)
	if err != nil {
		return
	}

	// Appointments follow their doctor; leaving them behind would keep the
	// removed doctor's slots blocked forever.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctor.ID).Delete(&model.Appointment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&doctor).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete doctor",
			Err: err,
		})
		return
	}
	invalidateRosterCache()

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Doctor deleted",
	})
}
