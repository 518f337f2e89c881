package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"github.com/smilespace/clinic-api/util"
	"gorm.io/gorm"
)

type patientListQuery struct {
	Limit   int
	Offset  int
	Keyword string
	SortBy  string
	SortDir string
}

func parsePatientQueryParams(c *gin.Context) patientListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	sortBy := c.Query("sort")                       // supported values: full_name, age
	sortDir := strings.ToLower(c.Query("sort_dir")) // supported values: asc, desc
	return patientListQuery{
		Limit:   limit,
		Offset:  offset,
		Keyword: c.Query("keyword"),
		SortBy:  sortBy,
		SortDir: sortDir,
	}
}

func fetchPatients(db *gorm.DB, q patientListQuery) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64
	query := db

	// Only allow asc/desc as order direction
	orderDir := "ASC"
	if q.SortDir == "desc" {
		orderDir = "DESC"
	}

	switch q.SortBy {
	case "full_name":
		query = query.Order(fmt.Sprintf("patients.full_name %s", orderDir))
	case "age":
		query = query.Order(fmt.Sprintf("patients.age %s", orderDir))
	default:
		query = query.Order("patients.created_at DESC")
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Keyword != "" {
		kw := "%" + q.Keyword + "%"
		query = query.Where("full_name LIKE ? OR phone LIKE ?", kw, kw)
	}

	if err := query.Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	db.Model(&model.Patient{}).Count(&total)
	return patients, total, nil
}

// ListPatients godoc
// @Summary      List all patients
// @Description  Get a paginated list of patients with optional filtering
// @Tags         Patient
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for patient name or phone"
// @Param        sort query string false "Optional sort field: full_name|age"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	q := parsePatientQueryParams(c)

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	patients, total, err := fetchPatients(db, q)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(patients), "patients": patients},
	})
}

func getPatientByID(c *gin.Context, db *gorm.DB) (model.Patient, error) {
	id := c.Param("id")
	if id == "" {
		err := fmt.Errorf("patient ID is required")
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing patient ID", Err: err})
		return model.Patient{}, err
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return model.Patient{}, err
	}
	return patient, nil
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Tags         Patient
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update an existing patient's information
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [patch]
func UpdatePatient(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	req := model.UpdatePatientRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	// Merge provided fields into the existing record.
	if req.FullName != "" {
		patient.FullName = util.NormalizeName(req.FullName)
	}
	if req.Phone != "" {
		phone := strings.TrimSpace(req.Phone)
		if phone != patient.Phone {
			var holder model.Patient
			err := db.Where("phone = ? AND id <> ?", phone, patient.ID).First(&holder).Error
			if err == nil {
				util.CallConflict(c, util.APIErrorParams{
					Msg: "Phone number already belongs to another patient",
					Err: fmt.Errorf("phone %s is taken by patient %d", phone, holder.ID),
				})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				util.CallServerError(c, util.APIErrorParams{
					Msg: "Failed to update patient",
					Err: err,
				})
				return
			}
		}
		patient.Phone = phone
	}
	if req.Age != 0 {
		patient.Age = req.Age
	}

	if err := db.Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: patient,
	})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Delete a patient together with their appointments and billings
// @Tags         Patient
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [delete]
func DeletePatient(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	// The patient owns its appointments and billings; removing the patient
	// removes the dependent rows in the same transaction. The rows are
	// removed for real, not soft-deleted: the phone number carries a unique
	// index and must be free to back a new patient record later.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("patient_id = ?", patient.ID).Delete(&model.Appointment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("patient_id = ?", patient.ID).Delete(&model.Billing{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&patient).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientDeleted,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Patient %d deleted with dependent records", patient.ID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient deleted",
	})
}
