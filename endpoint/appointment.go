package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smilespace/clinic-api/config"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"github.com/smilespace/clinic-api/util"
	"gorm.io/gorm"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var errSlotTaken = errors.New("slot_taken")

type bookAppointmentRequest struct {
	Name     string `json:"name" example:"Asha Patel"`
	Phone    string `json:"phone" example:"9999999999"`
	Date     string `json:"date" example:"2024-01-10"`
	Time     string `json:"time" example:"10:00"`
	DoctorID uint   `json:"doctor_id" example:"1"`
	Symptoms string `json:"symptoms" example:"toothache"`
}

func (r bookAppointmentRequest) validate() error {
	if r.Name == "" || r.Phone == "" || r.Date == "" || r.Time == "" || r.DoctorID == 0 {
		return fmt.Errorf("name, phone, date, time and doctor_id are required")
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("date must use the %s format", dateLayout)
	}
	if _, err := time.Parse(timeLayout, r.Time); err != nil {
		return fmt.Errorf("time must use the %s format", timeLayout)
	}
	return nil
}

// hasSlotConflict reports whether another appointment already occupies the
// (doctor, date, time) slot. excludeID skips one appointment, so an edit
// never conflicts with the record being edited. Cancelled appointments keep
// blocking their slot unless RELEASE_CANCELLED_SLOTS is set.
func hasSlotConflict(db *gorm.DB, doctorID uint, date, timeOfDay string, excludeID uint) (bool, error) {
	query := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND date = ? AND time = ?", doctorID, date, timeOfDay)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if config.LoadConfig().ReleaseCancelledSlots {
		query = query.Where("status <> ?", model.AppointmentCancelled)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveOrCreatePatient looks a patient up by phone and creates one when
// absent. An existing patient is reused as-is: the name supplied with the
// booking never overwrites the stored one (first write wins).
func resolveOrCreatePatient(tx *gorm.DB, name, phone string) (model.Patient, error) {
	var patient model.Patient
	err := tx.Where("phone = ?", phone).First(&patient).Error
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Patient{}, err
	}

	patient = model.Patient{FullName: util.NormalizeName(name), Phone: phone, Age: 0}
	if err := tx.Create(&patient).Error; err != nil {
		return model.Patient{}, err
	}
	return patient, nil
}

// BookAppointment godoc
// @Summary      Book an appointment
// @Description  Public booking form: resolves or creates the patient by phone and books the slot if free
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        request body bookAppointmentRequest true "Booking details"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment requested"
// @Failure      400 {object} util.APIResponse "Invalid request or unknown doctor"
// @Failure      409 {object} util.APIResponse "Slot already booked"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment [post]
func BookAppointment(c *gin.Context) {
	req := bookAppointmentRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if err := req.validate(); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Booking payload is empty or missing required fields",
			Err: err,
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

	var doctor model.Doctor
	if err := db.First(&doctor, req.DoctorID).Error; err != nil {
		// An unknown doctor id is a client mistake, not a server fault.
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Doctor not found",
			Err: err,
		})
		return
	}

	// Cheap pre-check so an obviously taken slot is rejected before opening
	// a transaction.
	conflict, err := hasSlotConflict(db, doctor.ID, req.Date, req.Time, 0)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to check slot availability",
			Err: err,
		})
		return
	}

	var appointment model.Appointment
	if !conflict {
		err = db.Transaction(func(tx *gorm.DB) error {
			// Re-check inside the transaction so two concurrent bookings for
			// the same slot cannot both pass and both insert.
			conflictNow, err := hasSlotConflict(tx, doctor.ID, req.Date, req.Time, 0)
			if err != nil {
				return err
			}
			if conflictNow {
				return errSlotTaken
			}

			patient, err := resolveOrCreatePatient(tx, req.Name, req.Phone)
			if err != nil {
				return err
			}

			appointment = model.Appointment{
				PatientID: patient.ID,
				DoctorID:  doctor.ID,
				Date:      req.Date,
				Time:      req.Time,
				Symptoms:  req.Symptoms,
				Status:    model.AppointmentPending,
			}
			return tx.Create(&appointment).Error
		})
	}

	if conflict || errors.Is(err, errSlotTaken) {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventBookingRejected,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("Slot taken: doctor %d on %s at %s", doctor.ID, req.Date, req.Time),
		})
		util.CallConflict(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Sorry, Dr. %s is already booked at %s on %s. Please choose another time.", doctor.FullName, req.Time, req.Date),
			Err: errSlotTaken,
			Data: map[string]interface{}{
				"doctor_name": doctor.FullName,
				"date":        req.Date,
				"time":        req.Time,
			},
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to book appointment",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventBookingCreated,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Appointment %d booked with doctor %d on %s at %s", appointment.ID, doctor.ID, req.Date, req.Time),
		Details: map[string]interface{}{
			"appointment_id": appointment.ID,
			"doctor_id":      doctor.ID,
			"date":           req.Date,
			"time":           req.Time,
		},
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Request sent! We will confirm your appointment shortly.",
		Data: appointment,
	})
}

func fetchAppointments(db *gorm.DB, limit, offset int, status, date string, doctorID uint) ([]model.ListAppointmentResponse, int64, error) {
	var appointments []model.ListAppointmentResponse
	var total int64

	query := db.Table("appointments").
		Joins("LEFT JOIN patients ON patients.id = appointments.patient_id").
		Joins("LEFT JOIN doctors ON doctors.id = appointments.doctor_id").
		Select("appointments.*, patients.full_name as patient_name, patients.phone as patient_phone, doctors.full_name as doctor_name").
		Where("appointments.deleted_at IS NULL").
		Order("appointments.date DESC, appointments.time DESC")
	if status != "" {
		query = query.Where("appointments.status = ?", status)
	}
	if date != "" {
		query = query.Where("appointments.date = ?", date)
	}
	if doctorID != 0 {
		query = query.Where("appointments.doctor_id = ?", doctorID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&appointments).Error; err != nil {
		return nil, 0, err
	}

	countQuery := db.Model(&model.Appointment{})
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
	}
	if date != "" {
		countQuery = countQuery.Where("date = ?", date)
	}
	if doctorID != 0 {
		countQuery = countQuery.Where("doctor_id = ?", doctorID)
	}
	countQuery.Count(&total)

	return appointments, total, nil
}

// ListAppointments godoc
// @Summary      List appointments
// @Description  Get appointments joined with patient and doctor names, with optional status/date/doctor filters
// @Tags         Appointment
// @Produce      json
// @Param        status query string false "Filter by status (pending|confirmed|completed|cancelled)"
// @Param        date query string false "Filter by date (2006-01-02)"
// @Param        doctor_id query int false "Filter by doctor"
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Success      200 {object} util.APIResponse{data=object} "Appointments retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment [get]
func ListAppointments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	doctorID, _ := strconv.ParseUint(c.Query("doctor_id"), 10, 32)
	status := c.Query("status")
	date := c.Query("date")

	if status != "" && !util.Contains(status, model.AppointmentStatuses) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown appointment status",
			Err: fmt.Errorf("invalid status: %s", status),
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

	appointments, total, err := fetchAppointments(db, limit, offset, status, date, uint(doctorID))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve appointments",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(appointments), "appointments": appointments},
	})
}

func getAppointmentByID(c *gin.Context, db *gorm.DB) (model.Appointment, error) {
	id := c.Param("id")
	if id == "" {
		err := fmt.Errorf("appointment ID is required")
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing appointment ID", Err: err})
		return model.Appointment{}, err
	}

	var appointment model.Appointment
	if err := db.First(&appointment, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Appointment not found",
			Err: err,
		})
		return model.Appointment{}, err
	}
	return appointment, nil
}

// GetAppointmentInfo godoc
// @Summary      Get appointment information
// @Tags         Appointment
// @Produce      json
// @Param        id path string true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment retrieved"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointment/{id} [get]
func GetAppointmentInfo(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	appointment, err := getAppointmentByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment retrieved",
		Data: appointment,
	})
}

// UpdateAppointment godoc
// @Summary      Update an appointment
// @Description  Reschedule an appointment or transition its status. Rescheduling re-runs the slot conflict check with the appointment's own id excluded.
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path string true "Appointment ID"
// @Param        request body model.UpdateAppointmentRequest true "Updated appointment fields"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Slot already booked"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/{id} [patch]
func UpdateAppointment(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	appointment, err := getAppointmentByID(c, db)
	if err != nil {
		return
	}

	req := model.UpdateAppointmentRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	if req.Status != "" && !util.Contains(req.Status, model.AppointmentStatuses) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown appointment status",
			Err: fmt.Errorf("invalid status: %s", req.Status),
		})
		return
	}
	if req.Date != "" {
		if _, err := time.Parse(dateLayout, req.Date); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid date",
				Err: err,
			})
			return
		}
	}
	if req.Time != "" {
		if _, err := time.Parse(timeLayout, req.Time); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid time",
				Err: err,
			})
			return
		}
	}

	if req.DoctorID != 0 {
		var doctor model.Doctor
		if err := db.First(&doctor, req.DoctorID).Error; err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Doctor not found",
				Err: err,
			})
			return
		}
		appointment.DoctorID = req.DoctorID
	}
	if req.Date != "" {
		appointment.Date = req.Date
	}
	if req.Time != "" {
		appointment.Time = req.Time
	}
	if req.Symptoms != "" {
		appointment.Symptoms = req.Symptoms
	}
	if req.Status != "" {
		appointment.Status = req.Status
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		conflict, err := hasSlotConflict(tx, appointment.DoctorID, appointment.Date, appointment.Time, appointment.ID)
		if err != nil {
			return err
		}
		if conflict {
			return errSlotTaken
		}
		return tx.Save(&appointment).Error
	})
	if errors.Is(err, errSlotTaken) {
		util.CallConflict(c, util.APIErrorParams{
			Msg: fmt.Sprintf("That slot is already booked at %s on %s.", appointment.Time, appointment.Date),
			Err: errSlotTaken,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update appointment",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment updated",
		Data: appointment,
	})
}

// DeleteAppointment godoc
// @Summary      Delete an appointment
// @Tags         Appointment
// @Produce      json
// @Param        id path string true "Appointment ID"
// @Success      200 {object} util.APIResponse "Appointment deleted"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointment/{id} [delete]
func DeleteAppointment(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	appointment, err := getAppointmentByID(c, db)
	if err != nil {
		return
	}

	if err := db.Delete(&appointment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete appointment",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Appointment deleted",
	})
}

// GetAppointmentNotifyLink godoc
// @Summary      Build a WhatsApp confirmation link for an appointment
// @Tags         Appointment
// @Produce      json
// @Param        id path string true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=object} "Link built"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Router       /appointment/{id}/notify-link [get]
func GetAppointmentNotifyLink(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	appointment, err := getAppointmentByID(c, db)
	if err != nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, appointment.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
		return
	}
	var doctor model.Doctor
	if err := db.First(&doctor, appointment.DoctorID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
		return
	}

	cfg := config.LoadConfig()
	message := util.AppointmentConfirmationMessage(
		patient.FullName, doctor.FullName, appointment.Date, appointment.Time,
		cfg.ClinicName, cfg.ClinicCity,
	)
	link := util.BuildWhatsAppLink(cfg.CountryCode, patient.Phone, message)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Notification link built",
		Data: map[string]interface{}{"url": link},
	})
}
