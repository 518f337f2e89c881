package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/smilespace/clinic-api/model"
	"github.com/stretchr/testify/assert"
)

func TestListPatientsKeywordFilter(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "Asha Patel", "9999999999")
	createTestPatient(t, db, "Rohan Mehta", "8888888888")

	w := performRequest(t, r, http.MethodGet, "/patient?keyword=Asha", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_fetched"])

	// Phone matches too
	w = performRequest(t, r, http.MethodGet, "/patient?keyword=8888", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = parseResponse(t, w)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_fetched"])
}

func TestListPatientsSortByName(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "Charlie", "1111111111")
	createTestPatient(t, db, "Alice", "2222222222")
	createTestPatient(t, db, "Bob", "3333333333")

	w := performRequest(t, r, http.MethodGet, "/patient?sort=full_name&sort_dir=asc", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	rows := resp["data"].(map[string]interface{})["patients"].([]interface{})
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.(map[string]interface{})["full_name"].(string))
	}
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names)
}

func TestUpdatePatientMergesFields(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db, "Asha", "9999999999")

	w := performRequest(t, r, http.MethodPatch, fmt.Sprintf("/patient/%d", patient.ID),
		map[string]interface{}{"age": 31})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated model.Patient
	assert.NoError(t, db.First(&updated, patient.ID).Error)
	assert.Equal(t, 31, updated.Age)
	// Untouched fields keep their values
	assert.Equal(t, "Asha", updated.FullName)
	assert.Equal(t, "9999999999", updated.Phone)
}

func TestUpdatePatientPhoneConflict(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db, "Asha", "9999999999")
	createTestPatient(t, db, "Ravi", "8888888888")

	// Taking another patient's phone is a conflict, not a server error.
	w := performRequest(t, r, http.MethodPatch, fmt.Sprintf("/patient/%d", patient.ID),
		map[string]interface{}{"phone": "8888888888"})
	assert.Equal(t, http.StatusConflict, w.Code)

	var unchanged model.Patient
	assert.NoError(t, db.First(&unchanged, patient.ID).Error)
	assert.Equal(t, "9999999999", unchanged.Phone)

	// Re-submitting the patient's own phone is not a conflict.
	w = performRequest(t, r, http.MethodPatch, fmt.Sprintf("/patient/%d", patient.ID),
		map[string]interface{}{"phone": "9999999999"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeletePatientCascades(t *testing.T) {
	r, db := setupEndpointTest(t)
	doctor := createTestDoctor(t, db, "Meera Shah", "Orthodontist")

	w := performRequest(t, r, http.MethodPost, "/appointment", bookingPayload(doctor.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	var patient model.Patient
	assert.NoError(t, db.First(&patient).Error)
	createTestBilling(t, db, patient.ID, "Cleaning", "300.00", "0")

	w = performRequest(t, r, http.MethodDelete, fmt.Sprintf("/patient/%d", patient.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var patientCount, appointmentCount, billingCount int64
	db.Model(&model.Patient{}).Count(&patientCount)
	db.Model(&model.Appointment{}).Count(&appointmentCount)
	db.Model(&model.Billing{}).Count(&billingCount)
	assert.Equal(t, int64(0), patientCount)
	assert.Equal(t, int64(0), appointmentCount)
	assert.Equal(t, int64(0), billingCount)
}

func TestGetPatientNotFound(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w := performRequest(t, r, http.MethodGet, "/patient/55", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
