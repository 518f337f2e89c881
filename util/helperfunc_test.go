package util

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Asha Patel", NormalizeName("  Asha   Patel "))
	assert.Equal(t, "Asha", NormalizeName("Asha"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestContains(t *testing.T) {
	statuses := []string{"pending", "confirmed"}
	assert.True(t, Contains("pending", statuses))
	assert.False(t, Contains("cancelled", statuses))
}

func TestCallConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	CallConflict(c, APIErrorParams{
		Msg:  "Slot already booked",
		Err:  fmt.Errorf("slot_taken"),
		Data: map[string]interface{}{"time": "10:00"},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"slot_taken"`)
	assert.Contains(t, w.Body.String(), `"10:00"`)
}

func TestCallSuccessOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	CallSuccessOK(c, APISuccessParams{Msg: "ok", Data: map[string]interface{}{"x": 1}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}
