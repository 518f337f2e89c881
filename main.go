// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smilespace/clinic-api/config"
	"github.com/smilespace/clinic-api/endpoint"
	"github.com/smilespace/clinic-api/middleware"
	"github.com/smilespace/clinic-api/model"
	"github.com/smilespace/clinic-api/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Doctor{},
		&model.Patient{},
		&model.Appointment{},
		&model.Billing{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}

	// Audit events are persisted through the same DB handle.
	util.SetAuditLoggerDB(db)

	// Redis backs the booking-form rate limiter; the limiter fails open when
	// it is unavailable, so startup continues either way.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, rate limiting disabled: %v", err)
	}

	// GeoIP enriches audit rows with a location; optional.
	if err := util.InitGeoIP(""); err != nil {
		log.Printf("GeoIP init failed, audit entries will carry no location: %v", err)
	}
	defer util.CloseGeoIP()

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	// Create a Gin router with default middleware
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	// Public booking surface
	router.GET("/doctor", endpoint.ListDoctors)
	router.POST("/appointment", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.BookAppointment)

	// Doctor administration
	router.POST("/doctor", endpoint.CreateDoctor)
	router.GET("/doctor/:id", endpoint.GetDoctorInfo)
	router.PATCH("/doctor/:id", endpoint.UpdateDoctor)
	router.DELETE("/doctor/:id", endpoint.DeleteDoctor)

	// Appointment administration
	router.GET("/appointment", endpoint.ListAppointments)
	router.GET("/appointment/:id", endpoint.GetAppointmentInfo)
	router.PATCH("/appointment/:id", endpoint.UpdateAppointment)
	router.DELETE("/appointment/:id", endpoint.DeleteAppointment)
	router.GET("/appointment/:id/notify-link", endpoint.GetAppointmentNotifyLink)

	// Patient administration
	router.GET("/patient", endpoint.ListPatients)
	router.GET("/patient/:id", endpoint.GetPatientInfo)
	router.PATCH("/patient/:id", endpoint.UpdatePatient)
	router.DELETE("/patient/:id", endpoint.DeletePatient)

	// Billing
	router.POST("/billing", endpoint.CreateBilling)
	router.GET("/billing", endpoint.ListBillings)
	router.GET("/billing/:id", endpoint.GetBillingInfo)
	router.PATCH("/billing/:id/payment", endpoint.RecordPayment)
	router.DELETE("/billing/:id", endpoint.DeleteBilling)
	router.GET("/billing/:id/invoice", endpoint.GenerateInvoice)
	router.GET("/billing/:id/notify-link", endpoint.GetBillingNotifyLink)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
