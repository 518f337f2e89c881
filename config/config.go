package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUser  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`

	// Redis backs the public booking rate limiter.
	RedisAddr string `json:"redisaddr"`
	RedisPass string `json:"redispass"`
	RedisDB   int    `json:"redisdb"`

	// Clinic identity used in invoices and notification messages.
	ClinicName string `json:"clinicname"`
	ClinicCity string `json:"cliniccity"`
	// CountryCode prefixes patient phone numbers in wa.me links.
	CountryCode string `json:"countrycode"`
	// InvoiceDoctorLabel is the fixed doctor line printed on invoices.
	InvoiceDoctorLabel string `json:"invoicedoctorlabel"`

	// ReleaseCancelledSlots controls whether cancelled appointments stop
	// blocking their slot. Default false: a cancelled appointment still
	// occupies the slot until an admin re-releases it.
	ReleaseCancelledSlots bool `json:"releasecancelledslots"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// Load environment variables from .env file. Missing file is fine when
		// the environment is already populated (tests, containers).
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
		releaseCancelled, _ := strconv.ParseBool(os.Getenv("RELEASE_CANCELLED_SLOTS"))
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

		config = &Config{
			AppName:               os.Getenv("APPNAME"),
			AppEnv:                os.Getenv("APPENV"),
			AppPort:               uint16(appPort),
			GinMode:               os.Getenv("GINMODE"),
			DBHost:                os.Getenv("DBHOST"),
			DBPort:                uint16(dbPort),
			DBName:                os.Getenv("DBNAME"),
			DBUser:                os.Getenv("DBUSER"),
			DBPass:                os.Getenv("DBPASS"),
			RedisAddr:             getEnvDefault("REDIS_ADDR", "localhost:6379"),
			RedisPass:             os.Getenv("REDIS_PASS"),
			RedisDB:               redisDB,
			ClinicName:            getEnvDefault("CLINIC_NAME", "The Smile Space"),
			ClinicCity:            getEnvDefault("CLINIC_CITY", "Mumbai"),
			CountryCode:           getEnvDefault("COUNTRY_CODE", "91"),
			InvoiceDoctorLabel:    getEnvDefault("INVOICE_DOCTOR_LABEL", "Dr. Uncle (Senior Orthodontist)"),
			ReleaseCancelledSlots: releaseCancelled,
		}
	})
	return config
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ReloadConfigForTesting resets the singleton so tests can exercise
// different environment combinations. This should only be used in tests.
func ReloadConfigForTesting() {
	config = nil
	once = sync.Once{}
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// Open a database connection.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
