package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort string
	GinMode    string
	Printer    PrinterConfig
	Kafka      KafkaConfig
	Database   DatabaseConfig
	Logging    LoggerConfig
}

// PrinterConfig содержит параметры подключения к принтеру
type PrinterConfig struct {
	Host          string
	Port          int
	UploadPort    int
	Timeout       time.Duration
	DataDir       string
	UploadTimeout time.Duration
}

// KafkaConfig содержит настройки публикации в Kafka
type KafkaConfig struct {
	Enable bool
	Broker string
	Topic  string
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// DatabaseConfig содержит конфигурацию для подключения к базе данных
type DatabaseConfig struct {
	Enable   bool
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort: getEnv("APP_PORT", "8082"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		Printer: PrinterConfig{
			Host:          getEnv("PRINTER_HOST", "192.168.1.179"),
			Port:          getEnvAsInt("PRINTER_PORT", 8080),
			UploadPort:    getEnvAsInt("PRINTER_UPLOAD_PORT", 80),
			Timeout:       time.Duration(getEnvAsInt("PRINTER_TIMEOUT_SEC", 4)) * time.Second,
			DataDir:       getEnv("PRINTER_DATA_DIR", "./printers/shui"),
			UploadTimeout: time.Duration(getEnvAsInt("UPLOAD_TIMEOUT_SEC", 120)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enable: getEnvAsBool("KAFKA_ENABLE", false),
			Broker: getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:  getEnv("KAFKA_TOPIC", "shui_state"),
		},
		Database: DatabaseConfig{
			Enable:   getEnvAsBool("DB_ENABLE", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "shui_db"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "INFO"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
