package shui

import (
	"os"
	"strconv"
	"time"
)

// Config хранит параметры подключения к принтеру для встраиваемого клиента
type Config struct {
	Host       string
	Port       int
	UploadPort int
	Timeout    time.Duration
	DataDir    string
	LogLevel   string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	host := os.Getenv("SHUI_HOST")

	portStr := os.Getenv("SHUI_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		port = 8080
	}

	uploadPortStr := os.Getenv("SHUI_UPLOAD_PORT")
	uploadPort, err := strconv.Atoi(uploadPortStr)
	if err != nil || uploadPort <= 0 || uploadPort > 65535 {
		uploadPort = 80
	}

	timeoutStr := os.Getenv("SHUI_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		timeout = 4 * time.Second
	}

	dataDir := os.Getenv("SHUI_DATA_DIR")
	if dataDir == "" {
		dataDir = "./printers/shui"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Host:       host,
		Port:       port,
		UploadPort: uploadPort,
		Timeout:    timeout,
		DataDir:    dataDir,
		LogLevel:   logLevel,
	}
}
