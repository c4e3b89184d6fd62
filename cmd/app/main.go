// @title SHUI Service API
// @version 1.0.0
// @description API для управления 3D-принтером SHUI, загрузки файлов и отправки состояния в Kafka.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/iwtcode/shuiService/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
