package main

import (
	"log"

	"github.com/f-lab-edu/commerce-core/internal/app"
	"github.com/f-lab-edu/commerce-core/internal/config"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Build собирает граф зависимостей и инициализирует все компоненты
	application, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// Run запускает сервис и блокируется до graceful shutdown
	if err := application.Run(); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}
