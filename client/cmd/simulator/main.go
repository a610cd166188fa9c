package main

import (
	"log"

	"github.com/Krimson/guardian/client/internal/config"
	"github.com/Krimson/guardian/client/internal/generators"
	"github.com/Krimson/guardian/client/internal/senders"
	"github.com/Krimson/guardian/client/internal/simulator"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация компонентов
	gen := generators.NewAccelGenerator(generators.DefaultAccelConfig())
	sender := senders.NewHTTPSender(cfg.Server.BaseURL)
	if err := sender.Validate(); err != nil {
		log.Fatalf("Ошибка инициализации отправителя: %v", err)
	}

	// Создание и запуск симулятора
	sim := simulator.New(gen, sender, cfg)
	if err := sim.Run(); err != nil {
		log.Fatalf("Ошибка работы симулятора: %v", err)
	}
}
