package config

import (
	"flag"
	"fmt"
	"time"
)

type Config struct {
	Simulator SimulatorConfig
	Detector  DetectorConfig
	Server    ServerConfig
}

type SimulatorConfig struct {
	Duration   time.Duration
	SampleRate time.Duration

	// Момент запуска сценария падения; при нуле падение не моделируется
	FallAfter time.Duration

	// Ручная отправка SOS вместо сценария падения
	Manual bool
}

type DetectorConfig struct {
	WindowSize       int
	Step             int
	TriggerThreshold float64
	Cooldown         time.Duration
}

type ServerConfig struct {
	BaseURL   string
	UserID    string
	Latitude  float64
	Longitude float64
}

func Load() (*Config, error) {
	var cfg Config

	// Параметры командной строки
	serverURL := flag.String("server", "http://localhost:8080", "Адрес backend сервера")
	userID := flag.String("user", "", "Идентификатор пользователя")
	duration := flag.String("duration", "60s", "Длительность работы")
	sampleRate := flag.String("rate", "50ms", "Частота дискретизации акселерометра")
	fallAfter := flag.String("fall-after", "5s", "Момент запуска сценария падения (0 — без падения)")
	manual := flag.Bool("manual", false, "Ручная отправка SOS вместо сценария падения")
	lat := flag.Float64("lat", 55.7558, "Широта устройства")
	lon := flag.Float64("lon", 37.6173, "Долгота устройства")

	flag.Parse()

	if *userID == "" {
		return nil, fmt.Errorf("user ID is required (-user)")
	}

	dur, err := time.ParseDuration(*duration)
	if err != nil {
		return nil, err
	}

	rate, err := time.ParseDuration(*sampleRate)
	if err != nil {
		return nil, err
	}

	fall, err := time.ParseDuration(*fallAfter)
	if err != nil {
		return nil, err
	}

	cfg.Simulator = SimulatorConfig{
		Duration:   dur,
		SampleRate: rate,
		FallAfter:  fall,
		Manual:     *manual,
	}

	cfg.Detector = DetectorConfig{
		WindowSize:       20,
		Step:             4,
		TriggerThreshold: 0.30,
		Cooldown:         4 * time.Second,
	}

	cfg.Server = ServerConfig{
		BaseURL:   *serverURL,
		UserID:    *userID,
		Latitude:  *lat,
		Longitude: *lon,
	}

	return &cfg, nil
}
