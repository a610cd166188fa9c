package simulator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Krimson/guardian/client/internal/config"
	"github.com/Krimson/guardian/client/internal/detector"
	"github.com/Krimson/guardian/client/internal/generators"
	"github.com/Krimson/guardian/client/internal/senders"
	"github.com/Krimson/guardian/client/internal/trigger"
)

// Simulator прогоняет сгенерированный поток акселерометра через
// детектор падений и контроллер отправки, как это делает приложение
// на реальном устройстве
type Simulator struct {
	gen    generators.AccelGenerator
	det    *detector.Detector
	ctrl   *trigger.Controller
	sender senders.AlertSender
	simCfg config.SimulatorConfig
	srvCfg config.ServerConfig
}

func New(gen generators.AccelGenerator, sender senders.AlertSender, cfg *config.Config) *Simulator {
	s := &Simulator{
		gen:    gen,
		sender: sender,
		simCfg: cfg.Simulator,
		srvCfg: cfg.Server,
	}

	s.ctrl = trigger.New(trigger.Config{
		Send: s.sendAlert,
		OnTick: func(remaining int) {
			log.Printf("Countdown: %d", remaining)
		},
	})

	s.det = detector.New(detector.Config{
		WindowSize:       cfg.Detector.WindowSize,
		Step:             cfg.Detector.Step,
		TriggerThreshold: cfg.Detector.TriggerThreshold,
		Cooldown:         cfg.Detector.Cooldown,
		OnFall: func(score detector.Score) {
			log.Printf("Fall detected: probability=%.3f freefall=%.2f impact=%.2f",
				score.Probability, score.FreefallRatio, score.ImpactRatio)
			s.ctrl.OnFall(score)
		},
	})

	return s
}

func (s *Simulator) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.simCfg.Duration)
	defer cancel()

	ticker := time.NewTicker(s.simCfg.SampleRate)
	defer ticker.Stop()

	log.Printf("Starting simulator for %v with rate %v", s.simCfg.Duration, s.simCfg.SampleRate)

	if s.simCfg.Manual {
		// Ручной SOS сразу после старта
		time.AfterFunc(time.Second, func() {
			if !s.ctrl.Manual() {
				log.Println("Manual SOS suppressed by cooldown")
			}
		})
	} else if s.simCfg.FallAfter > 0 {
		time.AfterFunc(s.simCfg.FallAfter, func() {
			log.Println("Scheduling fall scenario")
			s.gen.ScheduleFall()
		})
	}

	for {
		select {
		case <-ticker.C:
			s.det.AddSample(s.gen.NextValue())

		case <-ctx.Done():
			log.Println("Simulator stopped")
			return nil
		}
	}
}

// sendAlert отправляет алерт на backend по срабатыванию контроллера
func (s *Simulator) sendAlert(reason trigger.Reason, score *detector.Score) {
	message := "Manual SOS"
	if reason == trigger.ReasonAuto && score != nil {
		message = fmt.Sprintf("Fall detected (probability %.2f)", score.Probability)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.sender.Send(ctx, senders.AlertRequest{
		UserID: s.srvCfg.UserID,
		Location: &senders.AlertLocation{
			Latitude:  s.srvCfg.Latitude,
			Longitude: s.srvCfg.Longitude,
		},
		Message: message,
	})
	if err != nil {
		log.Printf("Alert send error: %v", err)
		return
	}

	log.Printf("Alert sent: reason=%s", reason)
}
