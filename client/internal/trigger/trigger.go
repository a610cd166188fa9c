package trigger

import (
	"sync"
	"time"

	"github.com/Krimson/guardian/client/internal/detector"
)

// State представляет состояние контроллера отправки
type State int

const (
	// StateIdle означает, что отсчет не идет
	StateIdle State = iota
	// StateCountdown означает, что идет отсчет перед автоотправкой
	StateCountdown
)

// Reason описывает причину отправки алерта
type Reason string

const (
	ReasonAuto   Reason = "auto"
	ReasonManual Reason = "manual"
)

// Config задает параметры контроллера отправки
type Config struct {
	// Число тиков отсчета перед автоотправкой
	CountdownTicks int

	// Интервал между тиками
	TickInterval time.Duration

	// Кулдаун автоотправки после любой отправки
	AutoCooldown time.Duration

	// Кулдаун ручной отправки после любой отправки
	ManualCooldown time.Duration

	// Колбэк отправки; score == nil для ручной отправки
	Send func(reason Reason, score *detector.Score)

	// Опциональный колбэк тика отсчета (сколько тиков осталось)
	OnTick func(remaining int)

	// Источник времени (для тестов)
	Now func() time.Time
}

// DefaultConfig возвращает конфигурацию контроллера по умолчанию
func DefaultConfig() Config {
	return Config{
		CountdownTicks: 3,
		TickInterval:   time.Second,
		AutoCooldown:   4 * time.Second,
		ManualCooldown: 5 * time.Second,
	}
}

// Controller управляет окном отмены и дебаунсом отправки алертов.
// Детектор сообщает о падении, контроллер запускает отсчет; пользователь
// может отменить отсчет или отправить алерт вручную. Обе ветки делят
// одну метку времени последней отправки.
type Controller struct {
	cfg Config

	mu           sync.Mutex
	state        State
	lastSentAt   time.Time
	hasSent      bool
	cancelCh     chan struct{}
	pendingScore *detector.Score
}

// New создает контроллер; нулевые поля конфигурации заполняются дефолтами
func New(cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.CountdownTicks <= 0 {
		cfg.CountdownTicks = def.CountdownTicks
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.AutoCooldown <= 0 {
		cfg.AutoCooldown = def.AutoCooldown
	}
	if cfg.ManualCooldown <= 0 {
		cfg.ManualCooldown = def.ManualCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{cfg: cfg}
}

// State возвращает текущее состояние контроллера
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnFall запускает отсчет автоотправки. Повторный вызов во время
// активного отсчета или внутри кулдауна игнорируется: отсчет не
// перезапускается и не укорачивается.
func (c *Controller) OnFall(score detector.Score) bool {
	c.mu.Lock()
	if c.state == StateCountdown {
		c.mu.Unlock()
		return false
	}
	if c.hasSent && c.cfg.Now().Sub(c.lastSentAt) < c.cfg.AutoCooldown {
		c.mu.Unlock()
		return false
	}

	c.state = StateCountdown
	sc := score
	c.pendingScore = &sc
	cancel := make(chan struct{})
	c.cancelCh = cancel
	c.mu.Unlock()

	go c.runCountdown(cancel)
	return true
}

// Cancel прерывает активный отсчет. Возвращает false, если отсчет не шел.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCountdown {
		return false
	}
	close(c.cancelCh)
	c.cancelCh = nil
	c.pendingScore = nil
	c.state = StateIdle
	return true
}

// Manual отправляет алерт немедленно, минуя отсчет; активный отсчет
// прерывается. Возвращает false внутри кулдауна ручной отправки.
func (c *Controller) Manual() bool {
	c.mu.Lock()
	now := c.cfg.Now()
	if c.hasSent && now.Sub(c.lastSentAt) < c.cfg.ManualCooldown {
		c.mu.Unlock()
		return false
	}
	if c.state == StateCountdown {
		close(c.cancelCh)
		c.cancelCh = nil
		c.pendingScore = nil
	}
	c.state = StateIdle
	c.lastSentAt = now
	c.hasSent = true
	send := c.cfg.Send
	c.mu.Unlock()

	if send != nil {
		send(ReasonManual, nil)
	}
	return true
}

func (c *Controller) runCountdown(cancel chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	remaining := c.cfg.CountdownTicks
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			remaining--
			if c.cfg.OnTick != nil {
				c.cfg.OnTick(remaining)
			}
			if remaining <= 0 {
				c.finishCountdown(cancel)
				return
			}
		}
	}
}

// finishCountdown завершает отсчет и отправляет алерт, если отсчет
// не был прерван конкурентно
func (c *Controller) finishCountdown(cancel chan struct{}) {
	c.mu.Lock()
	if c.state != StateCountdown || c.cancelCh != cancel {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.cancelCh = nil
	c.lastSentAt = c.cfg.Now()
	c.hasSent = true
	score := c.pendingScore
	c.pendingScore = nil
	send := c.cfg.Send
	c.mu.Unlock()

	if send != nil {
		send(ReasonAuto, score)
	}
}
