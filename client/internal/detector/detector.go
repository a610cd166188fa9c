package detector

import (
	"log"
	"math"
	"time"
)

// Config задает параметры детектора падений
type Config struct {
	// Размер скользящего окна (сэмплов)
	WindowSize int

	// Шаг предсказания: инференс каждые Step сэмплов
	Step int

	// Порог вероятности срабатывания
	TriggerThreshold float64

	// Минимальный интервал между срабатываниями
	Cooldown time.Duration

	// Отключить проверку последовательности freefall→impact
	DisableSequenceGate bool

	// Минимальные доли freefall и impact сэмплов для прохождения гейта
	GateFloor float64

	// Сколько последних сэмплов оставить в буфере после срабатывания
	KeepAfterTrigger int

	// Пороги модели
	Model ModelConfig

	// Колбэк срабатывания; паника внутри не роняет цикл сэмплирования
	OnFall func(Score)

	// Источник времени (для тестов)
	Now func() time.Time
}

// DefaultConfig возвращает конфигурацию детектора по умолчанию
func DefaultConfig() Config {
	return Config{
		WindowSize:       20,
		Step:             4,
		TriggerThreshold: 0.30,
		Cooldown:         4 * time.Second,
		GateFloor:        0.02,
		KeepAfterTrigger: 10,
		Model:            DefaultModelConfig(),
	}
}

// Detector накапливает сэмплы акселерометра в скользящем окне и
// запускает предсказание каждые Step сэмплов. Не потокобезопасен:
// сэмплы подаются из одной горутины цикла сэмплирования.
type Detector struct {
	cfg                Config
	buffer             []Sample
	sinceLastPredict   int
	lastTriggeredAt    time.Time
	hasTriggeredBefore bool
}

// New создает детектор; нулевые поля конфигурации заполняются дефолтами
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	if cfg.TriggerThreshold <= 0 {
		cfg.TriggerThreshold = def.TriggerThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.GateFloor <= 0 {
		cfg.GateFloor = def.GateFloor
	}
	if cfg.KeepAfterTrigger <= 0 {
		cfg.KeepAfterTrigger = def.KeepAfterTrigger
	}
	if cfg.Model == (ModelConfig{}) {
		cfg.Model = def.Model
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Detector{
		cfg:    cfg,
		buffer: make([]Sample, 0, cfg.WindowSize),
	}
}

// AddSample добавляет сэмпл в окно и при необходимости запускает предсказание
func (d *Detector) AddSample(s Sample) {
	d.buffer = append(d.buffer, s)
	if len(d.buffer) > d.cfg.WindowSize {
		d.buffer = d.buffer[1:]
	}

	d.sinceLastPredict++
	if d.sinceLastPredict >= d.cfg.Step {
		d.sinceLastPredict = 0
		d.predict()
	}
}

// Reset очищает буфер и состояние кулдауна
func (d *Detector) Reset() {
	d.buffer = d.buffer[:0]
	d.sinceLastPredict = 0
	d.hasTriggeredBefore = false
	d.lastTriggeredAt = time.Time{}
}

// WindowLen возвращает текущую длину буфера
func (d *Detector) WindowLen() int {
	return len(d.buffer)
}

// minWindow возвращает минимум сэмплов для предсказания: 40% окна
func (d *Detector) minWindow() int {
	return int(math.Floor(0.4 * float64(d.cfg.WindowSize)))
}

func (d *Detector) predict() {
	if len(d.buffer) < d.minWindow() {
		return
	}

	now := d.cfg.Now()
	if d.hasTriggeredBefore && now.Sub(d.lastTriggeredAt) < d.cfg.Cooldown {
		return
	}

	score := Predict(d.buffer, d.cfg.Model)

	// Гейт последовательности: падение = свободное падение, затем удар.
	// Высокая вероятность без обоих компонентов считается шумом, не падением.
	gatePassed := d.cfg.DisableSequenceGate ||
		(score.FreefallRatio > d.cfg.GateFloor && score.ImpactRatio > d.cfg.GateFloor)

	if score.Probability < d.cfg.TriggerThreshold || !gatePassed {
		return
	}

	d.lastTriggeredAt = now
	d.hasTriggeredBefore = true

	// Остаток удара не должен перетриггерить на следующем шаге
	if len(d.buffer) > d.cfg.KeepAfterTrigger {
		d.buffer = append(d.buffer[:0:0], d.buffer[len(d.buffer)-d.cfg.KeepAfterTrigger:]...)
	}

	d.fire(score)
}

func (d *Detector) fire(score Score) {
	if d.cfg.OnFall == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fall callback panicked: %v", r)
		}
	}()
	d.cfg.OnFall(score)
}
