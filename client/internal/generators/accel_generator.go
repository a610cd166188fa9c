package generators

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Krimson/guardian/client/internal/detector"
)

// AccelGenerator интерфейс генератора данных акселерометра
type AccelGenerator interface {
	// NextValue возвращает следующий сэмпл акселерометра
	NextValue() detector.Sample

	// ScheduleFall ставит в очередь сценарий падения:
	// провал свободного падения, затем пик удара
	ScheduleFall()

	// Reset сбрасывает состояние генератора
	Reset()

	// Seed устанавливает seed для случайного генератора
	Seed(seed int64)
}

// AccelConfig параметры генератора акселерометра
type AccelConfig struct {
	// Амплитуда шума ходьбы вокруг 1g
	NoiseAmplitude float64

	// Магнитуда фазы свободного падения
	FreefallMagnitude float64

	// Магнитуда пика удара
	ImpactMagnitude float64

	// Длительность фаз в сэмплах
	FreefallSamples int
	ImpactSamples   int
}

// DefaultAccelConfig возвращает параметры по умолчанию
func DefaultAccelConfig() AccelConfig {
	return AccelConfig{
		NoiseAmplitude:    0.05,
		FreefallMagnitude: 0.2,
		ImpactMagnitude:   2.5,
		FreefallSamples:   4,
		ImpactSamples:     3,
	}
}

type accelGenerator struct {
	rand   *rand.Rand
	config AccelConfig

	// Очередь запланированных магнитуд сценария падения
	script []float64

	mu sync.Mutex
}

// NewAccelGenerator создает генератор данных акселерометра
func NewAccelGenerator(cfg AccelConfig) AccelGenerator {
	return &accelGenerator{
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		config: cfg,
	}
}

func (g *accelGenerator) NextValue() detector.Sample {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.script) > 0 {
		magnitude := g.script[0]
		g.script = g.script[1:]
		return g.sampleWithMagnitude(magnitude)
	}

	// Спокойная ходьба: магнитуда колеблется вокруг 1g
	noise := (g.rand.Float64()*2 - 1) * g.config.NoiseAmplitude
	return g.sampleWithMagnitude(1.0 + noise)
}

func (g *accelGenerator) ScheduleFall() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < g.config.FreefallSamples; i++ {
		g.script = append(g.script, g.config.FreefallMagnitude)
	}
	for i := 0; i < g.config.ImpactSamples; i++ {
		g.script = append(g.script, g.config.ImpactMagnitude)
	}
}

func (g *accelGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script = nil
}

func (g *accelGenerator) Seed(seed int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rand = rand.New(rand.NewSource(seed))
}

// sampleWithMagnitude раскладывает магнитуду по осям: основная
// компонента по Z, небольшой шум по X и Y
func (g *accelGenerator) sampleWithMagnitude(magnitude float64) detector.Sample {
	x := (g.rand.Float64()*2 - 1) * 0.05 * magnitude
	y := (g.rand.Float64()*2 - 1) * 0.05 * magnitude
	zSquared := magnitude*magnitude - x*x - y*y
	z := 0.0
	if zSquared > 0 {
		z = math.Sqrt(zSquared)
	}

	return detector.Sample{X: x, Y: y, Z: z, T: time.Now()}
}
