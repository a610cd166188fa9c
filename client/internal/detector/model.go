package detector

import (
	"math"
	"time"
)

// Sample представляет одно измерение 3-осевого акселерометра (в единицах g)
type Sample struct {
	X float64
	Y float64
	Z float64
	T time.Time
}

// Label представляет итоговую метку предсказания
type Label string

const (
	LabelFall   Label = "fall"
	LabelNoFall Label = "no_fall"
)

// Score содержит результат одного предсказания модели падения
type Score struct {
	Probability   float64
	Label         Label
	FreefallRatio float64
	ImpactRatio   float64
	Range         float64
	Jerk          float64
	Raw           float64
}

// ModelConfig задает пороги эвристической модели падения.
// Значения подобраны эмпирически на реальном устройстве;
// оставлены конфигурируемыми, но без перекалибровки.
type ModelConfig struct {
	FreefallThreshold   float64 // магнитуда ниже порога считается свободным падением
	ImpactThreshold     float64 // магнитуда выше порога считается ударом
	SpikeThreshold      float64 // буст за резкий пик
	SubGravityThreshold float64 // буст за провал ниже 1g
	ClassifyThreshold   float64 // порог метки fall
}

// DefaultModelConfig возвращает эмпирически подобранные пороги
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		FreefallThreshold:   0.8,
		ImpactThreshold:     1.6,
		SpikeThreshold:      1.8,
		SubGravityThreshold: 0.7,
		ClassifyThreshold:   0.35,
	}
}

// Веса линейной комбинации признаков
const (
	weightFreefall = 1.4
	weightImpact   = 1.6
	weightRange    = 0.6
	weightJerk     = 0.4

	spikeBoost      = 0.6
	subGravityBoost = 0.3

	// Центр логистической функции
	sigmoidCenter = 1.0
)

// Magnitude возвращает модуль вектора ускорения
func Magnitude(s Sample) float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

type features struct {
	mean          float64
	variance      float64
	max           float64
	min           float64
	rangeVal      float64
	jerk          float64
	freefallCount int
	impactCount   int
	n             int
}

func extractFeatures(window []Sample, cfg ModelConfig) features {
	mags := make([]float64, len(window))
	for i, s := range window {
		mags[i] = Magnitude(s)
	}

	f := features{n: len(mags), min: math.Inf(1), max: math.Inf(-1)}

	sum := 0.0
	for _, m := range mags {
		sum += m
		if m > f.max {
			f.max = m
		}
		if m < f.min {
			f.min = m
		}
		if m < cfg.FreefallThreshold {
			f.freefallCount++
		}
		if m > cfg.ImpactThreshold {
			f.impactCount++
		}
	}
	f.mean = sum / float64(f.n)

	for _, m := range mags {
		f.variance += (m - f.mean) * (m - f.mean)
	}
	f.variance /= float64(f.n)

	f.rangeVal = f.max - f.min

	for i := 1; i < len(mags); i++ {
		f.jerk += math.Abs(mags[i] - mags[i-1])
	}

	return f
}

// Predict вычисляет оценку падения по окну сэмплов.
// Probability всегда в [0,1] (сигмоида); Label == fall тогда и только
// тогда, когда probability превышает порог классификации.
func Predict(window []Sample, cfg ModelConfig) Score {
	if len(window) == 0 {
		return Score{Label: LabelNoFall}
	}

	f := extractFeatures(window, cfg)
	n := float64(f.n)

	wFreefall := float64(f.freefallCount) / n
	wImpact := float64(f.impactCount) / n
	wRange := math.Min(1, f.rangeVal/1.0)
	wJerk := math.Min(1, f.jerk/(n*0.5))

	raw := weightFreefall*wFreefall +
		weightImpact*wImpact +
		weightRange*wRange +
		weightJerk*wJerk

	// Буст за резкий всплеск
	if f.max > cfg.SpikeThreshold {
		raw += spikeBoost
	}
	if f.min < cfg.SubGravityThreshold {
		raw += subGravityBoost
	}

	prob := 1 / (1 + math.Exp(-(raw - sigmoidCenter)))

	label := LabelNoFall
	if prob > cfg.ClassifyThreshold {
		label = LabelFall
	}

	return Score{
		Probability:   prob,
		Label:         label,
		FreefallRatio: wFreefall,
		ImpactRatio:   wImpact,
		Range:         f.rangeVal,
		Jerk:          wJerk,
		Raw:           raw,
	}
}
