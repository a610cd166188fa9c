package detector

import (
	"math/rand"
	"testing"
)

// makeSample создает сэмпл с заданной магнитудой (вся по оси Z)
func makeSample(magnitude float64) Sample {
	return Sample{Z: magnitude}
}

func calmWindow(n int) []Sample {
	window := make([]Sample, n)
	for i := range window {
		window[i] = makeSample(1.0)
	}
	return window
}

func fallWindow() []Sample {
	var window []Sample
	// Ходьба, свободное падение, удар, неподвижность
	for i := 0; i < 10; i++ {
		window = append(window, makeSample(1.0))
	}
	for i := 0; i < 4; i++ {
		window = append(window, makeSample(0.2))
	}
	for i := 0; i < 3; i++ {
		window = append(window, makeSample(2.5))
	}
	for i := 0; i < 3; i++ {
		window = append(window, makeSample(1.0))
	}
	return window
}

func TestPredict_EmptyWindow(t *testing.T) {
	score := Predict(nil, DefaultModelConfig())

	if score.Label != LabelNoFall {
		t.Errorf("Expected no_fall for empty window, got %s", score.Label)
	}
	if score.Probability != 0 {
		t.Errorf("Expected zero probability for empty window, got %f", score.Probability)
	}
}

func TestPredict_CalmWindow(t *testing.T) {
	score := Predict(calmWindow(20), DefaultModelConfig())

	if score.Label != LabelNoFall {
		t.Errorf("Expected no_fall for calm window, got %s (probability %f)", score.Label, score.Probability)
	}
	if score.FreefallRatio != 0 {
		t.Errorf("Expected zero freefall ratio, got %f", score.FreefallRatio)
	}
	if score.ImpactRatio != 0 {
		t.Errorf("Expected zero impact ratio, got %f", score.ImpactRatio)
	}
}

func TestPredict_FallWindow(t *testing.T) {
	score := Predict(fallWindow(), DefaultModelConfig())

	if score.Label != LabelFall {
		t.Errorf("Expected fall label, got %s (probability %f)", score.Label, score.Probability)
	}
	if score.FreefallRatio <= 0 {
		t.Errorf("Expected positive freefall ratio, got %f", score.FreefallRatio)
	}
	if score.ImpactRatio <= 0 {
		t.Errorf("Expected positive impact ratio, got %f", score.ImpactRatio)
	}
}

func TestPredict_ProbabilityBounds(t *testing.T) {
	cfg := DefaultModelConfig()
	rnd := rand.New(rand.NewSource(42))

	// Случайные окна: вероятность всегда в (0,1),
	// метка согласована с порогом классификации
	for i := 0; i < 200; i++ {
		n := 1 + rnd.Intn(30)
		window := make([]Sample, n)
		for j := range window {
			window[j] = Sample{
				X: rnd.Float64()*6 - 3,
				Y: rnd.Float64()*6 - 3,
				Z: rnd.Float64()*6 - 3,
			}
		}

		score := Predict(window, cfg)

		if score.Probability < 0 || score.Probability > 1 {
			t.Fatalf("Probability out of bounds: %f", score.Probability)
		}

		expectFall := score.Probability > cfg.ClassifyThreshold
		gotFall := score.Label == LabelFall
		if expectFall != gotFall {
			t.Fatalf("Label %s inconsistent with probability %f (threshold %f)",
				score.Label, score.Probability, cfg.ClassifyThreshold)
		}
	}
}

func TestPredict_SpikeBoost(t *testing.T) {
	cfg := DefaultModelConfig()

	// Одинаковые окна, кроме величины пика: пик выше SpikeThreshold
	// должен дать строго большую вероятность
	mild := append(calmWindow(15), makeSample(1.7))
	sharp := append(calmWindow(15), makeSample(2.0))

	mildScore := Predict(mild, cfg)
	sharpScore := Predict(sharp, cfg)

	if sharpScore.Probability <= mildScore.Probability {
		t.Errorf("Expected spike boost: sharp %f <= mild %f",
			sharpScore.Probability, mildScore.Probability)
	}
}
