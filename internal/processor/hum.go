package processor

import "fmt"

// humHarmonics is how many multiples of the mains frequency are measured
const humHarmonics = 3

// HumMeasurement describes mains hum content in a buffer.
type HumMeasurement struct {
	MainsHz     float64 // Fundamental that was measured (50 or 60 Hz)
	EnergyRatio float64 // Share of spectral energy in hum bins, 0..1
	BinWidthHz  float64 // Frequency resolution of the measurement
}

// LevelDB returns the hum energy share in dB (SilenceDB when there is none)
func (h HumMeasurement) LevelDB() float64 {
	return powerRatioToDB(h.EnergyRatio)
}

// MeasureHum estimates how much of buf's spectral energy sits at the mains
// fundamental and its first harmonics. Each harmonic claims its nearest STFT
// bin and that bin's two neighbours.
func MeasureHum(buf Buffer, mainsHz float64, cfg Config) (HumMeasurement, error) {
	if err := buf.Validate(); err != nil {
		return HumMeasurement{}, err
	}
	if mainsHz <= 0 {
		return HumMeasurement{}, fmt.Errorf("mains frequency must be positive, got %.1f", mainsHz)
	}

	frame := cfg.STFTFrame
	hop := cfg.STFTHop
	if frame < 2 || hop < 1 {
		frame, hop = DefaultConfig().STFTFrame, DefaultConfig().STFTHop
	}

	binWidth := float64(buf.SampleRate) / float64(frame)
	result := HumMeasurement{MainsHz: mainsHz, BinWidthHz: binWidth}

	mags := magnitudes(cfg.fourier().Forward(buf.Samples, frame, hop))
	if len(mags) == 0 {
		return result, nil
	}
	nBins := len(mags[0])

	humBins := make(map[int]bool)
	for h := 1; h <= humHarmonics; h++ {
		centre := int(mainsHz*float64(h)/binWidth + 0.5)
		for k := centre - 1; k <= centre+1; k++ {
			if k > 0 && k < nBins {
				humBins[k] = true
			}
		}
	}

	var total, hum float64
	for _, frameMags := range mags {
		for k, m := range frameMags {
			p := m * m
			total += p
			if humBins[k] {
				hum += p
			}
		}
	}
	if total > 0 {
		result.EnergyRatio = hum / total
	}
	return result, nil
}
