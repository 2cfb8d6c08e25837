package histogram

import "github.com/sonoscale/sonoscale/pitch"

// Peak is a local maximum of a histogram snapshot, positioned in cents
// with its accumulated mass. Peaks are recomputed from a fresh snapshot
// whenever the histogram changes.
type Peak struct {
	Bin       int     `json:"bin"`
	Cents     float64 `json:"cents"`
	Frequency float64 `json:"frequency"`
	Mass      float64 `json:"mass"`
}

// DetectPeaks scans the snapshot for bins whose mass beats every other bin
// within windowSize bins on each side and exceeds the threshold. Ties go
// to the first-seen bin. Pitch-class snapshots wrap around the octave.
// The result is ordered by bin position and empty when nothing clears the
// threshold.
func DetectPeaks(s Snapshot, windowSize int, threshold float64) []Peak {
	n := len(s.Bins)
	if n == 0 || windowSize <= 0 {
		return nil
	}

	var peaks []Peak
	for i := 0; i < n; i++ {
		mass := s.Bins[i]
		if mass <= threshold {
			continue
		}

		isPeak := true
		for d := 1; d <= windowSize && isPeak; d++ {
			for _, j := range [2]int{i - d, i + d} {
				if s.Kind == PitchClass {
					j = ((j % n) + n) % n
				} else if j < 0 || j >= n {
					continue
				}
				if j == i {
					continue
				}
				// Ties go to the lower bin index (first seen).
				if s.Bins[j] > mass || (s.Bins[j] == mass && j < i) {
					isPeak = false
					break
				}
			}
		}
		if !isPeak {
			continue
		}

		cents := s.BinCenter(i)
		peaks = append(peaks, Peak{
			Bin:       i,
			Cents:     cents,
			Frequency: pitch.CentsToHertz(cents),
			Mass:      mass,
		})
	}

	return peaks
}
