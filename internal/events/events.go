// Package events implements the per-frame detectors of spec.md §4.H:
// silence edges, the vocal predicate and its in/out/last-in
// derivatives, drop position, and outro energy level. The teacher has
// no equivalent per-frame detector (its classifySegments is a coarse
// phrase-energy labeler), so these are written directly from the
// specification in the teacher's threshold-constant style.
package events

import "math"

const (
	silenceThreshold = 0.0039810717 // 10^(-48/20)
	vocalRMSMin      = 0.01
	vocalRatioMin    = 0.18
	vocalDebounce    = 5   // 100 ms at 50 Hz
	vocalRunFrames   = 100 // 2 s at 50 Hz
)

// IsVocal is the vocal predicate shared by every vocal detector.
func IsVocal(rms, ratio float64) bool {
	return rms > vocalRMSMin && ratio > vocalRatioMin
}

// SilenceEdges finds the first and last-plus-one index above the
// silence threshold in wideband, in envelope-index units.
// ok is false when the whole series is silent.
func SilenceEdges(wideband []float64) (firstIdx, lastIdxPlus1 int, ok bool) {
	first := -1
	last := -1
	for i, v := range wideband {
		if v > silenceThreshold {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return 0, 0, false
	}
	return first, last + 1, true
}

// VocalIn scans forward from the start of the head series for the
// first index where IsVocal holds for five consecutive frames.
func VocalIn(wideband, ratio []float64) (int, bool) {
	run := 0
	for i := range wideband {
		if IsVocal(wideband[i], ratio[i]) {
			run++
			if run == vocalDebounce {
				return i - vocalDebounce + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

// VocalOutLastIn scans backward for the latest contiguous vocal run of
// at least vocalRunFrames length. When found, hasRun is true and the
// run's start and end+1 indices are returned. When no run qualifies,
// hasRun is false and fallbackOut holds the latest single index with
// 5-frame backward debounce (hasFallback is false if there is none at
// all).
func VocalOutLastIn(wideband, ratio []float64) (startIdx, endIdxPlus1 int, hasRun bool, fallbackOut int, hasFallback bool) {
	n := len(wideband)
	runEnd := -1
	runStart := -1
	i := n - 1
	for i >= 0 {
		if IsVocal(wideband[i], ratio[i]) {
			end := i + 1
			j := i
			for j >= 0 && IsVocal(wideband[j], ratio[j]) {
				j--
			}
			start := j + 1
			if end-start >= vocalRunFrames {
				runEnd = end
				runStart = start
				break
			}
			i = j
			continue
		}
		i--
	}
	if runEnd != -1 {
		return runStart, runEnd, true, 0, false
	}

	run := 0
	for k := n - 1; k >= 0; k-- {
		if IsVocal(wideband[k], ratio[k]) {
			run++
			if run == vocalDebounce {
				return 0, 0, false, k, true
			}
		} else {
			run = 0
		}
	}
	return 0, 0, false, 0, false
}

// DropPos searches from index 4*50 onward for the index whose
// next-2s/prev-4s energy ratio peaks above 1.5.
func DropPos(wideband []float64) (int, bool) {
	n := len(wideband)
	start := 4 * 50
	if n <= start {
		return 0, false
	}

	bestRatio := 0.0
	bestIdx := -1
	for i := start; i < n; i++ {
		prevSum := 0.0
		prevCount := 0
		for k := i - 200; k < i; k++ {
			if k >= 0 {
				prevSum += wideband[k]
				prevCount++
			}
		}
		if prevCount == 0 {
			continue
		}
		prevMean := prevSum / float64(prevCount)

		nextEnd := i + 100
		if nextEnd > n {
			nextEnd = n
		}
		nextSum := 0.0
		nextCount := 0
		for k := i; k < nextEnd; k++ {
			nextSum += wideband[k]
			nextCount++
		}
		if nextCount == 0 || prevMean <= 0 {
			continue
		}
		nextMean := nextSum / float64(nextCount)
		ratio := nextMean / prevMean
		if ratio > bestRatio {
			bestRatio = ratio
			bestIdx = i
		}
	}

	if bestIdx == -1 || bestRatio <= 1.5 {
		return 0, false
	}
	return bestIdx, true
}

// OutroEnergyLevel returns the dB level of the 10-second slice ending
// at localFadeOutIdx in the tail envelope, floored at -70 dB.
func OutroEnergyLevel(tailWideband []float64, localFadeOutIdx int) (float64, bool) {
	if len(tailWideband) == 0 {
		return 0, false
	}
	end := localFadeOutIdx
	if end > len(tailWideband) {
		end = len(tailWideband)
	}
	start := end - 10*50
	if start < 0 {
		start = 0
	}
	if end <= start {
		return -70, true
	}

	sumSq := 0.0
	for i := start; i < end; i++ {
		sumSq += tailWideband[i] * tailWideband[i]
	}
	meanSq := sumSq / float64(end-start)
	if meanSq <= 0 {
		return -70, true
	}
	db := 20 * math.Log10(math.Sqrt(meanSq))
	if db < -70 {
		db = -70
	}
	return db, true
}
