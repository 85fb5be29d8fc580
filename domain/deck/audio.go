package deck

import (
	"fmt"
	"regexp"
	"strings"
)

// audioSection is the middle token of narration artifact filenames. The
// narration generator numbers items 1..N under the same scheme; slot 1 is the
// introductory recording that is never inserted into the deck, which is why
// BindAudioSlots starts handing out indices at 2.
const audioSection = "capability"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName normalizes a value into a safe, predictable filename fragment.
func SanitizeName(value string) string {
	return unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(value), "_")
}

// BindAudioSlots assigns a monotonically increasing sequence index to every
// audio-bearing slide, in declaration order, independent of slide position.
// The counter starts at 1 and is pre-incremented before each assignment, so
// the first audio slide gets 2: sequence 1 belongs to the intro recording
// that exists on disk but is never bound to a slide.
func BindAudioSlots(specs []SlideSpec) map[string]int {
	slots := make(map[string]int)
	counter := 1
	for _, spec := range specs {
		if !spec.AddAudio {
			continue
		}
		counter++
		slots[spec.Label] = counter
	}
	return slots
}

// AudioFileName builds the deterministic artifact name for one audio slot:
// {runPrefix}_{section}_{sequence}_{labelSuffix}.mp3, with the prefix part
// omitted when no run prefix is known. The label suffix is the final
// dash- or underscore-delimited token of the slide label.
func AudioFileName(runPrefix, label string, sequence int) string {
	prefix := ""
	if runPrefix != "" {
		prefix = SanitizeName(runPrefix) + "_"
	}
	return fmt.Sprintf("%s%s_%d_%s.mp3", prefix, audioSection, sequence, labelSuffix(label))
}

func labelSuffix(label string) string {
	if idx := strings.LastIndexAny(label, "_-"); idx >= 0 {
		return label[idx+1:]
	}
	return label
}
