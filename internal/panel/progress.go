package panel

import "time"

// progressRotation is how long each cosmetic message is shown before the
// next one takes over.
const progressRotation = 10 * time.Second

var progressMessages = map[string][]string{
	"en": {
		"Warming up the director...",
		"Scouting locations...",
		"Rolling cameras...",
		"Rendering frames...",
		"Color grading the final cut...",
		"Almost there, polishing pixels...",
	},
	"id": {
		"Menyiapkan sutradara...",
		"Mencari lokasi syuting...",
		"Kamera mulai merekam...",
		"Merender setiap frame...",
		"Menyempurnakan warna...",
		"Hampir selesai, mohon tunggu...",
	},
}

// progressMessage picks the message for an elapsed in-flight duration. The
// sequence wraps so arbitrarily long jobs keep cycling.
func progressMessage(locale string, elapsed time.Duration) string {
	messages, ok := progressMessages[locale]
	if !ok {
		messages = progressMessages["en"]
	}
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed/progressRotation) % len(messages)
	return messages[idx]
}
