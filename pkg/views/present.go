package views

import "time"

// Greeting returns the home screen greeting for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good Morning ☀️"
	case h < 18:
		return "Good Afternoon 🌤️"
	default:
		return "Good Evening 🌙"
	}
}

// Quotes rotate under the greeting.
var Quotes = []string{
	"Your health is your wealth 💪",
	"One step at a time is all it takes 🧘‍♂️",
	"Small steps every day = big results 🌱",
	"Stay strong, take your meds on time ⏰",
	"Healing begins with consistency ❤️",
	"You’ve got this. Keep going! 🚀",
}

// QuoteInterval is how long each quote stays on screen.
const QuoteInterval = 5 * time.Second

// Quote returns the quote showing at now.
func Quote(now time.Time) string {
	idx := (now.Unix() / int64(QuoteInterval/time.Second)) % int64(len(Quotes))
	if idx < 0 {
		idx += int64(len(Quotes))
	}
	return Quotes[idx]
}
