package scheduler

// feedbackMessages maps each quality level to a canned, purely presentational
// message returned with review responses.
var feedbackMessages = [MaxQuality + 1]string{
	"No worries, let's relearn this one!",
	"Keep at it, you'll get there!",
	"A bit shaky, a few more reps will lock it in",
	"Not bad, keep it up",
	"Great, you remembered that well!",
	"Perfect! Fully mastered!",
}

// Feedback returns the canned message for a quality level, or an empty
// string when quality is out of range.
func Feedback(quality int) string {
	if quality < MinQuality || quality > MaxQuality {
		return ""
	}
	return feedbackMessages[quality]
}
