package sanitizer

import "regexp"

type PhoneSanitizer struct{}

// Мобильные и городские номера в корейском формате: 010-1234-5678, 02-123-4567.
// Суммы вида 3,000 сюда не попадают: нужен разделитель-дефис или префикс 0.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b01[016789][-.\s]?\d{3,4}[-.\s]?\d{4}\b`),
	regexp.MustCompile(`\b0\d{1,2}-\d{3,4}-\d{4}\b`),
	regexp.MustCompile(`\+82[-.\s]?\d{1,2}[-.\s]?\d{3,4}[-.\s]?\d{4}`),
}

func (s *PhoneSanitizer) Sanitize(text string) string {
	for _, pattern := range phonePatterns {
		text = pattern.ReplaceAllString(text, `[FILTERED_PHONE]`)
	}

	return text
}
