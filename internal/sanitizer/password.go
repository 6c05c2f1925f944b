package sanitizer

import "regexp"

type PasswordSanitizer struct{}

var passwordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|пароль|비밀번호)\s*[:=]\s*["']?([^"'\s]{3,})["']?`),
	regexp.MustCompile(`(?i)(passwd|pwd|pswd)\s*[:=]\s*["']?([^"'\s]{3,})["']?`),
	regexp.MustCompile(`(?i)(<input[^>]*type=["']password["'][^>]*value=)["']([^"']+)["']`),
}

func (s *PasswordSanitizer) Sanitize(text string) string {
	for _, pattern := range passwordPatterns {
		text = pattern.ReplaceAllString(text, `${1}: [FILTERED]`)
	}

	return text
}
