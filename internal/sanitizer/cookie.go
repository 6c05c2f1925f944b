package sanitizer

import "regexp"

type CookieSanitizer struct{}

var cookiePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(cookie\s*[:=]\s*["']?)([^"'\n]{10,})["']?`),
	regexp.MustCompile(`(?i)((?:j?session[_-]?id|session[_-]?token|wmonid)\s*[:=]\s*["']?)([a-zA-Z0-9._-]{10,})["']?`),
}

func (s *CookieSanitizer) Sanitize(text string) string {
	for _, pattern := range cookiePatterns {
		text = pattern.ReplaceAllString(text, `${1}[FILTERED]`)
	}

	return text
}
