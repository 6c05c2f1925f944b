package sanitizer

import (
	"sort"
	"strings"
)

// DataSanitizer маскирует учетные данные и персональные данные в тексте
// перед тем, как он попадет в лог, отчет или запрос к LLM.
type DataSanitizer struct {
	rules []SanitizerRule
}

type SanitizerRule interface {
	Sanitize(text string) string
}

// New собирает набор правил. secrets - конкретные значения (логин, пароль),
// которые заменяются везде, где встретятся, независимо от контекста.
func New(secrets ...string) *DataSanitizer {
	return &DataSanitizer{
		rules: []SanitizerRule{
			newSecretSanitizer(secrets),
			&PasswordSanitizer{},
			&TokenSanitizer{},
			&CookieSanitizer{},
			&EmailSanitizer{},
			&PhoneSanitizer{},
		},
	}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, rule := range s.rules {
		result = rule.Sanitize(result)
	}

	return result
}

// SanitizeFields возвращает копию полей диагностики, где строки и списки строк очищены.
func (s *DataSanitizer) SanitizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	out := make(map[string]any, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			out[key] = s.Sanitize(v)
		case []string:
			cleaned := make([]string, len(v))
			for i, item := range v {
				cleaned[i] = s.Sanitize(item)
			}
			out[key] = cleaned
		default:
			out[key] = value
		}
	}
	return out
}

type secretSanitizer struct {
	replacer *strings.Replacer
}

func newSecretSanitizer(secrets []string) *secretSanitizer {
	var values []string
	for _, secret := range secrets {
		if len(strings.TrimSpace(secret)) >= 2 {
			values = append(values, secret)
		}
	}
	// Длинные значения первыми, чтобы префикс не разорвал более длинный секрет
	sort.Slice(values, func(i, j int) bool { return len(values[i]) > len(values[j]) })

	pairs := make([]string, 0, len(values)*2)
	for _, value := range values {
		pairs = append(pairs, value, "[FILTERED]")
	}
	return &secretSanitizer{replacer: strings.NewReplacer(pairs...)}
}

func (s *secretSanitizer) Sanitize(text string) string {
	return s.replacer.Replace(text)
}
