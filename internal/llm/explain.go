package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxPageText - сколько текста страницы отправляется в запрос.
const maxPageText = 2000

// FailureContext - уже замаскированные сведения о сбое запуска.
type FailureContext struct {
	Script   string
	Kind     string
	Message  string
	Stages   []string
	Details  map[string]any
	PageText string
}

const explainSystemPrompt = "Ты помогаешь владельцу скрипта автоматической покупки лотерейных билетов на dhlottery.co.kr. " +
	"Объясняй сбои коротко и по делу: что произошло и что проверить. Не выдумывай данные, которых нет во входе."

// ExplainFailure возвращает короткое объяснение сбоя на русском языке.
func (c *Client) ExplainFailure(ctx context.Context, fc FailureContext) (string, error) {
	resp, err := c.createChatCompletionWithRateLimit(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: explainSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExplainPrompt(fc),
			},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("пустой ответ от OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildExplainPrompt(fc FailureContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Скрипт: %s\n", fc.Script)
	fmt.Fprintf(&b, "Тип ошибки: %s\n", fc.Kind)
	fmt.Fprintf(&b, "Сообщение: %s\n", fc.Message)

	if len(fc.Stages) > 0 {
		fmt.Fprintf(&b, "Пройденные этапы: %s\n", strings.Join(fc.Stages, " -> "))
	}

	if len(fc.Details) > 0 {
		keys := make([]string, 0, len(fc.Details))
		for k := range fc.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("Детали:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, fc.Details[k])
		}
	}

	if text := truncateRunes(fc.PageText, maxPageText); text != "" {
		fmt.Fprintf(&b, "Текст страницы в момент сбоя:\n%s\n", text)
	}

	b.WriteString("\nОбъясни в 2-4 предложениях, что, скорее всего, пошло не так и что стоит проверить.")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
