package browser

import (
	"context"
	"fmt"
)

const suppressOverlaysScript = `({ frame, selectors }) => {
	let doc = document;
	if (frame) {
		const iframe = document.querySelector(frame);
		if (!iframe || !iframe.contentDocument) {
			return 0;
		}
		doc = iframe.contentDocument;
	}
	let hidden = 0;
	selectors.forEach(s => {
		doc.querySelectorAll(s).forEach(el => {
			el.style.display = 'none';
			el.style.pointerEvents = 'none';
			hidden++;
		});
	});
	return hidden;
}`

// SuppressOverlays скрывает слои, которые перехватывают клики (рекламные и
// "пауза"-попапы без кнопки закрытия). frameSelector пустой - работаем с самой страницей.
// Возвращает число скрытых элементов.
func SuppressOverlays(ctx context.Context, page Page, frameSelector string, selectors []string) (int, error) {
	if len(selectors) == 0 {
		return 0, nil
	}

	result, err := page.Evaluate(ctx, suppressOverlaysScript, map[string]any{
		"frame":     frameSelector,
		"selectors": selectors,
	})
	if err != nil {
		return 0, fmt.Errorf("скрытие перекрывающих слоев: %w", err)
	}

	switch n := result.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, nil
	}
}
