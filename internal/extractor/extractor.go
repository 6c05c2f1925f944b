package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PageSnapshot - текстовый слепок страницы для диагностики упавшего шага.
type PageSnapshot struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text возвращает видимый текст документа с нормализованными пробелами.
// Неразбираемый HTML дает пустую строку.
func Text(html string) string {
	doc, err := parse(html)
	if err != nil {
		return ""
	}
	return collapse(doc.Text())
}

// Contains ищет фразу в тексте документа, а не в разметке:
// совпадения внутри скриптов и атрибутов не считаются.
func Contains(html, needle string) bool {
	needle = collapse(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(Text(html), needle)
}

func Snapshot(url, html string, maxLength int) PageSnapshot {
	snap := PageSnapshot{URL: url}

	doc, err := parse(html)
	if err != nil {
		return snap
	}

	snap.Title = collapse(doc.Find("title").First().Text())
	doc.Find("head").Remove()

	text := collapse(doc.Text())
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		text = string([]rune(text)[:maxLength]) + "…"
	}
	snap.Text = text

	return snap
}
