package transcript

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

var (
	errEmptyHTML = errors.New("empty HTML content")
	errEmptyPDF  = errors.New("empty pdf bytes")
)

// NormalizeWhitespace collapses runs of whitespace into single spaces for a
// compact searchable string.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractFromHTML extracts transcript text from a lightly-marked-up HTML
// document. Readability handles article-shaped pages; the goquery body-text
// fallback covers bare transcript pages readability refuses to parse.
func ExtractFromHTML(html string) (string, error) {
	html = strings.TrimSpace(html)
	if html == "" {
		return "", errEmptyHTML
	}

	if article, err := readability.FromReader(strings.NewReader(html), nil); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return NormalizeWhitespace(text), nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(doc.Find("body").First().Text()); text != "" {
		return NormalizeWhitespace(text), nil
	}

	return "", errors.New("no text content found in HTML")
}

// ExtractFromPDF extracts plain text from a PDF transcript document.
func ExtractFromPDF(pdfBytes []byte) (string, error) {
	if len(pdfBytes) == 0 {
		return "", errEmptyPDF
	}

	r := bytes.NewReader(pdfBytes)
	doc, err := pdf.NewReader(r, int64(len(pdfBytes)))
	if err != nil {
		return "", err
	}

	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}

	return NormalizeWhitespace(buf.String()), nil
}

// ExtractFromCues strips cue numbers and timestamp lines from WebVTT and SRT
// transcripts, keeping only spoken text.
func ExtractFromCues(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == "WEBVTT":
			continue
		case strings.Contains(line, "-->"):
			continue
		case isCueIndex(line):
			continue
		default:
			parts = append(parts, line)
		}
	}
	return NormalizeWhitespace(strings.Join(parts, " "))
}

func isCueIndex(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
