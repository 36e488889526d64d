package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"policy-rag/internal/models"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExtractPagesText(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "Coverage: $500 for dental")

	pages, err := ExtractPages(path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[0].Text != "Coverage: $500 for dental" {
		t.Fatalf("unexpected page: %+v", pages[0])
	}
}

func TestExtractPagesEmptyText(t *testing.T) {
	path := writeTempFile(t, "empty.txt", "   \n ")

	pages, err := ExtractPages(path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages for blank file, got %d", len(pages))
	}
}

func TestExtractPagesMarkdown(t *testing.T) {
	path := writeTempFile(t, "policy.md", "# Dental\n\nCoverage is **$500** per year.\n")

	pages, err := ExtractPages(path)
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	text := pages[0].Text
	if !strings.Contains(text, "Dental") || !strings.Contains(text, "$500") {
		t.Fatalf("markdown text lost content: %q", text)
	}
	if strings.Contains(text, "#") || strings.Contains(text, "**") {
		t.Fatalf("markdown syntax leaked into extracted text: %q", text)
	}
}

func TestExtractPagesUnsupportedFormat(t *testing.T) {
	path := writeTempFile(t, "image.png", "not a document")

	_, err := ExtractPages(path)
	if !errors.Is(err, models.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".docx", ".xlsx", ".md", ".txt"} {
		if !Supported(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".png", ".exe", ""} {
		if Supported(ext) {
			t.Fatalf("expected %s to be unsupported", ext)
		}
	}
}
