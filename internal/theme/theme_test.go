package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/debemdeboas/archive-console/internal/model"
)

func TestGenerateSyntaxCSS(t *testing.T) {
	testCases := []struct {
		name  string
		theme string
	}{
		{"Valid Theme - Monokai", "monokai"},
		{"Valid Theme - Github", "github"},
		{"Non-existent Theme - Fallback", "nonexistent-theme-12345"},
		{"Empty Theme Name", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearSyntaxCSS()

			css1 := GenerateSyntaxCSS(tc.theme)
			if css1 == "" {
				t.Fatal("Expected CSS content, but got empty")
			}
			if !strings.Contains(string(css1), ".chroma") {
				t.Errorf("Expected CSS to contain '.chroma' class")
			}

			if cached, ok := syntaxCSS.Get(tc.theme); !ok || cached != css1 {
				t.Errorf("Expected generated CSS to be cached")
			}

			if css2 := GenerateSyntaxCSS(tc.theme); css1 != css2 {
				t.Errorf("Expected second call to return identical CSS from cache")
			}
		})
	}
}

func TestGetStyleFallback(t *testing.T) {
	if GetStyle("nonexistent-theme-12345") == nil {
		t.Fatal("Expected a fallback style")
	}
	if GetStyle("monokai").Name != "monokai" {
		t.Errorf("Expected monokai style, got %s", GetStyle("monokai").Name)
	}
}

func TestGetSyntaxThemes(t *testing.T) {
	themes := GetSyntaxThemes()
	if len(themes) == 0 {
		t.Fatal("Expected at least one syntax theme")
	}
	for i := 1; i < len(themes); i++ {
		if themes[i-1] > themes[i] {
			t.Errorf("Themes are not sorted: %s > %s", themes[i-1], themes[i])
		}
	}
}

func TestStatusBadge(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	testCases := []struct {
		name    string
		post    model.Post
		pending bool
		want    string
	}{
		{"draft", model.Post{Status: model.StatusDraft}, false, "draft"},
		{"published", model.Post{Status: model.StatusPublished}, false, "published"},
		{"deleted wins over status", model.Post{Status: model.StatusPublished, IsDeleted: true}, false, "deleted"},
		{"pending wins over everything", model.Post{IsDeleted: true}, true, "pending"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusBadge(tc.post, tc.pending); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
