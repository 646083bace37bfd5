package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/vacancy-loader/internal/scraper"
)

func strPtr(s string) *string { return &s }

func TestCleanSnippet(t *testing.T) {
	cases := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil", nil, nil},
		{"plain", strPtr("Write Go services."), strPtr("Write Go services.")},
		{"highlight markup", strPtr("Develop <highlighttext>Go</highlighttext> microservices"), strPtr("Develop Go microservices")},
		{"entities", strPtr("R&amp;D team"), strPtr("R&D team")},
		{"whitespace", strPtr("  many \n\t spaces  "), strPtr("many spaces")},
		{"blank", strPtr("   "), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, scraper.CleanSnippet(c.in))
		})
	}
}
