package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBestImage(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		baseURL  string
		expected string
	}{
		{
			name: "og image wins",
			html: `<html><head>
				<meta property="og:image" content="https://cdn.example.com/og.jpg">
				<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
			</head><body><img src="/first.jpg"></body></html>`,
			baseURL:  "https://example.com/recipes/soup",
			expected: "https://cdn.example.com/og.jpg",
		},
		{
			name: "twitter image when no og",
			html: `<html><head>
				<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
			</head><body><img src="/first.jpg"></body></html>`,
			baseURL:  "https://example.com/recipes/soup",
			expected: "https://cdn.example.com/tw.jpg",
		},
		{
			name: "json-ld recipe image in graph",
			html: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@graph":[
					{"@type":"WebSite","name":"Example"},
					{"@type":"Recipe","name":"Soup","image":[{"@type":"ImageObject","url":"/img/soup.jpg"}]}
				]}
			</script></head><body></body></html>`,
			baseURL:  "https://example.com/recipes/soup",
			expected: "https://example.com/img/soup.jpg",
		},
		{
			name:     "link image_src",
			html:     `<html><head><link rel="image_src" href="//static.example.com/a.png"></head></html>`,
			baseURL:  "https://example.com/x",
			expected: "https://static.example.com/a.png",
		},
		{
			name: "first plausible img skips logos and pixels",
			html: `<html><body>
				<img src="/assets/logo.png">
				<img src="/track.gif" width="1" height="1">
				<img src="data:image/png;base64,AAAA">
				<img src="/icons/menu.svg">
				<img src="photos/soup.jpg">
			</body></html>`,
			baseURL:  "https://example.com/recipes/",
			expected: "https://example.com/recipes/photos/soup.jpg",
		},
		{
			name:     "nothing found",
			html:     `<html><body><p>no images</p></body></html>`,
			baseURL:  "https://example.com/",
			expected: "",
		},
		{
			name:     "relative url without base",
			html:     `<html><head><meta property="og:image" content="/og.jpg"></head></html>`,
			baseURL:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractBestImage(tt.html, tt.baseURL))
		})
	}
}

func TestExtractText(t *testing.T) {
	doc := `<html><head><title>Tomato Soup</title>
		<style>body { color: red }</style>
		<script>var tracking = true;</script>
		<script type="application/ld+json">{"@type":"Recipe","name":"Tomato Soup"}</script>
	</head><body>
		<h1>Tomato   Soup</h1>
		<ul><li>2 tomatoes</li><li>1 cup water</li></ul>
	</body></html>`

	text := ExtractText(doc)

	assert.Contains(t, text, "Tomato Soup")
	assert.Contains(t, text, `"@type":"Recipe"`)
	assert.Contains(t, text, "2 tomatoes\n1 cup water")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
}
