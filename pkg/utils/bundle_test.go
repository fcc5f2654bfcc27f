package utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"siteops/internal/domain"
)

const indexHTML = `<!doctype html>
<html lang="en">
  <head>
    <script type="module" crossorigin src="/assets/index-abc123.js"></script>
    <link rel="stylesheet" crossorigin href="/assets/index-abc123.css">
  </head>
  <body><div id="root"></div></body>
</html>`

func TestFindBundle(t *testing.T) {
	js, ok := FindBundle(indexHTML, "js")
	require.True(t, ok)
	require.Equal(t, "assets/index-abc123.js", js)

	css, ok := FindBundle(indexHTML, "css")
	require.True(t, ok)
	require.Equal(t, "assets/index-abc123.css", css)
}

func TestFindBundle_NotFound(t *testing.T) {
	_, ok := FindBundle(`<script src="/static/main.js"></script>`, "js")
	require.False(t, ok)

	_, ok = FindBundle(indexHTML, "wasm")
	require.False(t, ok)
}

func TestFindBundle_StopsAtQuote(t *testing.T) {
	page := `<script src="assets/index-x.js"></script><link href="assets/index-y.css">`
	js, ok := FindBundle(page, "js")
	require.True(t, ok)
	require.Equal(t, "assets/index-x.js", js)
}

func TestHasRootElement(t *testing.T) {
	tests := []struct {
		name string
		page string
		want bool
	}{
		{"double quoted", indexHTML, true},
		{"single quoted", `<body><div id='root'></div></body>`, true},
		{"unquoted", `<body><main id=root></main></body>`, true},
		{"other id", `<body><div id="app"></div></body>`, false},
		{"root in text", `<body><p>the root of it</p></body>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HasRootElement(tt.page))
		})
	}
}

func TestCountTokens(t *testing.T) {
	features := []domain.Feature{
		{Token: "useQuery", Description: "Query hooks"},
		{Token: "bulk", Description: "Bulk"},
		{Token: "supabase", Description: "Supabase"},
	}

	results, found := CountTokens(`const q=USEQUERY(x);createClient("SupaBase")`, features)
	require.Equal(t, 2, found)
	require.Len(t, results, 3)
	require.True(t, results[0].Found)
	require.False(t, results[1].Found)
	require.True(t, results[2].Found)
	require.Equal(t, features[1], results[1].Feature)
}
