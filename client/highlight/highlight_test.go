package highlight

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/codepolish/client"
)

func TestLexerName(t *testing.T) {
	assert.Equal(t, "tsx", LexerName(client.LanguageTypeScript))
	assert.Equal(t, "jsx", LexerName(client.LanguageJavaScript))
	assert.Equal(t, "jsx", LexerName(""))
}

func TestHighlight(t *testing.T) {
	for _, lang := range []client.Language{client.LanguageJavaScript, client.LanguageTypeScript} {
		t.Run(string(lang), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Highlight(&buf, "const x = 1;\n", lang, ""))
			out := buf.String()
			assert.Contains(t, out, "const")
			assert.Contains(t, out, "\x1b[")
		})
	}
}

func TestString_UnknownStyle(t *testing.T) {
	out := String("let a: number = 1;\n", client.LanguageTypeScript, "no-such-style")
	assert.Contains(t, out, "number")
}
