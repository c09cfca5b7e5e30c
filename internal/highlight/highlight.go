// Package highlight renders syntax-highlighted HTML for file previews served
// to the dashboard.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const styleName = "github"

// HTML highlights content as the language guessed from path. Unknown file
// types fall back to a plain-text rendering rather than an error.
func HTML(path, content string) (string, error) {
	lexer := lexerForPath(path)
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return "", err
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := html.New(html.WithLineNumbers(true), html.WithClasses(false))
	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return b.String(), nil
}

func lexerForPath(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
