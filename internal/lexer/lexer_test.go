package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvm-lang/f/internal/lexer"
	"github.com/fvm-lang/f/internal/token"
)

func collect(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks := collect(t, "a := 1 + 2; !x <- {1, 2}")
	k := kinds(toks)
	require.Equal(t, []token.Kind{
		token.NAME, token.ASSIGN, token.NUMBER, token.OP, token.NUMBER, token.SEMI,
		token.OP, token.NAME, token.OP, token.LBRACE, token.NUMBER, token.COMMA, token.NUMBER, token.RBRACE,
		token.EOF,
	}, k)
}

func TestLexerString(t *testing.T) {
	toks := collect(t, `"hello\nworld"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello\nworld", toks[0].Lit)
}

func TestLexerStringBackspaceEscape(t *testing.T) {
	toks := collect(t, `"a\bb"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "a\bb", toks[0].Lit)
}

func TestLexerNumberWithExponent(t *testing.T) {
	toks := collect(t, "1.5e10")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "1.5e10", toks[0].Lit)
}

func TestLexerComment(t *testing.T) {
	toks := collect(t, "# a comment\n1")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "1", toks[0].Lit)
}

func TestLexerEllipsisAndVariadicParam(t *testing.T) {
	toks := collect(t, "[|...xs| xs]")
	require.Equal(t, []token.Kind{
		token.LBRACKET, token.PIPE, token.ELLIPSIS, token.NAME, token.PIPE, token.NAME, token.RBRACKET, token.EOF,
	}, kinds(toks))
}
