package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergev/phy/ast"
)

type lexer struct {
	src    string
	pos    int
	line   int
	column int

	hasLastToken bool
	lastToken    TokenType
	lastPos      ast.Loc
	bufferedTok  *Token
	parenDepth   int
}

func newLexer(src string) *lexer {
	return &lexer{
		src:    src,
		line:   1,
		column: 1,
	}
}

type runeState struct {
	pos    int
	line   int
	column int
}

func (lx *lexer) mark() runeState {
	return runeState{
		pos:    lx.pos,
		line:   lx.line,
		column: lx.column,
	}
}

func (lx *lexer) restore(state runeState) {
	lx.pos = state.pos
	lx.line = state.line
	lx.column = state.column
}

func (lx *lexer) readRune() (rune, runeState, error) {
	if lx.pos >= len(lx.src) {
		return 0, lx.mark(), io.EOF
	}
	state := lx.mark()
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if r == utf8.RuneError && w == 1 {
		return 0, state, newError(lx.locFrom(state), fmt.Errorf("invalid UTF-8 encoding at byte %d", lx.pos))
	}
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return r, state, nil
}

func (lx *lexer) skipWhitespace() (bool, error) {
	sawNewline := false
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			return sawNewline, nil
		}
		if err != nil {
			return false, err
		}
		switch {
		case unicode.IsSpace(r):
			if r == '\n' {
				sawNewline = true
			}
			continue
		case r == '/':
			next, _, err := lx.readRune()
			if err == io.EOF {
				lx.restore(state)
				return sawNewline, nil
			}
			if err != nil {
				return false, err
			}
			if next == '/' {
				if err := lx.skipLine(); err != nil {
					if err == io.EOF {
						return sawNewline, nil
					}
					return false, err
				}
				sawNewline = true
				continue
			}
			if next == '*' {
				newlineInComment, err := lx.skipBlockComment(state)
				if err != nil {
					return false, err
				}
				if newlineInComment {
					sawNewline = true
				}
				continue
			}
			lx.restore(state)
			return sawNewline, nil
		default:
			lx.restore(state)
			return sawNewline, nil
		}
	}
}

func (lx *lexer) skipLine() error {
	for {
		r, _, err := lx.readRune()
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

func (lx *lexer) skipBlockComment(start runeState) (bool, error) {
	sawNewline := false
	for {
		r, _, err := lx.readRune()
		if err != nil {
			if err == io.EOF {
				return sawNewline, newIncompleteError(lx.locFrom(start), fmt.Errorf("unterminated block comment"))
			}
			return sawNewline, err
		}
		if r == '\n' {
			sawNewline = true
		}
		if r == '*' && lx.match('/') {
			return sawNewline, nil
		}
	}
}

func (lx *lexer) nextToken() (Token, error) {
	if lx.bufferedTok != nil {
		tok := *lx.bufferedTok
		lx.bufferedTok = nil
		return lx.emit(tok), nil
	}

	sawNewline, err := lx.skipWhitespace()
	if err != nil {
		return Token{}, err
	}
	if sawNewline && lx.shouldInsertSemicolon() {
		return lx.emit(Token{
			Type: tokenSemicolon,
			Pos:  lx.lastPos,
		}), nil
	}

	start := lx.mark()
	r, _, err := lx.readRune()
	if err == io.EOF {
		if lx.shouldInsertSemicolon() {
			return lx.emit(Token{
				Type: tokenSemicolon,
				Pos:  lx.lastPos,
			}), nil
		}
		return lx.emit(Token{
			Type: tokenEOF,
			Pos:  lx.locFrom(start),
		}), nil
	}
	if err != nil {
		return Token{}, err
	}

	switch {
	case isIdentifierStart(r):
		lexeme, err := lx.scanIdentifier(r)
		if err != nil {
			return Token{}, err
		}
		return lx.maybeEmitWithBuffer(lx.makeIdentifierToken(lexeme, start))
	case unicode.IsDigit(r):
		tok, err := lx.scanNumber(r, start)
		if err != nil {
			return Token{}, err
		}
		return lx.maybeEmitWithBuffer(tok)
	case r == '"':
		value, err := lx.scanString(start)
		if err != nil {
			return Token{}, err
		}
		tok := lx.tokenFrom(tokenString, start)
		tok.Value = value
		return lx.maybeEmitWithBuffer(tok)
	}

	var tt TokenType
	switch r {
	case '+':
		tt = tokenPlus
	case '-':
		tt = tokenMinus
	case '*':
		tt = tokenStar
	case '/':
		tt = tokenSlash
	case '(':
		tt = tokenLParen
	case ')':
		tt = tokenRParen
	case '{':
		tt = tokenLBrace
	case '}':
		tt = tokenRBrace
	case ',':
		tt = tokenComma
	case ';':
		tt = tokenSemicolon
	case '.':
		if !lx.match('.') {
			return lx.illegal(start, fmt.Errorf("unexpected character '.'"))
		}
		tt = tokenDotDot
	case '=':
		tt = tokenAssign
		if lx.match('=') {
			tt = tokenEqualEqual
		}
	case '!':
		tt = tokenBang
		if lx.match('=') {
			tt = tokenBangEqual
		}
	case '<':
		tt = tokenLess
		if lx.match('=') {
			tt = tokenLessEqual
		}
	case '>':
		tt = tokenGreater
		if lx.match('=') {
			tt = tokenGreaterEqual
		}
	default:
		return lx.illegal(start, fmt.Errorf("unexpected character %q", r))
	}

	return lx.maybeEmitWithBuffer(lx.tokenFrom(tt, start))
}

// maybeEmitWithBuffer inserts a semicolon before a closing brace so the
// last statement of a block needs no terminator.
func (lx *lexer) maybeEmitWithBuffer(tok Token) (Token, error) {
	if tok.Type == tokenRBrace && lx.shouldInsertSemicolon() {
		copied := tok
		lx.bufferedTok = &copied
		return lx.emit(Token{
			Type: tokenSemicolon,
			Pos:  lx.lastPos,
		}), nil
	}
	return lx.emit(tok), nil
}

func (lx *lexer) emit(tok Token) Token {
	switch tok.Type {
	case tokenLParen:
		lx.parenDepth++
	case tokenRParen:
		if lx.parenDepth > 0 {
			lx.parenDepth--
		}
	}
	lx.hasLastToken = tok.Type != tokenIllegal
	lx.lastToken = tok.Type
	lx.lastPos = tok.Pos
	return tok
}

func (lx *lexer) shouldInsertSemicolon() bool {
	if !lx.hasLastToken || lx.parenDepth > 0 {
		return false
	}
	switch lx.lastToken {
	case tokenIdentifier,
		tokenInt,
		tokenReal,
		tokenString,
		tokenReturn,
		tokenRParen,
		tokenRBrace:
		return true
	}
	return false
}

func (lx *lexer) peekRune() (rune, bool) {
	state := lx.mark()
	r, _, err := lx.readRune()
	lx.restore(state)
	return r, err == nil
}

func (lx *lexer) match(expected rune) bool {
	state := lx.mark()
	r, _, err := lx.readRune()
	if err != nil {
		return false
	}
	if r != expected {
		lx.restore(state)
		return false
	}
	return true
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (lx *lexer) scanIdentifier(initial rune) (string, error) {
	var builder strings.Builder
	builder.WriteRune(initial)
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !isIdentifierPart(r) {
			lx.restore(state)
			break
		}
		builder.WriteRune(r)
	}
	return builder.String(), nil
}

// scanNumber reads an integer or real literal. A dot followed by another
// dot is a range operator, so "5..10" lexes as 5, .., 10.
func (lx *lexer) scanNumber(initial rune, start runeState) (Token, error) {
	var builder strings.Builder
	builder.WriteRune(initial)
	isReal := false
	seenExponent := false

	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Token{}, err
		}

		if unicode.IsDigit(r) {
			builder.WriteRune(r)
			continue
		}
		if r == '.' && !isReal && !seenExponent {
			if next, ok := lx.peekRune(); ok && next == '.' {
				lx.restore(state)
				break
			}
			isReal = true
			builder.WriteRune(r)
			continue
		}
		if (r == 'e' || r == 'E') && !seenExponent {
			seenExponent = true
			isReal = true
			builder.WriteRune(r)
			next, nextState, err := lx.readRune()
			if err == io.EOF {
				return Token{}, newIncompleteError(lx.locFrom(start), fmt.Errorf("unterminated exponent"))
			}
			if err != nil {
				return Token{}, err
			}
			if next == '+' || next == '-' {
				builder.WriteRune(next)
			} else {
				lx.restore(nextState)
			}
			continue
		}
		lx.restore(state)
		break
	}

	lexeme := builder.String()
	if isReal {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return Token{}, newError(lx.locFrom(start), fmt.Errorf("invalid real literal %s", lexeme))
		}
		tok := lx.tokenFrom(tokenReal, start)
		tok.Lexeme = lexeme
		tok.Value = f
		return tok, nil
	}
	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return Token{}, newError(lx.locFrom(start), fmt.Errorf("invalid int literal %s", lexeme))
	}
	tok := lx.tokenFrom(tokenInt, start)
	tok.Lexeme = lexeme
	tok.Value = i
	return tok, nil
}

func (lx *lexer) scanString(start runeState) (string, error) {
	var builder strings.Builder
	for {
		r, _, err := lx.readRune()
		if err == io.EOF {
			return "", newIncompleteError(lx.locFrom(start), fmt.Errorf("unterminated string literal"))
		}
		if err != nil {
			return "", err
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			esc, _, err := lx.readRune()
			if err == io.EOF {
				return "", newIncompleteError(lx.locFrom(start), fmt.Errorf("unterminated escape sequence"))
			}
			if err != nil {
				return "", err
			}
			switch esc {
			case 'n':
				builder.WriteRune('\n')
			case 't':
				builder.WriteRune('\t')
			case '\\':
				builder.WriteRune('\\')
			case '"':
				builder.WriteRune('"')
			default:
				builder.WriteRune(esc)
			}
			continue
		}
		if r == '\n' {
			return "", newError(lx.locFrom(start), fmt.Errorf("newline in string literal"))
		}
		builder.WriteRune(r)
	}
	return builder.String(), nil
}

func (lx *lexer) makeIdentifierToken(lexeme string, start runeState) Token {
	if keywordType, ok := keywordToken(lexeme); ok {
		return lx.tokenFrom(keywordType, start)
	}
	tok := lx.tokenFrom(tokenIdentifier, start)
	tok.Lexeme = lexeme
	return tok
}

// keywordToken maps reserved words. true, false and null are left as
// identifiers; the interpreter resolves them.
func keywordToken(lexeme string) (TokenType, bool) {
	switch lexeme {
	case "var":
		return tokenVar, true
	case "fn":
		return tokenFn, true
	case "if":
		return tokenIf, true
	case "else":
		return tokenElse, true
	case "while":
		return tokenWhile, true
	case "for":
		return tokenFor, true
	case "in":
		return tokenIn, true
	case "return":
		return tokenReturn, true
	case "print":
		return tokenPrint, true
	case "and":
		return tokenAnd, true
	case "or":
		return tokenOr, true
	default:
		return tokenIllegal, false
	}
}

func (lx *lexer) tokenFrom(tt TokenType, start runeState) Token {
	return Token{
		Type: tt,
		Pos:  lx.locFrom(start),
	}
}

func (lx *lexer) illegal(start runeState, err error) (Token, error) {
	tok := lx.emit(lx.tokenFrom(tokenIllegal, start))
	return tok, newError(tok.Pos, err)
}

// locFrom builds the location of a token starting at state and ending at
// the current read position.
func (lx *lexer) locFrom(state runeState) ast.Loc {
	return ast.Loc{
		Offset: state.pos,
		Line:   state.line,
		Column: state.column,
		Span:   lx.pos - state.pos,
	}
}
