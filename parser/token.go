package parser

import "github.com/sergev/phy/ast"

// TokenType enumerates lexical categories recognised by the phy lexer.
type TokenType int

const (
	tokenEOF TokenType = iota
	tokenIllegal

	tokenIdentifier
	tokenInt
	tokenReal
	tokenString

	// Keywords
	tokenVar
	tokenFn
	tokenIf
	tokenElse
	tokenWhile
	tokenFor
	tokenIn
	tokenReturn
	tokenPrint
	tokenAnd
	tokenOr

	// Operators and punctuation
	tokenAssign       // =
	tokenEqualEqual   // ==
	tokenBangEqual    // !=
	tokenPlus         // +
	tokenMinus        // -
	tokenStar         // *
	tokenSlash        // /
	tokenLess         // <
	tokenLessEqual    // <=
	tokenGreater      // >
	tokenGreaterEqual // >=
	tokenBang         // !
	tokenDotDot       // ..

	tokenComma     // ,
	tokenSemicolon // ;
	tokenLParen    // (
	tokenRParen    // )
	tokenLBrace    // {
	tokenRBrace    // }
)

func (tt TokenType) String() string {
	switch tt {
	case tokenEOF:
		return "EOF"
	case tokenIllegal:
		return "illegal"
	case tokenIdentifier:
		return "identifier"
	case tokenInt:
		return "int"
	case tokenReal:
		return "real"
	case tokenString:
		return "string"
	case tokenVar:
		return "var"
	case tokenFn:
		return "fn"
	case tokenIf:
		return "if"
	case tokenElse:
		return "else"
	case tokenWhile:
		return "while"
	case tokenFor:
		return "for"
	case tokenIn:
		return "in"
	case tokenReturn:
		return "return"
	case tokenPrint:
		return "print"
	case tokenAnd:
		return "and"
	case tokenOr:
		return "or"
	case tokenAssign:
		return "="
	case tokenEqualEqual:
		return "=="
	case tokenBangEqual:
		return "!="
	case tokenPlus:
		return "+"
	case tokenMinus:
		return "-"
	case tokenStar:
		return "*"
	case tokenSlash:
		return "/"
	case tokenLess:
		return "<"
	case tokenLessEqual:
		return "<="
	case tokenGreater:
		return ">"
	case tokenGreaterEqual:
		return ">="
	case tokenBang:
		return "!"
	case tokenDotDot:
		return ".."
	case tokenComma:
		return ","
	case tokenSemicolon:
		return ";"
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	case tokenLBrace:
		return "{"
	case tokenRBrace:
		return "}"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type   TokenType
	Lexeme string      // raw lexeme when useful (identifiers, numbers)
	Value  interface{} // decoded literal value for numbers and strings
	Pos    ast.Loc
}
