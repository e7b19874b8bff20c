package parser

import (
	"fmt"

	"github.com/sergev/phy/ast"
)

// Parse translates source text into a list of statements.
func Parse(src string) ([]ast.Stmt, error) {
	p := &parser{
		lx: newLexer(src),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

type parser struct {
	lx   *lexer
	curr Token
}

func (p *parser) advance() error {
	tok, err := p.lx.nextToken()
	if err != nil {
		return err
	}
	p.curr = tok
	return nil
}

func (p *parser) expect(tt TokenType) (Token, error) {
	if p.curr.Type != tt {
		return Token{}, p.errorf(p.curr.Pos, "expected %s, found %s", tt, p.describe(p.curr))
	}
	tok := p.curr
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *parser) parseProgram() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for p.curr.Type != tokenEOF {
		if p.curr.Type == tokenSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *parser) parseStatement() (ast.Stmt, error) {
	switch p.curr.Type {
	case tokenVar:
		return p.parseVarDecl()
	case tokenFn:
		return p.parseFnDecl()
	case tokenIf:
		return p.parseIfStmt()
	case tokenWhile:
		return p.parseWhileStmt()
	case tokenFor:
		return p.parseForStmt()
	case tokenReturn:
		return p.parseReturnStmt()
	case tokenPrint:
		return p.parsePrintStmt()
	case tokenLBrace:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return block, p.skipSemicolon()
	default:
		start := p.curr.Pos
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{
			Expr: expr,
			Loc:  start,
		}, nil
	}
}

// endStatement consumes a statement terminator. A closing brace or the end
// of input also ends a statement.
func (p *parser) endStatement() error {
	switch p.curr.Type {
	case tokenSemicolon:
		return p.advance()
	case tokenRBrace, tokenEOF:
		return nil
	default:
		return p.errorf(p.curr.Pos, "expected newline or ; after statement, found %s", p.describe(p.curr))
	}
}

// skipSemicolon drops the terminator the lexer inserts after a closing brace.
func (p *parser) skipSemicolon() error {
	if p.curr.Type == tokenSemicolon {
		return p.advance()
	}
	return nil
}

func (p *parser) parseVarDecl() (ast.Stmt, error) {
	varTok, err := p.expect(tokenVar)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokenIdentifier)
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.curr.Type == tokenAssign {
		if err := p.advance(); err != nil {
			return nil, err
		}
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ast.VarDeclStmt{
		Name:  nameTok.Lexeme,
		Value: init,
		Loc:   varTok.Pos,
	}, nil
}

func (p *parser) parseFnDecl() (ast.Stmt, error) {
	fnTok, err := p.expect(tokenFn)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}
	params, err := p.parseParamNames()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FnDeclStmt{
		Name:   nameTok.Lexeme,
		Params: params,
		Body:   body.Stmts,
		Loc:    fnTok.Pos,
	}, p.skipSemicolon()
}

func (p *parser) parseBlock() (*ast.BlockStmt, error) {
	braceTok, err := p.expect(tokenLBrace)
	if err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.curr.Type != tokenRBrace && p.curr.Type != tokenEOF {
		if p.curr.Type == tokenSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(tokenRBrace); err != nil {
		return nil, err
	}
	return &ast.BlockStmt{
		Stmts: stmts,
		Loc:   braceTok.Pos,
	}, nil
}

func (p *parser) parseIfStmt() (ast.Stmt, error) {
	ifTok, err := p.expect(tokenIf)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{
		Cond: cond,
		Then: thenBlock,
		Loc:  ifTok.Pos,
	}
	if p.curr.Type != tokenElse {
		return stmt, p.skipSemicolon()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.curr.Type == tokenIf {
		elseIf, err := p.parseIfStmt()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseIf
		return stmt, nil
	}
	elseBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Else = elseBlock
	return stmt, p.skipSemicolon()
}

func (p *parser) parseWhileStmt() (ast.Stmt, error) {
	whTok, err := p.expect(tokenWhile)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{
		Cond: cond,
		Body: body,
		Loc:  whTok.Pos,
	}, p.skipSemicolon()
}

func (p *parser) parseForStmt() (ast.Stmt, error) {
	forTok, err := p.expect(tokenFor)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenIn); err != nil {
		return nil, err
	}
	start, err := p.parseRangeBound()
	if err != nil {
		return nil, err
	}
	rng := ast.ForRange{Start: start}
	if p.curr.Type == tokenDotDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		end, err := p.parseRangeBound()
		if err != nil {
			return nil, err
		}
		rng.End = &end
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{
		Placeholder: nameTok.Lexeme,
		Range:       rng,
		Body:        body,
		Loc:         forTok.Pos,
	}, p.skipSemicolon()
}

func (p *parser) parseRangeBound() (int64, error) {
	negative := false
	if p.curr.Type == tokenMinus {
		negative = true
		if err := p.advance(); err != nil {
			return 0, err
		}
	}
	tok, err := p.expect(tokenInt)
	if err != nil {
		return 0, err
	}
	n, _ := tok.Value.(int64)
	if negative {
		n = -n
	}
	return n, nil
}

func (p *parser) parseReturnStmt() (ast.Stmt, error) {
	retTok, err := p.expect(tokenReturn)
	if err != nil {
		return nil, err
	}
	var result ast.Expr
	if p.curr.Type != tokenSemicolon && p.curr.Type != tokenRBrace && p.curr.Type != tokenEOF {
		result, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{
		Value: result,
		Loc:   retTok.Pos,
	}, nil
}

func (p *parser) parsePrintStmt() (ast.Stmt, error) {
	printTok, err := p.expect(tokenPrint)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{
		Expr: expr,
		Loc:  printTok.Pos,
	}, nil
}

func (p *parser) parseExpression() (ast.Expr, error) {
	return p.parseAssignment()
}

// parseAssignment is right associative: a = b = c assigns c to b first.
func (p *parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseLogical(tokenOr)
	if err != nil {
		return nil, err
	}
	if p.curr.Type != tokenAssign {
		return left, nil
	}
	assignTok := p.curr
	ident, ok := left.(*ast.IdentifierExpr)
	if !ok {
		return nil, p.errorf(assignTok.Pos, "invalid assignment target")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.AssignExpr{
		Name:  ident.Name,
		Value: value,
		Loc:   ident.Loc,
	}, nil
}

// parseLogical handles "or" (binding loosest) and "and".
func (p *parser) parseLogical(op TokenType) (ast.Expr, error) {
	next := func() (ast.Expr, error) {
		if op == tokenOr {
			return p.parseLogical(tokenAnd)
		}
		return p.parseBinary(0)
	}
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.curr.Type == op {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpr{
			Op:    opTok.Type.String(),
			Left:  left,
			Right: right,
			Loc:   opTok.Pos,
		}
	}
	return left, nil
}

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]TokenType{
	{tokenEqualEqual, tokenBangEqual},
	{tokenLess, tokenLessEqual, tokenGreater, tokenGreaterEqual},
	{tokenPlus, tokenMinus},
	{tokenStar, tokenSlash},
}

func (p *parser) parseBinary(level int) (ast.Expr, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for containsToken(binaryLevels[level], p.curr.Type) {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Op:    opTok.Type.String(),
			Left:  left,
			Right: right,
			Loc:   opTok.Pos,
		}
	}
	return left, nil
}

func containsToken(set []TokenType, tt TokenType) bool {
	for _, t := range set {
		if t == tt {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.curr.Type == tokenBang || p.curr.Type == tokenMinus {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{
			Op:    opTok.Type.String(),
			Right: expr,
			Loc:   opTok.Pos,
		}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.curr.Type == tokenLParen {
		callTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseArgumentList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		expr = &ast.CallExpr{
			Callee: expr,
			Args:   args,
			Loc:    callTok.Pos,
		}
	}
	return expr, nil
}

func (p *parser) parseArgumentList() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.curr.Type == tokenRParen {
		return args, nil
	}
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
		if p.curr.Type != tokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.curr
	switch tok.Type {
	case tokenIdentifier:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.IdentifierExpr{
			Name: tok.Lexeme,
			Loc:  tok.Pos,
		}, nil
	case tokenInt:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, _ := tok.Value.(int64)
		return &ast.IntLiteralExpr{
			Value: n,
			Loc:   tok.Pos,
		}, nil
	case tokenReal:
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, _ := tok.Value.(float64)
		return &ast.RealLiteralExpr{
			Value: f,
			Loc:   tok.Pos,
		}, nil
	case tokenString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		s, _ := tok.Value.(string)
		return &ast.StrLiteralExpr{
			Value: s,
			Loc:   tok.Pos,
		}, nil
	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return &ast.GroupingExpr{
			Expr: expr,
			Loc:  tok.Pos,
		}, nil
	default:
		return nil, p.errorf(tok.Pos, "unexpected %s in expression", p.describe(tok))
	}
}

func (p *parser) parseParamNames() ([]string, error) {
	var params []string
	if p.curr.Type == tokenRParen {
		return params, nil
	}
	for {
		tok, err := p.expect(tokenIdentifier)
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Lexeme)
		if p.curr.Type != tokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// errorf reports a syntax error. Running out of input is reported as
// incomplete so an interactive reader can ask for more lines.
func (p *parser) errorf(pos ast.Loc, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if p.curr.Type == tokenEOF {
		return newIncompleteError(pos, err)
	}
	return newError(pos, err)
}

func (p *parser) describe(tok Token) string {
	switch tok.Type {
	case tokenIdentifier:
		return fmt.Sprintf("identifier %s", tok.Lexeme)
	case tokenInt, tokenReal:
		return fmt.Sprintf("number %s", tok.Lexeme)
	case tokenSemicolon:
		return "newline"
	default:
		return tok.Type.String()
	}
}
