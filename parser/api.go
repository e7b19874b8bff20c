package parser

import (
	"io"

	"github.com/sergev/phy/ast"
)

// ParseString parses phy source text into statements.
func ParseString(src string) ([]ast.Stmt, error) {
	return Parse(src)
}

// ParseReader consumes phy source from an io.Reader and parses it.
func ParseReader(r io.Reader) ([]ast.Stmt, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}
