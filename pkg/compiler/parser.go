package compiler

import (
	"strconv"
	"strings"
)

// TokenSource is the on-demand token stream the parser consumes. *Lexer
// satisfies it.
type TokenSource interface {
	Next() (Token, error)
}

// sliceSource replays a pre-lexed token slice, returning END once exhausted.
type sliceSource struct {
	tokens []Token
	pos    int
}

func (s *sliceSource) Next() (Token, error) {
	if s.pos >= len(s.tokens) {
		line := 1
		if len(s.tokens) > 0 {
			line = s.tokens[len(s.tokens)-1].Line
		}
		return Token{Type: END, Lexeme: ".", Line: line}, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

// Parser builds a Program from a token stream using one token of lookahead.
//
// Grammar:
//
//	program    = [ "(" ] { "VAR" idents ";" } [ ")" ] { procedure } statement "."
//	procedure  = "PROCEDURE" IDENT "(" [ idents ] ")" ";" { "VAR" idents ";" } statement
//	statement  = "WRITELN" "(" expression ")" ";"
//	           | "BEGIN" { statement } "END" ";"
//	           | "IF" condition "THEN" statement
//	           | "WHILE" condition "DO" statement
//	           | IDENT ":=" expression ";"
//	condition  = expression relop expression
//	expression = term { ( "+" | "-" ) term }
//	term       = factor { ( "*" | "/" | "mod" ) factor }
//	factor     = "(" expression ")" | "-" factor | INTEGER
//	           | IDENT [ "(" [ expression { "," expression } ] ")" ]
//	idents     = IDENT { "," IDENT }
type Parser struct {
	src         TokenSource
	cur         Token
	sourceLines []string
}

// NewParser returns a parser over ts. rawSource is only used to quote the
// offending line in syntax errors and may be empty.
func NewParser(ts TokenSource, rawSource string) *Parser {
	p := &Parser{src: ts}
	if rawSource != "" {
		p.sourceLines = strings.Split(rawSource, "\n")
	}
	return p
}

// Parse builds a Program from an already lexed token slice.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	return NewParser(&sliceSource{tokens: tokens}, rawSource).ParseProgram()
}

// ParseSource lexes and parses src in a single streaming pass.
func ParseSource(src string) (*Program, error) {
	return NewParser(NewLexer(src), src).ParseProgram()
}

// ParseProgram parses a program from any token stream, pulling tokens on
// demand.
func ParseProgram(ts TokenSource) (*Program, error) {
	return NewParser(ts, "").ParseProgram()
}

// spelling returns how a token type is written in source, for diagnostics.
func spelling(tt TokenType) string {
	switch tt {
	case END:
		return "."
	case IDENTIFIER:
		return "identifier"
	case INTEGER:
		return "integer"
	case ENDKW:
		return "END"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case SEMICOLON:
		return ";"
	case COMMA:
		return ","
	case ASSIGN:
		return ":="
	}
	for kw, kt := range keywords {
		if kt == tt {
			return kw
		}
	}
	return opString(tt)
}

func (p *Parser) errorf(expected string) error {
	err := &SyntaxError{Line: p.cur.Line, Expected: expected, Found: p.cur.Lexeme}
	if idx := p.cur.Line - 1; idx >= 0 && idx < len(p.sourceLines) {
		err.Snippet = strings.TrimSpace(p.sourceLines[idx])
	}
	return err
}

// advance moves the lookahead to the next token.
func (p *Parser) advance() error {
	tok, err := p.src.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// eat consumes the current token if it matches tt, otherwise returns a
// SyntaxError naming both the expected and the actual lexeme.
func (p *Parser) eat(tt TokenType) (Token, error) {
	tok := p.cur
	if tok.Type != tt {
		return tok, p.errorf(spelling(tt))
	}
	return tok, p.advance()
}

// ParseProgram parses one complete program up to and including the
// terminating ".".
func (p *Parser) ParseProgram() (*Program, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	prog := &Program{}

	opened := false
	if p.cur.Type == LPAREN {
		opened = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool)
	for p.cur.Type == VAR {
		names, err := p.parseVarBlock()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			// Redeclaring a global is harmless: both back ends keep one slot.
			if seen[name] {
				continue
			}
			seen[name] = true
			prog.Vars = append(prog.Vars, &VariableDeclaration{Name: name})
		}
	}

	if opened {
		if _, err := p.eat(RPAREN); err != nil {
			return nil, err
		}
	}

	for p.cur.Type == PROCEDURE {
		proc, err := p.parseProcedure()
		if err != nil {
			return nil, err
		}
		prog.Procs = append(prog.Procs, proc)
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	prog.Body = body

	if p.cur.Type != END {
		return nil, p.errorf(".")
	}
	return prog, nil
}

// parseVarBlock parses VAR a, b, c;
func (p *Parser) parseVarBlock() ([]string, error) {
	if _, err := p.eat(VAR); err != nil {
		return nil, err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(SEMICOLON); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	tok, err := p.eat(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	names := []string{tok.Lexeme}
	for p.cur.Type == COMMA {
		if err := p.advance(); err != nil {
			return nil, err
		}
		tok, err := p.eat(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Lexeme)
	}
	return names, nil
}

func (p *Parser) parseProcedure() (*ProcedureDeclaration, error) {
	if _, err := p.eat(PROCEDURE); err != nil {
		return nil, err
	}
	nameTok, err := p.eat(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	proc := &ProcedureDeclaration{Name: nameTok.Lexeme}

	if _, err := p.eat(LPAREN); err != nil {
		return nil, err
	}
	if p.cur.Type != RPAREN {
		if proc.Params, err = p.parseIdentList(); err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.eat(SEMICOLON); err != nil {
		return nil, err
	}

	for p.cur.Type == VAR {
		names, err := p.parseVarBlock()
		if err != nil {
			return nil, err
		}
		proc.Locals = append(proc.Locals, names...)
	}

	// A frame slot must have exactly one meaning.
	used := map[string]bool{proc.Name: true}
	for _, name := range append(append([]string{}, proc.Params...), proc.Locals...) {
		if used[name] {
			return nil, &SyntaxError{Line: nameTok.Line, Expected: "distinct name in procedure " + proc.Name, Found: name}
		}
		used[name] = true
	}

	if proc.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return proc, nil
}

// parseStatement dispatches on the leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.cur.Type {

	case WRITELN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.eat(LPAREN); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(RPAREN); err != nil {
			return nil, err
		}
		if _, err := p.eat(SEMICOLON); err != nil {
			return nil, err
		}
		return &WriteLine{Expr: expr}, nil

	case BEGIN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var stmts []Stmt
		for p.cur.Type != ENDKW && p.cur.Type != END {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		if _, err := p.eat(ENDKW); err != nil {
			return nil, err
		}
		// "END." closes the program without a semicolon.
		if p.cur.Type == END {
			return &Block{Stmts: stmts}, nil
		}
		if _, err := p.eat(SEMICOLON); err != nil {
			return nil, err
		}
		return &Block{Stmts: stmts}, nil

	case IF:
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(THEN); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Body: body}, nil

	case WHILE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(DO); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil

	case IDENTIFIER:
		name := p.cur.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.eat(ASSIGN); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(SEMICOLON); err != nil {
			return nil, err
		}
		return &Assignment{Name: name, Value: val}, nil

	default:
		return nil, p.errorf("statement")
	}
}

func (p *Parser) parseCondition() (*Condition, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	op := p.cur.Type
	if !op.IsRelop() {
		return nil, p.errorf("relational operator")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Condition{Op: op, Left: left, Right: right}, nil
}

// parseExpression handles + and -
func (p *Parser) parseExpression() (Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == PLUS || p.cur.Type == MINUS {
		op := p.cur.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

// parseTerm handles *, / and mod
func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == STAR || p.cur.Type == SLASH || p.cur.Type == MOD {
		op := p.cur.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

// parseFactor handles parentheses, unary minus, literals, variables and
// procedure calls.
func (p *Parser) parseFactor() (Expr, error) {
	tok := p.cur
	switch tok.Type {
	case LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: STAR, Left: &Number{Value: -1}, Right: right}, nil

	case INTEGER:
		val, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, p.errorf("integer in 32-bit range")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Number{Value: int32(val)}, nil

	case IDENTIFIER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != LPAREN {
			return &Variable{Name: tok.Lexeme}, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		call := &ProcedureCall{Name: tok.Lexeme}
		if p.cur.Type != RPAREN {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if p.cur.Type != COMMA {
					break
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.eat(RPAREN); err != nil {
			return nil, err
		}
		return call, nil

	default:
		return nil, p.errorf("expression")
	}
}
