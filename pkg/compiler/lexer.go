package compiler

import "fmt"

// keywords maps source text to its keyword TokenType. Matching is
// case-sensitive.
var keywords = map[string]TokenType{
	"VAR":       VAR,
	"PROCEDURE": PROCEDURE,
	"BEGIN":     BEGIN,
	"END":       ENDKW,
	"IF":        IF,
	"THEN":      THEN,
	"WHILE":     WHILE,
	"DO":        DO,
	"WRITELN":   WRITELN,
	"mod":       MOD,
}

// Lexer holds all mutable state for a single scanning pass over src.
// Tokens are produced on demand by Next.
type Lexer struct {
	src  []byte
	pos  int // index of the next byte to consume
	line int // current 1-based source line
	done bool
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []byte(src), line: 1}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

// atEnd reports whether scanning has reached the terminator: physical end of
// input or a '.' character.
func (l *Lexer) atEnd() bool {
	return l.done || l.pos >= len(l.src) || l.src[l.pos] == '.'
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one byte and returns it.
func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &ScanError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

// skipTrivia discards whitespace and both comment styles.
func (l *Lexer) skipTrivia() error {
	for {
		for l.pos < len(l.src) && isSpace(l.peek()) {
			l.advance()
		}
		if l.peek() == '/' && l.peek2() == '/' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			start := l.line
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek() == '*' && l.peek2() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &ScanError{Line: start, Msg: "unterminated block comment"}
			}
			continue
		}
		return nil
	}
}

func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line}
}

func (l *Lexer) scanInt() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	return Token{Type: INTEGER, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// Next skips whitespace and comments and returns the next Token. Once the
// terminator has been reached every call returns the END token.
func (l *Lexer) Next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	if l.atEnd() {
		l.done = true
		return Token{Type: END, Lexeme: ".", Line: l.line}, nil
	}

	ch := l.peek()
	line := l.line

	if isLetter(ch) {
		return l.scanIdent(), nil
	}
	if isDigit(ch) {
		return l.scanInt(), nil
	}

	l.advance()
	switch ch {
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case '{':
		return Token{LBRACE, "{", line}, nil
	case '}':
		return Token{RBRACE, "}", line}, nil
	case '[':
		return Token{LBRACKET, "[", line}, nil
	case ']':
		return Token{RBRACKET, "]", line}, nil
	case ';':
		return Token{SEMICOLON, ";", line}, nil
	case ',':
		return Token{COMMA, ",", line}, nil
	case '+':
		return Token{PLUS, "+", line}, nil
	case '-':
		return Token{MINUS, "-", line}, nil
	case '*':
		return Token{STAR, "*", line}, nil
	case '%':
		return Token{PERCENT, "%", line}, nil
	case '=':
		return Token{EQUALS, "=", line}, nil
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{ASSIGN, ":=", line}, nil
		}
		return Token{COLON, ":", line}, nil
	case '/':
		if l.peek() == '=' {
			l.advance()
			return Token{SLASH_EQ, "/=", line}, nil
		}
		return Token{SLASH, "/", line}, nil
	case '<':
		switch l.peek() {
		case '=':
			l.advance()
			return Token{LESS_EQ, "<=", line}, nil
		case '>':
			l.advance()
			return Token{NOT_EQ, "<>", line}, nil
		}
		return Token{LESS, "<", line}, nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return Token{GREATER_EQ, ">=", line}, nil
		}
		return Token{GREATER, ">", line}, nil
	default:
		return Token{}, l.errorf("unexpected character %q", ch)
	}
}

// Lex tokenises src and returns all tokens including the final END token.
// It returns a non-nil error on the first illegal character or unterminated
// comment.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == END {
			return tokens, nil
		}
	}
}
