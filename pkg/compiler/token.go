package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	END TokenType = iota // sentinel: "." or end of input

	// Literals
	IDENTIFIER // variable / procedure name
	INTEGER    // decimal integer literal

	// Keywords
	VAR       // "VAR"
	PROCEDURE // "PROCEDURE"
	BEGIN     // "BEGIN"
	ENDKW     // "END"
	IF        // "IF"
	THEN      // "THEN"
	WHILE     // "WHILE"
	DO        // "DO"
	WRITELN   // "WRITELN"
	MOD       // "mod"

	// Paired delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :

	// Arithmetic operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	ASSIGN     // :=
	SLASH_EQ   // /=
	EQUALS     // =
	NOT_EQ     // <>
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	END:        "END",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	VAR:        "VAR",
	PROCEDURE:  "PROCEDURE",
	BEGIN:      "BEGIN",
	ENDKW:      "ENDKW",
	IF:         "IF",
	THEN:       "THEN",
	WHILE:      "WHILE",
	DO:         "DO",
	WRITELN:    "WRITELN",
	MOD:        "MOD",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	SEMICOLON:  "SEMICOLON",
	COMMA:      "COMMA",
	COLON:      "COLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	PERCENT:    "PERCENT",
	ASSIGN:     "ASSIGN",
	SLASH_EQ:   "SLASH_EQ",
	EQUALS:     "EQUALS",
	NOT_EQ:     "NOT_EQ",
	LESS:       "LESS",
	GREATER:    "GREATER",
	LESS_EQ:    "LESS_EQ",
	GREATER_EQ: "GREATER_EQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// IsRelop reports whether tt is one of the six relational operators.
func (tt TokenType) IsRelop() bool {
	switch tt {
	case EQUALS, NOT_EQ, LESS, GREATER, LESS_EQ, GREATER_EQ:
		return true
	}
	return false
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
