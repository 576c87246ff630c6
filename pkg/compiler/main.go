// Package compiler provides a lexer, parser and two back ends for a small
// PASCAL subset: a tree-walking interpreter and a code generator that emits
// MIPS assembly text.
//
// Pipeline: source → Lex → Parse → { Run | Generate }
package compiler
