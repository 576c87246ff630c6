// Package casebook extracts end-to-end test cases from Markdown documents.
//
// A case starts at any heading of the form "Test: name" and is made of fenced
// code blocks:
//
//	```pascal   the program under test (required, exactly one)
//	```output   expected WRITELN output, one integer per line
//	```error    substring expected in the error the program fails with
//	```mips     lines that must appear, in order, in the generated assembly
//
// Each case needs a pascal fence and at least one expectation fence.
package casebook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FenceType is the info string of a recognised code fence.
type FenceType string

const (
	FenceSource FenceType = "pascal"
	FenceOutput FenceType = "output"
	FenceError  FenceType = "error"
	FenceAsm    FenceType = "mips"
)

// Case is one test case extracted from a casebook.
type Case struct {
	Name      string   // heading text after "Test: "
	Line      int      // line of the heading
	Source    string   // program text
	Output    string   // expected output; meaningful when HasOutput
	HasOutput bool     // an output fence was present, possibly empty
	Error     string   // expected error substring, empty if none
	Asm       []string // expected assembly lines, in order
}

// Extract parses a Markdown document and returns its cases in document
// order.
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var cur *Case

	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := validate(cur); err != nil {
			return err
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{
				Name: strings.TrimSpace(strings.TrimPrefix(heading, "Test: ")),
				Line: lineOf(n, source),
			}

		case *ast.FencedCodeBlock:
			lang := FenceType(n.Language(source))
			line := lineOf(n, source)
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if cur == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, lang)
			}
			content := blockContent(n, source)

			switch lang {
			case FenceSource:
				if cur.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple pascal fences in test '%s'", line, cur.Name)
				}
				cur.Source = content
			case FenceOutput:
				if cur.HasOutput {
					return ast.WalkStop, fmt.Errorf("line %d: multiple output fences in test '%s'", line, cur.Name)
				}
				cur.Output = content
				cur.HasOutput = true
			case FenceError:
				cur.Error = strings.TrimSpace(content)
			case FenceAsm:
				for _, l := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
					if l = strings.TrimSpace(l); l != "" {
						cur.Asm = append(cur.Asm, l)
					}
				}
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("casebook: %w", err)
	}
	if err := flush(); err != nil {
		return nil, fmt.Errorf("casebook: %w", err)
	}
	return cases, nil
}

func validate(c *Case) error {
	if c.Source == "" {
		return fmt.Errorf("test '%s' has no pascal fence", c.Name)
	}
	if !c.HasOutput && c.Error == "" && len(c.Asm) == 0 {
		return fmt.Errorf("test '%s' has no expectation fences", c.Name)
	}
	if c.HasOutput && c.Error != "" {
		return fmt.Errorf("test '%s' expects both output and an error", c.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based source line where node's content starts.
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte{'\n'}) + 1
}
