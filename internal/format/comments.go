package format

import "strings"

type comment struct {
	text        string
	trailing    bool // на той же строке, что и предыдущий оператор
	blankBefore bool
}

// gap describes the trivia between two statements: only whitespace, `;` and comments.
type gap struct {
	comments    []comment
	blankBefore bool // пустая строка перед следующим оператором
}

func (p *printer) scanGap(start, end int) gap {
	content := p.sf.Content
	start = clampToContent(start, len(content))
	end = clampToContent(end, len(content))

	var g gap
	newlines := 0
	seenNewline := false
	for i := start; i < end; i++ {
		switch content[i] {
		case '\n':
			newlines++
			seenNewline = true
		case '#':
			j := i
			for j < end && content[j] != '\n' {
				j++
			}
			if !p.opt.DropComments {
				g.comments = append(g.comments, comment{
					text:        strings.TrimRight(string(content[i:j]), " \t\r"),
					trailing:    !seenNewline,
					blankBefore: newlines >= 2,
				})
			}
			newlines = 0
			i = j - 1
		}
	}
	g.blankBefore = newlines >= 2
	return g
}

// hasComment reports whether [start, end) contains a `#` outside string literals.
func (p *printer) hasComment(start, end int) bool {
	content := p.sf.Content
	start = clampToContent(start, len(content))
	end = clampToContent(end, len(content))
	inString := false
	for i := start; i < end; i++ {
		c := content[i]
		switch {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case !inString && c == '#':
			return true
		}
	}
	return false
}

// emitGap writes the comments of g. first is true while nothing was
// printed yet in the current statement list.
func (p *printer) emitGap(g gap, first bool) bool {
	for _, c := range g.comments {
		if c.trailing && !first {
			p.writer.Space()
			p.writer.WriteString(c.text)
			continue
		}
		if c.blankBefore && !first {
			p.writer.BlankLine()
		} else {
			p.writer.Newline()
		}
		p.writer.WriteString(c.text)
		first = false
	}
	return first
}
