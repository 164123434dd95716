package pdf

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockListItem
)

// run is a piece of inline text sharing one font style ("", "B", "I", "BU", ...).
// A run with text "\n" is a forced line break.
type run struct {
	text  string
	style string
}

type block struct {
	kind   blockKind
	level  int
	center bool
	bullet string
	runs   []run
}

func (b *block) empty() bool {
	for _, r := range b.runs {
		if strings.TrimSpace(r.text) != "" {
			return false
		}
	}
	return true
}

func (b *block) plainText() string {
	var sb strings.Builder
	for _, r := range b.runs {
		if r.text == "\n" {
			sb.WriteString(" ")
			continue
		}
		sb.WriteString(r.text)
	}
	return strings.TrimSpace(sb.String())
}

type layoutBuilder struct {
	blocks  []block
	cur     *block
	ordered []int // counters for nested <ol>, -1 for <ul>
}

// layout parses an HTML fragment into printable blocks.
func layout(src string) ([]block, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}

	lb := &layoutBuilder{}
	for _, n := range nodes {
		lb.walk(n, "", false)
	}
	lb.flush()
	return lb.blocks, nil
}

func (lb *layoutBuilder) open(kind blockKind, level int, center bool) {
	lb.flush()
	lb.cur = &block{kind: kind, level: level, center: center}
}

func (lb *layoutBuilder) flush() {
	if lb.cur == nil {
		return
	}
	if !lb.cur.empty() {
		trimEdges(lb.cur)
		lb.blocks = append(lb.blocks, *lb.cur)
	}
	lb.cur = nil
}

func (lb *layoutBuilder) text(s, style string, center bool) {
	if lb.cur == nil {
		lb.cur = &block{kind: blockParagraph, center: center}
	}
	s = collapseSpace(s)
	if s == "" {
		return
	}
	if n := len(lb.cur.runs); n > 0 {
		last := lb.cur.runs[n-1]
		if (last.text == "\n" || strings.HasSuffix(last.text, " ")) && strings.HasPrefix(s, " ") {
			s = s[1:]
		}
		if last.style == style && last.text != "\n" {
			lb.cur.runs[n-1].text += s
			return
		}
	} else {
		s = strings.TrimLeft(s, " ")
	}
	if s != "" {
		lb.cur.runs = append(lb.cur.runs, run{text: s, style: style})
	}
}

func (lb *layoutBuilder) walk(n *html.Node, style string, center bool) {
	switch n.Type {
	case html.TextNode:
		lb.text(n.Data, style, center)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			lb.walk(c, style, center)
		}
		return
	}

	if centered(n) {
		center = true
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
		return
	case atom.H1, atom.H2, atom.H3, atom.H4:
		lb.open(blockHeading, headingLevel(n.DataAtom), center)
		lb.children(n, addStyle(style, "B"), center)
		lb.flush()
	case atom.P, atom.Div:
		if lb.cur != nil && lb.cur.kind == blockListItem && lb.cur.empty() {
			// <li><p>..</p></li> keeps the bullet
			lb.children(n, style, center)
			return
		}
		lb.open(blockParagraph, 0, center)
		lb.children(n, style, center)
		lb.flush()
	case atom.Ul, atom.Ol:
		lb.flush()
		counter := -1
		if n.DataAtom == atom.Ol {
			counter = 0
		}
		lb.ordered = append(lb.ordered, counter)
		lb.children(n, style, center)
		lb.ordered = lb.ordered[:len(lb.ordered)-1]
		lb.flush()
	case atom.Li:
		lb.open(blockListItem, len(lb.ordered), false)
		lb.cur.bullet = lb.nextBullet()
		lb.children(n, style, center)
		lb.flush()
	case atom.Br:
		if lb.cur == nil {
			lb.cur = &block{kind: blockParagraph, center: center}
		}
		lb.cur.runs = append(lb.cur.runs, run{text: "\n", style: style})
	case atom.Strong, atom.B:
		lb.children(n, addStyle(style, "B"), center)
	case atom.Em, atom.I:
		lb.children(n, addStyle(style, "I"), center)
	case atom.U:
		lb.children(n, addStyle(style, "U"), center)
	default:
		lb.children(n, style, center)
	}
}

func (lb *layoutBuilder) children(n *html.Node, style string, center bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		lb.walk(c, style, center)
	}
}

func (lb *layoutBuilder) nextBullet() string {
	if len(lb.ordered) == 0 {
		return "•"
	}
	i := len(lb.ordered) - 1
	if lb.ordered[i] < 0 {
		return "•"
	}
	lb.ordered[i]++
	return strconv.Itoa(lb.ordered[i]) + "."
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	default:
		return 4
	}
}

func centered(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "align" && strings.EqualFold(a.Val, "center") {
			return true
		}
		if a.Key != "style" {
			continue
		}
		for _, decl := range strings.Split(a.Val, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if ok && strings.TrimSpace(strings.ToLower(k)) == "text-align" && strings.TrimSpace(strings.ToLower(v)) == "center" {
				return true
			}
		}
	}
	return n.Data == "center"
}

func addStyle(style, s string) string {
	if strings.Contains(style, s) {
		return style
	}
	// fpdf expects B, I, U in any order
	return style + s
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func trimEdges(b *block) {
	for len(b.runs) > 0 && b.runs[len(b.runs)-1].text == "\n" {
		b.runs = b.runs[:len(b.runs)-1]
	}
	if n := len(b.runs); n > 0 {
		b.runs[n-1].text = strings.TrimRight(b.runs[n-1].text, " ")
	}
}
