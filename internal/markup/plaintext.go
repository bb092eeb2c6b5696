package markup

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t\r\f]+`)
)

// PlainText renders trusted markup for a terminal: block elements become
// line breaks, list items get bullets, and links and embeds show their URL.
func PlainText(t Trusted) string {
	if t == "" {
		return ""
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(string(t)), root)
	if err != nil {
		return string(t)
	}
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	out := blankLines.ReplaceAllString(b.String(), "\n\n")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(b, c)
		}
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
		return
	case atom.Br:
		b.WriteString("\n")
		return
	case atom.Img:
		label := attrOr(n, "alt")
		if label == "" {
			label = attrOr(n, "src")
		}
		b.WriteString("[image: " + label + "]")
		return
	case atom.Iframe:
		b.WriteString("\n[embedded: " + attrOr(n, "src") + "]\n")
		return
	case atom.Video, atom.Audio:
		src := attrOr(n, "src")
		for c := n.FirstChild; c != nil && src == ""; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Source {
				src = attrOr(c, "src")
			}
		}
		b.WriteString("\n[" + n.Data + ": " + src + "]\n")
		return
	case atom.Li:
		b.WriteString("\n• ")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		b.WriteString("\n\n")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}

	switch n.DataAtom {
	case atom.A:
		if href := attrOr(n, "href"); href != "" && !strings.HasPrefix(href, "#") {
			b.WriteString(" <" + href + ">")
		}
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Table, atom.Blockquote, atom.Pre, atom.Section, atom.Article:
		b.WriteString("\n\n")
	case atom.Tr:
		b.WriteString("\n")
	case atom.Td, atom.Th:
		b.WriteString("  ")
	}
}
