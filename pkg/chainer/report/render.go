package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteText renders r for terminals, one derivation per line.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s  kb=%s  engine=%s\n", r.ID, r.KnowledgeBase, r.Engine)
	fmt.Fprintf(&b, "goal: %s\n", r.Goal)
	for _, s := range r.Steps {
		mark := ""
		if s.Goal {
			mark = "  <- goal"
		}
		fmt.Fprintf(&b, "  round %d  rule %d  %s%s\n", s.Round, s.RuleIndex, s.Fact, mark)
	}
	fmt.Fprintf(&b, "result: %s", r.Outcome)
	if r.Proven() {
		fmt.Fprintf(&b, " %s", formatBindings(r.Bindings))
	}
	if r.Error != "" && r.Outcome == OutcomeError {
		fmt.Fprintf(&b, " (%s)", r.Error)
	}
	fmt.Fprintf(&b, "  rounds=%d  took=%s\n", r.Rounds, r.Duration)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteHTML renders r as a standalone HTML document.
func WriteHTML(w io.Writer, r Report) error {
	title := "Run " + r.ID

	head := element(atom.Head,
		withAttr(element(atom.Meta), "charset", "utf-8"),
		element(atom.Title, text(title)),
	)

	summary := element(atom.Dl,
		element(atom.Dt, text("Knowledge base")), element(atom.Dd, text(r.KnowledgeBase)),
		element(atom.Dt, text("Goal")), element(atom.Dd, element(atom.Code, text(r.Goal))),
		element(atom.Dt, text("Engine")), element(atom.Dd, text(r.Engine)),
		element(atom.Dt, text("Outcome")), withAttr(element(atom.Dd, text(r.Outcome)), "class", "outcome"),
		element(atom.Dt, text("Bindings")), element(atom.Dd, element(atom.Code, text(formatBindings(r.Bindings)))),
		element(atom.Dt, text("Rounds")), element(atom.Dd, text(strconv.Itoa(r.Rounds))),
		element(atom.Dt, text("Duration")), element(atom.Dd, text(r.Duration.String())),
	)

	table := element(atom.Table,
		element(atom.Thead, element(atom.Tr,
			element(atom.Th, text("Round")),
			element(atom.Th, text("Rule")),
			element(atom.Th, text("Clause")),
			element(atom.Th, text("Derived")),
		)),
	)
	tbody := element(atom.Tbody)
	for _, s := range r.Steps {
		row := element(atom.Tr,
			element(atom.Td, text(strconv.Itoa(s.Round))),
			element(atom.Td, text(strconv.Itoa(s.RuleIndex))),
			element(atom.Td, element(atom.Code, text(s.Rule))),
			element(atom.Td, element(atom.Code, text(s.Fact))),
		)
		if s.Goal {
			withAttr(row, "class", "goal")
		}
		tbody.AppendChild(row)
	}
	table.AppendChild(tbody)

	body := element(atom.Body, element(atom.H1, text(title)), summary)
	if r.Error != "" {
		body.AppendChild(withAttr(element(atom.P, text(r.Error)), "class", "error"))
	}
	body.AppendChild(table)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, head, body))
	return html.Render(w, doc)
}

func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func withAttr(n *html.Node, key, val string) *html.Node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// formatBindings renders bindings sorted by name: {P/who, X/1}.
func formatBindings(b map[string]string) string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "/" + b[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
