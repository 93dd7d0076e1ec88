// Package xmlstream liest große XML-Dumps Record für Record.
package xmlstream

import "strings"

// Node ist ein vollständig geladener Element-Teilbaum.
//
// Text enthält die Zeichendaten vor dem ersten Kind, Tail die Zeichendaten
// nach dem schließenden Tag bis zum nächsten Geschwister. Damit bleibt
// gemischter Inhalt wie <i>...</i> in InnerText in Reihenfolge erhalten.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Tail     string
	Children []*Node
}

// Child gibt das erste Kind mit dem Namen zurück oder nil. Nil-sicher.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All gibt alle Kinder mit dem Namen in Dokumentreihenfolge zurück.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path folgt einer Kette von Kindnamen, z.B. Path("Journal", "JournalIssue").
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Attr gibt den getrimmten Attributwert zurück, nil wenn er fehlt oder leer ist.
func (n *Node) Attr(name string) *string {
	if n == nil {
		return nil
	}
	v, ok := n.Attrs[name]
	if !ok {
		return nil
	}
	return nonEmpty(v)
}

// Value gibt den getrimmten inneren Text zurück, nil wenn das Element fehlt oder leer ist.
func (n *Node) Value() *string {
	if n == nil {
		return nil
	}
	return nonEmpty(n.InnerText())
}

// InnerText verkettet den Text des gesamten Teilbaums.
func (n *Node) InnerText() string {
	if n == nil {
		return ""
	}
	if len(n.Children) == 0 {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(b)
		b.WriteString(c.Tail)
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
