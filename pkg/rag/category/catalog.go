package category

import (
	"strings"
	"unicode"
)

// Label is a category name from the configured closed set.
type Label string

// None means routing was not confident enough to pick any category.
const None Label = ""

func (l Label) String() string {
	if l == None {
		return "none"
	}
	return string(l)
}

// Catalog is the closed label set plus the reserved fallback label.
type Catalog struct {
	labels   []Label
	index    map[Label]bool
	fallback Label
}

func NewCatalog(labels []string, fallback string) *Catalog {
	c := &Catalog{
		index:    make(map[Label]bool, len(labels)),
		fallback: Label(normalize(fallback)),
	}
	for _, l := range labels {
		lbl := Label(normalize(l))
		if lbl == None || c.index[lbl] {
			continue
		}
		c.labels = append(c.labels, lbl)
		c.index[lbl] = true
	}
	return c
}

func (c *Catalog) Labels() []Label {
	return append([]Label(nil), c.labels...)
}

func (c *Catalog) Strings() []string {
	out := make([]string, len(c.labels))
	for i, l := range c.labels {
		out[i] = string(l)
	}
	return out
}

func (c *Catalog) Default() Label { return c.fallback }

func (c *Catalog) Contains(l Label) bool { return c.index[l] }

// Resolve maps a free-form completion to a catalog label. Surrounding quotes,
// punctuation and case are ignored. When the reply is a sentence, a single
// unambiguous label mentioned in it is accepted. Anything else resolves to
// the fallback with ok=false.
func (c *Catalog) Resolve(raw string) (Label, bool) {
	first := strings.TrimSpace(raw)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if i := strings.LastIndexByte(first, ':'); i >= 0 {
		first = first[i+1:]
	}

	if lbl := Label(normalize(first)); c.index[lbl] {
		return lbl, true
	}

	var found Label
	for _, tok := range strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-')
	}) {
		lbl := Label(tok)
		if !c.index[lbl] {
			continue
		}
		if found != None && found != lbl {
			return c.fallback, false
		}
		found = lbl
	}
	if found != None {
		return found, true
	}
	return c.fallback, false
}

func normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) && r != '_' || r == '`'
	})
}
