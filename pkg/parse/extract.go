package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

// Kind selects what a Query reads from the elements its selector matches
type Kind int

const (
	AttrOfFirst  Kind = iota // Attribute of the first match
	TextOfFirst              // Trimmed text of the first match
	TextOfAll                // Trimmed text of every match
	AttrOfAll                // Attribute of every match
	OwnTextNodes             // Direct text nodes of the first match, one value per node
)

// Query is a named field's lookup: a CSS selector plus what to read from the matches.
// Sibling-relative lookups are expressed with the selector's "+" and "~" combinators.
type Query struct {
	Selector string
	Kind     Kind
	Attr     string // Used by AttrOfFirst and AttrOfAll
}

// Attr reads attribute name of the first element matching selector
func Attr(selector, name string) Query {
	return Query{Selector: selector, Kind: AttrOfFirst, Attr: name}
}

// AttrAll reads attribute name of every element matching selector
func AttrAll(selector, name string) Query {
	return Query{Selector: selector, Kind: AttrOfAll, Attr: name}
}

// Text reads the text of the first element matching selector
func Text(selector string) Query {
	return Query{Selector: selector, Kind: TextOfFirst}
}

// TextAll reads the text of every element matching selector
func TextAll(selector string) Query {
	return Query{Selector: selector, Kind: TextOfAll}
}

// TextNodes reads the direct text nodes of the first element matching selector
func TextNodes(selector string) Query {
	return Query{Selector: selector, Kind: OwnTextNodes}
}

// Result holds the values found for each queried field
type Result struct {
	values map[string][]string
}

// NotFound reports whether the field produced no non-blank value
func (r *Result) NotFound(field string) bool {
	return len(r.values[field]) == 0
}

// String returns the first value of field, or "" if it was not found
func (r *Result) String(field string) string {
	if vals := r.values[field]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// List returns a copy of every value of field
func (r *Result) List(field string) []string {
	return append([]string(nil), r.values[field]...)
}

// Fields returns the names of all fields that produced a value, sorted
func (r *Result) Fields() []string {
	names := make([]string, 0, len(r.values))
	for name, vals := range r.values {
		if len(vals) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Compile validates every selector in queries, so a broken ruleset fails before any page is read
func Compile(queries map[string]Query) (map[string]cascadia.Selector, error) {
	compiled := make(map[string]cascadia.Selector, len(queries))
	for field, q := range queries {
		sel, err := cascadia.Compile(q.Selector)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid selector for field '%s' (%q): %w", utils.ErrParsing, field, q.Selector, err)
		}
		if (q.Kind == AttrOfFirst || q.Kind == AttrOfAll) && q.Attr == "" {
			return nil, fmt.Errorf("%w: invalid selector for field '%s': attribute query names no attribute", utils.ErrParsing, field)
		}
		compiled[field] = sel
	}
	return compiled, nil
}

// Extract parses raw as HTML and runs every query against it.
// A field whose selector matches nothing (or only blank values) is reported by Result.NotFound.
func Extract(raw string, queries map[string]Query) (*Result, error) {
	compiled, err := Compile(queries)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML document could not be read: %w", utils.ErrParsing, err)
	}

	result := &Result{values: make(map[string][]string, len(queries))}
	for field, q := range queries {
		matches := doc.FindMatcher(compiled[field])
		result.values[field] = read(matches, q)
	}
	return result, nil
}

// read collects the non-blank values q selects from matches
func read(matches *goquery.Selection, q Query) []string {
	var vals []string
	add := func(v string) {
		if strings.TrimSpace(v) != "" {
			vals = append(vals, v)
		}
	}

	switch q.Kind {
	case AttrOfFirst:
		if v, ok := matches.First().Attr(q.Attr); ok {
			add(strings.TrimSpace(v))
		}
	case AttrOfAll:
		matches.Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(q.Attr); ok {
				add(strings.TrimSpace(v))
			}
		})
	case TextOfFirst:
		if matches.Length() > 0 {
			add(strings.TrimSpace(matches.First().Text()))
		}
	case TextOfAll:
		matches.Each(func(_ int, s *goquery.Selection) {
			add(strings.TrimSpace(s.Text()))
		})
	case OwnTextNodes:
		if matches.Length() == 0 {
			break
		}
		for c := matches.Get(0).FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				add(c.Data)
			}
		}
	}
	return vals
}
