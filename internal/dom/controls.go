package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

func isCheckable(n *html.Node) bool {
	if n == nil || n.Data != "input" {
		return false
	}
	t, _ := getAttr(n, "type")
	t = strings.ToLower(t)
	return t == "checkbox" || t == "radio"
}

func checkValue(n *html.Node) string {
	if v, ok := getAttr(n, "value"); ok {
		return v
	}
	return "on"
}

func controlValue(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Data {
	case "input":
		if isCheckable(n) {
			if _, checked := getAttr(n, "checked"); checked {
				return checkValue(n)
			}
			return ""
		}
		v, _ := getAttr(n, "value")
		return v
	case "textarea":
		return textContent(n)
	case "select":
		if v, ok := getAttr(n, "value"); ok {
			return v
		}
		var first *html.Node
		for _, opt := range options(n) {
			if first == nil {
				first = opt
			}
			if _, ok := getAttr(opt, "selected"); ok {
				return optionValue(opt)
			}
		}
		if first != nil {
			return optionValue(first)
		}
		return ""
	default:
		v, _ := getAttr(n, "value")
		return v
	}
}

func setControlValue(n *html.Node, v string) {
	if n == nil {
		return
	}
	switch n.Data {
	case "input":
		if isCheckable(n) {
			if v != "" && (v == checkValue(n) || v == "true") {
				setAttr(n, "checked", "")
			} else {
				removeAttr(n, "checked")
			}
			return
		}
		setAttr(n, "value", v)
	case "textarea":
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		if v != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		}
	case "select":
		// A value no option carries is kept on the select itself so the
		// caller sees what was actually submitted.
		matched := false
		for _, opt := range options(n) {
			if optionValue(opt) == v && !matched {
				setAttr(opt, "selected", "")
				matched = true
			} else {
				removeAttr(opt, "selected")
			}
		}
		if matched {
			removeAttr(n, "value")
		} else {
			setAttr(n, "value", v)
		}
	default:
		setAttr(n, "value", v)
	}
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := getAttr(opt, "value"); ok {
		return v
	}
	return textContent(opt)
}

// applyValues writes submitted values into the named controls under scope.
// Checkboxes absent from values are unchecked, matching what a browser
// would have submitted; other absent controls keep their value.
func applyValues(scope *html.Node, values url.Values) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "input", "textarea", "select":
				name, ok := getAttr(c, "name")
				if !ok || name == "" {
					break
				}
				submitted, present := values[name]
				if isCheckable(c) {
					checked := false
					for _, s := range submitted {
						if s == checkValue(c) {
							checked = true
						}
					}
					if checked {
						setAttr(c, "checked", "")
					} else {
						removeAttr(c, "checked")
					}
					break
				}
				if present && len(submitted) > 0 {
					setControlValue(c, submitted[0])
				}
			}
			walk(c)
		}
	}
	walk(scope)
}
