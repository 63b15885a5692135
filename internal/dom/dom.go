// Package dom is a small server-held document model built on
// golang.org/x/net/html. Page controllers build and mutate it; the web
// layer renders it and feeds user actions back in as events.
//
// All Document methods are safe for concurrent use. Event handlers run
// outside the document lock and may mutate the document freely.
package dom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTarget is returned by Submit when no element carries the id.
var ErrNoTarget = errors.New("no element with id")

// Attrs maps attribute names to values for El.
//
//   - "class" sets the CSS class.
//   - "on<event>" with a Handler (or func(context.Context, Event)) binds a
//     listener; with a string it is a plain attribute; anything else is
//     skipped.
//   - Other keys are plain attributes. true renders the bare attribute,
//     false and nil omit it, other values are formatted with fmt.
type Attrs map[string]any

// Event is delivered to handlers by Dispatch and Submit.
type Event struct {
	Type   string
	Target *html.Node
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event)

// Subscription is a registered listener. Close removes it.
type Subscription struct {
	doc     *Document
	node    *html.Node
	event   string
	handler Handler
	closed  bool
}

// Close unregisters the listener. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.doc == nil {
		return
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	s.doc.removeLocked(s)
}

// Closed reports whether the listener has been removed.
func (s *Subscription) Closed() bool {
	if s == nil || s.doc == nil {
		return true
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.closed
}

// Document owns an HTML tree and the listeners bound to its nodes.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	head      *html.Node
	body      *html.Node
	title     *html.Node
	listeners map[*html.Node][]*Subscription
}

// NewDocument returns an empty HTML5 document with the given title.
func NewDocument(title string) *Document {
	d := &Document{listeners: make(map[*html.Node][]*Subscription)}
	d.root = &html.Node{Type: html.DocumentNode}
	d.root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element("html")
	htmlEl.Attr = []html.Attribute{{Key: "lang", Val: "en"}}
	d.head = element("head")
	meta := element("meta")
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	d.head.AppendChild(meta)
	d.title = element("title")
	d.title.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	d.head.AppendChild(d.title)
	d.body = element("body")

	htmlEl.AppendChild(d.head)
	htmlEl.AppendChild(d.body)
	d.root.AppendChild(htmlEl)
	return d
}

// Head returns the <head> element.
func (d *Document) Head() *html.Node { return d.head }

// Body returns the <body> element.
func (d *Document) Body() *html.Node { return d.body }

// SetTitle replaces the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replaceLocked(d.title, []any{title})
}

// El builds an element from tag, attrs and children. Children may be
// strings (text), *html.Node (moved if already attached) or nil (skipped);
// other values are formatted with fmt.
func (d *Document) El(tag string, attrs Attrs, children ...any) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := element(tag)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := attrs[k]
		switch {
		case k == "class":
			if v != nil {
				setAttr(n, "class", fmt.Sprint(v))
			}
		case strings.HasPrefix(k, "on") && len(k) > 2:
			switch h := v.(type) {
			case Handler:
				if h != nil {
					d.onLocked(n, k[2:], h)
				}
			case func(context.Context, Event):
				if h != nil {
					d.onLocked(n, k[2:], h)
				}
			case string:
				setAttr(n, k, h)
			}
		default:
			switch t := v.(type) {
			case nil:
			case bool:
				if t {
					setAttr(n, k, "")
				}
			default:
				setAttr(n, k, fmt.Sprint(t))
			}
		}
	}

	d.appendLocked(n, children)
	return n
}

// On binds h to event on n.
func (d *Document) On(n *html.Node, event string, h Handler) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onLocked(n, event, h)
}

// Dispatch runs the handlers bound to event on n in registration order and
// returns how many ran.
func (d *Document) Dispatch(ctx context.Context, n *html.Node, event string) int {
	d.mu.Lock()
	var handlers []Handler
	for _, sub := range d.listeners[n] {
		if sub.event == event && !sub.closed {
			handlers = append(handlers, sub.handler)
		}
	}
	d.mu.Unlock()

	ev := Event{Type: event, Target: n}
	for _, h := range handlers {
		h(ctx, ev)
	}
	return len(handlers)
}

// Submit emulates a form submission triggered by the element with
// targetID: values are written into the named controls of the target's
// enclosing form (the body when there is none), then a click is
// dispatched on the target.
func (d *Document) Submit(ctx context.Context, targetID string, values url.Values) error {
	d.mu.Lock()
	target := findByID(d.root, targetID)
	if target == nil {
		d.mu.Unlock()
		return fmt.Errorf("%w %q", ErrNoTarget, targetID)
	}
	scope := enclosing(target, "form")
	if scope == nil {
		scope = d.body
	}
	applyValues(scope, values)
	d.mu.Unlock()

	d.Dispatch(ctx, target, "click")
	return nil
}

// Append adds children to parent.
func (d *Document) Append(parent *html.Node, children ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendLocked(parent, children)
}

// Replace swaps parent's children for the given ones. Listeners bound
// inside the removed subtrees are closed.
func (d *Document) Replace(parent *html.Node, children ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replaceLocked(parent, children)
}

// SetText replaces n's children with a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.Replace(n, text)
}

// SetClass sets n's class attribute.
func (d *Document) SetClass(n *html.Node, class string) {
	d.SetAttr(n, "class", class)
}

// SetAttr sets an attribute on n.
func (d *Document) SetAttr(n *html.Node, key, val string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	setAttr(n, key, val)
}

// RemoveAttr deletes an attribute from n.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	removeAttr(n, key)
}

// Attr returns an attribute of n, or "".
func (d *Document) Attr(n *html.Node, key string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, _ := getAttr(n, key)
	return v
}

// Text returns the concatenated text content of n.
func (d *Document) Text(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return textContent(n)
}

// Value reads a form control the way a browser exposes .value.
func (d *Document) Value(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return controlValue(n)
}

// SetValue writes a form control value.
func (d *Document) SetValue(n *html.Node, v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	setControlValue(n, v)
}

// ByID finds the element with the given id attribute.
func (d *Document) ByID(id string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findByID(d.root, id)
}

// ListenerCount returns the number of open subscriptions.
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, subs := range d.listeners {
		for _, s := range subs {
			if !s.closed {
				count++
			}
		}
	}
	return count
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// RenderNode writes a single subtree as HTML.
func (d *Document) RenderNode(w io.Writer, n *html.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, n)
}

func (d *Document) onLocked(n *html.Node, event string, h Handler) *Subscription {
	sub := &Subscription{doc: d, node: n, event: strings.ToLower(event), handler: h}
	if n == nil || h == nil {
		sub.closed = true
		return sub
	}
	d.listeners[n] = append(d.listeners[n], sub)
	return sub
}

func (d *Document) removeLocked(s *Subscription) {
	if s.closed {
		return
	}
	s.closed = true
	subs := d.listeners[s.node]
	for i, other := range subs {
		if other == s {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(d.listeners, s.node)
		return
	}
	d.listeners[s.node] = subs
}

func (d *Document) disposeSubtreeLocked(n *html.Node) {
	for _, sub := range d.listeners[n] {
		sub.closed = true
	}
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.disposeSubtreeLocked(c)
	}
}

func (d *Document) appendLocked(parent *html.Node, children []any) {
	if parent == nil {
		return
	}
	for _, c := range children {
		switch v := c.(type) {
		case nil:
		case *html.Node:
			if v == nil {
				continue
			}
			detach(v)
			parent.AppendChild(v)
		case string:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		default:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: fmt.Sprint(v)})
		}
	}
}

func (d *Document) replaceLocked(parent *html.Node, children []any) {
	if parent == nil {
		return
	}
	for _, c := range children {
		if n, ok := c.(*html.Node); ok && n != nil {
			detach(n)
		}
	}
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		d.disposeSubtreeLocked(c)
		c = next
	}
	d.appendLocked(parent, children)
}

func element(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func findByID(n *html.Node, id string) *html.Node {
	if n == nil || id == "" {
		return nil
	}
	if n.Type == html.ElementNode {
		if v, ok := getAttr(n, "id"); ok && v == id {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func enclosing(n *html.Node, tag string) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return p
		}
	}
	return nil
}
