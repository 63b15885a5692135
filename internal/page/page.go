// Package page holds the page controllers of the travel front-end.
//
// A controller owns one dom.Document. Loading fetches from the backend and
// renders; every mutation issues one request and, on success, reloads the
// affected views from scratch. Failures are rendered, never returned past
// the event handler that triggered them.
package page

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/dom"
	"github.com/chuxorg/chux-travel/internal/telemetry"
)

// TargetField is the form field naming the button that submitted a form.
// Every action button is rendered as <button name=TargetField value=id>.
const TargetField = "_target"

// ProjectsAPI is the backend surface used by the project list page.
type ProjectsAPI interface {
	ListProjects(ctx context.Context) ([]client.Project, error)
	CreateProject(ctx context.Context, req client.CreateProjectRequest) (client.Project, error)
	UpdateProject(ctx context.Context, id int64, req client.UpdateProjectRequest) (client.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// ProjectAPI is the backend surface used by the project detail page.
type ProjectAPI interface {
	GetProject(ctx context.Context, id int64) (client.Project, error)
	ListPlaces(ctx context.Context, projectID int64) ([]client.Place, error)
	CreatePlace(ctx context.Context, projectID int64, req client.CreatePlaceRequest) (client.Place, error)
	UpdatePlace(ctx context.Context, projectID, placeID int64, req client.UpdatePlaceRequest) (client.Place, error)
}

// State is the lifecycle of one view: idle → loading → rendered|errored.
// A mutation re-enters loading from either final state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRendered
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Options carries the ambient dependencies shared by both controllers.
type Options struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	// Alert surfaces a blocking message. Nil renders it into the page's
	// alert region.
	Alert func(msg string)
	// Confirm guards destructive actions. Nil accepts the action only when
	// the confirm checkbox next to the button was ticked.
	Confirm func(msg string) bool
}

type view struct {
	name    string
	metrics *telemetry.Metrics

	mu    sync.Mutex
	state State
}

func (v *view) set(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
	if s == StateRendered || s == StateErrored {
		v.metrics.CountViewLoad(v.name, s.String())
	}
}

func (v *view) get() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// base is embedded by both controllers.
type base struct {
	doc     *dom.Document
	logger  *zap.Logger
	metrics *telemetry.Metrics
	alertFn func(string)
	confirm func(string) bool
	alerts  *html.Node

	mu      sync.Mutex
	subs    []*dom.Subscription
	alerted []string
}

// init fills b in place and appends the alert region to doc.
func (b *base) init(doc *dom.Document, opts Options) {
	b.doc = doc
	b.logger = opts.Logger
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.metrics = opts.Metrics
	b.alertFn = opts.Alert
	b.confirm = opts.Confirm
	b.alerts = doc.El("div", dom.Attrs{"id": "alerts", "role": "alert"})
	doc.Append(doc.Body(), b.alerts)
}

// alert surfaces msg through the configured hook or the alert region.
func (b *base) alert(msg string) {
	b.mu.Lock()
	b.alerted = append(b.alerted, msg)
	b.mu.Unlock()

	if b.alertFn != nil {
		b.alertFn(msg)
		return
	}
	b.doc.Append(b.alerts, b.doc.El("pre", dom.Attrs{"class": "alert error"}, msg))
}

// Alerts returns every message surfaced through alert so far.
func (b *base) Alerts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.alerted...)
}

func (b *base) keep(sub *dom.Subscription) {
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// closeSubs disposes the long-lived subscriptions and the listeners
// inside the given regions.
func (b *base) closeSubs(regions ...*html.Node) {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	for _, r := range regions {
		b.doc.Replace(r)
	}
}

// actionButton renders a submit button whose click is bound to h.
func actionButton(doc *dom.Document, id, label string, h dom.Handler) *html.Node {
	return doc.El("button", dom.Attrs{
		"type":    "submit",
		"id":      id,
		"name":    TargetField,
		"value":   id,
		"onclick": h,
	}, label)
}

// setStatus writes a status line with its class in one go.
func setStatus(doc *dom.Document, n *html.Node, class, text string) {
	doc.SetClass(n, class)
	doc.SetText(n, text)
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
