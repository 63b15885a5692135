package page

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/dom"
	"github.com/chuxorg/chux-travel/internal/form"
	"github.com/chuxorg/chux-travel/internal/logging"
)

// ListConfig configures a ListPage.
type ListConfig struct {
	API ProjectsAPI
	Options
	// DetailURL links a project card to its detail page.
	// Defaults to /projects/{id}/ui.
	DetailURL func(id int64) string
}

// CreateInput is the raw content of the create-project form.
type CreateInput struct {
	Name        string
	Description string
	StartDate   string
	Places      string
}

// UpdateInput is the raw content of a project card's quick-edit fields.
// Blank fields are left out of the update.
type UpdateInput struct {
	Name        string
	Description string
	StartDate   string
}

// ListPage renders every project with a create form and per-project
// quick edit, update and delete actions.
type ListPage struct {
	base
	api       ProjectsAPI
	detailURL func(int64) string
	view      *view

	msg       *html.Node
	projects  *html.Node
	createMsg *html.Node
	name      *html.Node
	desc      *html.Node
	date      *html.Node
	places    *html.Node
}

// NewListPage builds the list layout into doc and binds the create form.
// Nothing is fetched until Init.
func NewListPage(doc *dom.Document, cfg ListConfig) *ListPage {
	detailURL := cfg.DetailURL
	if detailURL == nil {
		detailURL = func(id int64) string { return fmt.Sprintf("/projects/%d/ui", id) }
	}
	p := &ListPage{
		api:       cfg.API,
		detailURL: detailURL,
		view:      &view{name: "projects", metrics: cfg.Metrics},
	}
	p.base.init(doc, cfg.Options)
	doc.SetTitle("Travel Projects")

	p.name = doc.El("input", dom.Attrs{"id": "p_name", "name": "p_name", "placeholder": "Chicago art weekend"})
	p.desc = doc.El("textarea", dom.Attrs{"id": "p_desc", "name": "p_desc", "rows": "2"})
	p.date = doc.El("input", dom.Attrs{"id": "p_date", "name": "p_date", "type": "date"})
	p.places = doc.El("input", dom.Attrs{"id": "p_places", "name": "p_places", "placeholder": "27992,129884"})
	p.createMsg = doc.El("p", dom.Attrs{"id": "create_msg", "class": "muted"})
	p.msg = doc.El("p", dom.Attrs{"id": "msg", "class": "muted"})
	p.projects = doc.El("div", dom.Attrs{"id": "projects"})

	create := actionButton(doc, "btn_create", "Create", nil)
	p.keep(doc.On(create, "click", func(ctx context.Context, _ dom.Event) {
		_ = p.Create(ctx, CreateInput{
			Name:        doc.Value(p.name),
			Description: doc.Value(p.desc),
			StartDate:   doc.Value(p.date),
			Places:      doc.Value(p.places),
		})
	}))

	doc.Append(doc.Body(),
		doc.El("h1", nil, "Travel Projects"),
		doc.El("section", dom.Attrs{"class": "card"},
			doc.El("h2", nil, "New project"),
			doc.El("form", dom.Attrs{"id": "create_form", "method": "post"},
				doc.El("label", dom.Attrs{"for": "p_name"}, "Name"), p.name,
				doc.El("label", dom.Attrs{"for": "p_desc"}, "Description (optional)"), p.desc,
				doc.El("label", dom.Attrs{"for": "p_date"}, "Start date (optional)"), p.date,
				doc.El("label", dom.Attrs{"for": "p_places"}, "Places (comma-separated artwork ids)"), p.places,
				create,
			),
			p.createMsg,
		),
		doc.El("h2", nil, "Projects"),
		p.msg,
		p.projects,
	)
	return p
}

// Init runs the initial load.
func (p *ListPage) Init(ctx context.Context) { p.Load(ctx) }

// State reports the project list view state.
func (p *ListPage) State() State { return p.view.get() }

// Load fetches every project and re-renders the list. A failure replaces
// the status line with the error and keeps the previous cards.
func (p *ListPage) Load(ctx context.Context) {
	doc := p.doc
	p.view.set(StateLoading)
	setStatus(doc, p.msg, "muted", "Loading...")

	projects, err := p.api.ListProjects(ctx)
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("load projects failed", zap.Error(err))
		setStatus(doc, p.msg, "error", err.Error())
		p.view.set(StateErrored)
		return
	}

	doc.SetText(p.msg, fmt.Sprintf("Loaded %d project(s).", len(projects)))
	cards := make([]any, 0, len(projects))
	for _, pr := range projects {
		cards = append(cards, p.card(pr))
	}
	doc.Replace(p.projects, cards...)
	p.view.set(StateRendered)
}

// Create validates in, creates the project and reloads the list.
// Failures are reported in the create form's status line.
func (p *ListPage) Create(ctx context.Context, in CreateInput) error {
	doc := p.doc
	setStatus(doc, p.createMsg, "muted", "Creating...")

	req, err := buildCreate(in)
	if err == nil {
		_, err = p.api.CreateProject(ctx, req)
	}
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("create project failed", zap.Error(err))
		setStatus(doc, p.createMsg, "error", err.Error())
		return err
	}

	setStatus(doc, p.createMsg, "ok", "Created!")
	for _, n := range []*html.Node{p.name, p.desc, p.date, p.places} {
		doc.SetValue(n, "")
	}
	p.Load(ctx)
	return nil
}

// Update applies the non-blank fields of in to project id and reloads
// the list. Failures are alerted.
func (p *ListPage) Update(ctx context.Context, id int64, in UpdateInput) error {
	req, err := buildUpdate(in)
	if err == nil {
		_, err = p.api.UpdateProject(ctx, id, req)
	}
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("update project failed", zap.Int64("project_id", id), zap.Error(err))
		p.alert(err.Error())
		return err
	}
	p.Load(ctx)
	return nil
}

// Delete removes project id and reloads the list. Failures are alerted.
func (p *ListPage) Delete(ctx context.Context, id int64) error {
	if err := p.api.DeleteProject(ctx, id); err != nil {
		logging.WithRequest(ctx, p.logger).Warn("delete project failed", zap.Int64("project_id", id), zap.Error(err))
		p.alert(err.Error())
		return err
	}
	p.Load(ctx)
	return nil
}

// Close disposes every subscription held by the page.
func (p *ListPage) Close() { p.closeSubs(p.projects) }

func (p *ListPage) card(pr client.Project) *html.Node {
	doc := p.doc
	name := doc.El("input", dom.Attrs{"name": "name", "value": pr.Name})
	desc := doc.El("textarea", dom.Attrs{"name": "description", "rows": "2"}, valueOr(pr.Description, ""))
	date := doc.El("input", dom.Attrs{"name": "start_date", "type": "date", "value": valueOr(pr.StartDate, "")})
	confirm := doc.El("input", dom.Attrs{"type": "checkbox", "name": "confirm", "value": "yes"})

	id := pr.ID
	update := actionButton(doc, fmt.Sprintf("update-project-%d", id), "Update", func(ctx context.Context, _ dom.Event) {
		_ = p.Update(ctx, id, UpdateInput{
			Name:        doc.Value(name),
			Description: doc.Value(desc),
			StartDate:   doc.Value(date),
		})
	})
	del := actionButton(doc, fmt.Sprintf("delete-project-%d", id), "Delete", func(ctx context.Context, _ dom.Event) {
		msg := fmt.Sprintf("Delete project #%d?", id)
		if p.confirm != nil {
			if !p.confirm(msg) {
				return
			}
		} else if doc.Value(confirm) == "" {
			return
		}
		_ = p.Delete(ctx, id)
	})

	return doc.El("form", dom.Attrs{"id": fmt.Sprintf("project-%d", id), "class": "card", "method": "post"},
		doc.El("div", nil, doc.El("strong", nil, fmt.Sprintf("#%d %s", id, pr.Name))),
		doc.El("div", dom.Attrs{"class": "muted"}, "status: "+pr.Status),
		doc.El("div", dom.Attrs{"class": "muted"}, "start_date: "+valueOr(pr.StartDate, "-")),
		doc.El("hr", nil),
		doc.El("div", dom.Attrs{"class": "muted"}, "Quick edit (optional):"),
		doc.El("label", dom.Attrs{"class": "muted"}, "Name"), name,
		doc.El("label", dom.Attrs{"class": "muted"}, "Description (optional)"), desc,
		doc.El("label", dom.Attrs{"class": "muted"}, "Start date"), date,
		doc.El("div", nil,
			doc.El("a", dom.Attrs{"class": "button", "href": p.detailURL(id)}, "Open"),
			update,
			del,
			doc.El("label", dom.Attrs{"class": "muted"}, confirm, " confirm delete"),
		),
	)
}

func buildCreate(in CreateInput) (client.CreateProjectRequest, error) {
	ids, err := form.ParsePlaceIDs(in.Places)
	if err != nil {
		return client.CreateProjectRequest{}, err
	}
	date, err := form.ParseDate(in.StartDate)
	if err != nil {
		return client.CreateProjectRequest{}, err
	}
	places := make([]client.PlaceImport, 0, len(ids))
	for _, id := range ids {
		places = append(places, client.PlaceImport{ExternalID: id})
	}
	return client.CreateProjectRequest{
		Name:        strings.TrimSpace(in.Name),
		Description: form.OptionalString(strings.TrimSpace(in.Description)),
		StartDate:   date,
		Places:      places,
	}, nil
}

func buildUpdate(in UpdateInput) (client.UpdateProjectRequest, error) {
	date, err := form.ParseDate(in.StartDate)
	if err != nil {
		return client.UpdateProjectRequest{}, err
	}
	return client.UpdateProjectRequest{
		Name:        form.OptionalString(strings.TrimSpace(in.Name)),
		Description: form.OptionalString(in.Description),
		StartDate:   date,
	}, nil
}
