package page

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/dom"
	"github.com/chuxorg/chux-travel/internal/form"
	"github.com/chuxorg/chux-travel/internal/logging"
)

// DetailConfig configures a DetailPage.
type DetailConfig struct {
	API       ProjectAPI
	ProjectID int64
	Options
}

// DetailPage renders one project, its places and the add-place form.
type DetailPage struct {
	base
	api       ProjectAPI
	projectID int64

	projectView *view
	placesView  *view

	header     *html.Node
	info       *html.Node
	placesMsg  *html.Node
	places     *html.Node
	addMsg     *html.Node
	externalID *html.Node
	notes      *html.Node
}

// NewDetailPage builds the detail layout for cfg.ProjectID into doc and
// binds the add-place form. Nothing is fetched until Init.
func NewDetailPage(doc *dom.Document, cfg DetailConfig) *DetailPage {
	p := &DetailPage{
		api:         cfg.API,
		projectID:   cfg.ProjectID,
		projectView: &view{name: "project", metrics: cfg.Metrics},
		placesView:  &view{name: "places", metrics: cfg.Metrics},
	}
	p.base.init(doc, cfg.Options)
	doc.SetTitle(fmt.Sprintf("Project #%d", cfg.ProjectID))

	p.header = doc.El("span", dom.Attrs{"id": "project_id"})
	p.info = doc.El("div", dom.Attrs{"id": "project_info", "class": "card"})
	p.externalID = doc.El("input", dom.Attrs{"id": "add_external_id", "name": "add_external_id", "inputmode": "numeric", "placeholder": "27992"})
	p.notes = doc.El("textarea", dom.Attrs{"id": "add_notes", "name": "add_notes", "rows": "2"})
	p.addMsg = doc.El("p", dom.Attrs{"id": "add_msg", "class": "muted"})
	p.placesMsg = doc.El("p", dom.Attrs{"id": "places_msg", "class": "muted"})
	p.places = doc.El("div", dom.Attrs{"id": "places"})

	add := actionButton(doc, "btn_add", "Add place", nil)
	p.keep(doc.On(add, "click", func(ctx context.Context, _ dom.Event) {
		_ = p.AddPlace(ctx, doc.Value(p.externalID), doc.Value(p.notes))
	}))

	doc.Append(doc.Body(),
		doc.El("p", nil, doc.El("a", dom.Attrs{"href": "/"}, "All projects")),
		doc.El("h1", nil, "Project ", p.header),
		p.info,
		doc.El("section", dom.Attrs{"class": "card"},
			doc.El("h2", nil, "Add place"),
			doc.El("form", dom.Attrs{"id": "add_form", "method": "post"},
				doc.El("label", dom.Attrs{"for": "add_external_id"}, "External ID"), p.externalID,
				doc.El("label", dom.Attrs{"for": "add_notes"}, "Notes (optional)"), p.notes,
				add,
			),
			p.addMsg,
		),
		doc.El("h2", nil, "Places"),
		p.placesMsg,
		p.places,
	)
	return p
}

// ProjectID returns the project this page shows.
func (p *DetailPage) ProjectID() int64 { return p.projectID }

// Init issues the project and places loads concurrently. Each writes only
// its own region, so their completion order does not matter.
func (p *DetailPage) Init(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		p.LoadProject(ctx)
		return nil
	})
	g.Go(func() error {
		p.LoadPlaces(ctx)
		return nil
	})
	_ = g.Wait()
}

// ProjectState reports the project info view state.
func (p *DetailPage) ProjectState() State { return p.projectView.get() }

// PlacesState reports the places view state.
func (p *DetailPage) PlacesState() State { return p.placesView.get() }

// LoadProject fetches the project and re-renders the info card.
func (p *DetailPage) LoadProject(ctx context.Context) {
	doc := p.doc
	p.projectView.set(StateLoading)
	doc.SetText(p.header, fmt.Sprintf("#%d", p.projectID))
	doc.SetClass(p.info, "card")
	doc.SetText(p.info, "Loading...")

	project, err := p.api.GetProject(ctx, p.projectID)
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("load project failed", zap.Int64("project_id", p.projectID), zap.Error(err))
		setStatus(doc, p.info, "card error", err.Error())
		p.projectView.set(StateErrored)
		return
	}

	doc.Replace(p.info,
		doc.El("div", nil, doc.El("strong", nil, project.Name)),
		doc.El("div", dom.Attrs{"class": "muted"}, "status: "+project.Status),
		doc.El("div", dom.Attrs{"class": "muted"}, "start_date: "+valueOr(project.StartDate, "-")),
		doc.El("div", dom.Attrs{"class": "muted"}, fmt.Sprintf("places: %d", len(project.Places))),
		descriptionLine(doc, project.Description),
	)
	p.projectView.set(StateRendered)
}

// LoadPlaces fetches the places and re-renders the list. The list is
// cleared before the request, so a failure leaves it empty.
func (p *DetailPage) LoadPlaces(ctx context.Context) {
	doc := p.doc
	p.placesView.set(StateLoading)
	setStatus(doc, p.placesMsg, "muted", "Loading places...")
	doc.Replace(p.places)

	places, err := p.api.ListPlaces(ctx, p.projectID)
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("load places failed", zap.Int64("project_id", p.projectID), zap.Error(err))
		setStatus(doc, p.placesMsg, "error", err.Error())
		p.placesView.set(StateErrored)
		return
	}

	doc.SetText(p.placesMsg, fmt.Sprintf("Loaded %d place(s).", len(places)))
	cards := make([]any, 0, len(places))
	for _, pl := range places {
		cards = append(cards, p.card(pl))
	}
	doc.Replace(p.places, cards...)
	p.placesView.set(StateRendered)
}

// AddPlace validates externalID, adds the place and reloads the project
// and then the places. Failures are reported in the add form's status
// line; a validation failure issues no request.
func (p *DetailPage) AddPlace(ctx context.Context, externalID, notes string) error {
	doc := p.doc
	setStatus(doc, p.addMsg, "muted", "Adding...")

	id, err := form.ParseExternalID(externalID)
	if err == nil {
		_, err = p.api.CreatePlace(ctx, p.projectID, client.CreatePlaceRequest{
			ExternalID: id,
			Notes:      form.OptionalString(notes),
		})
	}
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("add place failed", zap.Int64("project_id", p.projectID), zap.Error(err))
		setStatus(doc, p.addMsg, "error", err.Error())
		return err
	}

	setStatus(doc, p.addMsg, "ok", "Added!")
	doc.SetValue(p.externalID, "")
	doc.SetValue(p.notes, "")
	p.LoadProject(ctx)
	p.LoadPlaces(ctx)
	return nil
}

// SavePlace writes notes and the visited flag of placeID, then reloads
// the project and the places whether or not anything changed. Failures
// are alerted.
func (p *DetailPage) SavePlace(ctx context.Context, placeID int64, notes, visited string) error {
	v, err := form.ParseVisited(visited)
	if err == nil {
		_, err = p.api.UpdatePlace(ctx, p.projectID, placeID, client.UpdatePlaceRequest{
			Notes:   &notes,
			Visited: &v,
		})
	}
	if err != nil {
		logging.WithRequest(ctx, p.logger).Warn("save place failed",
			zap.Int64("project_id", p.projectID), zap.Int64("place_id", placeID), zap.Error(err))
		p.alert(err.Error())
		return err
	}
	p.LoadProject(ctx)
	p.LoadPlaces(ctx)
	return nil
}

// Close disposes every subscription held by the page.
func (p *DetailPage) Close() { p.closeSubs(p.places) }

func (p *DetailPage) card(pl client.Place) *html.Node {
	doc := p.doc
	notes := doc.El("textarea", dom.Attrs{"name": "notes", "rows": "3"}, valueOr(pl.Notes, ""))
	visited := doc.El("select", dom.Attrs{"name": "visited"},
		doc.El("option", dom.Attrs{"value": "false", "selected": !pl.Visited}, "not visited"),
		doc.El("option", dom.Attrs{"value": "true", "selected": pl.Visited}, "visited"),
	)

	id := pl.ID
	save := actionButton(doc, fmt.Sprintf("save-place-%d", id), "Save", func(ctx context.Context, _ dom.Event) {
		_ = p.SavePlace(ctx, id, doc.Value(notes), doc.Value(visited))
	})

	return doc.El("form", dom.Attrs{"id": fmt.Sprintf("place-%d", id), "class": "card", "method": "post"},
		doc.El("div", nil,
			doc.El("strong", nil, fmt.Sprintf("Place #%d", id)),
			doc.El("span", dom.Attrs{"class": "pill"}, "external_id: "+strconv.FormatInt(pl.ExternalID, 10)),
		),
		doc.El("div", dom.Attrs{"class": "muted"}, "Notes:"),
		notes,
		doc.El("div", dom.Attrs{"class": "muted"}, "Visited:"),
		visited,
		save,
	)
}

func descriptionLine(doc *dom.Document, desc *string) *html.Node {
	if desc == nil || *desc == "" {
		return nil
	}
	return doc.El("p", nil, *desc)
}
