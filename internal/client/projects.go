package client

import (
	"context"
	"fmt"
	"net/http"
)

// Place mirrors the backend PlaceOut schema.
type Place struct {
	ID         int64   `json:"id"`
	ExternalID int64   `json:"external_id"`
	Notes      *string `json:"notes"`
	Visited    bool    `json:"visited"`
	CreatedAt  string  `json:"created_at"`
}

// Project mirrors the backend ProjectOut schema. List responses omit
// Description and Places.
type Project struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	Places      []Place `json:"places"`
}

// PlaceImport is one place attached at project creation.
type PlaceImport struct {
	ExternalID int64   `json:"external_id"`
	Notes      *string `json:"notes,omitempty"`
}

// CreateProjectRequest is the payload for POST /projects. Nil optional
// fields are sent as null.
type CreateProjectRequest struct {
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	StartDate   *string       `json:"start_date"`
	Places      []PlaceImport `json:"places"`
}

// UpdateProjectRequest is the payload for PATCH /projects/{id}. Nil
// fields are omitted and left unchanged by the backend.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
}

// CreatePlaceRequest is the payload for POST /projects/{id}/places.
type CreatePlaceRequest struct {
	ExternalID int64   `json:"external_id"`
	Notes      *string `json:"notes"`
}

// UpdatePlaceRequest is the payload for PATCH /projects/{id}/places/{place_id}.
type UpdatePlaceRequest struct {
	Notes   *string `json:"notes,omitempty"`
	Visited *bool   `json:"visited,omitempty"`
}

// ListProjects calls GET /projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject calls POST /projects.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error) {
	var out Project
	if err := c.doJSON(ctx, http.MethodPost, "/projects", req, &out); err != nil {
		return out, err
	}
	return out, nil
}

// GetProject calls GET /projects/{id}.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var out Project
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id), nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// UpdateProject calls PATCH /projects/{id}.
func (c *Client) UpdateProject(ctx context.Context, id int64, req UpdateProjectRequest) (Project, error) {
	var out Project
	if err := c.doJSON(ctx, http.MethodPatch, projectPath(id), req, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DeleteProject calls DELETE /projects/{id}.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

// ListPlaces calls GET /projects/{id}/places.
func (c *Client) ListPlaces(ctx context.Context, projectID int64) ([]Place, error) {
	var out []Place
	if err := c.doJSON(ctx, http.MethodGet, placesPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlace calls POST /projects/{id}/places.
func (c *Client) CreatePlace(ctx context.Context, projectID int64, req CreatePlaceRequest) (Place, error) {
	var out Place
	if err := c.doJSON(ctx, http.MethodPost, placesPath(projectID), req, &out); err != nil {
		return out, err
	}
	return out, nil
}

// GetPlace calls GET /projects/{id}/places/{place_id}.
func (c *Client) GetPlace(ctx context.Context, projectID, placeID int64) (Place, error) {
	var out Place
	if err := c.doJSON(ctx, http.MethodGet, placePath(projectID, placeID), nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// UpdatePlace calls PATCH /projects/{id}/places/{place_id}.
func (c *Client) UpdatePlace(ctx context.Context, projectID, placeID int64, req UpdatePlaceRequest) (Place, error) {
	var out Place
	if err := c.doJSON(ctx, http.MethodPatch, placePath(projectID, placeID), req, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	data, err := c.Do(ctx, path, &RequestOptions{Method: method, Body: body})
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

func projectPath(id int64) string {
	return fmt.Sprintf("/projects/%d", id)
}

func placesPath(projectID int64) string {
	return fmt.Sprintf("/projects/%d/places", projectID)
}

func placePath(projectID, placeID int64) string {
	return fmt.Sprintf("/projects/%d/places/%d", projectID, placeID)
}
