package ghostwriter

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const projectFields = `id clientId codename note startDate endDate
    projectType { projectType }
    client { name codename }`

const searchProjectsQuery = `query SearchProjects($term: String!) {
  project(where: {_or: [
    {codename: {_ilike: $term}},
    {note: {_ilike: $term}},
    {client: {name: {_ilike: $term}}},
    {client: {codename: {_ilike: $term}}}
  ]}, order_by: {id: asc}) {
    ` + projectFields + `
  }
}`

const getProjectQuery = `query GetProject($id: bigint!) {
  project_by_pk(id: $id) {
    ` + projectFields + `
  }
}`

const projectsByClientQuery = `query ProjectsByClient($clientId: bigint!) {
  project(where: {clientId: {_eq: $clientId}}, order_by: {id: asc}) {
    ` + projectFields + `
  }
}`

const projectsByCodenameQuery = `query ProjectsByCodename($codename: String!) {
  project(where: {codename: {_ilike: $codename}}, order_by: {id: asc}) {
    ` + projectFields + `
  }
}`

const projectTypesQuery = `query ProjectTypes {
  projectType(order_by: {id: asc}) { id projectType }
}`

const createProjectMutation = `mutation CreateProject($object: project_insert_input!) {
  insert_project_one(object: $object) {
    ` + projectFields + `
  }
}`

// SearchProjects returns projects whose codename or name, or whose client's
// name or codename, contains term.
func (c *Client) SearchProjects(ctx context.Context, term string) ([]Project, error) {
	return c.projects(ctx, "search_projects", searchProjectsQuery, map[string]any{"term": ILikePattern(term)})
}

// GetProject fetches one project. A missing id is NOT_FOUND.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var row *wireProject
	if err := c.do(ctx, "get_project", getProjectQuery, map[string]any{"id": id}, "project_by_pk", &row); err != nil {
		return Project{}, err
	}
	if row == nil {
		return Project{}, toolerr.NotFound("get_project", "project", id)
	}
	return row.normalize(), nil
}

// ProjectsByClient lists every project of a client.
func (c *Client) ProjectsByClient(ctx context.Context, clientID int64) ([]Project, error) {
	return c.projects(ctx, "projects_by_client", projectsByClientQuery, map[string]any{"clientId": clientID})
}

// ProjectsByCodename returns projects whose codename equals codename, ignoring case.
func (c *Client) ProjectsByCodename(ctx context.Context, codename string) ([]Project, error) {
	return c.projects(ctx, "projects_by_codename", projectsByCodenameQuery, map[string]any{"codename": exactILike(codename)})
}

func (c *Client) projects(ctx context.Context, op, query string, vars map[string]any) ([]Project, error) {
	var rows []wireProject
	if err := c.do(ctx, op, query, vars, "project", &rows); err != nil {
		return nil, err
	}
	out := make([]Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// ProjectTypes lists the configured project types.
func (c *Client) ProjectTypes(ctx context.Context) ([]Lookup, error) {
	var rows []struct {
		ID          int64  `json:"id"`
		ProjectType string `json:"projectType"`
	}
	if err := c.do(ctx, "project_types", projectTypesQuery, nil, "projectType", &rows); err != nil {
		return nil, err
	}
	out := make([]Lookup, 0, len(rows))
	for _, r := range rows {
		out = append(out, Lookup{ID: r.ID, Name: r.ProjectType})
	}
	return out, nil
}

// CreateProject inserts a project and returns it as stored.
func (c *Client) CreateProject(ctx context.Context, in NewProject) (Project, error) {
	obj := object{"clientId": in.ClientID}.
		setID("projectTypeId", in.ProjectTypeID).
		setString("codename", in.Codename).
		setString("note", in.Note).
		setString("startDate", in.StartDate).
		setString("endDate", in.EndDate)

	var row *wireProject
	if err := c.do(ctx, "create_project", createProjectMutation, map[string]any{"object": obj}, "insert_project_one", &row); err != nil {
		return Project{}, err
	}
	if row == nil {
		return Project{}, toolerr.RemoteUnavailable("create_project", errNoRowReturned)
	}
	return row.normalize(), nil
}
