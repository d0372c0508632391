package ghostwriter

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const reportFields = `id projectId title last_update docxTemplateId`

const searchReportsQuery = `query SearchReports($term: String!) {
  report(where: {title: {_ilike: $term}}, order_by: {id: asc}) { ` + reportFields + ` }
}`

const getReportQuery = `query GetReport($id: bigint!) {
  report_by_pk(id: $id) { ` + reportFields + ` }
}`

const reportsByProjectQuery = `query ReportsByProject($projectId: bigint!) {
  report(where: {projectId: {_eq: $projectId}}, order_by: {id: asc}) { ` + reportFields + ` }
}`

const createReportMutation = `mutation CreateReport($object: report_insert_input!) {
  insert_report_one(object: $object) { ` + reportFields + ` }
}`

// SearchReports returns reports whose title contains term.
func (c *Client) SearchReports(ctx context.Context, term string) ([]Report, error) {
	return c.reports(ctx, "search_reports", searchReportsQuery, map[string]any{"term": ILikePattern(term)})
}

// GetReport fetches one report. A missing id is NOT_FOUND.
func (c *Client) GetReport(ctx context.Context, id int64) (Report, error) {
	var row *wireReport
	if err := c.do(ctx, "get_report", getReportQuery, map[string]any{"id": id}, "report_by_pk", &row); err != nil {
		return Report{}, err
	}
	if row == nil {
		return Report{}, toolerr.NotFound("get_report", "report", id)
	}
	return row.normalize(), nil
}

// ReportsByProject lists every report of a project.
func (c *Client) ReportsByProject(ctx context.Context, projectID int64) ([]Report, error) {
	return c.reports(ctx, "reports_by_project", reportsByProjectQuery, map[string]any{"projectId": projectID})
}

func (c *Client) reports(ctx context.Context, op, query string, vars map[string]any) ([]Report, error) {
	var rows []wireReport
	if err := c.do(ctx, op, query, vars, "report", &rows); err != nil {
		return nil, err
	}
	out := make([]Report, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// CreateReport inserts a report and returns it as stored.
func (c *Client) CreateReport(ctx context.Context, in NewReport) (Report, error) {
	obj := object{"projectId": in.ProjectID, "title": in.Title}.
		setString("last_update", in.LastUpdate).
		setID("docxTemplateId", in.DocxTemplateID)

	var row *wireReport
	if err := c.do(ctx, "create_report", createReportMutation, map[string]any{"object": obj}, "insert_report_one", &row); err != nil {
		return Report{}, err
	}
	if row == nil {
		return Report{}, toolerr.RemoteUnavailable("create_report", errNoRowReturned)
	}
	return row.normalize(), nil
}
