package ghostwriter

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const findingFields = `id title description impact mitigation replication_steps references
    severity { severity }
    type { findingType }`

const searchFindingsQuery = `query SearchFindings($term: String!) {
  finding(where: {title: {_ilike: $term}}, order_by: {id: asc}) {
    ` + findingFields + `
  }
}`

const getFindingQuery = `query GetFinding($id: bigint!) {
  finding_by_pk(id: $id) {
    ` + findingFields + `
  }
}`

const findingSeveritiesQuery = `query FindingSeverities {
  findingSeverity(order_by: {weight: asc}) { id severity }
}`

const findingTypesQuery = `query FindingTypes {
  findingType(order_by: {id: asc}) { id findingType }
}`

const createFindingMutation = `mutation CreateFinding($object: finding_insert_input!) {
  insert_finding_one(object: $object) {
    ` + findingFields + `
  }
}`

const attachFindingMutation = `mutation AttachFinding($findingId: Int!, $reportId: Int!) {
  attachFinding(findingId: $findingId, reportId: $reportId) { id }
}`

const reportedFindingFields = `id reportId title replication_steps affectedEntities`

const listReportedFindingsQuery = `query ListReportedFindings($reportId: bigint!) {
  reportedFinding(where: {reportId: {_eq: $reportId}}, order_by: {position: asc, id: asc}) { ` + reportedFindingFields + ` }
}`

const getReportedFindingQuery = `query GetReportedFinding($id: bigint!) {
  reportedFinding_by_pk(id: $id) { ` + reportedFindingFields + ` }
}`

const updateReportedFindingMutation = `mutation UpdateReportedFinding($id: bigint!, $set: reportedFinding_set_input!) {
  update_reportedFinding_by_pk(pk_columns: {id: $id}, _set: $set) { ` + reportedFindingFields + ` }
}`

// SearchFindings returns library findings whose title contains term.
func (c *Client) SearchFindings(ctx context.Context, term string) ([]Finding, error) {
	var rows []wireFinding
	if err := c.do(ctx, "search_findings", searchFindingsQuery, map[string]any{"term": ILikePattern(term)}, "finding", &rows); err != nil {
		return nil, err
	}
	out := make([]Finding, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// GetFinding fetches one library finding. A missing id is NOT_FOUND.
func (c *Client) GetFinding(ctx context.Context, id int64) (Finding, error) {
	var row *wireFinding
	if err := c.do(ctx, "get_finding", getFindingQuery, map[string]any{"id": id}, "finding_by_pk", &row); err != nil {
		return Finding{}, err
	}
	if row == nil {
		return Finding{}, toolerr.NotFound("get_finding", "finding", id)
	}
	return row.normalize(), nil
}

// FindingSeverities lists severities in ascending weight.
func (c *Client) FindingSeverities(ctx context.Context) ([]Lookup, error) {
	var rows []struct {
		ID       int64  `json:"id"`
		Severity string `json:"severity"`
	}
	if err := c.do(ctx, "finding_severities", findingSeveritiesQuery, nil, "findingSeverity", &rows); err != nil {
		return nil, err
	}
	out := make([]Lookup, 0, len(rows))
	for _, r := range rows {
		out = append(out, Lookup{ID: r.ID, Name: r.Severity})
	}
	return out, nil
}

// FindingTypes lists the finding types.
func (c *Client) FindingTypes(ctx context.Context) ([]Lookup, error) {
	var rows []struct {
		ID          int64  `json:"id"`
		FindingType string `json:"findingType"`
	}
	if err := c.do(ctx, "finding_types", findingTypesQuery, nil, "findingType", &rows); err != nil {
		return nil, err
	}
	out := make([]Lookup, 0, len(rows))
	for _, r := range rows {
		out = append(out, Lookup{ID: r.ID, Name: r.FindingType})
	}
	return out, nil
}

// CreateFinding inserts a library finding and returns it as stored.
func (c *Client) CreateFinding(ctx context.Context, in NewFinding) (Finding, error) {
	obj := object{"title": in.Title}.
		setString("description", in.Description).
		setID("severityId", in.SeverityID).
		setID("findingTypeId", in.FindingTypeID).
		setString("impact", in.Impact).
		setString("mitigation", in.Mitigation).
		setString("replication_steps", in.ReplicationSteps).
		setString("references", in.References)

	var row *wireFinding
	if err := c.do(ctx, "create_finding", createFindingMutation, map[string]any{"object": obj}, "insert_finding_one", &row); err != nil {
		return Finding{}, err
	}
	if row == nil {
		return Finding{}, toolerr.RemoteUnavailable("create_finding", errNoRowReturned)
	}
	return row.normalize(), nil
}

// AttachFinding copies a library finding into a report and returns the
// new reported finding id.
func (c *Client) AttachFinding(ctx context.Context, findingID, reportID int64) (int64, error) {
	var row *wireID
	vars := map[string]any{"findingId": findingID, "reportId": reportID}
	if err := c.do(ctx, "attach_finding", attachFindingMutation, vars, "attachFinding", &row); err != nil {
		return 0, err
	}
	if row == nil || row.ID == 0 {
		return 0, toolerr.RemoteUnavailable("attach_finding", errNoRowReturned)
	}
	return row.ID, nil
}

// ListReportedFindings lists the findings attached to a report in report order.
func (c *Client) ListReportedFindings(ctx context.Context, reportID int64) ([]ReportedFinding, error) {
	var rows []wireReportedFinding
	if err := c.do(ctx, "list_reported_findings", listReportedFindingsQuery, map[string]any{"reportId": reportID}, "reportedFinding", &rows); err != nil {
		return nil, err
	}
	out := make([]ReportedFinding, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// GetReportedFinding fetches one report/finding association.
func (c *Client) GetReportedFinding(ctx context.Context, id int64) (ReportedFinding, error) {
	var row *wireReportedFinding
	if err := c.do(ctx, "get_reported_finding", getReportedFindingQuery, map[string]any{"id": id}, "reportedFinding_by_pk", &row); err != nil {
		return ReportedFinding{}, err
	}
	if row == nil {
		return ReportedFinding{}, toolerr.NotFound("get_reported_finding", "reported finding", id)
	}
	return row.normalize(), nil
}

// UpdateReportedFinding overwrites only the columns set in upd.
func (c *Client) UpdateReportedFinding(ctx context.Context, id int64, upd ReportedFindingUpdate) (ReportedFinding, error) {
	const op = "update_reported_finding"
	if upd.Empty() {
		return ReportedFinding{}, toolerr.InvalidPayload(op, "at least one of replication_steps or affected_entities must be set")
	}

	set := map[string]any{}
	if upd.ReplicationSteps != nil {
		set["replication_steps"] = *upd.ReplicationSteps
	}
	if upd.AffectedEntities != nil {
		set["affectedEntities"] = *upd.AffectedEntities
	}

	var row *wireReportedFinding
	if err := c.do(ctx, op, updateReportedFindingMutation, map[string]any{"id": id, "set": set}, "update_reportedFinding_by_pk", &row); err != nil {
		return ReportedFinding{}, err
	}
	if row == nil {
		return ReportedFinding{}, toolerr.NotFound(op, "reported finding", id)
	}
	return row.normalize(), nil
}
