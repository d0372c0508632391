package mcp

import (
	"context"
	"fmt"
)

const serverInstructions = `Ghostwriter engagement bookkeeping.

Records form a chain: client -> project -> report -> finding.
1. create_or_find_client with the client name. Keep client_id.
2. create_or_find_project with client_id and the project name. Keep project_id.
3. create_or_find_report with project_id and the report title. Keep report_id.
4. attach_finding with report_id and a finding_spec. Keep association_id.
5. update_finding with association_id and evidence and/or affected_entities.

create_or_find_* tools never duplicate: a matching record is returned with created=false.
AMBIGUOUS_MATCH lists the candidate ids; pick one with get_* or search_* instead of retrying.
Errors are JSON objects {"error": {"kind", "message", "ids"}}. Nothing is retried for you.
A cancelled call may leave earlier links of the chain created; re-running the chain is safe.`

type workflowStep struct {
	Step    int    `json:"step"`
	Tool    string `json:"tool"`
	Purpose string `json:"purpose"`
	Needs   string `json:"needs,omitempty"`
	Returns string `json:"returns"`
}

type explainWorkflowInput struct{}

type explainWorkflowOutput struct {
	Steps      []workflowStep `json:"steps"`
	ErrorKinds []string       `json:"error_kinds"`
	Notes      []string       `json:"notes"`
}

var workflow = explainWorkflowOutput{
	Steps: []workflowStep{
		{Step: 1, Tool: "create_or_find_client", Purpose: "Resolve the client organization", Returns: "client_id, created, codename"},
		{Step: 2, Tool: "create_or_find_project", Purpose: "Resolve the engagement under the client", Needs: "client_id", Returns: "project_id, created, codename"},
		{Step: 3, Tool: "create_or_find_report", Purpose: "Resolve the deliverable under the project", Needs: "project_id", Returns: "report_id, created"},
		{Step: 4, Tool: "attach_finding", Purpose: "Attach a library finding, reusing an exact title match", Needs: "report_id", Returns: "association_id, finding_id, finding_created"},
		{Step: 5, Tool: "update_finding", Purpose: "Record evidence and affected entities", Needs: "association_id", Returns: "ok"},
	},
	ErrorKinds: []string{
		"REMOTE_UNAVAILABLE: Ghostwriter could not be reached or refused the request",
		"NOT_FOUND: a referenced id does not exist",
		"INVALID_PAYLOAD: the arguments are malformed or rejected by Ghostwriter",
		"AMBIGUOUS_MATCH: several records match; ids lists them",
		"CODENAME_EXHAUSTED: every generated candidate was already taken",
	},
	Notes: []string{
		"Names and titles match case-insensitively with whitespace collapsed; partial matches are never reused.",
		"update_finding writes only the fields you pass. mode=append adds to existing content.",
		"Use search_* and get_* tools to inspect records without changing anything.",
	},
}

func (s *Server) registerWorkflowTools() error {
	return addTool(s, &ToolMetadata{
		Name:        "explain_workflow",
		Description: "Describe the client, project, report and finding workflow and the error kinds tools return. Makes no Ghostwriter calls.",
		Category:    CategoryWorkflow,
		Keywords:    []string{"help", "workflow", "guide", "errors"},
	}, func(context.Context, explainWorkflowInput) (explainWorkflowOutput, string, error) {
		return workflow, fmt.Sprintf("%d-step workflow: client -> project -> report -> finding", len(workflow.Steps)), nil
	})
}
