package mcp

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/findings"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
)

type findingSpecInput struct {
	FindingID        int64  `json:"finding_id,omitempty" jsonschema:"Existing library finding id; when set the other fields are ignored"`
	Title            string `json:"title,omitempty" jsonschema:"Library finding title; an exact (case-insensitive) match is reused, otherwise a finding is created"`
	Description      string `json:"description,omitempty" jsonschema:"Finding description (new findings only)"`
	Severity         string `json:"severity,omitempty" jsonschema:"Severity name such as High (new findings only)"`
	FindingType      string `json:"finding_type,omitempty" jsonschema:"Finding type name such as Web (new findings only)"`
	Impact           string `json:"impact,omitempty" jsonschema:"Impact text (new findings only)"`
	Mitigation       string `json:"mitigation,omitempty" jsonschema:"Mitigation text (new findings only)"`
	ReplicationSteps string `json:"replication_steps,omitempty" jsonschema:"Replication steps (new findings only)"`
	References       string `json:"references,omitempty" jsonschema:"References (new findings only)"`
}

type attachFindingInput struct {
	ReportID    int64            `json:"report_id" jsonschema:"Report to attach the finding to"`
	FindingSpec findingSpecInput `json:"finding_spec" jsonschema:"Which library finding to attach"`
}

type attachFindingOutput struct {
	AssociationID  int64 `json:"association_id" jsonschema:"Id of the report-finding association"`
	FindingID      int64 `json:"finding_id" jsonschema:"Id of the library finding"`
	FindingCreated bool  `json:"finding_created" jsonschema:"True when the library finding was created by this call"`
}

type updateFindingInput struct {
	AssociationID    int64     `json:"association_id" jsonschema:"Id returned by attach_finding"`
	Evidence         *[]string `json:"evidence,omitempty" jsonschema:"Evidence entries, one paragraph each; stored as the replication steps"`
	AffectedEntities *[]string `json:"affected_entities,omitempty" jsonschema:"Affected hosts, URLs or components, one paragraph each"`
	Mode             string    `json:"mode,omitempty" jsonschema:"replace (default) overwrites a supplied field and an empty list clears it; append adds to it"`
}

type updateFindingOutput struct {
	OK            bool  `json:"ok"`
	AssociationID int64 `json:"association_id"`
}

type listReportFindingsInput struct {
	ReportID int64 `json:"report_id" jsonschema:"Report whose attached findings to list"`
}

type listReportFindingsOutput struct {
	Findings []ghostwriter.ReportedFinding `json:"findings"`
	Count    int                           `json:"count"`
}

func (s *Server) registerFindingTools() error {
	svc := s.services

	err := addTool(s, &ToolMetadata{
		Name: "attach_finding",
		Description: "Attach a library finding to a report. Give finding_spec.finding_id to attach a known finding, " +
			"or a title to reuse the library finding with that exact title or create it. The report must exist.",
		Category: CategoryFindings,
		Keywords: []string{"finding", "vulnerability", "attach", "report"},
	}, func(ctx context.Context, in attachFindingInput) (attachFindingOutput, string, error) {
		spec := in.FindingSpec
		att, err := svc.Findings.Attach(ctx, in.ReportID, findings.FindingSpec{
			FindingID:        spec.FindingID,
			Title:            spec.Title,
			Description:      spec.Description,
			Severity:         spec.Severity,
			FindingType:      spec.FindingType,
			Impact:           spec.Impact,
			Mitigation:       spec.Mitigation,
			ReplicationSteps: spec.ReplicationSteps,
			References:       spec.References,
		})
		if err != nil {
			return attachFindingOutput{}, "", err
		}
		out := attachFindingOutput{
			AssociationID:  att.AssociationID,
			FindingID:      att.FindingID,
			FindingCreated: att.FindingCreated,
		}
		return out, fmt.Sprintf("attached finding %d to report %d as association %d",
			att.FindingID, in.ReportID, att.AssociationID), nil
	})
	if err != nil {
		return err
	}

	err = addTool(s, &ToolMetadata{
		Name: "update_finding",
		Description: "Set evidence and/or affected entities on an attached finding. Only supplied fields are written; " +
			"an omitted field is left byte-for-byte unchanged. At least one field is required. " +
			"In replace mode (the default) a supplied empty list clears that field; in append mode it adds nothing.",
		Category: CategoryFindings,
		Keywords: []string{"finding", "evidence", "affected", "hosts", "update"},
	}, func(ctx context.Context, in updateFindingInput) (updateFindingOutput, string, error) {
		rf, err := svc.Findings.UpdateFields(ctx, findings.UpdateRequest{
			AssociationID:    in.AssociationID,
			Evidence:         in.Evidence,
			AffectedEntities: in.AffectedEntities,
			Mode:             findings.Mode(in.Mode),
		})
		if err != nil {
			return updateFindingOutput{}, "", err
		}
		return updateFindingOutput{OK: true, AssociationID: rf.ID},
			fmt.Sprintf("updated association %d", rf.ID), nil
	})
	if err != nil {
		return err
	}

	return addTool(s, &ToolMetadata{
		Name:        "list_report_findings",
		Description: "List the findings attached to a report, with their evidence and affected entities.",
		Category:    CategoryFindings,
		Keywords:    []string{"finding", "report", "list"},
	}, func(ctx context.Context, in listReportFindingsInput) (listReportFindingsOutput, string, error) {
		rows, err := svc.Findings.ListReportFindings(ctx, in.ReportID)
		if err != nil {
			return listReportFindingsOutput{}, "", err
		}
		if rows == nil {
			rows = []ghostwriter.ReportedFinding{}
		}
		return listReportFindingsOutput{Findings: rows, Count: len(rows)},
			fmt.Sprintf("report %d has %d finding(s)", in.ReportID, len(rows)), nil
	})
}
