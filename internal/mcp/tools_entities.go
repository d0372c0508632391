package mcp

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/resolver"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// ===== CLIENTS =====

type clientMetadata struct {
	ShortName string `json:"short_name,omitempty" jsonschema:"Short display name; defaults to the client name"`
	Codename  string `json:"codename,omitempty" jsonschema:"Explicit codename; one is generated when omitted"`
	Address   string `json:"address,omitempty" jsonschema:"Postal address"`
	Note      string `json:"note,omitempty" jsonschema:"Free-form note"`
	Timezone  string `json:"timezone,omitempty" jsonschema:"IANA timezone such as America/New_York"`
}

type createOrFindClientInput struct {
	Name     string          `json:"name" jsonschema:"Client name. Matched case-insensitively with whitespace collapsed"`
	Metadata *clientMetadata `json:"metadata,omitempty" jsonschema:"Fields used only when a new client is created"`
}

type createOrFindClientOutput struct {
	ClientID int64  `json:"client_id" jsonschema:"Id of the matched or created client"`
	Created  bool   `json:"created" jsonschema:"True when a new client was created"`
	Codename string `json:"codename" jsonschema:"Client codename"`
}

// ===== PROJECTS =====

type createOrFindProjectInput struct {
	ClientID  int64  `json:"client_id" jsonschema:"Id of the owning client"`
	Name      string `json:"name" jsonschema:"Project name, unique within the client"`
	Type      string `json:"type,omitempty" jsonschema:"Project type name such as Web App or Red Team"`
	Codename  string `json:"codename,omitempty" jsonschema:"Explicit codename; one is generated when omitted"`
	StartDate string `json:"start_date,omitempty" jsonschema:"Start date as YYYY-MM-DD; defaults to today"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"End date as YYYY-MM-DD; defaults to the configured duration after start"`
}

type createOrFindProjectOutput struct {
	ProjectID int64  `json:"project_id" jsonschema:"Id of the matched or created project"`
	Created   bool   `json:"created" jsonschema:"True when a new project was created"`
	Codename  string `json:"codename" jsonschema:"Project codename"`
}

// ===== REPORTS =====

type createOrFindReportInput struct {
	ProjectID int64  `json:"project_id" jsonschema:"Id of the owning project"`
	Title     string `json:"title" jsonschema:"Report title, unique within the project"`
	Template  int64  `json:"template,omitempty" jsonschema:"Docx template id used when the report is created"`
}

type createOrFindReportOutput struct {
	ReportID int64 `json:"report_id" jsonschema:"Id of the matched or created report"`
	Created  bool  `json:"created" jsonschema:"True when a new report was created"`
}

// ===== LOOKUPS =====

type getByIDInput struct {
	ID int64 `json:"id" jsonschema:"Record id"`
}

type getClientOutput struct {
	Client ghostwriter.ClientRecord `json:"client"`
}

type getProjectOutput struct {
	Project ghostwriter.Project `json:"project"`
}

type getReportOutput struct {
	Report ghostwriter.Report `json:"report"`
}

func createdWord(created bool) string {
	if created {
		return "created"
	}
	return "found existing"
}

func (s *Server) registerEntityTools() error {
	svc := s.services

	err := addTool(s, &ToolMetadata{
		Name: "create_or_find_client",
		Description: "Return the client whose name matches (case-insensitive, whitespace-collapsed), creating it with a unique codename when none does. " +
			"Fails with AMBIGUOUS_MATCH and the candidate ids when several clients share the name.",
		Category: CategoryClients,
		Keywords: []string{"client", "customer", "organization", "dedup"},
	}, func(ctx context.Context, in createOrFindClientInput) (createOrFindClientOutput, string, error) {
		var payload resolver.ClientPayload
		if in.Metadata != nil {
			payload = resolver.ClientPayload{
				ShortName: in.Metadata.ShortName,
				Codename:  in.Metadata.Codename,
				Address:   in.Metadata.Address,
				Note:      in.Metadata.Note,
				Timezone:  in.Metadata.Timezone,
			}
		}
		res, err := svc.Resolver.ResolveOrCreate(ctx, resolver.Request{
			Kind:     resolver.KindClient,
			Criteria: resolver.Criteria{Name: in.Name},
			Payload:  payload,
		})
		if err != nil {
			return createOrFindClientOutput{}, "", err
		}
		out := createOrFindClientOutput{ClientID: res.ID, Created: res.Created, Codename: res.Codename}
		return out, fmt.Sprintf("%s client %d (codename %q)", createdWord(res.Created), res.ID, res.Codename), nil
	})
	if err != nil {
		return err
	}

	err = addTool(s, &ToolMetadata{
		Name: "create_or_find_project",
		Description: "Return the project under client_id whose name matches, creating it when none does. " +
			"The client must exist. New projects get the default type and a date range starting today unless given. " +
			"If the call is cancelled after the client was created, the client remains.",
		Category: CategoryProjects,
		Keywords: []string{"project", "engagement", "assessment", "dedup"},
	}, func(ctx context.Context, in createOrFindProjectInput) (createOrFindProjectOutput, string, error) {
		res, err := svc.Resolver.ResolveOrCreate(ctx, resolver.Request{
			Kind:     resolver.KindProject,
			Criteria: resolver.Criteria{ClientID: in.ClientID, Name: in.Name},
			Payload: resolver.ProjectPayload{
				Type:      in.Type,
				Codename:  in.Codename,
				StartDate: in.StartDate,
				EndDate:   in.EndDate,
			},
		})
		if err != nil {
			return createOrFindProjectOutput{}, "", err
		}
		out := createOrFindProjectOutput{ProjectID: res.ID, Created: res.Created, Codename: res.Codename}
		return out, fmt.Sprintf("%s project %d (codename %q)", createdWord(res.Created), res.ID, res.Codename), nil
	})
	if err != nil {
		return err
	}

	err = addTool(s, &ToolMetadata{
		Name:        "create_or_find_report",
		Description: "Return the report under project_id whose title matches, creating it when none does. The project must exist.",
		Category:    CategoryReports,
		Keywords:    []string{"report", "deliverable", "dedup"},
	}, func(ctx context.Context, in createOrFindReportInput) (createOrFindReportOutput, string, error) {
		res, err := svc.Resolver.ResolveOrCreate(ctx, resolver.Request{
			Kind:     resolver.KindReport,
			Criteria: resolver.Criteria{ProjectID: in.ProjectID, Title: in.Title},
			Payload:  resolver.ReportPayload{TemplateID: in.Template},
		})
		if err != nil {
			return createOrFindReportOutput{}, "", err
		}
		out := createOrFindReportOutput{ReportID: res.ID, Created: res.Created}
		return out, fmt.Sprintf("%s report %d", createdWord(res.Created), res.ID), nil
	})
	if err != nil {
		return err
	}

	err = addTool(s, &ToolMetadata{
		Name:        "get_client",
		Description: "Fetch one client by id.",
		Category:    CategoryClients,
		Keywords:    []string{"client", "lookup"},
	}, func(ctx context.Context, in getByIDInput) (getClientOutput, string, error) {
		if err := positiveID("get_client", in.ID); err != nil {
			return getClientOutput{}, "", err
		}
		c, err := svc.Directory.GetClient(ctx, in.ID)
		if err != nil {
			return getClientOutput{}, "", err
		}
		return getClientOutput{Client: c}, fmt.Sprintf("client %d: %s", c.ID, c.Name), nil
	})
	if err != nil {
		return err
	}

	err = addTool(s, &ToolMetadata{
		Name:        "get_project",
		Description: "Fetch one project by id, including its client's name and codename.",
		Category:    CategoryProjects,
		Keywords:    []string{"project", "lookup"},
	}, func(ctx context.Context, in getByIDInput) (getProjectOutput, string, error) {
		if err := positiveID("get_project", in.ID); err != nil {
			return getProjectOutput{}, "", err
		}
		p, err := svc.Directory.GetProject(ctx, in.ID)
		if err != nil {
			return getProjectOutput{}, "", err
		}
		return getProjectOutput{Project: p}, fmt.Sprintf("project %d: %s (%s)", p.ID, p.Name, p.Codename), nil
	})
	if err != nil {
		return err
	}

	return addTool(s, &ToolMetadata{
		Name:        "get_report",
		Description: "Fetch one report by id.",
		Category:    CategoryReports,
		Keywords:    []string{"report", "lookup"},
	}, func(ctx context.Context, in getByIDInput) (getReportOutput, string, error) {
		if err := positiveID("get_report", in.ID); err != nil {
			return getReportOutput{}, "", err
		}
		r, err := svc.Directory.GetReport(ctx, in.ID)
		if err != nil {
			return getReportOutput{}, "", err
		}
		return getReportOutput{Report: r}, fmt.Sprintf("report %d: %s", r.ID, r.Title), nil
	})
}

func positiveID(op string, id int64) error {
	if id <= 0 {
		return toolerr.InvalidPayload(op, "id must be a positive id")
	}
	return nil
}
