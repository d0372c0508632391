// Package findings attaches library findings to reports and edits the
// evidence and affected entities of a report's finding.
//
// Evidence is stored in Ghostwriter's replication_steps column and
// affected entities in affectedEntities, both as HTML paragraphs, one per
// entry. An update writes only the columns it was given.
package findings

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/resolver"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// Backend is the remote surface the manager needs.
type Backend interface {
	GetReport(ctx context.Context, id int64) (ghostwriter.Report, error)
	GetFinding(ctx context.Context, id int64) (ghostwriter.Finding, error)
	AttachFinding(ctx context.Context, findingID, reportID int64) (int64, error)
	ListReportedFindings(ctx context.Context, reportID int64) ([]ghostwriter.ReportedFinding, error)
	GetReportedFinding(ctx context.Context, id int64) (ghostwriter.ReportedFinding, error)
	UpdateReportedFinding(ctx context.Context, id int64, upd ghostwriter.ReportedFindingUpdate) (ghostwriter.ReportedFinding, error)
}

// Resolver dedups library findings by title.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, req resolver.Request) (resolver.Resolution, error)
}

// FindingSpec describes the finding to attach: an existing library id, or
// a title that is reused when it already exists and created otherwise.
type FindingSpec struct {
	FindingID        int64
	Title            string
	Description      string
	Severity         string
	FindingType      string
	Impact           string
	Mitigation       string
	ReplicationSteps string
	References       string
}

// Attachment is the result of Attach.
type Attachment struct {
	AssociationID  int64
	FindingID      int64
	FindingCreated bool
}

// Mode selects how supplied entries combine with stored ones.
type Mode string

const (
	// ModeReplace overwrites each supplied field. The default.
	ModeReplace Mode = "replace"
	// ModeAppend adds entries after the stored ones. Affected entities
	// already present are skipped.
	ModeAppend Mode = "append"
)

// UpdateRequest edits one report finding. A nil field is left untouched;
// a non-nil empty slice clears the field in replace mode.
type UpdateRequest struct {
	AssociationID    int64
	Evidence         *[]string
	AffectedEntities *[]string
	Mode             Mode
}

// Manager implements attach and update. Safe for concurrent use.
type Manager struct {
	backend  Backend
	resolver Resolver
	logger   *logging.Logger
}

// NewManager creates a Manager.
func NewManager(backend Backend, res Resolver, logger *logging.Logger) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("findings backend is required")
	}
	if res == nil {
		return nil, errors.New("findings resolver is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{backend: backend, resolver: res, logger: logger.Named("findings")}, nil
}

// Attach links a finding to a report and returns the new association.
// The report must exist; the finding is reused by id or by title.
func (m *Manager) Attach(ctx context.Context, reportID int64, spec FindingSpec) (Attachment, error) {
	const op = "attach_finding"
	if reportID <= 0 {
		return Attachment{}, toolerr.InvalidPayload(op, "report_id must be a positive id")
	}
	if spec.FindingID < 0 {
		return Attachment{}, toolerr.InvalidPayload(op, "finding_id must be a positive id")
	}
	if spec.FindingID == 0 && strings.TrimSpace(spec.Title) == "" {
		return Attachment{}, toolerr.InvalidPayload(op, "finding_spec needs a finding_id or a title")
	}

	if _, err := m.backend.GetReport(ctx, reportID); err != nil {
		return Attachment{}, err
	}

	var (
		findingID int64
		created   bool
	)
	if spec.FindingID > 0 {
		f, err := m.backend.GetFinding(ctx, spec.FindingID)
		if err != nil {
			return Attachment{}, err
		}
		findingID = f.ID
	} else {
		res, err := m.resolver.ResolveOrCreate(ctx, resolver.Request{
			Kind:     resolver.KindFinding,
			Criteria: resolver.Criteria{Title: spec.Title},
			Payload: resolver.FindingPayload{
				Description:      spec.Description,
				Severity:         spec.Severity,
				FindingType:      spec.FindingType,
				Impact:           spec.Impact,
				Mitigation:       spec.Mitigation,
				ReplicationSteps: spec.ReplicationSteps,
				References:       spec.References,
			},
		})
		if err != nil {
			return Attachment{}, err
		}
		findingID, created = res.ID, res.Created
	}

	assocID, err := m.backend.AttachFinding(ctx, findingID, reportID)
	if err != nil {
		return Attachment{}, err
	}

	m.logger.Info(ctx, "finding attached",
		zap.Int64("report_id", reportID),
		zap.Int64("finding_id", findingID),
		zap.Int64("association_id", assocID),
		zap.Bool("finding_created", created),
	)
	return Attachment{AssociationID: assocID, FindingID: findingID, FindingCreated: created}, nil
}

// UpdateFields writes the supplied evidence and affected entities.
// Omitted fields are not sent, so their stored bytes stay unchanged.
func (m *Manager) UpdateFields(ctx context.Context, req UpdateRequest) (ghostwriter.ReportedFinding, error) {
	const op = "update_finding"
	mode, err := req.validate(op)
	if err != nil {
		return ghostwriter.ReportedFinding{}, err
	}

	var upd ghostwriter.ReportedFindingUpdate
	switch mode {
	case ModeReplace:
		if req.Evidence != nil {
			s := renderParagraphs(*req.Evidence)
			upd.ReplicationSteps = &s
		}
		if req.AffectedEntities != nil {
			s := renderParagraphs(dedupe(nil, *req.AffectedEntities))
			upd.AffectedEntities = &s
		}

	case ModeAppend:
		current, err := m.backend.GetReportedFinding(ctx, req.AssociationID)
		if err != nil {
			return ghostwriter.ReportedFinding{}, err
		}
		if req.Evidence != nil {
			s := current.ReplicationSteps + renderParagraphs(*req.Evidence)
			upd.ReplicationSteps = &s
		}
		if req.AffectedEntities != nil {
			added := dedupe(parseParagraphs(current.AffectedEntities), *req.AffectedEntities)
			s := current.AffectedEntities + renderParagraphs(added)
			upd.AffectedEntities = &s
		}
	}

	rf, err := m.backend.UpdateReportedFinding(ctx, req.AssociationID, upd)
	if err != nil {
		return ghostwriter.ReportedFinding{}, err
	}

	m.logger.Info(ctx, "report finding updated",
		zap.Int64("association_id", req.AssociationID),
		zap.String("mode", string(mode)),
		zap.Bool("evidence", req.Evidence != nil),
		zap.Bool("affected_entities", req.AffectedEntities != nil),
	)
	return rf, nil
}

// ListReportFindings returns the findings attached to a report.
func (m *Manager) ListReportFindings(ctx context.Context, reportID int64) ([]ghostwriter.ReportedFinding, error) {
	if reportID <= 0 {
		return nil, toolerr.InvalidPayload("list_report_findings", "report_id must be a positive id")
	}
	if _, err := m.backend.GetReport(ctx, reportID); err != nil {
		return nil, err
	}
	return m.backend.ListReportedFindings(ctx, reportID)
}

func (r UpdateRequest) validate(op string) (Mode, error) {
	if r.AssociationID <= 0 {
		return "", toolerr.InvalidPayload(op, "association_id must be a positive id")
	}
	if r.Evidence == nil && r.AffectedEntities == nil {
		return "", toolerr.InvalidPayload(op, "at least one of evidence or affected_entities must be supplied")
	}

	mode := r.Mode
	if mode == "" {
		mode = ModeReplace
	}
	if mode != ModeReplace && mode != ModeAppend {
		return "", toolerr.InvalidPayload(op, "mode must be %q or %q, got %q", ModeReplace, ModeAppend, r.Mode)
	}

	for _, field := range []struct {
		name    string
		entries *[]string
	}{{"evidence", r.Evidence}, {"affected_entities", r.AffectedEntities}} {
		if field.entries == nil {
			continue
		}
		for i, e := range *field.entries {
			if strings.TrimSpace(e) == "" {
				return "", toolerr.InvalidPayload(op, "%s[%d] is blank", field.name, i)
			}
		}
	}
	return mode, nil
}

// dedupe returns the entries of add not already in existing or earlier in
// add, compared after normalization. Order is preserved.
func dedupe(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, e := range existing {
		seen[resolver.Normalize(e)] = struct{}{}
	}
	out := make([]string, 0, len(add))
	for _, a := range add {
		key := resolver.Normalize(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
