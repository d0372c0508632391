package resolver

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const dateLayout = "2006-01-02"

// Kind is the entity kind being resolved.
type Kind string

const (
	KindClient  Kind = "client"
	KindProject Kind = "project"
	KindReport  Kind = "report"
	KindFinding Kind = "finding"
)

// Criteria are the fields compared for dedup. Which fields apply depends
// on the kind: client {Name}, project {ClientID, Name}, report
// {ProjectID, Title}, finding {Title}.
type Criteria struct {
	Name      string
	Title     string
	ClientID  int64
	ProjectID int64
}

// ClientPayload carries the optional client fields used on creation.
type ClientPayload struct {
	ShortName string
	Codename  string
	Address   string
	Note      string
	Timezone  string
}

// ProjectPayload carries the optional project fields used on creation.
// Dates are YYYY-MM-DD.
type ProjectPayload struct {
	Type      string
	Codename  string
	StartDate string
	EndDate   string
}

// ReportPayload carries the optional report fields used on creation.
type ReportPayload struct {
	TemplateID int64
}

// FindingPayload carries the library finding fields used on creation.
// Severity and FindingType are names resolved against Ghostwriter's
// lookup tables.
type FindingPayload struct {
	Description      string
	Severity         string
	FindingType      string
	Impact           string
	Mitigation       string
	ReplicationSteps string
	References       string
}

// Request is one create-or-find call. Payload is nil or the payload type
// matching Kind, by value or pointer.
type Request struct {
	Kind     Kind
	Criteria Criteria
	Payload  any
}

func (r Request) validate(op string) error {
	c := r.Criteria
	switch r.Kind {
	case KindClient:
		if blank(c.Name) {
			return toolerr.InvalidPayload(op, "client name is required")
		}
	case KindProject:
		if c.ClientID <= 0 {
			return toolerr.InvalidPayload(op, "client_id must be a positive id")
		}
		if blank(c.Name) {
			return toolerr.InvalidPayload(op, "project name is required")
		}
	case KindReport:
		if c.ProjectID <= 0 {
			return toolerr.InvalidPayload(op, "project_id must be a positive id")
		}
		if blank(c.Title) {
			return toolerr.InvalidPayload(op, "report title is required")
		}
	case KindFinding:
		if blank(c.Title) {
			return toolerr.InvalidPayload(op, "finding title is required")
		}
	default:
		return toolerr.InvalidPayload(op, "unknown entity kind %q", r.Kind)
	}

	if !r.payloadMatchesKind() {
		return toolerr.InvalidPayload(op, "payload %T does not fit kind %q", r.Payload, r.Kind)
	}

	switch r.Kind {
	case KindClient:
		return validateCodename(op, r.clientPayload().Codename)
	case KindProject:
		p := r.projectPayload()
		if err := validateCodename(op, p.Codename); err != nil {
			return err
		}
		return validateDates(op, p.StartDate, p.EndDate)
	case KindReport:
		if r.reportPayload().TemplateID < 0 {
			return toolerr.InvalidPayload(op, "template must be a positive id")
		}
	}
	return nil
}

func (r Request) payloadMatchesKind() bool {
	if r.Payload == nil {
		return true
	}
	switch r.Payload.(type) {
	case ClientPayload, *ClientPayload:
		return r.Kind == KindClient
	case ProjectPayload, *ProjectPayload:
		return r.Kind == KindProject
	case ReportPayload, *ReportPayload:
		return r.Kind == KindReport
	case FindingPayload, *FindingPayload:
		return r.Kind == KindFinding
	default:
		return false
	}
}

func (r Request) clientPayload() ClientPayload {
	switch p := r.Payload.(type) {
	case ClientPayload:
		return p
	case *ClientPayload:
		if p != nil {
			return *p
		}
	}
	return ClientPayload{}
}

func (r Request) projectPayload() ProjectPayload {
	switch p := r.Payload.(type) {
	case ProjectPayload:
		return p
	case *ProjectPayload:
		if p != nil {
			return *p
		}
	}
	return ProjectPayload{}
}

func (r Request) reportPayload() ReportPayload {
	switch p := r.Payload.(type) {
	case ReportPayload:
		return p
	case *ReportPayload:
		if p != nil {
			return *p
		}
	}
	return ReportPayload{}
}

func (r Request) findingPayload() FindingPayload {
	switch p := r.Payload.(type) {
	case FindingPayload:
		return p
	case *FindingPayload:
		if p != nil {
			return *p
		}
	}
	return FindingPayload{}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateCodename(op, name string) error {
	if name != "" && blank(name) {
		return toolerr.InvalidPayload(op, "codename must not be blank")
	}
	return nil
}

func validateDates(op, start, end string) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(dateLayout, start); err != nil {
			return toolerr.InvalidPayload(op, "start_date %q is not YYYY-MM-DD", start)
		}
	}
	if end != "" {
		if e, err = time.Parse(dateLayout, end); err != nil {
			return toolerr.InvalidPayload(op, "end_date %q is not YYYY-MM-DD", end)
		}
	}
	if start != "" && end != "" && e.Before(s) {
		return toolerr.InvalidPayload(op, "end_date %s is before start_date %s", end, start)
	}
	return nil
}
