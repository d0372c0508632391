package ghostwriter

// Domain records returned by Client. Optional remote fields that are null
// come back as empty strings.

// ClientRecord is a Ghostwriter client organization.
type ClientRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Codename  string `json:"codename"`
	Address   string `json:"address"`
	Note      string `json:"note"`
	Timezone  string `json:"timezone"`
}

// Project is an engagement under a client. Name is read back from the
// project note, Ghostwriter has no name column.
type Project struct {
	ID             int64  `json:"id"`
	ClientID       int64  `json:"client_id"`
	Name           string `json:"name"`
	Codename       string `json:"codename"`
	ProjectType    string `json:"project_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ClientName     string `json:"client_name"`
	ClientCodename string `json:"client_codename"`
}

// Report is a deliverable under a project.
type Report struct {
	ID             int64  `json:"id"`
	ProjectID      int64  `json:"project_id"`
	Title          string `json:"title"`
	LastUpdate     string `json:"last_update"`
	DocxTemplateID int64  `json:"docx_template_id,omitempty"`
}

// Finding is a finding library record.
type Finding struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Severity         string `json:"severity"`
	FindingType      string `json:"finding_type"`
	Impact           string `json:"impact,omitempty"`
	Mitigation       string `json:"mitigation,omitempty"`
	ReplicationSteps string `json:"replication_steps,omitempty"`
	References       string `json:"references,omitempty"`
}

// ReportedFinding is a finding attached to a report. ReplicationSteps and
// AffectedEntities hold HTML, one paragraph per entry.
type ReportedFinding struct {
	ID               int64  `json:"id"`
	ReportID         int64  `json:"report_id"`
	Title            string `json:"title"`
	ReplicationSteps string `json:"replication_steps"`
	AffectedEntities string `json:"affected_entities"`
}

// Lookup is an id/name row from a Ghostwriter lookup table
// (project types, finding severities, finding types).
type Lookup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewClient is the insert payload for a client.
type NewClient struct {
	Name      string
	ShortName string
	Codename  string
	Address   string
	Note      string
	Timezone  string
}

// NewProject is the insert payload for a project.
type NewProject struct {
	ClientID      int64
	ProjectTypeID int64
	Codename      string
	Note          string
	StartDate     string
	EndDate       string
}

// NewReport is the insert payload for a report.
type NewReport struct {
	ProjectID      int64
	Title          string
	LastUpdate     string
	DocxTemplateID int64
}

// NewFinding is the insert payload for a library finding.
type NewFinding struct {
	Title            string
	Description      string
	SeverityID       int64
	FindingTypeID    int64
	Impact           string
	Mitigation       string
	ReplicationSteps string
	References       string
}

// ReportedFindingUpdate names the columns to overwrite. Nil fields are
// left out of the mutation entirely.
type ReportedFindingUpdate struct {
	ReplicationSteps *string
	AffectedEntities *string
}

// Empty reports whether the update sets nothing.
func (u ReportedFindingUpdate) Empty() bool {
	return u.ReplicationSteps == nil && u.AffectedEntities == nil
}

// wire types mirror the Hasura schema; nullable columns are pointers.

type wireClient struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ShortName *string `json:"shortName"`
	Codename  *string `json:"codename"`
	Address   *string `json:"address"`
	Note      *string `json:"note"`
	Timezone  *string `json:"timezone"`
}

func (w wireClient) normalize() ClientRecord {
	return ClientRecord{
		ID:        w.ID,
		Name:      w.Name,
		ShortName: str(w.ShortName),
		Codename:  str(w.Codename),
		Address:   str(w.Address),
		Note:      str(w.Note),
		Timezone:  str(w.Timezone),
	}
}

type wireProject struct {
	ID          int64   `json:"id"`
	ClientID    int64   `json:"clientId"`
	Codename    *string `json:"codename"`
	Note        *string `json:"note"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	ProjectType *struct {
		ProjectType string `json:"projectType"`
	} `json:"projectType"`
	Client *struct {
		Name     string  `json:"name"`
		Codename *string `json:"codename"`
	} `json:"client"`
}

func (w wireProject) normalize() Project {
	p := Project{
		ID:          w.ID,
		ClientID:    w.ClientID,
		Name:        str(w.Note),
		Codename:    str(w.Codename),
		ProjectType: "Unknown",
		StartDate:   str(w.StartDate),
		EndDate:     str(w.EndDate),
	}
	if w.ProjectType != nil && w.ProjectType.ProjectType != "" {
		p.ProjectType = w.ProjectType.ProjectType
	}
	if w.Client != nil {
		p.ClientName = w.Client.Name
		p.ClientCodename = str(w.Client.Codename)
	}
	return p
}

type wireReport struct {
	ID             int64   `json:"id"`
	ProjectID      int64   `json:"projectId"`
	Title          string  `json:"title"`
	LastUpdate     *string `json:"last_update"`
	DocxTemplateID *int64  `json:"docxTemplateId"`
}

func (w wireReport) normalize() Report {
	r := Report{
		ID:         w.ID,
		ProjectID:  w.ProjectID,
		Title:      w.Title,
		LastUpdate: str(w.LastUpdate),
	}
	if w.DocxTemplateID != nil {
		r.DocxTemplateID = *w.DocxTemplateID
	}
	return r
}

type wireFinding struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Impact           *string `json:"impact"`
	Mitigation       *string `json:"mitigation"`
	ReplicationSteps *string `json:"replication_steps"`
	References       *string `json:"references"`
	Severity         *struct {
		Severity string `json:"severity"`
	} `json:"severity"`
	Type *struct {
		FindingType string `json:"findingType"`
	} `json:"type"`
}

func (w wireFinding) normalize() Finding {
	f := Finding{
		ID:               w.ID,
		Title:            w.Title,
		Description:      str(w.Description),
		Impact:           str(w.Impact),
		Mitigation:       str(w.Mitigation),
		ReplicationSteps: str(w.ReplicationSteps),
		References:       str(w.References),
	}
	if w.Severity != nil {
		f.Severity = w.Severity.Severity
	}
	if w.Type != nil {
		f.FindingType = w.Type.FindingType
	}
	return f
}

type wireReportedFinding struct {
	ID               int64   `json:"id"`
	ReportID         int64   `json:"reportId"`
	Title            string  `json:"title"`
	ReplicationSteps *string `json:"replication_steps"`
	AffectedEntities *string `json:"affectedEntities"`
}

func (w wireReportedFinding) normalize() ReportedFinding {
	return ReportedFinding{
		ID:               w.ID,
		ReportID:         w.ReportID,
		Title:            w.Title,
		ReplicationSteps: str(w.ReplicationSteps),
		AffectedEntities: str(w.AffectedEntities),
	}
}

type wireID struct {
	ID int64 `json:"id"`
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// object builds an insert object from non-empty values only, so Hasura
// column defaults apply to everything omitted.
type object map[string]any

func (o object) setString(key, val string) object {
	if val != "" {
		o[key] = val
	}
	return o
}

func (o object) setID(key string, val int64) object {
	if val != 0 {
		o[key] = val
	}
	return o
}
