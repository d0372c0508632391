package ghostwriter

import (
	"context"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// Fake is an in-memory Ghostwriter with the same method set as Client.
// Searches mimic the _ilike patterns Client sends. Every call is counted.
type Fake struct {
	mu sync.Mutex

	Clients          []ClientRecord
	Projects         []Project
	Reports          []Report
	Findings         []Finding
	ReportedFindings []ReportedFinding

	ProjectTypeRows []Lookup
	SeverityRows    []Lookup
	FindingTypeRows []Lookup

	// GeneratedCodenames are returned by GenerateCodename in rotation.
	GeneratedCodenames []string

	// Err, when set, fails every call with it.
	Err error

	calls  map[string]int
	nextID int64
}

// NewFake returns a Fake with Ghostwriter's stock lookup tables.
func NewFake() *Fake {
	return &Fake{
		ProjectTypeRows: []Lookup{
			{ID: 1, Name: "Web App"}, {ID: 2, Name: "Red Team"}, {ID: 3, Name: "Mobile App"},
			{ID: 4, Name: "Cloud"}, {ID: 5, Name: "Internal"},
		},
		SeverityRows: []Lookup{
			{ID: 1, Name: "Informational"}, {ID: 2, Name: "Low"}, {ID: 3, Name: "Medium"},
			{ID: 4, Name: "High"}, {ID: 5, Name: "Critical"},
		},
		FindingTypeRows: []Lookup{
			{ID: 1, Name: "Network"}, {ID: 2, Name: "Wireless"}, {ID: 3, Name: "Physical"},
			{ID: 4, Name: "Web"}, {ID: 5, Name: "Mobile"}, {ID: 6, Name: "Cloud"}, {ID: 7, Name: "Host"},
		},
		GeneratedCodenames: []string{"Remote Heron"},
		calls:              map[string]int{},
		nextID:             1000,
	}
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Creates returns the number of insert calls across all entities.
func (f *Fake) Creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["create_client"] + f.calls["create_project"] + f.calls["create_report"] + f.calls["create_finding"]
}

// enter counts op and returns Err. Callers hold no lock.
func (f *Fake) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	return f.Err
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

// likeMatch reports whether value contains the words of term in order,
// ignoring case, as ILikePattern does.
func likeMatch(value, term string) bool {
	v := strings.ToLower(value)
	for _, w := range strings.Fields(strings.ToLower(term)) {
		i := strings.Index(v, w)
		if i < 0 {
			return false
		}
		v = v[i+len(w):]
	}
	return true
}

func (f *Fake) SearchClients(_ context.Context, term string) ([]ClientRecord, error) {
	if err := f.enter("search_clients"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ClientRecord{}
	for _, c := range f.Clients {
		if likeMatch(c.Name, term) || likeMatch(c.Codename, term) || likeMatch(c.ShortName, term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) GetClient(_ context.Context, id int64) (ClientRecord, error) {
	if err := f.enter("get_client"); err != nil {
		return ClientRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Clients {
		if c.ID == id {
			return c, nil
		}
	}
	return ClientRecord{}, toolerr.NotFound("get_client", "client", id)
}

func (f *Fake) ClientsByCodename(_ context.Context, codename string) ([]ClientRecord, error) {
	if err := f.enter("clients_by_codename"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ClientRecord{}
	for _, c := range f.Clients {
		if strings.EqualFold(strings.TrimSpace(c.Codename), collapseSpace(codename)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) CreateClient(_ context.Context, in NewClient) (ClientRecord, error) {
	if err := f.enter("create_client"); err != nil {
		return ClientRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := ClientRecord{ID: f.id(), Name: in.Name, ShortName: in.ShortName, Codename: in.Codename,
		Address: in.Address, Note: in.Note, Timezone: in.Timezone}
	f.Clients = append(f.Clients, c)
	return c, nil
}

func (f *Fake) SearchProjects(_ context.Context, term string) ([]Project, error) {
	if err := f.enter("search_projects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Project{}
	for _, p := range f.Projects {
		if likeMatch(p.Codename, term) || likeMatch(p.Name, term) ||
			likeMatch(p.ClientName, term) || likeMatch(p.ClientCodename, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) GetProject(_ context.Context, id int64) (Project, error) {
	if err := f.enter("get_project"); err != nil {
		return Project{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, toolerr.NotFound("get_project", "project", id)
}

func (f *Fake) ProjectsByClient(_ context.Context, clientID int64) ([]Project, error) {
	if err := f.enter("projects_by_client"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Project{}
	for _, p := range f.Projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) ProjectsByCodename(_ context.Context, codename string) ([]Project, error) {
	if err := f.enter("projects_by_codename"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Project{}
	for _, p := range f.Projects {
		if strings.EqualFold(strings.TrimSpace(p.Codename), collapseSpace(codename)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) ProjectTypes(context.Context) ([]Lookup, error) {
	if err := f.enter("project_types"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Lookup{}, f.ProjectTypeRows...), nil
}

func (f *Fake) CreateProject(_ context.Context, in NewProject) (Project, error) {
	if err := f.enter("create_project"); err != nil {
		return Project{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := Project{ID: f.id(), ClientID: in.ClientID, Name: in.Note, Codename: in.Codename,
		ProjectType: "Unknown", StartDate: in.StartDate, EndDate: in.EndDate}
	for _, t := range f.ProjectTypeRows {
		if t.ID == in.ProjectTypeID {
			p.ProjectType = t.Name
		}
	}
	for _, c := range f.Clients {
		if c.ID == in.ClientID {
			p.ClientName, p.ClientCodename = c.Name, c.Codename
		}
	}
	f.Projects = append(f.Projects, p)
	return p, nil
}

func (f *Fake) SearchReports(_ context.Context, term string) ([]Report, error) {
	if err := f.enter("search_reports"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Report{}
	for _, r := range f.Reports {
		if likeMatch(r.Title, term) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) GetReport(_ context.Context, id int64) (Report, error) {
	if err := f.enter("get_report"); err != nil {
		return Report{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Reports {
		if r.ID == id {
			return r, nil
		}
	}
	return Report{}, toolerr.NotFound("get_report", "report", id)
}

func (f *Fake) ReportsByProject(_ context.Context, projectID int64) ([]Report, error) {
	if err := f.enter("reports_by_project"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Report{}
	for _, r := range f.Reports {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) CreateReport(_ context.Context, in NewReport) (Report, error) {
	if err := f.enter("create_report"); err != nil {
		return Report{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := Report{ID: f.id(), ProjectID: in.ProjectID, Title: in.Title, LastUpdate: in.LastUpdate, DocxTemplateID: in.DocxTemplateID}
	f.Reports = append(f.Reports, r)
	return r, nil
}

func (f *Fake) SearchFindings(_ context.Context, term string) ([]Finding, error) {
	if err := f.enter("search_findings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Finding{}
	for _, fd := range f.Findings {
		if likeMatch(fd.Title, term) {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *Fake) GetFinding(_ context.Context, id int64) (Finding, error) {
	if err := f.enter("get_finding"); err != nil {
		return Finding{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fd := range f.Findings {
		if fd.ID == id {
			return fd, nil
		}
	}
	return Finding{}, toolerr.NotFound("get_finding", "finding", id)
}

func (f *Fake) FindingSeverities(context.Context) ([]Lookup, error) {
	if err := f.enter("finding_severities"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Lookup{}, f.SeverityRows...), nil
}

func (f *Fake) FindingTypes(context.Context) ([]Lookup, error) {
	if err := f.enter("finding_types"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Lookup{}, f.FindingTypeRows...), nil
}

func (f *Fake) CreateFinding(_ context.Context, in NewFinding) (Finding, error) {
	if err := f.enter("create_finding"); err != nil {
		return Finding{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fd := Finding{ID: f.id(), Title: in.Title, Description: in.Description, Impact: in.Impact,
		Mitigation: in.Mitigation, ReplicationSteps: in.ReplicationSteps, References: in.References}
	fd.Severity = lookupName(f.SeverityRows, in.SeverityID)
	fd.FindingType = lookupName(f.FindingTypeRows, in.FindingTypeID)
	f.Findings = append(f.Findings, fd)
	return fd, nil
}

func lookupName(rows []Lookup, id int64) string {
	for _, r := range rows {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}

func (f *Fake) AttachFinding(_ context.Context, findingID, reportID int64) (int64, error) {
	if err := f.enter("attach_finding"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var finding *Finding
	for i := range f.Findings {
		if f.Findings[i].ID == findingID {
			finding = &f.Findings[i]
		}
	}
	if finding == nil {
		return 0, toolerr.NotFound("attach_finding", "finding", findingID)
	}
	found := false
	for _, r := range f.Reports {
		found = found || r.ID == reportID
	}
	if !found {
		return 0, toolerr.NotFound("attach_finding", "report", reportID)
	}

	rf := ReportedFinding{ID: f.id(), ReportID: reportID, Title: finding.Title, ReplicationSteps: finding.ReplicationSteps}
	f.ReportedFindings = append(f.ReportedFindings, rf)
	return rf.ID, nil
}

func (f *Fake) ListReportedFindings(_ context.Context, reportID int64) ([]ReportedFinding, error) {
	if err := f.enter("list_reported_findings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ReportedFinding{}
	for _, rf := range f.ReportedFindings {
		if rf.ReportID == reportID {
			out = append(out, rf)
		}
	}
	return out, nil
}

func (f *Fake) GetReportedFinding(_ context.Context, id int64) (ReportedFinding, error) {
	if err := f.enter("get_reported_finding"); err != nil {
		return ReportedFinding{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rf := range f.ReportedFindings {
		if rf.ID == id {
			return rf, nil
		}
	}
	return ReportedFinding{}, toolerr.NotFound("get_reported_finding", "reported finding", id)
}

func (f *Fake) UpdateReportedFinding(_ context.Context, id int64, upd ReportedFindingUpdate) (ReportedFinding, error) {
	if err := f.enter("update_reported_finding"); err != nil {
		return ReportedFinding{}, err
	}
	if upd.Empty() {
		return ReportedFinding{}, toolerr.InvalidPayload("update_reported_finding", "at least one of replication_steps or affected_entities must be set")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ReportedFindings {
		rf := &f.ReportedFindings[i]
		if rf.ID != id {
			continue
		}
		if upd.ReplicationSteps != nil {
			rf.ReplicationSteps = *upd.ReplicationSteps
		}
		if upd.AffectedEntities != nil {
			rf.AffectedEntities = *upd.AffectedEntities
		}
		return *rf, nil
	}
	return ReportedFinding{}, toolerr.NotFound("update_reported_finding", "reported finding", id)
}

func (f *Fake) GenerateCodename(context.Context) (string, error) {
	if err := f.enter("generate_codename"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.GeneratedCodenames) == 0 {
		return "", toolerr.RemoteUnavailable("generate_codename", errNoRowReturned)
	}
	n := f.calls["generate_codename"] - 1
	return f.GeneratedCodenames[n%len(f.GeneratedCodenames)], nil
}
