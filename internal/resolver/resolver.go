// Package resolver implements create-or-find for Ghostwriter entities.
//
// Before creating a client, project, report or finding the resolver
// searches the remote store and compares normalized criteria. One match is
// reused, several matches are reported as AMBIGUOUS_MATCH with every
// candidate id, and only no match leads to a create call. Nothing is
// cached between calls.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// Backend is the remote surface the resolver needs. *ghostwriter.Client
// implements it.
type Backend interface {
	CodenameBackend

	SearchClients(ctx context.Context, term string) ([]ghostwriter.ClientRecord, error)
	GetClient(ctx context.Context, id int64) (ghostwriter.ClientRecord, error)
	CreateClient(ctx context.Context, in ghostwriter.NewClient) (ghostwriter.ClientRecord, error)

	GetProject(ctx context.Context, id int64) (ghostwriter.Project, error)
	ProjectsByClient(ctx context.Context, clientID int64) ([]ghostwriter.Project, error)
	ProjectTypes(ctx context.Context) ([]ghostwriter.Lookup, error)
	CreateProject(ctx context.Context, in ghostwriter.NewProject) (ghostwriter.Project, error)

	ReportsByProject(ctx context.Context, projectID int64) ([]ghostwriter.Report, error)
	CreateReport(ctx context.Context, in ghostwriter.NewReport) (ghostwriter.Report, error)

	SearchFindings(ctx context.Context, term string) ([]ghostwriter.Finding, error)
	FindingSeverities(ctx context.Context) ([]ghostwriter.Lookup, error)
	FindingTypes(ctx context.Context) ([]ghostwriter.Lookup, error)
	CreateFinding(ctx context.Context, in ghostwriter.NewFinding) (ghostwriter.Finding, error)
}

// Allocator hands out unused codenames. *codename.Generator implements it.
type Allocator interface {
	Generate(ctx context.Context, req codename.Request) (string, error)
}

// Config holds defaults applied when creating projects.
type Config struct {
	// DefaultProjectType names the project type used when none is given.
	DefaultProjectType string
	// ProjectDuration sets the end date relative to the start date when
	// neither end date nor duration is given.
	ProjectDuration time.Duration
}

// Resolver performs create-or-find. Safe for concurrent use.
type Resolver struct {
	backend   Backend
	codenames Allocator
	index     *CodenameIndex
	cfg       Config
	logger    *logging.Logger
	now       func() time.Time
	outcomes  *prometheus.CounterVec
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithClock overrides time.Now for default dates.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithRegisterer registers the outcome counter with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) { r.outcomes = newOutcomeCounter(reg) }
}

// New creates a Resolver.
func New(backend Backend, codenames Allocator, cfg Config, opts ...Option) (*Resolver, error) {
	if backend == nil {
		return nil, errors.New("resolver backend is required")
	}
	if codenames == nil {
		return nil, errors.New("codename allocator is required")
	}
	if cfg.DefaultProjectType == "" {
		cfg.DefaultProjectType = "Web App"
	}
	if cfg.ProjectDuration <= 0 {
		cfg.ProjectDuration = 14 * 24 * time.Hour
	}

	r := &Resolver{
		backend:   backend,
		codenames: codenames,
		index:     NewCodenameIndex(backend),
		cfg:       cfg,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.outcomes == nil {
		r.outcomes = newOutcomeCounter(nil)
	}
	r.logger = r.logger.Named("resolver")
	return r, nil
}

func newOutcomeCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: "ghostwriter_mcp",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Create-or-find outcomes by entity kind.",
	}, []string{"kind", "outcome"})
}

// Resolution is the outcome of ResolveOrCreate.
type Resolution struct {
	ID      int64
	Created bool
	// Codename is set for clients and projects.
	Codename string
}

// ResolveOrCreate returns the id of the single record matching
// req.Criteria, creating one from req.Payload when none matches.
func (r *Resolver) ResolveOrCreate(ctx context.Context, req Request) (Resolution, error) {
	op := "resolve_" + string(req.Kind)
	if err := req.validate(op); err != nil {
		return Resolution{}, err
	}

	match, codenames, err := r.find(ctx, op, req)
	if err != nil {
		return Resolution{}, err
	}

	switch match.Kind {
	case ExactMatch:
		r.outcomes.WithLabelValues(string(req.Kind), "exact").Inc()
		r.logger.Debug(ctx, "reusing existing record",
			zap.String("kind", string(req.Kind)), zap.Int64("id", match.ID()))
		return Resolution{ID: match.ID(), Created: false, Codename: codenames[match.ID()]}, nil

	case AmbiguousMatch:
		r.outcomes.WithLabelValues(string(req.Kind), "ambiguous").Inc()
		return Resolution{}, toolerr.AmbiguousMatch(op, string(req.Kind), match.IDs)

	case NoMatch:
		res, err := r.create(ctx, op, req)
		if err != nil {
			return Resolution{}, err
		}
		r.outcomes.WithLabelValues(string(req.Kind), "created").Inc()
		r.logger.Info(ctx, "created record",
			zap.String("kind", string(req.Kind)), zap.Int64("id", res.ID))
		return res, nil

	default:
		return Resolution{}, toolerr.New(toolerr.KindInternal, op, "unhandled match kind "+match.Kind.String())
	}
}

// find searches for candidates and classifies those whose normalized
// criteria all match. It also returns codenames by id for reuse.
func (r *Resolver) find(ctx context.Context, op string, req Request) (Match, map[int64]string, error) {
	c := req.Criteria
	var ids []int64
	codenames := map[int64]string{}

	switch req.Kind {
	case KindClient:
		clients, err := r.backend.SearchClients(ctx, c.Name)
		if err != nil {
			return Match{}, nil, err
		}
		for _, cl := range clients {
			if Same(cl.Name, c.Name) {
				ids = append(ids, cl.ID)
				codenames[cl.ID] = cl.Codename
			}
		}

	case KindProject:
		if _, err := r.backend.GetClient(ctx, c.ClientID); err != nil {
			return Match{}, nil, err
		}
		projects, err := r.backend.ProjectsByClient(ctx, c.ClientID)
		if err != nil {
			return Match{}, nil, err
		}
		for _, p := range projects {
			if p.ClientID == c.ClientID && Same(p.Name, c.Name) {
				ids = append(ids, p.ID)
				codenames[p.ID] = p.Codename
			}
		}

	case KindReport:
		if _, err := r.backend.GetProject(ctx, c.ProjectID); err != nil {
			return Match{}, nil, err
		}
		reports, err := r.backend.ReportsByProject(ctx, c.ProjectID)
		if err != nil {
			return Match{}, nil, err
		}
		for _, rep := range reports {
			if rep.ProjectID == c.ProjectID && Same(rep.Title, c.Title) {
				ids = append(ids, rep.ID)
			}
		}

	case KindFinding:
		findings, err := r.backend.SearchFindings(ctx, c.Title)
		if err != nil {
			return Match{}, nil, err
		}
		for _, f := range findings {
			if Same(f.Title, c.Title) {
				ids = append(ids, f.ID)
			}
		}

	default:
		return Match{}, nil, toolerr.InvalidPayload(op, "unknown entity kind %q", req.Kind)
	}

	return Classify(ids), codenames, nil
}

func (r *Resolver) create(ctx context.Context, op string, req Request) (Resolution, error) {
	switch req.Kind {
	case KindClient:
		return r.createClient(ctx, op, req.Criteria, req.clientPayload())
	case KindProject:
		return r.createProject(ctx, op, req.Criteria, req.projectPayload())
	case KindReport:
		return r.createReport(ctx, req.Criteria, req.reportPayload())
	case KindFinding:
		return r.createFinding(ctx, op, req.Criteria, req.findingPayload())
	default:
		return Resolution{}, toolerr.InvalidPayload(op, "unknown entity kind %q", req.Kind)
	}
}

// allocateCodename checks an explicit codename or generates a new one.
// An explicit codename is stored with its whitespace collapsed.
func (r *Resolver) allocateCodename(ctx context.Context, op string, kind codename.Kind, explicit string) (string, error) {
	explicit = strings.Join(strings.Fields(explicit), " ")
	if explicit == "" {
		return r.codenames.Generate(ctx, codename.Request{Kind: kind})
	}
	taken, err := r.index.Taken(ctx, explicit)
	if err != nil {
		return "", err
	}
	if taken {
		return "", toolerr.InvalidPayload(op, "codename %q is already used by a client or project", explicit)
	}
	return explicit, nil
}

func (r *Resolver) createClient(ctx context.Context, op string, c Criteria, p ClientPayload) (Resolution, error) {
	name, err := r.allocateCodename(ctx, op, codename.KindClient, p.Codename)
	if err != nil {
		return Resolution{}, err
	}
	shortName := p.ShortName
	if shortName == "" {
		shortName = c.Name
	}

	client, err := r.backend.CreateClient(ctx, ghostwriter.NewClient{
		Name:      c.Name,
		ShortName: shortName,
		Codename:  name,
		Address:   p.Address,
		Note:      p.Note,
		Timezone:  p.Timezone,
	})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{ID: client.ID, Created: true, Codename: client.Codename}, nil
}

func (r *Resolver) createProject(ctx context.Context, op string, c Criteria, p ProjectPayload) (Resolution, error) {
	typeID, err := r.projectTypeID(ctx, op, p.Type)
	if err != nil {
		return Resolution{}, err
	}
	name, err := r.allocateCodename(ctx, op, codename.KindProject, p.Codename)
	if err != nil {
		return Resolution{}, err
	}
	start, end := r.projectDates(p)

	project, err := r.backend.CreateProject(ctx, ghostwriter.NewProject{
		ClientID:      c.ClientID,
		ProjectTypeID: typeID,
		Codename:      name,
		Note:          c.Name,
		StartDate:     start,
		EndDate:       end,
	})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{ID: project.ID, Created: true, Codename: project.Codename}, nil
}

func (r *Resolver) projectTypeID(ctx context.Context, op, want string) (int64, error) {
	if want == "" {
		want = r.cfg.DefaultProjectType
	}
	types, err := r.backend.ProjectTypes(ctx)
	if err != nil {
		return 0, err
	}
	return lookupID(op, "project type", types, want)
}

func (r *Resolver) projectDates(p ProjectPayload) (string, string) {
	start := p.StartDate
	if start == "" {
		start = r.now().Format(dateLayout)
	}
	end := p.EndDate
	if end == "" {
		// start was validated, parse cannot fail here
		t, _ := time.Parse(dateLayout, start)
		end = t.Add(r.cfg.ProjectDuration).Format(dateLayout)
	}
	return start, end
}

func (r *Resolver) createReport(ctx context.Context, c Criteria, p ReportPayload) (Resolution, error) {
	report, err := r.backend.CreateReport(ctx, ghostwriter.NewReport{
		ProjectID:      c.ProjectID,
		Title:          c.Title,
		LastUpdate:     r.now().Format(dateLayout),
		DocxTemplateID: p.TemplateID,
	})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{ID: report.ID, Created: true}, nil
}

func (r *Resolver) createFinding(ctx context.Context, op string, c Criteria, p FindingPayload) (Resolution, error) {
	in := ghostwriter.NewFinding{
		Title:            c.Title,
		Description:      p.Description,
		Impact:           p.Impact,
		Mitigation:       p.Mitigation,
		ReplicationSteps: p.ReplicationSteps,
		References:       p.References,
	}
	if p.Severity != "" {
		severities, err := r.backend.FindingSeverities(ctx)
		if err != nil {
			return Resolution{}, err
		}
		if in.SeverityID, err = lookupID(op, "severity", severities, p.Severity); err != nil {
			return Resolution{}, err
		}
	}
	if p.FindingType != "" {
		types, err := r.backend.FindingTypes(ctx)
		if err != nil {
			return Resolution{}, err
		}
		if in.FindingTypeID, err = lookupID(op, "finding type", types, p.FindingType); err != nil {
			return Resolution{}, err
		}
	}

	finding, err := r.backend.CreateFinding(ctx, in)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{ID: finding.ID, Created: true}, nil
}

// lookupID finds want in a lookup table by normalized name.
func lookupID(op, what string, rows []ghostwriter.Lookup, want string) (int64, error) {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if Same(row.Name, want) {
			return row.ID, nil
		}
		names = append(names, row.Name)
	}
	return 0, toolerr.InvalidPayload(op, "unknown %s %q; known: %v", what, want, names)
}
