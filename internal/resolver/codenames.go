package resolver

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
)

// CodenameBackend is the remote surface needed to check codename usage.
type CodenameBackend interface {
	ClientsByCodename(ctx context.Context, codename string) ([]ghostwriter.ClientRecord, error)
	ProjectsByCodename(ctx context.Context, codename string) ([]ghostwriter.Project, error)
}

// CodenameIndex answers whether a codename is in use by any client or
// project. It reads through to the remote store on every call.
type CodenameIndex struct {
	backend CodenameBackend
}

// NewCodenameIndex creates a CodenameIndex.
func NewCodenameIndex(backend CodenameBackend) *CodenameIndex {
	return &CodenameIndex{backend: backend}
}

// Taken reports whether codename is used by a client or a project,
// compared after normalization.
func (i *CodenameIndex) Taken(ctx context.Context, codename string) (bool, error) {
	clients, err := i.backend.ClientsByCodename(ctx, codename)
	if err != nil {
		return false, err
	}
	for _, c := range clients {
		if Same(c.Codename, codename) {
			return true, nil
		}
	}

	projects, err := i.backend.ProjectsByCodename(ctx, codename)
	if err != nil {
		return false, err
	}
	for _, p := range projects {
		if Same(p.Codename, codename) {
			return true, nil
		}
	}
	return false, nil
}
