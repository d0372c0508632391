package mcp

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
)

type generateCodenameInput struct {
	Kind        string `json:"kind" jsonschema:"client or project"`
	Seed        string `json:"seed,omitempty" jsonschema:"Makes the candidate sequence deterministic"`
	MaxAttempts int    `json:"max_attempts,omitempty" jsonschema:"Candidates to try before giving up (default from configuration)"`
}

type generateCodenameOutput struct {
	Codename string `json:"codename" jsonschema:"A codename not used by any client or project"`
}

func (s *Server) registerCodenameTools() error {
	return addTool(s, &ToolMetadata{
		Name: "generate_codename",
		Description: "Generate a codename not currently used by any client or project. " +
			"Fails with CODENAME_EXHAUSTED after max_attempts collisions. Nothing is reserved; " +
			"pass the result to create_or_find_client or create_or_find_project promptly.",
		Category: CategoryCodename,
		Keywords: []string{"codename", "alias", "name"},
	}, func(ctx context.Context, in generateCodenameInput) (generateCodenameOutput, string, error) {
		name, err := s.services.Codenames.Generate(ctx, codename.Request{
			Kind:        codename.Kind(in.Kind),
			Seed:        in.Seed,
			MaxAttempts: in.MaxAttempts,
		})
		if err != nil {
			return generateCodenameOutput{}, "", err
		}
		return generateCodenameOutput{Codename: name}, name, nil
	})
}
