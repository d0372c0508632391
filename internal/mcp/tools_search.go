package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// ===== ENTITY SEARCH =====

type searchInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring; whitespace between words is flexible"`
}

type searchOutput[T any] struct {
	Matches []T `json:"matches"`
	Count   int `json:"count"`
}

// addSearchTool registers a read-only search over one entity type.
func addSearchTool[T any](s *Server, meta *ToolMetadata, search func(context.Context, string) ([]T, error)) error {
	return addTool(s, meta, func(ctx context.Context, in searchInput) (searchOutput[T], string, error) {
		if strings.TrimSpace(in.Query) == "" {
			return searchOutput[T]{}, "", toolerr.InvalidPayload(meta.Name, "query is required")
		}
		rows, err := search(ctx, in.Query)
		if err != nil {
			return searchOutput[T]{}, "", err
		}
		if rows == nil {
			rows = []T{}
		}
		return searchOutput[T]{Matches: rows, Count: len(rows)},
			fmt.Sprintf("%d match(es) for %q", len(rows), in.Query), nil
	})
}

// ===== TOOL DISCOVERY =====

type toolSearchInput struct {
	Query    string `json:"query" jsonschema:"Search text or regular expression matched against tool names, descriptions and keywords"`
	Category string `json:"category,omitempty" jsonschema:"Restrict to one category: clients, projects, reports, findings, codename, workflow, search"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 5)"`
}

type toolSearchResult struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords,omitempty"`
	Score       int      `json:"score"`
	MatchReason string   `json:"match_reason"`
}

type toolSearchOutput struct {
	Query      string             `json:"query"`
	Results    []toolSearchResult `json:"results"`
	Count      int                `json:"count"`
	TotalTools int                `json:"total_tools"`
}

const defaultToolSearchLimit = 5

func (s *Server) searchTools(in toolSearchInput) (toolSearchOutput, error) {
	if in.Query == "" {
		return toolSearchOutput{}, toolerr.InvalidPayload("tool_search", "query is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultToolSearchLimit
	}

	var hits []*SearchResult
	if in.Category != "" {
		hits = s.registry.SearchByCategory(in.Query, ToolCategory(in.Category))
	} else {
		hits = s.registry.Search(in.Query)
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]toolSearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, toolSearchResult{
			Name:        h.Tool.Name,
			Description: h.Tool.Description,
			Category:    string(h.Tool.Category),
			Keywords:    h.Tool.Keywords,
			Score:       h.Score,
			MatchReason: h.MatchReason,
		})
	}
	return toolSearchOutput{
		Query:      in.Query,
		Results:    results,
		Count:      len(results),
		TotalTools: s.registry.Count(),
	}, nil
}

func (s *Server) registerSearchTools() error {
	dir := s.services.Directory

	if err := addSearchTool(s, &ToolMetadata{
		Name:        "search_clients",
		Description: "Search clients by name, short name or codename. Read-only.",
		Category:    CategoryClients,
		Keywords:    []string{"client", "search", "find"},
	}, dir.SearchClients); err != nil {
		return err
	}
	if err := addSearchTool(s, &ToolMetadata{
		Name:        "search_projects",
		Description: "Search projects by name, codename, or their client's name or codename. Read-only.",
		Category:    CategoryProjects,
		Keywords:    []string{"project", "search", "find"},
	}, dir.SearchProjects); err != nil {
		return err
	}
	if err := addSearchTool(s, &ToolMetadata{
		Name:        "search_reports",
		Description: "Search reports by title. Read-only.",
		Category:    CategoryReports,
		Keywords:    []string{"report", "search", "find"},
	}, dir.SearchReports); err != nil {
		return err
	}
	if err := addSearchTool(s, &ToolMetadata{
		Name:        "search_findings",
		Description: "Search the finding library by title. Read-only.",
		Category:    CategoryFindings,
		Keywords:    []string{"finding", "vulnerability", "library", "search"},
	}, dir.SearchFindings); err != nil {
		return err
	}

	return addTool(s, &ToolMetadata{
		Name:        "tool_search",
		Description: "Find tools by name, description or keyword. Accepts a regular expression.",
		Category:    CategorySearch,
		Keywords:    []string{"tools", "discover", "help"},
	}, func(_ context.Context, in toolSearchInput) (toolSearchOutput, string, error) {
		out, err := s.searchTools(in)
		if err != nil {
			return toolSearchOutput{}, "", err
		}
		if out.Count == 0 {
			return out, fmt.Sprintf("No tools found matching: %s", in.Query), nil
		}
		names := make([]string, len(out.Results))
		for i, r := range out.Results {
			names[i] = r.Name
		}
		return out, fmt.Sprintf("Found %d tool(s) for query '%s': %s", out.Count, in.Query, strings.Join(names, ", ")), nil
	})
}

// Compile-time checks that the client satisfies the directory.
var _ Directory = (*ghostwriter.Client)(nil)
