package mcp

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// ToolCategory groups tools by the Ghostwriter entity they operate on.
type ToolCategory string

const (
	CategoryClients  ToolCategory = "clients"
	CategoryProjects ToolCategory = "projects"
	CategoryReports  ToolCategory = "reports"
	CategoryFindings ToolCategory = "findings"
	CategoryCodename ToolCategory = "codename"
	// CategoryWorkflow is for guidance tools that never touch Ghostwriter.
	CategoryWorkflow ToolCategory = "workflow"
	// CategorySearch is for tool discovery (tool_search itself).
	CategorySearch ToolCategory = "search"
)

// ToolMetadata describes one registered MCP tool.
type ToolMetadata struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    ToolCategory `json:"category"`

	// Keywords are additional searchable terms for this tool.
	Keywords []string `json:"keywords,omitempty"`
}

// ToolRegistry indexes tool metadata for tool_search.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*ToolMetadata
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*ToolMetadata),
	}
}

// Register adds a tool. Names are unique.
func (r *ToolRegistry) Register(tool *ToolMetadata) error {
	switch {
	case tool == nil:
		return fmt.Errorf("tool metadata is required")
	case tool.Name == "":
		return fmt.Errorf("tool name is required")
	case tool.Description == "":
		return fmt.Errorf("tool description is required for %q", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name]; ok {
		return fmt.Errorf("tool %q already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Get returns the metadata for a specific tool.
func (r *ToolRegistry) Get(name string) (*ToolMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all tools sorted by name.
func (r *ToolRegistry) List() []*ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*ToolMetadata, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	slices.SortFunc(result, func(a, b *ToolMetadata) int { return cmp.Compare(a.Name, b.Name) })
	return result
}

// ListNames returns all tool names sorted.
func (r *ToolRegistry) ListNames() []string {
	tools := r.List()
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	return names
}

// ListByCategory returns the tools in category sorted by name.
func (r *ToolRegistry) ListByCategory(category ToolCategory) []*ToolMetadata {
	result := make([]*ToolMetadata, 0)
	for _, tool := range r.List() {
		if tool.Category == category {
			result = append(result, tool)
		}
	}
	return result
}

// SearchResult is one tool_search hit.
type SearchResult struct {
	Tool *ToolMetadata `json:"tool"`

	// Score indicates match quality:
	// 3 = exact name match
	// 2 = name contains or matches query
	// 1 = description or keyword match
	Score int `json:"score"`

	MatchReason string `json:"match_reason"`
}

// Search finds tools whose name, description or keywords match query.
// Matching is case-insensitive; a query that compiles as a regular
// expression is also tried as one.
func (r *ToolRegistry) Search(query string) []*SearchResult {
	if query == "" {
		return nil
	}

	queryLower := strings.ToLower(query)
	var regex *regexp.Regexp
	if re, err := regexp.Compile("(?i)" + query); err == nil {
		regex = re
	}
	matches := func(s string) (contains, pattern bool) {
		contains = strings.Contains(strings.ToLower(s), queryLower)
		pattern = regex != nil && regex.MatchString(s)
		return contains, pattern
	}

	results := make([]*SearchResult, 0)
	for _, tool := range r.List() {
		if strings.ToLower(tool.Name) == queryLower {
			results = append(results, &SearchResult{Tool: tool, Score: 3, MatchReason: "exact name match"})
			continue
		}
		if c, p := matches(tool.Name); c || p {
			reason := "name contains query"
			if !c {
				reason = "name matches pattern"
			}
			results = append(results, &SearchResult{Tool: tool, Score: 2, MatchReason: reason})
			continue
		}
		if c, p := matches(tool.Description); c || p {
			reason := "description contains query"
			if !c {
				reason = "description matches pattern"
			}
			results = append(results, &SearchResult{Tool: tool, Score: 1, MatchReason: reason})
			continue
		}
		for _, kw := range tool.Keywords {
			if c, p := matches(kw); c || p {
				reason := "keyword contains query"
				if !c {
					reason = "keyword matches pattern"
				}
				results = append(results, &SearchResult{Tool: tool, Score: 1, MatchReason: reason})
				break
			}
		}
	}

	// List is name-ordered, so a stable sort keeps ties alphabetical.
	slices.SortStableFunc(results, func(a, b *SearchResult) int { return cmp.Compare(b.Score, a.Score) })
	return results
}

// SearchByCategory searches within a specific category.
func (r *ToolRegistry) SearchByCategory(query string, category ToolCategory) []*SearchResult {
	filtered := make([]*SearchResult, 0)
	for _, result := range r.Search(query) {
		if result.Tool.Category == category {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
