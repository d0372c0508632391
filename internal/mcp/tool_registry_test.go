package mcp

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTools() []*ToolMetadata {
	return []*ToolMetadata{
		{Name: "search_clients", Description: "Search clients by name", Category: CategoryClients, Keywords: []string{"customer"}},
		{Name: "create_or_find_client", Description: "Resolve a client by name", Category: CategoryClients},
		{Name: "attach_finding", Description: "Attach a library finding to a report", Category: CategoryFindings, Keywords: []string{"vulnerability"}},
		{Name: "update_finding", Description: "Record evidence on an attached finding", Category: CategoryFindings},
		{Name: "generate_codename", Description: "Allocate an unused codename", Category: CategoryCodename, Keywords: []string{"alias"}},
	}
}

func newSampleRegistry(t *testing.T) *ToolRegistry {
	t.Helper()
	r := NewToolRegistry()
	for _, tool := range sampleTools() {
		require.NoError(t, r.Register(tool))
	}
	return r
}

func TestToolRegistry_Register(t *testing.T) {
	registry := NewToolRegistry()
	tool := &ToolMetadata{
		Name:        "search_findings",
		Description: "Search the finding library",
		Category:    CategoryFindings,
		Keywords:    []string{"library"},
	}
	require.NoError(t, registry.Register(tool))

	got, ok := registry.Get("search_findings")
	require.True(t, ok)
	assert.Equal(t, tool, got)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestToolRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewToolRegistry()
	tool := &ToolMetadata{Name: "get_report", Description: "Fetch a report", Category: CategoryReports}

	require.NoError(t, registry.Register(tool))
	err := registry.Register(tool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestToolRegistry_RegisterInvalid(t *testing.T) {
	tests := []struct {
		name    string
		tool    *ToolMetadata
		wantErr string
	}{
		{name: "nil tool", tool: nil, wantErr: "tool metadata is required"},
		{name: "empty name", tool: &ToolMetadata{Description: "x"}, wantErr: "tool name is required"},
		{name: "empty description", tool: &ToolMetadata{Name: "x"}, wantErr: "tool description is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewToolRegistry().Register(tt.tool)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToolRegistry_ListSorted(t *testing.T) {
	r := newSampleRegistry(t)

	assert.Equal(t, []string{
		"attach_finding", "create_or_find_client", "generate_codename", "search_clients", "update_finding",
	}, r.ListNames())
	assert.Equal(t, 5, r.Count())

	findings := r.ListByCategory(CategoryFindings)
	require.Len(t, findings, 2)
	assert.Equal(t, "attach_finding", findings[0].Name)
	assert.Empty(t, r.ListByCategory(CategoryWorkflow))
}

func TestToolRegistry_Search(t *testing.T) {
	r := newSampleRegistry(t)

	tests := []struct {
		query      string
		wantFirst  string
		wantScore  int
		wantReason string
	}{
		{"attach_finding", "attach_finding", 3, "exact name match"},
		{"ATTACH", "attach_finding", 2, "name contains query"},
		{"^generate_.*", "generate_codename", 2, "name matches pattern"},
		{"evidence", "update_finding", 1, "description contains query"},
		{"vulnerab", "attach_finding", 1, "keyword contains query"},
		{"alias|nickname", "generate_codename", 1, "keyword matches pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results := r.Search(tt.query)
			require.NotEmpty(t, results)
			assert.Equal(t, tt.wantFirst, results[0].Tool.Name)
			assert.Equal(t, tt.wantScore, results[0].Score)
			assert.Equal(t, tt.wantReason, results[0].MatchReason)
		})
	}

	assert.Nil(t, r.Search(""))
	assert.Empty(t, r.Search("kubernetes"))
}

func TestToolRegistry_SearchOrdering(t *testing.T) {
	r := newSampleRegistry(t)

	// "name" hits one tool name and two descriptions; ties stay alphabetical.
	results := r.Search("name")
	require.Len(t, results, 3)
	assert.Equal(t, "generate_codename", results[0].Tool.Name)
	assert.Equal(t, 2, results[0].Score)
	assert.Equal(t, "create_or_find_client", results[1].Tool.Name)
	assert.Equal(t, "search_clients", results[2].Tool.Name)
	assert.Equal(t, 1, results[2].Score)
}

func TestToolRegistry_InvalidRegexFallsBackToLiteral(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(&ToolMetadata{Name: "weird", Description: "matches a(b literally", Category: CategoryWorkflow}))

	results := r.Search("a(b")
	require.Len(t, results, 1)
	assert.Equal(t, "description contains query", results[0].MatchReason)
}

func TestToolRegistry_SearchByCategory(t *testing.T) {
	r := newSampleRegistry(t)

	results := r.SearchByCategory("a", CategoryClients)
	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Equal(t, CategoryClients, res.Tool.Category)
	}
}

func TestToolRegistry_Concurrent(t *testing.T) {
	r := NewToolRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(&ToolMetadata{Name: fmt.Sprintf("tool_%d", i), Description: "d", Category: CategorySearch})
		}()
		go func() {
			defer wg.Done()
			_ = r.Search("tool")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, r.Count())
}

func TestServer_SearchToolsLimit(t *testing.T) {
	s := &Server{registry: newSampleRegistry(t)}

	out, err := s.searchTools(toolSearchInput{Query: "a"})
	require.NoError(t, err)
	assert.LessOrEqual(t, out.Count, defaultToolSearchLimit)
	assert.Equal(t, 5, out.TotalTools)

	out, err = s.searchTools(toolSearchInput{Query: "finding", Limit: 1})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "attach_finding", out.Results[0].Name)

	_, err = s.searchTools(toolSearchInput{})
	require.Error(t, err)
}
