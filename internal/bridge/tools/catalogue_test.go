package tools

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, def := range Catalogue {
		require.True(t, strings.HasPrefix(def.Name, "ghl_"), def.Name)
		require.False(t, seen[def.Name], "duplicate tool %s", def.Name)
		seen[def.Name] = true

		require.NotEmpty(t, def.Description, def.Name)
		require.True(t, strings.HasPrefix(def.Path, "/"), def.Name)

		// Every placeholder is backed by a path param and vice versa.
		for _, p := range def.Params {
			if p.In == InPath {
				require.Contains(t, def.Path, "{"+p.Name+"}", def.Name)
				require.True(t, p.Required, "%s: path param %s must be required", def.Name, p.Name)
			}
		}
		require.Equal(t, strings.Count(def.Path, "{"), countPathParams(def), def.Name)
	}

	for _, name := range []string{
		"ghl_create_contact", "ghl_update_contact", "ghl_search_contacts",
		"ghl_get_contact", "ghl_add_tag", "ghl_remove_tag",
		"ghl_list_opportunities", "ghl_send_message", "ghl_create_appointment",
		"ghl_list_workflows", "ghl_get_form", "ghl_create_custom_object",
		"ghl_upload_media", "ghl_update_location_custom_values", "ghl_update_user",
		"ghl_delete_tag",
	} {
		require.True(t, seen[name], "missing tool %s", name)
	}
}

func countPathParams(def Definition) int {
	n := 0
	for _, p := range def.Params {
		if p.In == InPath {
			n++
		}
	}
	return n
}

func TestLookup(t *testing.T) {
	t.Parallel()

	def, ok := Lookup("ghl_get_contact")
	require.True(t, ok)
	require.Equal(t, "/contacts/{contactId}", def.Path)

	_, ok = Lookup("ghl_nope")
	require.False(t, ok)
}

func TestDefinitionRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tool       string
		args       map[string]any
		wantMethod string
		wantPath   string
		wantQuery  url.Values
		wantBody   any
	}{
		{
			name:       "create contact sends only given fields",
			tool:       "ghl_create_contact",
			args:       map[string]any{"locationId": "loc1", "firstName": "Ada", "tags": []any{"vip"}},
			wantMethod: http.MethodPost,
			wantPath:   "/contacts/",
			wantBody:   map[string]any{"locationId": "loc1", "firstName": "Ada", "tags": []any{"vip"}},
		},
		{
			name:       "search contacts uses the query string",
			tool:       "ghl_search_contacts",
			args:       map[string]any{"locationId": "loc1", "query": "ada lovelace"},
			wantMethod: http.MethodGet,
			wantPath:   "/contacts/",
			wantQuery:  url.Values{"locationId": {"loc1"}, "query": {"ada lovelace"}},
		},
		{
			name:       "add tag wraps the tag",
			tool:       "ghl_add_tag",
			args:       map[string]any{"contactId": "c1", "tag": "hot"},
			wantMethod: http.MethodPost,
			wantPath:   "/contacts/c1/tags",
			wantBody:   map[string]any{"tags": []any{"hot"}},
		},
		{
			name:       "remove tag sends a body with DELETE",
			tool:       "ghl_remove_tag",
			args:       map[string]any{"contactId": "c1", "tag": "hot"},
			wantMethod: http.MethodDelete,
			wantPath:   "/contacts/c1/tags",
			wantBody:   map[string]any{"tags": []any{"hot"}},
		},
		{
			name:       "path values are escaped",
			tool:       "ghl_get_contact",
			args:       map[string]any{"contactId": "a/b"},
			wantMethod: http.MethodGet,
			wantPath:   "/contacts/a%2Fb",
		},
		{
			name:       "renamed query keys",
			tool:       "ghl_list_opportunities",
			args:       map[string]any{"locationId": "loc1", "pipelineId": "p1"},
			wantMethod: http.MethodGet,
			wantPath:   "/opportunities/search",
			wantQuery:  url.Values{"location_id": {"loc1"}, "pipeline_id": {"p1"}},
		},
		{
			name:       "static query is added",
			tool:       "ghl_list_media",
			args:       map[string]any{"locationId": "loc1", "type": "image"},
			wantMethod: http.MethodGet,
			wantPath:   "/medias/files",
			wantQuery:  url.Values{"altId": {"loc1"}, "altType": {"location"}, "type": {"image"}},
		},
		{
			name:       "delete tag needs both ids",
			tool:       "ghl_delete_tag",
			args:       map[string]any{"locationId": "loc1", "tagId": "t1"},
			wantMethod: http.MethodDelete,
			wantPath:   "/locations/loc1/tags/t1",
		},
		{
			name:       "numbers pass through",
			tool:       "ghl_update_opportunity",
			args:       map[string]any{"opportunityId": "o1", "monetaryValue": 1250.5},
			wantMethod: http.MethodPut,
			wantPath:   "/opportunities/o1",
			wantBody:   map[string]any{"monetaryValue": 1250.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def, ok := Lookup(tt.tool)
			require.True(t, ok)

			method, path, body, err := def.Request(tt.args)
			require.NoError(t, err)
			require.Equal(t, tt.wantMethod, method)

			u, err := url.Parse(path)
			require.NoError(t, err)
			require.Equal(t, tt.wantPath, u.EscapedPath())
			if tt.wantQuery == nil {
				require.Empty(t, u.RawQuery)
			} else {
				require.Equal(t, tt.wantQuery, u.Query())
			}

			if tt.wantBody == nil {
				require.Nil(t, body)
			} else {
				require.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func TestDefinitionRequestValidation(t *testing.T) {
	t.Parallel()

	def, ok := Lookup("ghl_create_contact")
	require.True(t, ok)

	_, _, _, err := def.Request(map[string]any{})
	require.EqualError(t, err, `missing required argument "locationId"`)

	_, _, _, err = def.Request(map[string]any{"locationId": "  "})
	require.EqualError(t, err, `missing required argument "locationId"`)

	_, _, _, err = def.Request(map[string]any{"locationId": 42})
	require.EqualError(t, err, `argument "locationId" must be a string`)
}

func TestDefinitionTool(t *testing.T) {
	t.Parallel()

	def, ok := Lookup("ghl_create_contact")
	require.True(t, ok)

	tool := def.Tool()
	require.Equal(t, "ghl_create_contact", tool.Name)
	require.Equal(t, "object", tool.InputSchema.Type)
	require.Equal(t, []string{"locationId"}, tool.InputSchema.Required)

	tags, ok := tool.InputSchema.Properties["tags"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "array", tags["type"])
	require.Equal(t, map[string]any{"type": "string"}, tags["items"])
}
