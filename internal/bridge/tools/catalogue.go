package tools

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Location says where an argument travels in the CRM request.
type Location int

const (
	InPath Location = iota
	InQuery
	InBody
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        string // JSON schema type: string, number, boolean, array, object
	Description string
	Required    bool
	In          Location

	// Key overrides the wire name when it differs from Name.
	Key string
}

func (p Param) wireName() string {
	if p.Key != "" {
		return p.Key
	}
	return p.Name
}

// Definition maps one MCP tool onto a single CRM API request.
type Definition struct {
	Name        string
	Description string
	Method      string
	Path        string // may contain {param} placeholders for InPath params
	Params      []Param

	// StaticQuery is appended to every request.
	StaticQuery map[string]string

	// ResultKey names the field carrying the CRM response in the tool
	// result. When empty the result echoes the path arguments instead.
	ResultKey string

	// Body, when set, builds the request body from the collected InBody
	// arguments.
	Body func(fields map[string]any) any
}

// Request resolves args into the method, path and body for the dispatcher.
// Missing required arguments and mistyped strings fail before any network
// call.
func (d Definition) Request(args map[string]any) (string, string, any, error) {
	path := d.Path
	query := url.Values{}
	fields := map[string]any{}

	for _, p := range d.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return "", "", nil, fmt.Errorf("missing required argument %q", p.Name)
			}
			continue
		}
		if p.Type == "string" {
			s, isString := v.(string)
			if !isString {
				return "", "", nil, fmt.Errorf("argument %q must be a string", p.Name)
			}
			if p.Required && strings.TrimSpace(s) == "" {
				return "", "", nil, fmt.Errorf("missing required argument %q", p.Name)
			}
		}

		switch p.In {
		case InPath:
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(fmt.Sprint(v)))
		case InQuery:
			query.Set(p.wireName(), fmt.Sprint(v))
		case InBody:
			fields[p.wireName()] = v
		}
	}

	for k, v := range d.StaticQuery {
		query.Set(k, v)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body any
	switch {
	case d.Body != nil:
		body = d.Body(fields)
	case len(fields) > 0 || d.Method == http.MethodPost || d.Method == http.MethodPut:
		body = fields
	}

	return d.Method, path, body, nil
}

// Tool builds the MCP tool advertised for d.
func (d Definition) Tool() mcp.Tool {
	properties := make(map[string]any, len(d.Params))
	var required []string
	for _, p := range d.Params {
		schema := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Type == "array" {
			schema["items"] = map[string]any{"type": "string"}
		}
		properties[p.Name] = schema
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func pathParam(name, description string) Param {
	return Param{Name: name, Type: "string", Description: description, Required: true, In: InPath}
}

func queryParam(name, description string, required bool) Param {
	return Param{Name: name, Type: "string", Description: description, Required: required, In: InQuery}
}

func bodyParam(name, typ, description string, required bool) Param {
	return Param{Name: name, Type: typ, Description: description, Required: required, In: InBody}
}

// tagBody wraps the single tag argument the way the contact tag endpoints expect.
func tagBody(fields map[string]any) any {
	return map[string]any{"tags": []any{fields["tag"]}}
}

// Catalogue is every tool the bridge serves, sorted by name.
var Catalogue = sortedByName([]Definition{
	// Contacts
	{
		Name:        "ghl_create_contact",
		Description: "Create a new contact in GoHighLevel",
		Method:      http.MethodPost,
		Path:        "/contacts/",
		ResultKey:   "contact",
		Params: []Param{
			bodyParam("locationId", "string", "The GHL location ID", true),
			bodyParam("firstName", "string", "Contact first name", false),
			bodyParam("lastName", "string", "Contact last name", false),
			bodyParam("email", "string", "Contact email address", false),
			bodyParam("phone", "string", "Contact phone number", false),
			bodyParam("tags", "array", "Tags to apply to the contact", false),
			bodyParam("customFields", "object", "Custom field values", false),
		},
	},
	{
		Name:        "ghl_update_contact",
		Description: "Update an existing contact",
		Method:      http.MethodPut,
		Path:        "/contacts/{contactId}",
		ResultKey:   "contact",
		Params: []Param{
			pathParam("contactId", "The contact ID to update"),
			bodyParam("firstName", "string", "Updated first name", false),
			bodyParam("lastName", "string", "Updated last name", false),
			bodyParam("email", "string", "Updated email address", false),
			bodyParam("phone", "string", "Updated phone number", false),
			bodyParam("tags", "array", "Replacement tag list", false),
			bodyParam("customFields", "object", "Updated custom field values", false),
		},
	},
	{
		Name:        "ghl_search_contacts",
		Description: "Search contacts in a location",
		Method:      http.MethodGet,
		Path:        "/contacts/",
		ResultKey:   "result",
		Params: []Param{
			queryParam("locationId", "The GHL location ID", true),
			queryParam("query", "Search text (name, email or phone)", false),
		},
	},
	{
		Name:        "ghl_get_contact",
		Description: "Get a contact by ID",
		Method:      http.MethodGet,
		Path:        "/contacts/{contactId}",
		ResultKey:   "contact",
		Params:      []Param{pathParam("contactId", "The contact ID to retrieve")},
	},
	{
		Name:        "ghl_add_tag",
		Description: "Add a tag to a contact",
		Method:      http.MethodPost,
		Path:        "/contacts/{contactId}/tags",
		Body:        tagBody,
		Params: []Param{
			pathParam("contactId", "The contact ID"),
			bodyParam("tag", "string", "Tag to add", true),
		},
	},
	{
		Name:        "ghl_remove_tag",
		Description: "Remove a tag from a contact",
		Method:      http.MethodDelete,
		Path:        "/contacts/{contactId}/tags",
		Body:        tagBody,
		Params: []Param{
			pathParam("contactId", "The contact ID"),
			bodyParam("tag", "string", "Tag to remove", true),
		},
	},

	// Opportunities
	{
		Name:        "ghl_get_opportunity",
		Description: "Get an opportunity by ID",
		Method:      http.MethodGet,
		Path:        "/opportunities/{opportunityId}",
		ResultKey:   "opportunity",
		Params:      []Param{pathParam("opportunityId", "The opportunity ID to retrieve")},
	},
	{
		Name:        "ghl_list_opportunities",
		Description: "List opportunities in a location, optionally filtered by pipeline",
		Method:      http.MethodGet,
		Path:        "/opportunities/search",
		ResultKey:   "opportunities",
		Params: []Param{
			{Name: "locationId", Type: "string", Description: "The GHL location ID", Required: true, In: InQuery, Key: "location_id"},
			{Name: "pipelineId", Type: "string", Description: "Optional pipeline ID to filter by", In: InQuery, Key: "pipeline_id"},
		},
	},
	{
		Name:        "ghl_create_opportunity",
		Description: "Create a new opportunity",
		Method:      http.MethodPost,
		Path:        "/opportunities/",
		ResultKey:   "opportunity",
		Params: []Param{
			bodyParam("locationId", "string", "The GHL location ID", true),
			bodyParam("name", "string", "Opportunity name", true),
			bodyParam("pipelineId", "string", "Pipeline ID", true),
			bodyParam("pipelineStageId", "string", "Pipeline stage ID", true),
			bodyParam("contactId", "string", "Associated contact ID", false),
			bodyParam("monetaryValue", "number", "Deal value", false),
			bodyParam("status", "string", "Opportunity status", false),
			bodyParam("assignedTo", "string", "Assigned user ID", false),
			bodyParam("notes", "string", "Opportunity notes", false),
			bodyParam("source", "string", "Lead source", false),
			bodyParam("customFields", "object", "Custom field values", false),
		},
	},
	{
		Name:        "ghl_update_opportunity",
		Description: "Update an existing opportunity",
		Method:      http.MethodPut,
		Path:        "/opportunities/{opportunityId}",
		ResultKey:   "opportunity",
		Params: []Param{
			pathParam("opportunityId", "The opportunity ID to update"),
			bodyParam("name", "string", "Updated opportunity name", false),
			bodyParam("pipelineStageId", "string", "Updated pipeline stage", false),
			bodyParam("status", "string", "Updated status", false),
			bodyParam("monetaryValue", "number", "Updated deal value", false),
			bodyParam("assignedTo", "string", "Updated assigned user", false),
			bodyParam("notes", "string", "Updated notes", false),
			bodyParam("customFields", "object", "Updated custom field values", false),
		},
	},
	{
		Name:        "ghl_delete_opportunity",
		Description: "Delete an opportunity",
		Method:      http.MethodDelete,
		Path:        "/opportunities/{opportunityId}",
		Params:      []Param{pathParam("opportunityId", "The opportunity ID to delete")},
	},

	// Conversations
	{
		Name:        "ghl_get_conversation",
		Description: "Get a conversation by ID",
		Method:      http.MethodGet,
		Path:        "/conversations/{conversationId}",
		ResultKey:   "conversation",
		Params:      []Param{pathParam("conversationId", "The conversation ID to retrieve")},
	},
	{
		Name:        "ghl_list_conversations",
		Description: "List conversations for a contact",
		Method:      http.MethodGet,
		Path:        "/conversations/search",
		ResultKey:   "conversations",
		Params: []Param{
			queryParam("locationId", "The GHL location ID", true),
			queryParam("contactId", "Contact ID to list conversations for", true),
		},
	},
	{
		Name:        "ghl_send_message",
		Description: "Send a message in a conversation (SMS, Email, WhatsApp, GMB, IG or FB)",
		Method:      http.MethodPost,
		Path:        "/conversations/messages",
		ResultKey:   "message",
		Params: []Param{
			bodyParam("conversationId", "string", "The conversation ID", true),
			bodyParam("type", "string", "Message type: SMS, Email, WhatsApp, GMB, IG or FB", true),
			bodyParam("message", "string", "Message content", true),
		},
	},
	{
		Name:        "ghl_get_messages",
		Description: "Get the messages of a conversation",
		Method:      http.MethodGet,
		Path:        "/conversations/{conversationId}/messages",
		ResultKey:   "messages",
		Params:      []Param{pathParam("conversationId", "The conversation ID")},
	},

	// Calendars
	{
		Name:        "ghl_list_calendars",
		Description: "List calendars in a location",
		Method:      http.MethodGet,
		Path:        "/calendars/",
		ResultKey:   "calendars",
		Params:      []Param{queryParam("locationId", "The GHL location ID", true)},
	},
	{
		Name:        "ghl_get_calendar",
		Description: "Get a calendar by ID",
		Method:      http.MethodGet,
		Path:        "/calendars/{calendarId}",
		ResultKey:   "calendar",
		Params:      []Param{pathParam("calendarId", "The calendar ID to retrieve")},
	},
	{
		Name:        "ghl_list_appointments",
		Description: "List appointments of a calendar within an optional date range",
		Method:      http.MethodGet,
		Path:        "/calendars/events",
		ResultKey:   "appointments",
		Params: []Param{
			queryParam("calendarId", "The calendar ID", true),
			{Name: "startDate", Type: "string", Description: "Start date (ISO 8601 format)", In: InQuery, Key: "startTime"},
			{Name: "endDate", Type: "string", Description: "End date (ISO 8601 format)", In: InQuery, Key: "endTime"},
		},
	},
	{
		Name:        "ghl_create_appointment",
		Description: "Book an appointment on a calendar",
		Method:      http.MethodPost,
		Path:        "/calendars/events/appointments",
		ResultKey:   "appointment",
		Params: []Param{
			bodyParam("calendarId", "string", "The calendar ID", true),
			bodyParam("contactId", "string", "Contact ID for the appointment", true),
			bodyParam("startTime", "string", "Start time (ISO 8601 format)", true),
			bodyParam("endTime", "string", "End time (ISO 8601 format)", true),
			bodyParam("title", "string", "Appointment title", false),
			bodyParam("notes", "string", "Appointment notes", false),
			{Name: "status", Type: "string", Description: "Appointment status", In: InBody, Key: "appointmentStatus"},
		},
	},
	{
		Name:        "ghl_update_appointment",
		Description: "Update an existing appointment",
		Method:      http.MethodPut,
		Path:        "/calendars/events/appointments/{appointmentId}",
		ResultKey:   "appointment",
		Params: []Param{
			pathParam("appointmentId", "The appointment ID to update"),
			bodyParam("startTime", "string", "Updated start time", false),
			bodyParam("endTime", "string", "Updated end time", false),
			bodyParam("title", "string", "Updated title", false),
			bodyParam("notes", "string", "Updated notes", false),
			{Name: "status", Type: "string", Description: "Updated status", In: InBody, Key: "appointmentStatus"},
		},
	},
	{
		Name:        "ghl_delete_appointment",
		Description: "Delete an appointment",
		Method:      http.MethodDelete,
		Path:        "/calendars/events/{appointmentId}",
		Params:      []Param{pathParam("appointmentId", "The appointment ID to delete")},
	},

	// Workflows
	{
		Name:        "ghl_list_workflows",
		Description: "List workflows in a location",
		Method:      http.MethodGet,
		Path:        "/workflows/",
		ResultKey:   "workflows",
		Params:      []Param{queryParam("locationId", "The GHL location ID", true)},
	},
	{
		Name:        "ghl_get_workflow",
		Description: "Get a workflow by ID",
		Method:      http.MethodGet,
		Path:        "/workflows/{workflowId}",
		ResultKey:   "workflow",
		Params:      []Param{pathParam("workflowId", "The workflow ID to retrieve")},
	},

	// Forms
	{
		Name:        "ghl_list_forms",
		Description: "List forms in a location",
		Method:      http.MethodGet,
		Path:        "/forms/",
		ResultKey:   "forms",
		Params:      []Param{queryParam("locationId", "The GHL location ID", true)},
	},
	{
		Name:        "ghl_get_form",
		Description: "Get a form by ID",
		Method:      http.MethodGet,
		Path:        "/forms/{formId}",
		ResultKey:   "form",
		Params:      []Param{pathParam("formId", "The form ID to retrieve")},
	},

	// Custom objects
	{
		Name:        "ghl_list_custom_objects",
		Description: "List custom object records in a location",
		Method:      http.MethodGet,
		Path:        "/objects/records",
		ResultKey:   "objects",
		Params: []Param{
			queryParam("locationId", "The location ID to list custom objects for", true),
			queryParam("objectType", "Optional object type filter", false),
		},
	},
	{
		Name:        "ghl_get_custom_object",
		Description: "Get a custom object record by ID",
		Method:      http.MethodGet,
		Path:        "/objects/records/{objectId}",
		ResultKey:   "object",
		Params:      []Param{pathParam("objectId", "The custom object ID to retrieve")},
	},
	{
		Name:        "ghl_create_custom_object",
		Description: "Create a custom object record",
		Method:      http.MethodPost,
		Path:        "/objects/records",
		ResultKey:   "object",
		Params: []Param{
			bodyParam("locationId", "string", "The location ID", true),
			bodyParam("objectType", "string", "Type of custom object", true),
			bodyParam("name", "string", "Name of the custom object", true),
			bodyParam("data", "object", "Custom object data", false),
		},
	},
	{
		Name:        "ghl_update_custom_object",
		Description: "Update a custom object record",
		Method:      http.MethodPut,
		Path:        "/objects/records/{objectId}",
		ResultKey:   "object",
		Params: []Param{
			pathParam("objectId", "The custom object ID to update"),
			bodyParam("name", "string", "Updated name", false),
			bodyParam("data", "object", "Updated custom object data", false),
		},
	},
	{
		Name:        "ghl_delete_custom_object",
		Description: "Delete a custom object record",
		Method:      http.MethodDelete,
		Path:        "/objects/records/{objectId}",
		Params:      []Param{pathParam("objectId", "The custom object ID to delete")},
	},

	// Media
	{
		Name:        "ghl_list_media",
		Description: "List media library files of a location",
		Method:      http.MethodGet,
		Path:        "/medias/files",
		ResultKey:   "medias",
		StaticQuery: map[string]string{"altType": "location"},
		Params: []Param{
			{Name: "locationId", Type: "string", Description: "The location ID to list media files for", Required: true, In: InQuery, Key: "altId"},
			queryParam("type", "Media type to list (e.g. image, video, file)", true),
		},
	},
	{
		Name:        "ghl_upload_media",
		Description: "Upload a base64 encoded file to the media library",
		Method:      http.MethodPost,
		Path:        "/medias/upload-file",
		ResultKey:   "media",
		Params: []Param{
			{Name: "locationId", Type: "string", Description: "The location ID", Required: true, In: InBody, Key: "altId"},
			bodyParam("name", "string", "File name", true),
			bodyParam("data", "string", "Base64 encoded file data", true),
			bodyParam("type", "string", "File MIME type (e.g. image/png)", false),
		},
	},
	{
		Name:        "ghl_delete_media",
		Description: "Delete a media library file",
		Method:      http.MethodDelete,
		Path:        "/medias/{mediaId}",
		Params:      []Param{pathParam("mediaId", "The media file ID to delete")},
	},

	// Locations
	{
		Name:        "ghl_get_location",
		Description: "Get a location (sub-account) by ID",
		Method:      http.MethodGet,
		Path:        "/locations/{locationId}",
		ResultKey:   "location",
		Params:      []Param{pathParam("locationId", "The location ID to retrieve")},
	},
	{
		Name:        "ghl_update_location",
		Description: "Update location details",
		Method:      http.MethodPut,
		Path:        "/locations/{locationId}",
		ResultKey:   "location",
		Params: []Param{
			pathParam("locationId", "The location ID to update"),
			bodyParam("name", "string", "Updated location name", false),
			bodyParam("address", "string", "Updated address", false),
			bodyParam("city", "string", "Updated city", false),
			bodyParam("state", "string", "Updated state", false),
			bodyParam("country", "string", "Updated country", false),
			bodyParam("postalCode", "string", "Updated postal code", false),
			bodyParam("website", "string", "Updated website", false),
			bodyParam("email", "string", "Updated email", false),
			bodyParam("phone", "string", "Updated phone", false),
		},
	},
	{
		Name:        "ghl_list_location_custom_fields",
		Description: "List the custom fields defined for a location",
		Method:      http.MethodGet,
		Path:        "/locations/{locationId}/customFields",
		ResultKey:   "customFields",
		Params:      []Param{pathParam("locationId", "The location ID")},
	},
	{
		Name:        "ghl_get_location_custom_values",
		Description: "Get the custom values of a location",
		Method:      http.MethodGet,
		Path:        "/locations/{locationId}/customValues",
		ResultKey:   "customValues",
		Params:      []Param{pathParam("locationId", "The location ID")},
	},
	{
		Name:        "ghl_update_location_custom_values",
		Description: "Update the custom values of a location",
		Method:      http.MethodPut,
		Path:        "/locations/{locationId}/customValues",
		ResultKey:   "customValues",
		Params: []Param{
			pathParam("locationId", "The location ID"),
			bodyParam("customValues", "object", "Custom field values to update", true),
		},
	},

	// Users
	{
		Name:        "ghl_list_users",
		Description: "List users of a location",
		Method:      http.MethodGet,
		Path:        "/users/",
		ResultKey:   "users",
		Params:      []Param{queryParam("locationId", "The location ID to list users for", true)},
	},
	{
		Name:        "ghl_get_user",
		Description: "Get a user by ID",
		Method:      http.MethodGet,
		Path:        "/users/{userId}",
		ResultKey:   "user",
		Params:      []Param{pathParam("userId", "The user ID to retrieve")},
	},
	{
		Name:        "ghl_update_user",
		Description: "Update a user",
		Method:      http.MethodPut,
		Path:        "/users/{userId}",
		ResultKey:   "user",
		Params: []Param{
			pathParam("userId", "The user ID to update"),
			bodyParam("firstName", "string", "Updated first name", false),
			bodyParam("lastName", "string", "Updated last name", false),
			bodyParam("email", "string", "Updated email", false),
			bodyParam("phone", "string", "Updated phone", false),
			bodyParam("role", "string", "Updated role", false),
		},
	},

	// Tags
	{
		Name:        "ghl_list_tags",
		Description: "List tags of a location",
		Method:      http.MethodGet,
		Path:        "/locations/{locationId}/tags",
		ResultKey:   "tags",
		Params:      []Param{pathParam("locationId", "The location ID to list tags for")},
	},
	{
		Name:        "ghl_create_tag",
		Description: "Create a tag in a location",
		Method:      http.MethodPost,
		Path:        "/locations/{locationId}/tags",
		ResultKey:   "tag",
		Params: []Param{
			pathParam("locationId", "The location ID"),
			bodyParam("name", "string", "Tag name", true),
			bodyParam("color", "string", "Tag color (hex code)", false),
		},
	},
	{
		Name:        "ghl_delete_tag",
		Description: "Delete a tag from a location",
		Method:      http.MethodDelete,
		Path:        "/locations/{locationId}/tags/{tagId}",
		Params: []Param{
			pathParam("locationId", "The location ID the tag belongs to"),
			pathParam("tagId", "The tag ID to delete"),
		},
	},
})

// Lookup returns the definition named name.
func Lookup(name string) (Definition, bool) {
	i := sort.Search(len(Catalogue), func(i int) bool { return Catalogue[i].Name >= name })
	if i < len(Catalogue) && Catalogue[i].Name == name {
		return Catalogue[i], true
	}
	return Definition{}, false
}

func sortedByName(defs []Definition) []Definition {
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
