package registry

import (
	"context"
	"errors"
	"fmt"

	"memodesk/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/yosida95/uritemplate/v3"
)

const (
	EmployeesURI         = "memodb://employees"
	EmployeeTemplateURI  = "memodb://employees/{user_id}"
	TelemetryURI         = "system://telemetry"
	employeeNotFoundText = "Error: Employee not found in the database."
)

type staticResource struct {
	uri         string
	name        string
	description string
	read        func(ctx context.Context) (string, error)
}

type templateResource struct {
	template    *uritemplate.Template
	name        string
	description string
	read        func(ctx context.Context, vars uritemplate.Values) (string, error)
}

func (r *Registry) registerResources() {
	r.resources = []staticResource{
		{
			uri:         EmployeesURI,
			name:        "employee_directory",
			description: "Lists every employee with id, name and department.",
			read:        r.readDirectory,
		},
		{
			uri:         TelemetryURI,
			name:        "system_telemetry",
			description: "Current host telemetry snapshot.",
			read: func(ctx context.Context) (string, error) {
				return r.systemStats(ctx, noInput{})
			},
		},
	}

	r.templates = []templateResource{
		{
			template:    uritemplate.MustNew(EmployeeTemplateURI),
			name:        "employee_profile",
			description: "Retrieves the full profile of an employee by their ID.",
			read:        r.readProfile,
		},
	}
}

// ListResources returns the static resources
func (r *Registry) ListResources() []mcp.Resource {
	out := make([]mcp.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, mcp.NewResource(res.uri, res.name,
			mcp.WithResourceDescription(res.description),
			mcp.WithMIMEType("application/json"),
		))
	}
	return out
}

// ListResourceTemplates returns the parameterized resources
func (r *Registry) ListResourceTemplates() []mcp.ResourceTemplate {
	out := make([]mcp.ResourceTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, mcp.NewResourceTemplate(t.template.Raw(), t.name,
			mcp.WithTemplateDescription(t.description),
			mcp.WithTemplateMIMEType("application/json"),
		))
	}
	return out
}

// ReadResource resolves a URI against static resources first, then templates.
// An unresolved key returns an error wrapping ErrNotFound. When the key names
// a record that does not exist the returned text describes the miss as well.
func (r *Registry) ReadResource(ctx context.Context, uri string) (string, error) {
	for _, res := range r.resources {
		if res.uri == uri {
			return res.read(ctx)
		}
	}

	for _, t := range r.templates {
		if vars := t.template.Match(uri); vars != nil {
			return t.read(ctx, vars)
		}
	}

	return "", fmt.Errorf("resource %s: %w", uri, ErrNotFound)
}

func (r *Registry) readProfile(ctx context.Context, vars uritemplate.Values) (string, error) {
	id := vars.Get("user_id").String()

	e, err := r.store.GetEmployee(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return employeeNotFoundText, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", err
	}

	return marshalIndent(e)
}

type directoryEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

func (r *Registry) readDirectory(ctx context.Context) (string, error) {
	employees, err := r.store.ListEmployees(ctx)
	if err != nil {
		return "", err
	}

	entries := make([]directoryEntry, 0, len(employees))
	for _, e := range employees {
		entries = append(entries, directoryEntry{ID: e.ID, Name: e.Name, Department: e.Department})
	}
	return marshalIndent(entries)
}
