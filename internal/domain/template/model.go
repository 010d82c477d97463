package template

import (
	"time"

	"github.com/google/uuid"
)

// Template types.
const (
	TypeBasic     = "basic"
	TypeSpecialty = "specialty"
	TypeCustom    = "custom"
)

// DefaultVersion is assigned when a template is created without one.
const DefaultVersion = "1.0.0"

// Template maps to the form_template table. Config, Structure, Fields,
// and ValidationRules are stored as JSONB; their shape is owned by the
// form renderer, the server only enforces the minimal structure rules.
type Template struct {
	ID              uuid.UUID                `db:"id" json:"id"`
	Name            string                   `db:"name" json:"name"`
	Code            string                   `db:"code" json:"code"`
	Description     *string                  `db:"description" json:"description,omitempty"`
	Type            string                   `db:"type" json:"type"`
	DepartmentIDs   []string                 `db:"department_ids" json:"departmentIds,omitempty"`
	Config          map[string]interface{}   `db:"config" json:"config,omitempty"`
	Structure       map[string]interface{}   `db:"structure" json:"structure,omitempty"`
	Fields          []map[string]interface{} `db:"fields" json:"fields,omitempty"`
	ValidationRules map[string]interface{}   `db:"validation_rules" json:"validationRules,omitempty"`
	Version         string                   `db:"version" json:"version"`
	IsSystem        bool                     `db:"is_system" json:"isSystem"`
	IsEnabled       bool                     `db:"is_enabled" json:"isEnabled"`
	UsageCount      int                      `db:"usage_count" json:"usageCount"`
	Tags            []string                 `db:"tags" json:"tags,omitempty"`
	CreatedBy       string                   `db:"created_by" json:"createdBy"`
	LastModifiedBy  *string                  `db:"last_modified_by" json:"lastModifiedBy,omitempty"`
	CreatedAt       time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time                `db:"updated_at" json:"updatedAt"`
}

// ValidType reports whether s is a recognized template type.
func ValidType(s string) bool {
	switch s {
	case TypeBasic, TypeSpecialty, TypeCustom:
		return true
	default:
		return false
	}
}

// ListFilter narrows List queries. Zero values mean "no filter";
// IsEnabled and IsSystem use pointers to distinguish unset from false.
type ListFilter struct {
	Name      string
	Code      string
	Type      string
	IsEnabled *bool
	IsSystem  *bool
	Tag       string
}

// Stats holds template counts by origin, status, and type.
type Stats struct {
	Total    int            `json:"totalTemplates"`
	System   int            `json:"systemTemplates"`
	Custom   int            `json:"customTemplates"`
	Enabled  int            `json:"enabledTemplates"`
	Disabled int            `json:"disabledTemplates"`
	ByType   map[string]int `json:"byType"`
}
