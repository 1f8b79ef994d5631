package role

import (
	"fmt"
	"slices"
	"strings"
)

// Display defaults applied when a role arrives without colors.
const (
	DefaultColor   = "#6B7280"
	DefaultBgColor = "#F3F4F6"
)

// Role is a custom permission bundle defined by an admin.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color"`
	BgColor     string   `json:"bgColor"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

func (r Role) EntityID() string { return r.ID }

func (r Role) Stamps() (createdAt, timestamp string) { return r.CreatedAt, "" }

// Has reports whether the role grants a permission tag.
func (r Role) Has(permission string) bool {
	return slices.Contains(r.Permissions, permission)
}

// CreateRequest describes a role creation request.
type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color,omitempty"`
	BgColor     string   `json:"bgColor,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

// Validate checks the name and deduplicates permission tags.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	r.Normalize()
	return nil
}

// Normalize trims permissions and drops blanks and duplicates.
func (r *CreateRequest) Normalize() {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(perms, p) {
			continue
		}
		perms = append(perms, p)
	}
	r.Permissions = perms
}

// UpdateRequest replaces the mutable fields of a role.
type UpdateRequest struct {
	ID string `json:"id"`
	CreateRequest
}

func (r *UpdateRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return r.CreateRequest.Validate()
}
