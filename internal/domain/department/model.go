package department

import (
	"fmt"
	"slices"
	"strings"
)

// Department groups users and projects. It may belong to several companies.
//
// Timestamp is the server's version token; deletes must echo it back unchanged.
type Department struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CompanyIDs []string `json:"companyIds"`
	Timestamp  string   `json:"timestamp,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
}

func (d Department) EntityID() string { return d.ID }

func (d Department) Stamps() (createdAt, timestamp string) { return d.CreatedAt, d.Timestamp }

// BelongsTo reports whether the department is linked to the company.
func (d Department) BelongsTo(companyID string) bool {
	return slices.Contains(d.CompanyIDs, companyID)
}

// CreateRequest describes a department creation request.
type CreateRequest struct {
	Name       string   `json:"name"`
	CompanyIDs []string `json:"companyIds"`
}

func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	for _, id := range r.CompanyIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty company id", ErrInvalidInput)
		}
	}
	return nil
}

// UpdateRequest carries the full department plus its last known timestamp.
// An empty Timestamp with Latest set updates whatever version the server holds.
type UpdateRequest struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CompanyIDs []string `json:"companyIds"`
	Timestamp  string   `json:"timestamp,omitempty"`
	Latest     bool     `json:"-"`
}

func (r UpdateRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return CreateRequest{Name: r.Name, CompanyIDs: r.CompanyIDs}.Validate()
}
