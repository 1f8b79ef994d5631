package company

import (
	"fmt"
	"strings"
)

// Company is a tenant organisation that departments and projects reference by id.
type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (c Company) EntityID() string { return c.ID }

func (c Company) Stamps() (createdAt, timestamp string) { return c.CreatedAt, "" }

// CreateRequest describes a company creation request.
type CreateRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerId,omitempty"`
}

// Validate checks fields required before the request leaves the client.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

// UpdateRequest replaces the mutable fields of a company.
type UpdateRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return CreateRequest{Name: r.Name}.Validate()
}
