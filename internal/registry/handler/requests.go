package handler

import (
	"encoding/hex"
	"strings"

	"carbonregistry/internal/registry/models"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
)

// RegisterRequest is the wire shape for project registration. The document
// hash travels hex-encoded; decoding failures are transport validation
// errors, while a wrong decoded length is the registry's invalid_hash.
type RegisterRequest struct {
	DocumentHash     string   `json:"document_hash"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	AreaHectares     uint64   `json:"area_hectares"`
	EstimatedCO2Tons uint64   `json:"estimated_co2_tons"`
	Tags             []string `json:"tags"`
}

func (r *RegisterRequest) Normalize() {
	r.DocumentHash = strings.TrimSpace(r.DocumentHash)
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *RegisterRequest) DecodeHash() ([]byte, error) {
	hash, err := hex.DecodeString(r.DocumentHash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "document_hash must be hex-encoded")
	}
	return hash, nil
}

type UpdateMetadataRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Note        string `json:"note"`
}

func (r *UpdateMetadataRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
}

type TransferRequest struct {
	NewOwner string `json:"new_owner"`
	Reason   string `json:"reason"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type AddCollaboratorRequest struct {
	Principal   string   `json:"principal"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type AdminTransferRequest struct {
	NewAdmin string `json:"new_admin"`
}

// projectResponse is the read-surface shape; the hash is served hex-encoded.
type projectResponse struct {
	ID               id.ProjectID `json:"id"`
	Owner            string       `json:"owner"`
	DocumentHash     string       `json:"document_hash"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Location         string       `json:"location"`
	AreaHectares     uint64       `json:"area_hectares"`
	EstimatedCO2Tons uint64       `json:"estimated_co2_tons"`
	RegisteredAt     uint64       `json:"registered_at"`
	Status           string       `json:"status"`
	Visible          bool         `json:"visible"`
}

func toProjectResponse(p *models.Project) projectResponse {
	return projectResponse{
		ID:               p.ID,
		Owner:            p.Owner.String(),
		DocumentHash:     hex.EncodeToString(p.DocumentHash),
		Title:            p.Title,
		Description:      p.Description,
		Location:         p.Location,
		AreaHectares:     p.AreaHectares,
		EstimatedCO2Tons: p.EstimatedCO2Tons,
		RegisteredAt:     p.RegisteredAt,
		Status:           string(p.Status),
		Visible:          p.Visible,
	}
}
