package models

import (
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
)

// Field caps, enforced at the entry point that owns each invariant.
const (
	DocumentHashLength = 32
	MaxTitleLength     = 100
	MaxDescription     = 500
	MaxLocationLength  = 200
	MaxTags            = 10
	MaxTagLength       = 50
	MaxReasonLength    = 200
)

// ProjectStatus is a free-form lifecycle label. The documented vocabulary
// below is advisory: UpdateStatus accepts any non-empty label, and no fixed
// automaton is enforced. "retired" is not terminal.
type ProjectStatus string

const (
	StatusPending  ProjectStatus = "pending"
	StatusVerified ProjectStatus = "verified"
	StatusActive   ProjectStatus = "active"
	StatusRetired  ProjectStatus = "retired"
)

// Project is the canonical record for a forest-preservation project.
//
// Invariants:
//   - ID is unique, assigned once by the ledger, never reused
//   - DocumentHash is exactly 32 bytes
//   - Title ≤100, Description ≤500, Location ≤200 characters
//   - AreaHectares > 0 and EstimatedCO2Tons > 0, enforced at creation
//   - RegisteredAt is the ledger height at creation and immutable after
//
// Ownership is exclusive: the Owner field is the single source of authority
// for metadata mutation, and changes only through a recorded transfer.
// Collaborators hold delegated capabilities, never ownership.
type Project struct {
	ID               id.ProjectID  `json:"id"`
	Owner            id.Principal  `json:"owner"`
	DocumentHash     []byte        `json:"document_hash"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Location         string        `json:"location"`
	AreaHectares     uint64        `json:"area_hectares"`
	EstimatedCO2Tons uint64        `json:"estimated_co2_tons"`
	RegisteredAt     uint64        `json:"registered_at"`
	Status           ProjectStatus `json:"status"`
	Visible          bool          `json:"visible"`

	// Persisted history counters. Sequence numbers come from these rather
	// than the current entry count, so two racing appends can never collide.
	NextUpdateSeq   uint64 `json:"-"`
	NextTransferSeq uint64 `json:"-"`
}

// NewProject validates registration input and builds the record. Checks run
// in the documented order and the first failure wins. The caller supplies the
// ledger-allocated id and the height at creation.
func NewProject(
	projectID id.ProjectID,
	owner id.Principal,
	documentHash []byte,
	title string,
	description string,
	location string,
	areaHectares uint64,
	estimatedCO2Tons uint64,
	height uint64,
) (*Project, error) {
	if len(documentHash) != DocumentHashLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidHash,
			"document hash must be exactly %d bytes, got %d", DocumentHashLength, len(documentHash))
	}
	if err := validateMetadata(title, description, location); err != nil {
		return nil, err
	}
	if areaHectares == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidParameter, "area_hectares must be positive")
	}
	if estimatedCO2Tons == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidParameter, "estimated_co2_tons must be positive")
	}
	hash := make([]byte, DocumentHashLength)
	copy(hash, documentHash)
	return &Project{
		ID:               projectID,
		Owner:            owner,
		DocumentHash:     hash,
		Title:            title,
		Description:      description,
		Location:         location,
		AreaHectares:     areaHectares,
		EstimatedCO2Tons: estimatedCO2Tons,
		RegisteredAt:     height,
		Status:           StatusPending,
		Visible:          true,
		NextUpdateSeq:    1,
		NextTransferSeq:  1,
	}, nil
}

// ValidateTags checks the registration tag list: at most MaxTags entries,
// each within MaxTagLength. Tags are set once here and never amended.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return dErrors.Newf(dErrors.CodeTagLimitExceeded,
			"at most %d tags allowed, got %d", MaxTags, len(tags))
	}
	for _, tag := range tags {
		if len(tag) > MaxTagLength {
			return dErrors.Newf(dErrors.CodeInvalidLength,
				"tag must be %d characters or less", MaxTagLength)
		}
	}
	return nil
}

// CanUpdateMetadata checks replacement metadata against the field caps. The
// change note is measured against the description cap; there is no dedicated
// note cap.
func (p *Project) CanUpdateMetadata(title, description, location, note string) error {
	if err := validateMetadata(title, description, location); err != nil {
		return err
	}
	if len(note) > MaxDescription {
		return dErrors.Newf(dErrors.CodeInvalidLength,
			"change note must be %d characters or less", MaxDescription)
	}
	return nil
}

// ApplyMetadata replaces title, description, and location in place. Status,
// owner, and visibility are untouched. Call CanUpdateMetadata first.
func (p *Project) ApplyMetadata(title, description, location string) {
	p.Title = title
	p.Description = description
	p.Location = location
}

// CanTransferTo rejects handing a project to its current owner.
func (p *Project) CanTransferTo(newOwner id.Principal) error {
	if newOwner == p.Owner {
		return dErrors.New(dErrors.CodeInvalidOwner, "cannot transfer project to its current owner")
	}
	if len(string(newOwner)) == 0 {
		return dErrors.New(dErrors.CodeInvalidOwner, "new owner cannot be empty")
	}
	return nil
}

// CanSetStatus rejects empty labels and no-op writes. Any other label is
// accepted; the registry does not constrain status to a closed vocabulary.
func (p *Project) CanSetStatus(next ProjectStatus) error {
	if next == "" {
		return dErrors.New(dErrors.CodeInvalidStatus, "status cannot be empty")
	}
	if next == p.Status {
		return dErrors.Newf(dErrors.CodeInvalidStatus, "project already has status %q", next)
	}
	return nil
}

// ToggleVisibility flips the visibility flag and returns the new value.
func (p *Project) ToggleVisibility() bool {
	p.Visible = !p.Visible
	return p.Visible
}

// AllocateUpdateSeq consumes the next metadata-edit sequence number.
func (p *Project) AllocateUpdateSeq() uint64 {
	seq := p.NextUpdateSeq
	p.NextUpdateSeq++
	return seq
}

// AllocateTransferSeq consumes the next ownership-transfer sequence number.
func (p *Project) AllocateTransferSeq() uint64 {
	seq := p.NextTransferSeq
	p.NextTransferSeq++
	return seq
}

func validateMetadata(title, description, location string) error {
	if len(title) > MaxTitleLength {
		return dErrors.Newf(dErrors.CodeInvalidLength,
			"title must be %d characters or less", MaxTitleLength)
	}
	if len(description) > MaxDescription {
		return dErrors.Newf(dErrors.CodeInvalidLength,
			"description must be %d characters or less", MaxDescription)
	}
	if len(location) > MaxLocationLength {
		return dErrors.Newf(dErrors.CodeInvalidLength,
			"location must be %d characters or less", MaxLocationLength)
	}
	return nil
}
