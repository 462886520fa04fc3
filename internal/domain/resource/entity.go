package resource

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrNegativeHourlyRate  = errors.New("hourly rate cannot be negative")
)

const MaxResourceNameLength = 255

// Resource is a bookable venue court. The engine only reads it; catalog
// maintenance lives outside this core.
type Resource struct {
	id              uuid.UUID
	name            string
	hourlyRateCents int64
	ownerID         uuid.UUID
	active          bool
	createdAt       time.Time
	updatedAt       time.Time
}

func NewResource(id uuid.UUID, name string, hourlyRateCents int64, ownerID uuid.UUID, active bool) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return nil, ErrResourceNameTooLong
	}
	if hourlyRateCents < 0 {
		return nil, ErrNegativeHourlyRate
	}

	return &Resource{
		id:              id,
		name:            name,
		hourlyRateCents: hourlyRateCents,
		ownerID:         ownerID,
		active:          active,
	}, nil
}

func (r *Resource) ID() uuid.UUID          { return r.id }
func (r *Resource) Name() string           { return r.name }
func (r *Resource) HourlyRateCents() int64 { return r.hourlyRateCents }
func (r *Resource) OwnerID() uuid.UUID     { return r.ownerID }
func (r *Resource) IsActive() bool         { return r.active }
func (r *Resource) CreatedAt() time.Time   { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time   { return r.updatedAt }
