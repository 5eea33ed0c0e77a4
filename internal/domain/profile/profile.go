package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	// ErrVersionConflict is returned by the store when a conditional write lost a race.
	ErrVersionConflict = errors.New("profile version conflict")
)

type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

type Experience struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

type Education struct {
	ID           uuid.UUID  `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"field_of_study"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// Profile is the professional profile owned by exactly one user.
// Experience and Education are kept newest first.
type Profile struct {
	OwnerID        uuid.UUID    `json:"owner_id"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	Status         string       `json:"status,omitempty"`
	GitHubUsername string       `json:"github_username,omitempty"`
	Skills         []string     `json:"skills"`
	Social         Social       `json:"social"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Version        int64        `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// New returns an empty profile for ownerID stamped with now.
func New(ownerID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		OwnerID:    ownerID,
		Skills:     []string{},
		Experience: []Experience{},
		Education:  []Education{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = append([]string{}, p.Skills...)
	c.Experience = make([]Experience, len(p.Experience))
	for i, e := range p.Experience {
		e.To = cloneTime(e.To)
		c.Experience[i] = e
	}
	c.Education = make([]Education, len(p.Education))
	for i, e := range p.Education {
		e.To = cloneTime(e.To)
		c.Education[i] = e
	}
	return &c
}

func (p *Profile) Touch(now time.Time) {
	p.UpdatedAt = now
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type Repository interface {
	// FindByOwner returns ErrProfileNotFound when the owner has no profile.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Profile, error)
	FindAll(ctx context.Context) ([]*Profile, error)
	// Insert fails with ErrVersionConflict if the owner already has a profile.
	Insert(ctx context.Context, p *Profile) error
	// Replace succeeds only while the stored version equals p.Version, then bumps p.Version.
	// A missing profile is reported as ErrVersionConflict as well.
	Replace(ctx context.Context, p *Profile) error
	// DeleteByOwner is a no-op when nothing is stored.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
