package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SocialFields carries the submitted social links. A nil pointer means the key was not sent.
type SocialFields struct {
	YouTube   *string
	Facebook  *string
	Twitter   *string
	Instagram *string
	LinkedIn  *string
}

// FieldSet is a sparse create-or-update payload. Nil pointers leave the stored value
// untouched; a non-nil pointer, including one to "", overwrites it.
type FieldSet struct {
	Company        *string
	Website        *string
	Location       *string
	Bio            *string
	Status         *string
	GitHubUsername *string
	// Skills is the raw comma-delimited list, e.g. "Go, Rust ,TS".
	Skills *string
	Social SocialFields
}

// Validate enforces the fields required on every create-or-update.
func (f FieldSet) Validate() error {
	var v ValidationError
	if f.Status == nil || strings.TrimSpace(*f.Status) == "" {
		v.add("status", "Status is required")
	}
	if f.Skills == nil || len(ParseSkills(*f.Skills)) == 0 {
		v.add("skills", "Skills are required")
	}
	return v.orNil()
}

// ParseSkills splits a comma-delimited list, trims each token and drops empty ones.
func ParseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// ApplyFieldUpdate merges fields over existing and returns the profile to persist.
// existing is never modified; pass nil to build a fresh profile for ownerID.
func ApplyFieldUpdate(existing *Profile, ownerID uuid.UUID, fields FieldSet, now time.Time) *Profile {
	var p *Profile
	if existing == nil {
		p = New(ownerID, now)
	} else {
		p = existing.Clone()
	}

	setString(&p.Company, fields.Company)
	setString(&p.Website, fields.Website)
	setString(&p.Location, fields.Location)
	setString(&p.Bio, fields.Bio)
	setString(&p.Status, fields.Status)
	setString(&p.GitHubUsername, fields.GitHubUsername)
	if fields.Skills != nil {
		p.Skills = ParseSkills(*fields.Skills)
	}

	setString(&p.Social.YouTube, fields.Social.YouTube)
	setString(&p.Social.Facebook, fields.Social.Facebook)
	setString(&p.Social.Twitter, fields.Social.Twitter)
	setString(&p.Social.Instagram, fields.Social.Instagram)
	setString(&p.Social.LinkedIn, fields.Social.LinkedIn)

	p.Touch(now)
	return p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
