package profile

import (
	"strings"

	"github.com/google/uuid"
)

// Violation is one failed field check.
type Violation struct {
	Field   string
	Message string
}

type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "profile validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e Experience) Validate() error {
	var v ValidationError
	if strings.TrimSpace(e.Title) == "" {
		v.add("title", "Title is required")
	}
	if strings.TrimSpace(e.Company) == "" {
		v.add("company", "Company is required")
	}
	if e.From.IsZero() {
		v.add("from", "From date is required")
	}
	return v.orNil()
}

func (e Education) Validate() error {
	var v ValidationError
	if strings.TrimSpace(e.School) == "" {
		v.add("school", "School is required")
	}
	if strings.TrimSpace(e.Degree) == "" {
		v.add("degree", "Degree is required")
	}
	if strings.TrimSpace(e.FieldOfStudy) == "" {
		v.add("fieldofstudy", "Field of study is required")
	}
	if e.From.IsZero() {
		v.add("from", "From date is required")
	}
	return v.orNil()
}

// AppendExperience validates entry, gives it a fresh id and puts it first.
// The profile is left untouched when validation fails.
func (p *Profile) AppendExperience(entry Experience) (Experience, error) {
	if err := entry.Validate(); err != nil {
		return Experience{}, err
	}
	entry.ID = newEntryID(func(id uuid.UUID) bool { return p.experienceIndex(id) >= 0 })
	p.Experience = append([]Experience{entry}, p.Experience...)
	return entry, nil
}

// RemoveExperience drops the entry with id. It reports false, and changes nothing,
// when no entry matches.
func (p *Profile) RemoveExperience(id uuid.UUID) bool {
	i := p.experienceIndex(id)
	if i < 0 {
		return false
	}
	p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
	return true
}

func (p *Profile) AppendEducation(entry Education) (Education, error) {
	if err := entry.Validate(); err != nil {
		return Education{}, err
	}
	entry.ID = newEntryID(func(id uuid.UUID) bool { return p.educationIndex(id) >= 0 })
	p.Education = append([]Education{entry}, p.Education...)
	return entry, nil
}

func (p *Profile) RemoveEducation(id uuid.UUID) bool {
	i := p.educationIndex(id)
	if i < 0 {
		return false
	}
	p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
	return true
}

func (p *Profile) experienceIndex(id uuid.UUID) int {
	for i, e := range p.Experience {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (p *Profile) educationIndex(id uuid.UUID) int {
	for i, e := range p.Education {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func newEntryID(taken func(uuid.UUID) bool) uuid.UUID {
	for {
		id := uuid.New()
		if !taken(id) {
			return id
		}
	}
}
