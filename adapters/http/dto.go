package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

// Accepted layouts for experience/education dates, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006"}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

var registerOnce sync.Once

// RegisterValidators hooks the "devdate" tag and json field naming into gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("devdate", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := ParseDate(s)
			return err == nil
		})
	})
}

var fieldLabels = map[string]string{
	"title":        "Title",
	"company":      "Company",
	"from":         "From date",
	"to":           "To date",
	"school":       "School",
	"degree":       "Degree",
	"fieldofstudy": "Field of study",
}

// bindingError turns a ShouldBindJSON failure into a caller-facing AppError.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInvalidInput("malformed JSON body", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		msg := label + " is invalid"
		switch fe.Tag() {
		case "required":
			msg = label + " is required"
		case "devdate":
			msg = label + " must be a date"
		}
		fields = append(fields, apperror.FieldError{Param: fe.Field(), Msg: msg})
	}
	return apperror.NewValidation(fields...)
}

// CreateOrUpdateProfileRequest mirrors the form fields. Omitted keys keep their stored value.
type CreateOrUpdateProfileRequest struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Bio            *string `json:"bio"`
	Status         *string `json:"status"`
	GitHubUsername *string `json:"githubusername"`
	Skills         *string `json:"skills"`
	YouTube        *string `json:"youtube"`
	Facebook       *string `json:"facebook"`
	Twitter        *string `json:"twitter"`
	Instagram      *string `json:"instagram"`
	LinkedIn       *string `json:"linkedin"`
}

func (r CreateOrUpdateProfileRequest) ToFieldSet() profile.FieldSet {
	return profile.FieldSet{
		Company:        r.Company,
		Website:        r.Website,
		Location:       r.Location,
		Bio:            r.Bio,
		Status:         r.Status,
		GitHubUsername: r.GitHubUsername,
		Skills:         r.Skills,
		Social: profile.SocialFields{
			YouTube:   r.YouTube,
			Facebook:  r.Facebook,
			Twitter:   r.Twitter,
			Instagram: r.Instagram,
			LinkedIn:  r.LinkedIn,
		},
	}
}

type ExperienceRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	From        string `json:"from" binding:"required,devdate"`
	To          string `json:"to" binding:"devdate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (r ExperienceRequest) ToDomain() profile.Experience {
	from, _ := ParseDate(r.From)
	return profile.Experience{
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		From:        from,
		To:          optionalDate(r.To),
		Current:     r.Current,
		Description: r.Description,
	}
}

type EducationRequest struct {
	School       string `json:"school" binding:"required"`
	Degree       string `json:"degree" binding:"required"`
	FieldOfStudy string `json:"fieldofstudy" binding:"required"`
	From         string `json:"from" binding:"required,devdate"`
	To           string `json:"to" binding:"devdate"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (r EducationRequest) ToDomain() profile.Education {
	from, _ := ParseDate(r.From)
	return profile.Education{
		School:       r.School,
		Degree:       r.Degree,
		FieldOfStudy: r.FieldOfStudy,
		From:         from,
		To:           optionalDate(r.To),
		Current:      r.Current,
		Description:  r.Description,
	}
}

func optionalDate(raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}

// Response DTOs

type OwnerDTO struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

type ProfileDTO struct {
	User           OwnerDTO             `json:"user"`
	Company        string               `json:"company"`
	Website        string               `json:"website"`
	Location       string               `json:"location"`
	Bio            string               `json:"bio"`
	Status         string               `json:"status"`
	GitHubUsername string               `json:"githubusername"`
	Skills         []string             `json:"skills"`
	Social         profile.Social       `json:"social"`
	Experience     []ExperienceDTO      `json:"experience"`
	Education      []EducationDTO       `json:"education"`
	Date           time.Time            `json:"date"`
	Updated        time.Time            `json:"updated"`
}

// Response keys match the request form keys.

type ExperienceDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to"`
	Current     bool       `json:"current"`
	Description string     `json:"description"`
}

type EducationDTO struct {
	ID           uuid.UUID  `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to"`
	Current      bool       `json:"current"`
	Description  string     `json:"description"`
}

// ToProfileDTO renders p. A nil owner falls back to the bare owner id.
func ToProfileDTO(p *profile.Profile, owner *user.DisplayInfo) ProfileDTO {
	o := OwnerDTO{ID: p.OwnerID}
	if owner != nil {
		o = OwnerDTO{ID: owner.ID, Name: owner.Name, Avatar: owner.Avatar}
	}
	return ProfileDTO{
		User:           o,
		Company:        p.Company,
		Website:        p.Website,
		Location:       p.Location,
		Bio:            p.Bio,
		Status:         p.Status,
		GitHubUsername: p.GitHubUsername,
		Skills:         nonNil(p.Skills),
		Social:         p.Social,
		Experience:     toExperienceDTOs(p.Experience),
		Education:      toEducationDTOs(p.Education),
		Date:           p.CreatedAt,
		Updated:        p.UpdatedAt,
	}
}

func toExperienceDTOs(entries []profile.Experience) []ExperienceDTO {
	out := make([]ExperienceDTO, len(entries))
	for i, e := range entries {
		out[i] = ExperienceDTO{
			ID: e.ID, Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	return out
}

func toEducationDTOs(entries []profile.Education) []EducationDTO {
	out := make([]EducationDTO, len(entries))
	for i, e := range entries {
		out[i] = EducationDTO{
			ID: e.ID, School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
