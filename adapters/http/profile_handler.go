package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	RegisterValidators()
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	view, err := h.profileUseCase.GetOwnProfile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(view.Profile, &view.Owner))
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	views, err := h.profileUseCase.GetAllProfiles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	dtos := make([]ProfileDTO, len(views))
	for i := range views {
		dtos[i] = ToProfileDTO(views[i].Profile, &views[i].Owner)
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *ProfileHandler) GetProfileByUserID(c *gin.Context) {
	view, err := h.profileUseCase.GetProfileByUserID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(view.Profile, &view.Owner))
}

func (h *ProfileHandler) CreateOrUpdateProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	var req CreateOrUpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindingError(err))
		return
	}

	p, err := h.profileUseCase.CreateOrUpdateProfile(c.Request.Context(), profileUC.CreateOrUpdateProfileInput{
		OwnerID: userID,
		Fields:  req.ToFieldSet(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(p, nil))
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	if err := h.profileUseCase.DeleteProfile(c.Request.Context(), userID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "profile deleted"})
}

func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	var req ExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindingError(err))
		return
	}

	p, err := h.profileUseCase.AddExperience(c.Request.Context(), profileUC.AddExperienceInput{
		OwnerID:    userID,
		Experience: req.ToDomain(),
	})
	h.respondProfile(c, p, err)
}

func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	p, err := h.profileUseCase.RemoveExperience(c.Request.Context(), userID, entryID(c.Param("exp_id")))
	h.respondProfile(c, p, err)
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	var req EducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindingError(err))
		return
	}

	p, err := h.profileUseCase.AddEducation(c.Request.Context(), profileUC.AddEducationInput{
		OwnerID:   userID,
		Education: req.ToDomain(),
	})
	h.respondProfile(c, p, err)
}

func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	p, err := h.profileUseCase.RemoveEducation(c.Request.Context(), userID, entryID(c.Param("edu_id")))
	h.respondProfile(c, p, err)
}

func (h *ProfileHandler) GetGitHubRepos(c *gin.Context) {
	repos, err := h.profileUseCase.FetchRemoteRepositories(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, repos)
}

func (h *ProfileHandler) respondProfile(c *gin.Context, p *profile.Profile, err error) {
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(p, nil))
}

// entryID maps a malformed path id to uuid.Nil, which matches no entry.
func entryID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
