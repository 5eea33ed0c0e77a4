package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

func NewRouter(profileHandler *ProfileHandler, jwtSvc *auth.JWTService, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), ErrorMiddleware(log))

	authMiddleware := AuthMiddleware(jwtSvc, log)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		profiles := api.Group("/profile")
		{
			profiles.GET("", profileHandler.ListProfiles)
			profiles.GET("/user/:user_id", profileHandler.GetProfileByUserID)
			profiles.GET("/github/:username", profileHandler.GetGitHubRepos)

			private := profiles.Group("")
			private.Use(authMiddleware)
			{
				private.GET("/me", profileHandler.GetOwnProfile)
				private.POST("", profileHandler.CreateOrUpdateProfile)
				private.DELETE("", profileHandler.DeleteProfile)
				private.PUT("/experience", profileHandler.AddExperience)
				private.DELETE("/experience/:exp_id", profileHandler.RemoveExperience)
				private.PUT("/education", profileHandler.AddEducation)
				private.DELETE("/education/:edu_id", profileHandler.RemoveEducation)
			}
		}
	}

	return router
}
