package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/application/service"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/keylock"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type stubUserRepo struct {
	users map[uuid.UUID]user.DisplayInfo
}

func (r stubUserRepo) FindDisplayInfo(_ context.Context, id uuid.UUID) (*user.DisplayInfo, error) {
	info, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &info, nil
}

func (r stubUserRepo) FindDisplayInfos(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]user.DisplayInfo, error) {
	out := map[uuid.UUID]user.DisplayInfo{}
	for _, id := range ids {
		if info, ok := r.users[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (r stubUserRepo) DeleteAccount(context.Context, uuid.UUID) error { return nil }

type stubLookup func(ctx context.Context, username string) ([]service.RepositorySummary, error)

func (f stubLookup) ListRepositories(ctx context.Context, username string) ([]service.RepositorySummary, error) {
	return f(ctx, username)
}

type ProfileHandlerTestSuite struct {
	suite.Suite
	Router *gin.Engine
	userID uuid.UUID
	token  string
}

func (s *ProfileHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	s.userID = uuid.New()
	users := stubUserRepo{users: map[uuid.UUID]user.DisplayInfo{
		s.userID: {ID: s.userID, Name: "Ada Lovelace", Avatar: "//www.gravatar.com/avatar/ada"},
	}}

	lookup := stubLookup(func(_ context.Context, username string) ([]service.RepositorySummary, error) {
		switch username {
		case "ghost":
			return nil, apperror.NewRemoteNotFound("Github profile", username)
		case "offline":
			return nil, apperror.NewRemoteUnavailable("github down", nil)
		}
		return []service.RepositorySummary{{ID: 7, Name: "hello", FullName: username + "/hello"}}, nil
	})

	uc := profileUC.NewProfileUseCase(persistence.NewMemoryProfileRepo(), users, lookup, keylock.New(), event.NopPublisher{}, time.Second, log)
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)

	token, err := jwtSvc.GenerateToken(s.userID)
	s.Require().NoError(err)
	s.token = token

	s.Router = NewRouter(NewProfileHandler(uc, log), jwtSvc, log)
}

func TestProfileHandler(t *testing.T) {
	suite.Run(t, new(ProfileHandlerTestSuite))
}

func (s *ProfileHandlerTestSuite) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](s *ProfileHandlerTestSuite, rr *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (s *ProfileHandlerTestSuite) createProfile() ProfileDTO {
	rr := s.do(http.MethodPost, "/api/profile", gin.H{
		"status":  "Developer",
		"skills":  "Go, Rust ,TS",
		"company": "Acme",
		"twitter": "@ada",
	}, true)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return decode[ProfileDTO](s, rr)
}

func (s *ProfileHandlerTestSuite) Test_Health() {
	rr := s.do(http.MethodGet, "/api/health", nil, false)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_PrivateRoutesRequireToken() {
	rr := s.do(http.MethodGet, "/api/profile/me", nil, false)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("No token, authorization denied", decode[map[string]string](s, rr)["msg"])

	req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	req.Header.Set("x-auth-token", "garbage")
	rr = httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("Token is not valid", decode[map[string]string](s, rr)["msg"])
}

func (s *ProfileHandlerTestSuite) Test_LegacyTokenHeader() {
	s.createProfile()

	req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	req.Header.Set("x-auth-token", s.token)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_CreateOrUpdate_Validation() {
	rr := s.do(http.MethodPost, "/api/profile", gin.H{"company": "Acme"}, true)
	s.Equal(http.StatusBadRequest, rr.Code)

	body := decode[map[string][]apperror.FieldError](s, rr)
	s.Equal([]apperror.FieldError{
		{Param: "status", Msg: "Status is required"},
		{Param: "skills", Msg: "Skills are required"},
	}, body["errors"])

	rr = s.do(http.MethodGet, "/api/profile/me", nil, true)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_CreateOrUpdate_ThenRead() {
	created := s.createProfile()
	s.Equal([]string{"Go", "Rust", "TS"}, created.Skills)
	s.Equal("@ada", created.Social.Twitter)

	rr := s.do(http.MethodPost, "/api/profile", gin.H{"status": "Senior", "skills": "Go", "bio": "Gopher"}, true)
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/profile/me", nil, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	me := decode[ProfileDTO](s, rr)
	s.Equal("Acme", me.Company)
	s.Equal("Gopher", me.Bio)
	s.Equal("Senior", me.Status)
	s.Equal("Ada Lovelace", me.User.Name)

	rr = s.do(http.MethodGet, "/api/profile/user/"+s.userID.String(), nil, false)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal(s.userID, decode[ProfileDTO](s, rr).User.ID)

	rr = s.do(http.MethodGet, "/api/profile", nil, false)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Len(decode[[]ProfileDTO](s, rr), 1)
}

func (s *ProfileHandlerTestSuite) Test_GetByUserID_NotFound() {
	rr := s.do(http.MethodGet, "/api/profile/user/not-a-uuid", nil, false)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("profile not found", decode[map[string]string](s, rr)["msg"])

	rr = s.do(http.MethodGet, "/api/profile/user/"+uuid.NewString(), nil, false)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_Experience() {
	s.createProfile()

	rr := s.do(http.MethodPut, "/api/profile/experience", gin.H{"location": "Berlin"}, true)
	s.Require().Equal(http.StatusBadRequest, rr.Code)
	errs := decode[map[string][]apperror.FieldError](s, rr)["errors"]
	s.ElementsMatch([]apperror.FieldError{
		{Param: "title", Msg: "Title is required"},
		{Param: "company", Msg: "Company is required"},
		{Param: "from", Msg: "From date is required"},
	}, errs)

	rr = s.do(http.MethodPut, "/api/profile/experience", gin.H{"title": "Dev", "company": "Acme", "from": "yesterday"}, true)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPut, "/api/profile/experience", gin.H{"title": "E1", "company": "Acme", "from": "2019-06"}, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	rr = s.do(http.MethodPut, "/api/profile/experience", gin.H{"title": "E2", "company": "Initech", "from": "2021-01-15", "current": true}, true)
	s.Require().Equal(http.StatusOK, rr.Code)

	p := decode[ProfileDTO](s, rr)
	s.Require().Len(p.Experience, 2)
	s.Equal("E2", p.Experience[0].Title)
	s.True(p.Experience[0].Current)

	rr = s.do(http.MethodDelete, "/api/profile/experience/not-an-id", nil, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Len(decode[ProfileDTO](s, rr).Experience, 2)

	rr = s.do(http.MethodDelete, "/api/profile/experience/"+p.Experience[0].ID.String(), nil, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	left := decode[ProfileDTO](s, rr).Experience
	s.Require().Len(left, 1)
	s.Equal("E1", left[0].Title)
}

func (s *ProfileHandlerTestSuite) Test_Education() {
	rr := s.do(http.MethodPut, "/api/profile/education",
		gin.H{"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010"}, true)
	s.Equal(http.StatusNotFound, rr.Code)

	s.createProfile()

	rr = s.do(http.MethodPut, "/api/profile/education", gin.H{"school": "MIT"}, true)
	s.Require().Equal(http.StatusBadRequest, rr.Code)
	params := []string{}
	for _, fe := range decode[map[string][]apperror.FieldError](s, rr)["errors"] {
		params = append(params, fe.Param)
	}
	s.ElementsMatch([]string{"degree", "fieldofstudy", "from"}, params)

	rr = s.do(http.MethodPut, "/api/profile/education",
		gin.H{"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010", "to": "2014"}, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	p := decode[ProfileDTO](s, rr)
	s.Require().Len(p.Education, 1)
	s.Require().NotNil(p.Education[0].To)
	s.Equal(2014, p.Education[0].To.Year())

	body := decode[map[string]any](s, rr)
	for _, key := range []string{"user", "githubusername", "date", "updated"} {
		s.Contains(body, key)
	}
	s.NotContains(body, "created_at")
	entry := body["education"].([]any)[0].(map[string]any)
	s.Equal("CS", entry["fieldofstudy"])
	s.NotContains(entry, "field_of_study")

	rr = s.do(http.MethodDelete, "/api/profile/education/"+p.Education[0].ID.String(), nil, true)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Empty(decode[ProfileDTO](s, rr).Education)
}

func (s *ProfileHandlerTestSuite) Test_DeleteProfile() {
	s.createProfile()

	for i := 0; i < 2; i++ {
		rr := s.do(http.MethodDelete, "/api/profile", nil, true)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("profile deleted", decode[map[string]string](s, rr)["msg"])
	}

	rr := s.do(http.MethodGet, "/api/profile/me", nil, true)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_GitHubRepos() {
	rr := s.do(http.MethodGet, "/api/profile/github/octocat", nil, false)
	s.Require().Equal(http.StatusOK, rr.Code)
	repos := decode[[]service.RepositorySummary](s, rr)
	s.Require().Len(repos, 1)
	s.Equal("octocat/hello", repos[0].FullName)

	rr = s.do(http.MethodGet, "/api/profile/github/ghost", nil, false)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("No Github profile found", decode[map[string]string](s, rr)["msg"])

	rr = s.do(http.MethodGet, "/api/profile/github/offline", nil, false)
	s.Equal(http.StatusBadGateway, rr.Code)
}

func (s *ProfileHandlerTestSuite) Test_MalformedJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}
