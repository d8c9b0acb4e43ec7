package blog_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	blog "github.com/penmark/go-blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app    *fiber.App
	repo   *MockRepositoryManager
	users  *MockUsers
	posts  *MockPosts
	tags   *MockTags
	tokens *blog.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	posts := &MockPosts{}
	tags := &MockTags{}

	repo.On("Users").Return(users).Maybe()
	repo.On("Posts").Return(posts).Maybe()
	repo.On("Tags").Return(tags).Maybe()

	tokens := newTestTokenService()

	controller := blog.NewAPIController(
		blog.WithControllerLogger(testLogger{}),
		blog.WithControllerRepo(repo),
		blog.WithControllerTokens(tokens),
		blog.WithControllerStateTokens(
			blog.NewActivationTokenService(tokenSecret),
			blog.NewPasswordResetTokenService(tokenSecret),
		),
		blog.WithControllerNotifier(blog.NewLogNotifier(testLogger{})),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: blog.NewErrorHandler(testLogger{}),
	})
	controller.RegisterRoutes(app)

	return &testServer{
		app:    app,
		repo:   repo,
		users:  users,
		posts:  posts,
		tags:   tags,
		tokens: tokens,
	}
}

func (s *testServer) request(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, user *blog.User) string {
	t.Helper()
	pair, err := s.tokens.Generate(user)
	require.NoError(t, err)
	return pair.Access
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestDeadActivationLinkAnswers410(t *testing.T) {
	s := newTestServer(t)

	id := uuid.New()
	s.users.On("GetByID", mock.Anything, id).
		Return(nil, repository.NewRecordNotFound()).Once()

	resp := s.request(t, http.MethodGet, "/account/activate/"+blog.EncodeUID(id)+"/1-deadbeef/", nil, "")

	assert.Equal(t, http.StatusGone, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, blog.TextCodeInvalidLink, errBody["code"])
}

func TestLoginRejectsUnknownAndInactiveAlike(t *testing.T) {
	s := newTestServer(t)

	s.users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	resp := s.request(t, http.MethodPost, "/account/token/", fiber.Map{
		"email":    "ghost@example.com",
		"password": "whatever-123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	hash, err := blog.HashPassword("password12345")
	require.NoError(t, err)
	pending := &blog.User{ID: uuid.New(), Email: "pending@example.com", IsActive: false, PasswordHash: hash}

	s.users.On("GetByEmail", mock.Anything, pending.Email).Return(pending, nil).Once()

	resp = s.request(t, http.MethodPost, "/account/token/", fiber.Map{
		"email":    pending.Email,
		"password": "password12345",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	s := newTestServer(t)

	hash, err := blog.HashPassword("password12345")
	require.NoError(t, err)
	user := &blog.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true, PasswordHash: hash}

	s.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

	resp := s.request(t, http.MethodPost, "/account/token/", fiber.Map{
		"email":    user.Email,
		"password": "password12345",
	}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access"])
	assert.NotEmpty(t, body["refresh"])
}

func TestResetRequestAlwaysAccepted(t *testing.T) {
	s := newTestServer(t)

	s.users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	resp := s.request(t, http.MethodPost, "/account/password/reset/", fiber.Map{
		"email": "ghost@example.com",
	}, "")

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/account/me/", "/posts/", "/users/"} {
		resp := s.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestTagsAreOpenToEveryone(t *testing.T) {
	s := newTestServer(t)

	s.tags.On("List", mock.Anything).Return([]*blog.Tag{{Name: "#golang"}}, nil).Once()

	resp := s.request(t, http.MethodGet, "/tags/", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.tags.On("Create", mock.Anything, mock.MatchedBy(func(tag *blog.Tag) bool {
		return tag.Name == "sports"
	})).Return(&blog.Tag{ID: uuid.New(), Name: "#sports"}, nil).Once()

	resp = s.request(t, http.MethodPost, "/tags/", fiber.Map{"name": "sports"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "#sports", body["name"])
}

func TestMeReturnsThePrincipal(t *testing.T) {
	s := newTestServer(t)

	user := &blog.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true}
	s.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	resp := s.request(t, http.MethodGet, "/account/me/", nil, s.login(t, user))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, user.Email, body["email"])
	_, leaked := body["password_hash"]
	assert.False(t, leaked, "password hash must never serialize")
}

func TestStrangerCannotEditForeignPost(t *testing.T) {
	s := newTestServer(t)

	stranger := &blog.User{ID: uuid.New(), IsActive: true}
	post := &blog.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "original"}

	s.users.On("GetByID", mock.Anything, stranger.ID).Return(stranger, nil).Once()
	s.posts.On("GetByID", mock.Anything, post.ID).Return(post, nil).Once()

	resp := s.request(t, http.MethodPut, "/posts/"+post.ID.String()+"/", fiber.Map{
		"title": "hijacked",
		"text":  "body",
	}, s.login(t, stranger))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	s.posts.AssertNotCalled(t, "UpdateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSuperuserCanEditForeignPost(t *testing.T) {
	s := newTestServer(t)

	super := &blog.User{ID: uuid.New(), IsActive: true, IsSuperuser: true}
	post := &blog.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "original"}

	s.users.On("GetByID", mock.Anything, super.ID).Return(super, nil).Once()
	s.posts.On("GetByID", mock.Anything, post.ID).Return(post, nil).Twice()
	s.tags.On("ExistTx", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	s.posts.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *blog.Post) bool {
		return p.Title == "edited" && p.AuthorID == post.AuthorID
	}), mock.Anything).Return(post, nil).Once()
	expectTx(s.repo).Once()

	resp := s.request(t, http.MethodPut, "/posts/"+post.ID.String()+"/", fiber.Map{
		"title": "edited",
		"text":  "body",
	}, s.login(t, super))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	s.posts.AssertExpectations(t)
}

func TestPostCreateStampsAuthorFromPrincipal(t *testing.T) {
	s := newTestServer(t)

	author := &blog.User{ID: uuid.New(), IsActive: true}
	created := &blog.Post{ID: uuid.New(), AuthorID: author.ID, Title: "hello"}

	s.users.On("GetByID", mock.Anything, author.ID).Return(author, nil).Once()
	s.tags.On("ExistTx", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	s.posts.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *blog.Post) bool {
		return p.AuthorID == author.ID
	}), mock.Anything).Return(created, nil).Once()
	s.posts.On("GetByID", mock.Anything, created.ID).Return(created, nil).Once()
	expectTx(s.repo).Once()

	resp := s.request(t, http.MethodPost, "/posts/", fiber.Map{
		"title": "hello",
		"text":  "body",
		// any author the client claims is ignored
		"author_id": uuid.New().String(),
	}, s.login(t, author))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	s.posts.AssertExpectations(t)
}

func TestPostValidationFailures(t *testing.T) {
	s := newTestServer(t)

	author := &blog.User{ID: uuid.New(), IsActive: true}
	s.users.On("GetByID", mock.Anything, author.ID).Return(author, nil)
	token := s.login(t, author)

	t.Run("missing title", func(t *testing.T) {
		resp := s.request(t, http.MethodPost, "/posts/", fiber.Map{"text": "body"}, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("title too long", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'x'
		}
		resp := s.request(t, http.MethodPost, "/posts/", fiber.Map{"title": string(long)}, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRegistrationValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.request(t, http.MethodPost, "/account/create/", fiber.Map{
		"email":      "not-an-email",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"password1":  "password12345",
		"password2":  "password12345",
	}, "")

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// per-field messages survive as a JSON object, not a flattened string
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	meta, ok := errBody["metadata"].(map[string]any)
	require.True(t, ok, "validation metadata missing")
	fields, ok := meta["fields"].(map[string]any)
	require.True(t, ok, "fields should be an object keyed by field name")
	assert.Contains(t, fields, "email")
}

func TestPatchPostKeepsOmittedFields(t *testing.T) {
	s := newTestServer(t)

	author := &blog.User{ID: uuid.New(), IsActive: true}
	post := &blog.Post{ID: uuid.New(), AuthorID: author.ID, Title: "original", Body: "the body stays"}

	s.users.On("GetByID", mock.Anything, author.ID).Return(author, nil).Once()
	s.posts.On("GetByID", mock.Anything, post.ID).Return(post, nil).Twice()
	s.tags.On("ExistTx", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	s.posts.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *blog.Post) bool {
		return p.Title == "renamed" && p.Body == "the body stays"
	}), mock.Anything).Return(post, nil).Once()
	expectTx(s.repo).Once()

	resp := s.request(t, http.MethodPatch, "/posts/"+post.ID.String()+"/", fiber.Map{
		"title": "renamed",
	}, s.login(t, author))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	s.posts.AssertExpectations(t)
}

func TestPatchProfileKeepsOmittedFields(t *testing.T) {
	s := newTestServer(t)

	user := &blog.User{
		ID:        uuid.New(),
		IsActive:  true,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "+14155552671",
	}
	s.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	s.users.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *blog.User) bool {
		return u.FirstName == "Augusta" && u.LastName == "Lovelace" && u.Phone == "+14155552671"
	})).Return(user, nil).Once()
	expectTx(s.repo).Once()

	token := s.login(t, user)
	resp := s.request(t, http.MethodPatch, "/account/me/", fiber.Map{"first_name": "Augusta"}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	s.users.AssertExpectations(t)

	// a full PUT still requires every field
	resp = s.request(t, http.MethodPut, "/account/me/", fiber.Map{"first_name": "Augusta"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfilePhoneConflictAnswers409(t *testing.T) {
	s := newTestServer(t)

	user := &blog.User{ID: uuid.New(), IsActive: true, Phone: "+14155552671"}
	s.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	s.users.On("PhoneTakenTx", mock.Anything, mock.Anything, "+442079460958").Return(true, nil).Once()
	expectTx(s.repo).Once()

	resp := s.request(t, http.MethodPatch, "/account/me/", fiber.Map{
		"phone_number": "+44 20 7946 0958",
	}, s.login(t, user))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, blog.TextCodePhoneExists, errBody["code"])
	s.users.AssertNotCalled(t, "UpdateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestTagCreateMapsOnlyDuplicatesToConflict(t *testing.T) {
	s := newTestServer(t)

	s.tags.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.New("UNIQUE constraint failed: tags.name")).Once()
	resp := s.request(t, http.MethodPost, "/tags/", fiber.Map{"name": "dup"}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	s.tags.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.New("disk I/O error")).Once()
	resp = s.request(t, http.MethodPost, "/tags/", fiber.Map{"name": "boom"}, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestTokenRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)

	user := &blog.User{ID: uuid.New(), IsActive: true}
	pair, err := s.tokens.Generate(user)
	require.NoError(t, err)

	resp := s.request(t, http.MethodPost, "/account/token/refresh/", fiber.Map{
		"refresh": pair.Refresh,
	}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["access"])

	resp = s.request(t, http.MethodPost, "/account/token/refresh/", fiber.Map{
		"refresh": pair.Access,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
