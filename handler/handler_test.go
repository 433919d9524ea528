package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnswerer struct {
	answers map[string]string
}

func (f *fakeAnswerer) Answer(ctx context.Context, documentID, question string) (string, error) {
	a, ok := f.answers[documentID]
	if !ok {
		return "", fmt.Errorf("document %s: %w", documentID, types.ErrNotFound)
	}
	return a, nil
}

type fakeExtractor struct {
	insights *types.Insights
}

func (f *fakeExtractor) Extract(ctx context.Context, documentID string) (*types.Insights, error) {
	switch documentID {
	case "doc-1":
		return f.insights, nil
	case "broken":
		return nil, fmt.Errorf("%w: model unavailable", types.ErrUpstream)
	}
	return nil, fmt.Errorf("document %s: %w", documentID, types.ErrNotFound)
}

type fakeAuth struct {
	mu     sync.Mutex
	logins []string
	users  map[string]*types.User
}

func (f *fakeAuth) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeAuth) Login(ctx context.Context, code string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", types.ErrValidation)
	}
	user := &types.User{ID: "sub-1", Name: "Ada Lovelace", Email: "ada@example.com"}
	if f.users == nil {
		f.users = make(map[string]*types.User)
	}
	f.users[user.ID] = user
	return user, nil
}

type stubBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *stubBlobs) Upload(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *stubBlobs) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *stubBlobs) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type stubIngester struct{}

func (stubIngester) Ingest(ctx context.Context, req types.IngestRequest) (string, error) {
	return "doc-" + req.OwnerID, nil
}

type testServer struct {
	router *gin.Engine
	auth   *fakeAuth
	blobs  *stubBlobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	blobs := &stubBlobs{objects: make(map[string][]byte)}
	files, err := service.NewFileService(t.TempDir(), blobs, stubIngester{})
	require.NoError(t, err)

	sessions := middleware.NewSessionManager(middleware.SessionConfig{Secret: []byte("test-secret")})
	auth := &fakeAuth{}
	insights := &types.Insights{
		LineChart:    make([]types.MonthlyFlow, 12),
		BarChart:     []types.CategorySpend{},
		PieChart:     []types.CategorySpend{},
		SavingsChart: make([]types.MonthlyAmount, 12),
	}

	router := SetupRouter(RouterDeps{
		Sessions: sessions,
		Upload:   NewUploadHandler(files),
		Chat:     NewChatHandler(&fakeAnswerer{answers: map[string]string{"doc-1": "<div>1500.00</div>"}}),
		Insights: NewInsightHandler(&fakeExtractor{insights: insights}),
		Login:    NewLoginHandler(auth, sessions, "http://localhost:3000/chatbot", false),
		Files:    NewFileHandler(files),
	})
	return &testServer{router: router, auth: auth, blobs: blobs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// login runs the OAuth callback and returns the session cookie.
func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/login/callback?code=abc&state=st", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	w := s.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "finsight_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := s.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	w := s.do(jsonRequest(http.MethodPost, "/api/chat", `{"pdf_id":"doc-1","question":"Rent?"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"<div>1500.00</div>"}`, w.Body.String())

	w = s.do(jsonRequest(http.MethodPost, "/api/chat", `{"pdf_id":"unknown","question":"Rent?"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Invalid pdf_id"}`, w.Body.String())

	w = s.do(jsonRequest(http.MethodPost, "/api/chat", `{"pdf_id":"doc-1"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/chat", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsights(t *testing.T) {
	s := newTestServer(t)

	w := s.do(jsonRequest(http.MethodPost, "/api/insights", `{"pdf_id":"doc-1"}`))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 4)
	assert.Len(t, body["lineChart"], 12)
	assert.Len(t, body["savingsChart"], 12)

	w = s.do(jsonRequest(http.MethodPost, "/api/insights", `{"pdf_id":"unknown"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/insights", `{"pdf_id":"broken"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/insights", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsights_DegradedIsEmptyObject(t *testing.T) {
	router := SetupRouter(RouterDeps{
		Sessions: middleware.NewSessionManager(middleware.SessionConfig{Secret: []byte("x")}),
		Insights: NewInsightHandler(&fakeExtractor{}),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/insights", `{"pdf_id":"doc-1"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	w := s.do(uploadRequest(t, "jan.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"PDF uploaded and indexed successfully","pdf_id":"doc-anonymous"}`, w.Body.String())

	w = s.do(uploadRequest(t, "notes.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/upload", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No file part"}`, w.Body.String())
}

func TestUpload_UsesSessionOwner(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t)

	req := uploadRequest(t, "jan.pdf", []byte("%PDF"))
	req.AddCookie(cookie)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pdf_id":"doc-sub-1"`)

	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var files types.FilesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	assert.Equal(t, "sub-1", files.UserID)
	require.Len(t, files.Files, 1)
	assert.True(t, strings.HasPrefix(files.Files[0], "jan_"))

	req = httptest.NewRequest(http.MethodGet, "/api/files/"+files.Files[0], nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/api/files/missing.pdf", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"File not found"}`, w.Body.String())
}

func TestLoginRedirect(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", loc.Host)
	assert.Equal(t, state, loc.Query().Get("state"))
}

func TestCallback_MissingCode(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/login/callback?state=st", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	w := s.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Authorization code not provided"}`, w.Body.String())
	assert.Empty(t, s.auth.logins)
	assert.Empty(t, s.auth.users)
}

func TestCallback_StateMismatch(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/login/callback?code=abc&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	w := s.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.auth.logins)
}

func TestCallback_SuccessRedirectsWithName(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/login/callback?code=abc&state=st", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	w := s.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:3000/chatbot?name=Ada+Lovelace", w.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, s.auth.logins)
}

func TestMeLogoutAndDebug(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/debug/session", nil))
	assert.JSONEq(t, `{}`, w.Body.String())

	cookie := s.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"sub-1","name":"Ada Lovelace","email":"ada@example.com"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/debug/session", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Contains(t, w.Body.String(), `"user_id":"sub-1"`)

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logout successful"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: bad", types.ErrValidation)))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("doc: %w", types.ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("%w: down", types.ErrUpstream)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("%w: no text", types.ErrIngestion)))
}
