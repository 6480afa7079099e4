package authgate_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authgate "github.com/bizmatch/go-authgate"
)

// MockIdentityClient implements authgate.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) UserFromToken(ctx context.Context, accessToken string) (*authgate.Principal, error) {
	args := m.Called(ctx, accessToken)
	user, _ := args.Get(0).(*authgate.Principal)
	return user, args.Error(1)
}

func (m *MockIdentityClient) RefreshSession(ctx context.Context, refreshToken string) (*authgate.ProviderSession, error) {
	args := m.Called(ctx, refreshToken)
	session, _ := args.Get(0).(*authgate.ProviderSession)
	return session, args.Error(1)
}

// MockAdminClient implements authgate.AdminClient
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) GetUser(ctx context.Context, id uuid.UUID) (*authgate.Principal, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*authgate.Principal)
	return user, args.Error(1)
}

// MockVerifier implements authgate.TokenVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyAccessToken(tokenString string) (*authgate.Principal, error) {
	args := m.Called(tokenString)
	user, _ := args.Get(0).(*authgate.Principal)
	return user, args.Error(1)
}

var errDuplicateKey = errors.New(`duplicate key value violates unique constraint "profiles_pkey"`)

// stubProfiles fakes the profile store. The embedded interface covers the
// generic repository surface these tests never touch.
type stubProfiles struct {
	authgate.Profiles

	mu   sync.Mutex
	byID map[uuid.UUID]*authgate.Profile

	getErr error
	// failNextCreate surfaces a duplicate-key error on the next insert,
	// which is how a lost concurrent-insert race looks to the caller.
	failNextCreate error
	// missUntilCreate hides stored rows until an insert has been attempted,
	// so the winner's row only becomes visible to the post-conflict re-fetch.
	missUntilCreate bool
	panicOnGet      bool

	getCalls    int
	createCalls int
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{byID: map[uuid.UUID]*authgate.Profile{}}
}

func (s *stubProfiles) put(p *authgate.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
}

func (s *stubProfiles) GetByPrincipal(ctx context.Context, id uuid.UUID) (*authgate.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	if s.panicOnGet {
		panic("profile store exploded")
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.missUntilCreate && s.createCalls == 0 {
		return nil, repository.NewRecordNotFound()
	}
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubProfiles) Create(ctx context.Context, record *authgate.Profile, criteria ...repository.InsertCriteria) (*authgate.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.failNextCreate != nil {
		err := s.failNextCreate
		s.failNextCreate = nil
		return nil, err
	}
	if _, exists := s.byID[record.ID]; exists {
		return nil, errDuplicateKey
	}
	s.byID[record.ID] = record
	return record, nil
}

// countingStrategy wraps outcomes for orchestrator tests and records how
// often it was consulted.
type countingStrategy struct {
	name     string
	priority int
	result   *authgate.AuthResult
	err      error
	calls    int
}

func (c *countingStrategy) Name() string  { return c.name }
func (c *countingStrategy) Priority() int { return c.priority }

func (c *countingStrategy) Verify(ctx context.Context, rc router.Context) (*authgate.AuthResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// testContext is a field-backed router.Context for exercising strategies and
// middleware without a server.
type testContext struct {
	ctx        context.Context
	headers    map[string]string
	cookies    map[string]string
	setCookies []*router.Cookie
	locals     map[any]any
	path       string
	original   string
	redirected string
	nextCalled bool
	nextErr    error
}

func newTestContext() *testContext {
	return &testContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		cookies: map[string]string{},
		locals:  map[any]any{},
		path:    "/",
	}
}

func (t *testContext) Next() error {
	t.nextCalled = true
	return t.nextErr
}

func (t *testContext) Context() context.Context            { return t.ctx }
func (t *testContext) SetContext(ctx context.Context)      { t.ctx = ctx }
func (t *testContext) Path() string                        { return t.path }
func (t *testContext) Method() string                      { return "GET" }
func (t *testContext) Body() []byte                        { return nil }
func (t *testContext) Status(int) router.Context           { return t }
func (t *testContext) SendString(string) error             { return nil }
func (t *testContext) Send([]byte) error                   { return nil }
func (t *testContext) JSON(int, any) error                 { return nil }
func (t *testContext) NoContent(int) error                 { return nil }
func (t *testContext) Render(string, any, ...string) error { return nil }

func (t *testContext) Redirect(path string, status ...int) error {
	t.redirected = path
	return nil
}

func (t *testContext) RedirectToRoute(string, router.ViewContext, ...int) error { return nil }
func (t *testContext) RedirectBack(string, ...int) error                        { return nil }
func (t *testContext) SetHeader(string, string) router.Context                  { return t }

func (t *testContext) Header(key string) string { return t.headers[key] }

func (t *testContext) Get(key string, def any) any       { return def }
func (t *testContext) GetBool(key string, def bool) bool { return def }
func (t *testContext) GetInt(key string, def int) int    { return def }
func (t *testContext) GetString(key, def string) string  { return def }
func (t *testContext) Set(string, any)                   {}
func (t *testContext) Bind(any) error                    { return nil }
func (t *testContext) BindJSON(any) error                { return nil }
func (t *testContext) BindXML(any) error                 { return nil }
func (t *testContext) BindQuery(any) error               { return nil }
func (t *testContext) CookieParser(any) error            { return nil }

func (t *testContext) Cookie(cookie *router.Cookie) {
	t.setCookies = append(t.setCookies, cookie)
	t.cookies[cookie.Name] = cookie.Value
}

func (t *testContext) Cookies(key string, def ...string) string {
	if v, ok := t.cookies[key]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (t *testContext) Param(key string, def ...string) string {
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (t *testContext) ParamsInt(string, int) int      { return 0 }
func (t *testContext) Query(string, ...string) string { return "" }
func (t *testContext) QueryValues(string) []string    { return nil }
func (t *testContext) QueryInt(string, int) int       { return 0 }
func (t *testContext) Queries() map[string]string     { return nil }

func (t *testContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		t.locals[key] = value[0]
		return nil
	}
	return t.locals[key]
}

func (t *testContext) OriginalURL() string {
	if t.original != "" {
		return t.original
	}
	return t.path
}

func (t *testContext) OnNext(func() error) {}
func (t *testContext) Referer() string     { return "" }

func (t *testContext) LocalsMerge(key any, value map[string]any) map[string]any { return value }
func (t *testContext) FormFile(string) (*multipart.FileHeader, error)           { return nil, nil }
func (t *testContext) FormValue(string, ...string) string                       { return "" }
func (t *testContext) IP() string                                               { return "" }
func (t *testContext) SendStatus(int) error                                     { return nil }
func (t *testContext) SendStream(io.Reader) error                               { return nil }
func (t *testContext) RouteName() string                                        { return "" }
func (t *testContext) RouteParams() map[string]string                           { return nil }
