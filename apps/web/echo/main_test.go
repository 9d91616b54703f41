package echoweb

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
	emailsvc "github.com/trezcool/kenova/services/email"
	inmemdb "github.com/trezcool/kenova/storage/database/inmem"
	"github.com/trezcool/kenova/testutil"
)

type testApp struct {
	conf       *core.Config
	server     *Server
	db         *inmemdb.DB
	userRepo   user.Repository
	courseRepo course.Repository
	userSvc    user.Service
	mailer     *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	mailer := testutil.NewMailer(conf, logger)
	validate, translator := testutil.NewValidator()

	db := inmemdb.Open()
	userRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	userSvc := user.NewService(userRepo, mailer, validate, user.NewRegistrationPolicy(conf))
	courseSvc := course.NewService(courseRepo, userSvc, validate)

	return &testApp{
		conf:       conf,
		server:     NewServer(conf, logger, userSvc, courseSvc, translator, Options{DisableReqLogs: true}),
		db:         db,
		userRepo:   userRepo,
		courseRepo: courseRepo,
		userSvc:    userSvc,
		mailer:     mailer,
	}
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	cookie       *http.Cookie
	wantCode     int
	wantLocation string
	wantFlashes  []string
}

func (app *testApp) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	if method == http.MethodPost {
		return testutil.PostForm(app.server, path, form, cookies...)
	}
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return app.do(http.MethodGet, path, nil, cookies...)
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	var cookies []*http.Cookie
	if tt.cookie != nil {
		cookies = append(cookies, tt.cookie)
	}
	rec := app.do(method, tt.path, tt.form, cookies...)
	checkResponse(t, tt, rec)
	return rec
}

func (app *testApp) login(t *testing.T, usr user.User, pwd string) *http.Cookie {
	return testutil.Login(t, app.server, usr.Email, pwd)
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("%s %s: code = %v; wantCode %v", tt.method, tt.path, rec.Code, tt.wantCode)
	}
	if tt.wantLocation != "" {
		if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
			t.Errorf("%s %s: location = %q; wantLocation %q", tt.method, tt.path, loc, tt.wantLocation)
		}
	}
	if tt.wantFlashes != nil {
		got := flashes(t, rec)
		if len(got) != len(tt.wantFlashes) {
			t.Errorf("%s %s: flashes = %q; wantFlashes %q", tt.method, tt.path, got, tt.wantFlashes)
			return
		}
		for i := range got {
			if got[i] != tt.wantFlashes[i] {
				t.Errorf("%s %s: flashes = %q; wantFlashes %q", tt.method, tt.path, got, tt.wantFlashes)
				return
			}
		}
	}
}

// flashes decodes the flash cookie set by the response.
func flashes(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	msgs := make([]string, 0)
	for _, c := range rec.Result().Cookies() {
		if c.Name != flashCookieName || c.Value == "" {
			continue
		}
		data, err := base64.RawURLEncoding.DecodeString(c.Value)
		if err != nil {
			t.Fatalf("flashes() failed: %v", err)
		}
		if err = json.Unmarshal(data, &msgs); err != nil {
			t.Fatalf("flashes() failed: %v", err)
		}
	}
	return msgs
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}
