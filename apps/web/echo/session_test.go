package echoweb

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/user"
	"github.com/trezcool/kenova/testutil"
)

func signClaims(t *testing.T, claims *Claims, method jwt.SigningMethod, key interface{}) string {
	ss, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signClaims() failed: %v", err)
	}
	return ss
}

func Test_parseSessionToken(t *testing.T) {
	conf := core.NewTestConfig()
	usr := user.User{ID: 42}

	valid, err := newSessionToken(usr, conf)
	require.NoError(t, err)

	now := time.Now()
	claims := func(sub string, exp time.Time, iss string) *Claims {
		return &Claims{StandardClaims: jwt.StandardClaims{
			Subject:   sub,
			Issuer:    iss,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		}}
	}
	key := []byte(conf.SecretKey)

	tests := []struct {
		name    string
		token   string
		wantID  int
		wantErr bool
	}{
		{name: "valid", token: valid, wantID: 42},
		{name: "garbage", token: "not.a.token", wantErr: true},
		{name: "expired", token: signClaims(t, claims("42", now.Add(-time.Minute), conf.AppName), jwt.SigningMethodHS256, key), wantErr: true},
		{name: "wrong key", token: signClaims(t, claims("42", now.Add(time.Hour), conf.AppName), jwt.SigningMethodHS256, []byte("other")), wantErr: true},
		{name: "wrong method", token: signClaims(t, claims("42", now.Add(time.Hour), conf.AppName), jwt.SigningMethodHS512, key), wantErr: true},
		{name: "wrong issuer", token: signClaims(t, claims("42", now.Add(time.Hour), "Other"), jwt.SigningMethodHS256, key), wantErr: true},
		{name: "non-integer subject", token: signClaims(t, claims("abc", now.Add(time.Hour), conf.AppName), jwt.SigningMethodHS256, key), wantErr: true},
		{name: "tampered", token: valid[:len(valid)-2] + "xx", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseSessionToken(tt.token, conf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSessionToken() error = %v; wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID {
				t.Errorf("parseSessionToken() = %d; want %d", id, tt.wantID)
			}
		})
	}
}

func Test_sessionMiddleware(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.userRepo, "t@kenova.xyz", "pw", user.RoleTeacher, true)

	t.Run("invalid session is cleared", func(t *testing.T) {
		bad := &http.Cookie{Name: sessionCookieName, Value: "garbage"}
		rec := app.run(t, httpTest{path: "/dashboard", cookie: bad, wantCode: http.StatusFound, wantLocation: "/login"})
		cleared := sessionCookie(rec)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
	})

	t.Run("unknown user is anonymous", func(t *testing.T) {
		ghost := user.User{ID: usr.ID + 100}
		token, err := newSessionToken(ghost, app.conf)
		require.NoError(t, err)
		cookie := &http.Cookie{Name: sessionCookieName, Value: token}
		app.run(t, httpTest{path: "/dashboard", cookie: cookie, wantCode: http.StatusFound, wantLocation: "/login"})
	})

	t.Run("session subject is the user id", func(t *testing.T) {
		cookie := app.login(t, usr, "pw")
		id, err := parseSessionToken(cookie.Value, app.conf)
		require.NoError(t, err)
		assert.Equal(t, usr.ID, id)
		assert.Equal(t, int(app.conf.Server.SessionExpirationDelta.Seconds()), cookie.MaxAge)
	})
}
