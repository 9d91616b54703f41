package echoweb

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/user"
)

const (
	sessionCookieName = "session"
	contextUserKey    = "user"
)

var errInvalidSession = errors.New("invalid session")

// Claims represents the session claims transmitted via the session cookie.
type Claims struct {
	jwt.StandardClaims
}

// Identity is the authenticated caller, passed explicitly to every authenticated handler.
type Identity struct {
	ID    int
	Email string
	Role  user.Role
}

func newIdentity(usr user.User) Identity {
	return Identity{ID: usr.ID, Email: usr.Email, Role: usr.Role}
}

// authedHandler is an echo handler that requires an authenticated caller.
type authedHandler func(ctx echo.Context, id Identity) error

func newSessionToken(usr user.User, conf *core.Config) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(conf.Server.SessionExpirationDelta).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseSessionToken returns the user ID carried by a valid token.
func parseSessionToken(ss string, conf *core.Config) (int, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidSession
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidSession
	}
	if claims.Issuer != conf.AppName {
		return 0, errInvalidSession
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, errInvalidSession
	}
	return id, nil
}

func newSessionCookie(value string, maxAge int, conf *core.Config) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func login(ctx echo.Context, usr user.User, conf *core.Config) error {
	token, err := newSessionToken(usr, conf)
	if err != nil {
		return err
	}
	ctx.SetCookie(newSessionCookie(token, int(conf.Server.SessionExpirationDelta.Seconds()), conf))
	ctx.Set(contextUserKey, usr)
	return nil
}

func logout(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(newSessionCookie("", -1, conf))
	ctx.Set(contextUserKey, nil)
}

// sessionMiddleware loads the user of the session cookie on every request.
// Invalid or expired sessions, and sessions of unknown users, are cleared and the request goes on anonymously.
func sessionMiddleware(svc user.Service, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(ctx)
			}

			id, err := parseSessionToken(cookie.Value, conf)
			if err != nil {
				logout(ctx, conf)
				return next(ctx)
			}

			usr, err := svc.GetByID(ctx.Request().Context(), id)
			switch {
			case err == user.ErrNotFound:
				logout(ctx, conf)
			case err != nil:
				return errors.Wrap(err, "loading session user")
			default:
				ctx.Set(contextUserKey, usr)
			}
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

func getContextIdentity(ctx echo.Context) (Identity, bool) {
	usr, ok := getContextUser(ctx)
	if !ok {
		return Identity{}, false
	}
	return newIdentity(usr), true
}

// requireAuth redirects anonymous callers to the login page.
func requireAuth(h authedHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, ok := getContextIdentity(ctx)
		if !ok {
			return ctx.Redirect(http.StatusFound, "/login")
		}
		return h(ctx, id)
	}
}

// withRole is requireAuth, plus a silent redirect home for callers not holding role.
func withRole(role user.Role, h authedHandler) echo.HandlerFunc {
	return requireAuth(func(ctx echo.Context, id Identity) error {
		if id.Role != role {
			return ctx.Redirect(http.StatusFound, "/")
		}
		return h(ctx, id)
	})
}

// anonymousOnly sends authenticated callers to their dashboard.
func anonymousOnly(h echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := getContextUser(ctx); ok {
			return ctx.Redirect(http.StatusFound, "/dashboard")
		}
		return h(ctx)
	}
}
