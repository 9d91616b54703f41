package echoweb

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/kenova/core"
)

const (
	flashCookieName = "flash"
	contextFlashKey = "flashes"
)

// setFlash queues messages for the next rendered page.
func setFlash(ctx echo.Context, conf *core.Config, msgs ...string) {
	if pending, ok := ctx.Get(contextFlashKey).([]string); ok {
		msgs = append(pending, msgs...)
	}
	ctx.Set(contextFlashKey, msgs)

	data, _ := json.Marshal(msgs)
	ctx.SetCookie(newFlashCookie(base64.RawURLEncoding.EncodeToString(data), 0, conf))
}

// popFlashes returns the queued messages and clears them.
func popFlashes(ctx echo.Context, conf *core.Config) []string {
	cookie, err := ctx.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	ctx.SetCookie(newFlashCookie("", -1, conf))

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var msgs []string
	if err = json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}

func newFlashCookie(value string, maxAge int, conf *core.Config) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// flashRedirect queues msgs and redirects (302) to path.
func flashRedirect(ctx echo.Context, conf *core.Config, path string, msgs ...string) error {
	setFlash(ctx, conf, msgs...)
	return ctx.Redirect(http.StatusFound, path)
}
