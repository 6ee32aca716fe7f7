package handlers

import (
	"net/http"
	"time"

	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/middleware"
)

// Options configures the handlers; set once at startup through Configure.
type Options struct {
	Provider       auth.Provider
	CookieDomain   string
	CookieSecure   bool
	TokenTTL       time.Duration
	AllowedOrigins []string
}

var options = Options{
	Provider:     auth.NewLocalProvider(),
	CookieSecure: true,
	TokenTTL:     168 * time.Hour,
}

func Configure(o Options) {
	if o.Provider == nil {
		o.Provider = auth.NewLocalProvider()
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 168 * time.Hour
	}
	options = o
}

func setTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(options.TokenTTL.Seconds())
	if !expiresAt.IsZero() {
		maxAge = int(time.Until(expiresAt).Seconds())
	}

	http.SetCookie(w, tokenCookie(token, maxAge))
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, tokenCookie("", -1))
}

func tokenCookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteNoneMode
	if !options.CookieSecure {
		sameSite = http.SameSiteLaxMode
	}

	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   options.CookieDomain,
		MaxAge:   maxAge,
		Secure:   options.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}
