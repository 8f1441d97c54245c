package themes

import (
	"net/http"
	"time"
)

// CookieName stores the visitor's variant.
const CookieName = "theme"

const cookieMaxAge = 365 * 24 * time.Hour

// FromRequest reads the stored variant, returning DefaultVariant when the
// cookie is missing or holds an unknown value.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return DefaultVariant
	}
	switch v := NormaliseVariant(c.Value); v {
	case VariantDark, VariantLight:
		return v
	default:
		return DefaultVariant
	}
}

// SetCookie stores variant for a year.
func SetCookie(w http.ResponseWriter, variant string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    NormaliseVariant(variant),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
