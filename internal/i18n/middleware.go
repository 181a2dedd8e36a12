package i18n

import "net/http"

// LangCookie remembers a language picked with the ?lang= query parameter.
const LangCookie = "lang"

// Middleware injects a localizer into every request context. A supported
// ?lang= value is stored in a cookie and wins over the configured language.
func Middleware(lang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			if q := r.URL.Query().Get("lang"); q != "" && Supported(q) {
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    q,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
				loc = NewLocalizer(q, lang)
			} else if c, err := r.Cookie(LangCookie); err == nil && Supported(c.Value) {
				loc = NewLocalizer(c.Value, lang)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
