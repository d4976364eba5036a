package http

import (
	"mime"
	"net/http"
	"strings"

	"github.com/utafrali/CompanyDirectory/pkg/httputil"
)

const (
	contentTypeJSON      = "application/json"
	contentTypeMultipart = "multipart/form-data"
)

// RequireContentType rejects request bodies declared with any media type
// other than allowed. Requests without a Content-Type header pass through.
func RequireContentType(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if ct == "" {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(ct)
			if err == nil {
				for _, a := range allowed {
					if strings.EqualFold(mediaType, a) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "UNSUPPORTED_MEDIA_TYPE",
					Message: "Content-Type must be one of " + strings.Join(allowed, ", "),
				},
			})
		})
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mediaType, contentTypeMultipart)
}
