package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/httputil"
)

type contextKey string

const valuesContextKey contextKey = "validated_values"

// maxMemory is the part of a multipart body kept in memory; the rest spills
// to temporary files.
const maxMemory = 1 << 20

// Gate parses the request body, checks it against schema, and only calls
// next when every rule passed. The validated values are available to the
// handler through ValuesFrom.
func Gate(schema Schema) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lookup, err := parseBody(r)
			if err != nil {
				httputil.RespondError(w, r, err)
				return
			}

			values, err := schema.Check(lookup)
			if err != nil {
				httputil.RespondError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithValues(r.Context(), values)))
		})
	}
}

// WithValues returns a copy of ctx carrying values.
func WithValues(ctx context.Context, values Values) context.Context {
	return context.WithValue(ctx, valuesContextKey, values)
}

// ValuesFrom returns the values stored by Gate, or an empty set.
func ValuesFrom(ctx context.Context) Values {
	if values, ok := ctx.Value(valuesContextKey).(Values); ok {
		return values
	}
	return Values{}
}

func parseBody(r *http.Request) (Lookup, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, invalidBody()
		}
		return formLookup(r), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, invalidBody()
		}
		return formLookup(r), nil
	default:
		return jsonLookup(r)
	}
}

func formLookup(r *http.Request) Lookup {
	return func(name string) (string, bool) {
		values, ok := r.PostForm[name]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}
}

func jsonLookup(r *http.Request) (Lookup, error) {
	fields := map[string]any{}
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
			return nil, invalidBody()
		}
	}

	return func(name string) (string, bool) {
		raw, ok := fields[name]
		if !ok || raw == nil {
			return "", false
		}
		switch v := raw.(type) {
		case string:
			return v, true
		case float64, bool:
			return fmt.Sprint(v), true
		default:
			return "", true
		}
	}, nil
}

func invalidBody() error {
	return apperror.Validation(map[string][]string{"body": {"must be a JSON object or form data"}})
}
