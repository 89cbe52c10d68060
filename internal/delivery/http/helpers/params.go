package helpers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PathUUID returns the named path value if it is a UUID. Otherwise it writes a 400 and
// returns false.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if _, err := uuid.Parse(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("%s must be a UUID", name))
		return "", false
	}
	return v, true
}

// QueryTime parses an optional RFC 3339 timestamp or YYYY-MM-DD date from the query string.
// Dates are read in loc. A missing value yields the zero time.
func QueryTime(r *http.Request, name string, loc *time.Location) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD", name)
	}
	return t, nil
}
