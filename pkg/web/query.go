package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// QueryValues returns every non-blank value of a repeatable query parameter.
// Comma separated values are split, so ?category=a,b equals ?category=a&category=b.
func QueryValues(r *http.Request, key string) []string {
	var values []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// ParseOptionalBool reads a boolean query parameter. A missing parameter yields nil.
// An unparsable one is answered with a 400 and false.
func ParseOptionalBool(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (*bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		RespondJSON(w, logger, http.StatusBadRequest, map[string]any{
			"validation_errors": map[string]string{key: "failed on rule: boolean"},
		})
		return nil, false
	}
	return &value, true
}
