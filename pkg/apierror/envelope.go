package apierror

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The API emits error bodies in two shapes. The flat form:
//
//	{"message": "quota exceeded"}
//
// and the list form:
//
//	{"errors": [{"title": "Invalid request", "detail": "missing field 'name'"}]}
//
// MessageFromBody tries both and returns the extracted message, or "" when
// the body matches neither shape.
func MessageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var flat struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Message != "" {
		return flat.Message
	}

	var list struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list.Errors) > 0 {
		parts := make([]string, 0, len(list.Errors))
		for _, e := range list.Errors {
			switch {
			case e.Title != "" && e.Detail != "":
				parts = append(parts, fmt.Sprintf("%s: %s", e.Title, e.Detail))
			case e.Title != "":
				parts = append(parts, e.Title)
			case e.Detail != "":
				parts = append(parts, e.Detail)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	return ""
}
