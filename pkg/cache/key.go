package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meridianapp/api-client-go/pkg/endpoint"
)

// Key derives the deterministic cache key for an endpoint.
// Format: api:<path>:param1=val1:param2=val2
//
// Query parameters are sorted by name, so two endpoints differing only in
// parameter order always collide to the same key. Method, headers and body
// do not participate: a cache key identifies a fetched resource, and only
// GET responses are ever cached.
func Key(ep endpoint.Endpoint) string {
	parts := []string{"api"}

	if path := strings.Trim(ep.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	if len(ep.Query) > 0 {
		names := make([]string, 0, len(ep.Query))
		for name := range ep.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			// Repeated parameters keep their submission order.
			for _, value := range ep.Query[name] {
				parts = append(parts, fmt.Sprintf("%s=%s", name, value))
			}
		}
	}

	return strings.Join(parts, ":")
}
