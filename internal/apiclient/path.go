package apiclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Path is a backend path together with the route template it was built
// from. The template labels metrics so ids do not explode cardinality.
type Path struct {
	Route string
	path  string
}

// P fills the {placeholders} of route with args, in order. Each arg is
// path-escaped.
func P(route string, args ...any) Path {
	var b strings.Builder
	rest := route
	for _, arg := range args {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(fmt.Sprint(arg)))
		rest = rest[open+end+1:]
	}
	b.WriteString(rest)
	return Path{Route: route, path: b.String()}
}

func (p Path) String() string {
	if p.path == "" {
		return p.Route
	}
	return p.path
}
