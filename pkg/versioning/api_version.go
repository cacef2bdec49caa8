// Package versioning parses the X-API-Version request header.
package versioning

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Header is the request and response header carrying the API version.
const Header = "X-API-Version"

type APIVersion struct {
	Major int
	Minor int
}

// Current is the version this build of the API serves.
var Current = APIVersion{Major: 1, Minor: 0}

func (v APIVersion) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Supports reports whether a server at v can answer a client asking for requested.
// Minor versions are additive, so any minor of the same major is accepted.
func (v APIVersion) Supports(requested APIVersion) bool {
	return requested.Major == v.Major
}

// ParseVersion "v1.2" -> APIVersion{1, 2}. An empty header means Current; unparsable
// parts fall back to 1 and 0.
func ParseVersion(header string) APIVersion {
	header = strings.TrimSpace(header)
	if header == "" {
		return Current
	}

	clean := strings.TrimPrefix(strings.ToLower(header), "v")
	parts := strings.Split(clean, ".")

	major := 1
	minor := 0

	if len(parts) > 0 {
		if v, err := strconv.Atoi(parts[0]); err == nil {
			major = v
		}
	}
	if len(parts) > 1 {
		if v, err := strconv.Atoi(parts[1]); err == nil {
			minor = v
		}
	}

	return APIVersion{Major: major, Minor: minor}
}

type contextKey string

const keyAPIVersion contextKey = "api_version"

// WithVersion returns a context carrying v.
func WithVersion(ctx context.Context, v APIVersion) context.Context {
	return context.WithValue(ctx, keyAPIVersion, v)
}

// FromContext returns the version stored by WithVersion, or Current.
func FromContext(ctx context.Context) APIVersion {
	if v, ok := ctx.Value(keyAPIVersion).(APIVersion); ok {
		return v
	}
	return Current
}
