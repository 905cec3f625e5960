package store

import (
	"fmt"
	"strings"
)

// URI is a parsed object-store location, scheme://bucket/prefix.
type URI struct {
	Scheme string
	Bucket string
	Prefix string
}

func (u URI) String() string {
	if u.Prefix == "" {
		return fmt.Sprintf("%s://%s", u.Scheme, u.Bucket)
	}
	return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Bucket, u.Prefix)
}

// ParseURI splits an object-store URI. Accepted schemes are gs and s3.
func ParseURI(s string) (URI, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return URI{}, fmt.Errorf("not an object store URI: %q", s)
	}
	scheme := strings.ToLower(s[:idx])
	switch scheme {
	case "gs", "s3":
	default:
		return URI{}, fmt.Errorf("unsupported scheme %q in %q", scheme, s)
	}
	rest := s[idx+3:]
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("missing bucket in %q", s)
	}
	return URI{Scheme: scheme, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// DefaultEndpoint returns the interop endpoint for a scheme when no explicit
// endpoint is configured. Google Cloud Storage serves the S3 XML API at
// storage.googleapis.com; plain s3 relies on the SDK's own resolution.
func DefaultEndpoint(scheme string) string {
	if scheme == "gs" {
		return "https://storage.googleapis.com"
	}
	return ""
}
