// Package dsn parses the telemetry endpoint descriptor and derives the
// upload URL and authentication material carried in every envelope header.
package dsn

import (
	"errors"
	"strconv"
	"strings"
)

// Errors returned by Parse. They name the exact failure mode so callers can
// distinguish a malformed descriptor from one that is merely incomplete.
var (
	ErrMalformed          = errors.New("dsn: malformed descriptor")
	ErrMissingCredentials = errors.New("dsn: missing credentials")
	ErrMissingHost        = errors.New("dsn: missing host")
	ErrMissingProject     = errors.New("dsn: missing project")
)

// Descriptor is an immutable, parsed endpoint descriptor.
type Descriptor struct {
	Scheme    string
	PublicKey string
	SecretKey string // optional, empty when absent
	Host      string
	Port      string // optional, empty when absent
	Path      string // optional path prefix, no leading/trailing slash
	ProjectID string
}

// Parse parses a descriptor of the form
// {scheme}://{public_key}[:{secret_key}]@{host}[:{port}]/[{path}/]{project_id}.
//
// net/url.Parse is intentionally not used here: it does not distinguish the
// four failure modes below, and it normalizes userinfo/host in ways that
// break byte-exact round-tripping of the secret key and IPv6 brackets.
func Parse(raw string) (*Descriptor, error) {
	scheme, rest, ok := cutScheme(raw)
	if !ok {
		return nil, ErrMalformed
	}

	authority, path, ok := strings.Cut(rest, "/")
	if !ok {
		return nil, ErrMalformed
	}

	userinfo, hostport, ok := strings.Cut(authority, "@")
	if !ok {
		return nil, ErrMissingCredentials
	}

	publicKey, secretKey, _ := strings.Cut(userinfo, ":")
	if publicKey == "" {
		return nil, ErrMissingCredentials
	}

	host, port, err := splitHostPort(hostport)
	if err != nil {
		return nil, err
	}
	if host == "" {
		return nil, ErrMissingHost
	}

	pathPrefix, projectID := splitProject(path)
	if projectID == "" {
		return nil, ErrMissingProject
	}

	return &Descriptor{
		Scheme:    scheme,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Host:      host,
		Port:      port,
		Path:      pathPrefix,
		ProjectID: projectID,
	}, nil
}

func cutScheme(raw string) (scheme, rest string, ok bool) {
	scheme, rest, ok = strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return "", "", false
	}
	return scheme, rest, true
}

// splitHostPort separates host and optional port from a bracketed-or-not
// authority tail, without requiring a port the way net.SplitHostPort does.
func splitHostPort(hostport string) (host, port string, err error) {
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", "", ErrMalformed
		}
		host = hostport[1:end]
		rest := hostport[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", ErrMalformed
		}
		port = rest[1:]
		if _, err := strconv.Atoi(port); err != nil {
			return "", "", ErrMalformed
		}
		return host, port, nil
	}

	if idx := strings.LastIndexByte(hostport, ':'); idx >= 0 {
		host = hostport[:idx]
		port = hostport[idx+1:]
		if _, err := strconv.Atoi(port); err != nil {
			return "", "", ErrMalformed
		}
		return host, port, nil
	}

	return hostport, "", nil
}

// splitProject splits "a/b/project_id" into ("a/b", "project_id").
func splitProject(path string) (prefix, project string) {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// isIPv6 reports whether host should be bracketed when serialized.
func isIPv6(host string) bool {
	return strings.Contains(host, ":")
}

func bracketed(host string) string {
	if isIPv6(host) {
		return "[" + host + "]"
	}
	return host
}

// String reconstructs the original descriptor string, bracketing IPv6 hosts.
func (d *Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Scheme)
	b.WriteString("://")
	b.WriteString(d.PublicKey)
	if d.SecretKey != "" {
		b.WriteByte(':')
		b.WriteString(d.SecretKey)
	}
	b.WriteByte('@')
	b.WriteString(bracketed(d.Host))
	if d.Port != "" {
		b.WriteByte(':')
		b.WriteString(d.Port)
	}
	b.WriteByte('/')
	if d.Path != "" {
		b.WriteString(d.Path)
		b.WriteByte('/')
	}
	b.WriteString(d.ProjectID)
	return b.String()
}

// UploadURL derives the envelope upload URL, always ending in /envelope/.
func (d *Descriptor) UploadURL() string {
	var b strings.Builder
	b.WriteString(d.Scheme)
	b.WriteString("://")
	b.WriteString(bracketed(d.Host))
	if d.Port != "" {
		b.WriteByte(':')
		b.WriteString(d.Port)
	}
	b.WriteByte('/')
	if d.Path != "" {
		b.WriteString(d.Path)
		b.WriteByte('/')
	}
	b.WriteString("api/")
	b.WriteString(d.ProjectID)
	b.WriteString("/envelope/")
	return b.String()
}

// AuthorizationMaterial returns the credentials carried by the descriptor.
func (d *Descriptor) AuthorizationMaterial() (publicKey, secretKey string) {
	return d.PublicKey, d.SecretKey
}
