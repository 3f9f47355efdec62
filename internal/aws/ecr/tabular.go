package ecr

import (
	"errors"
	"strings"
)

// uriField is the 1-based column holding the repository URI in
// `aws ecr create-repository --output text`.
const uriField = 6

// ErrNoURIField is returned when no row of the text output has a URI column.
var ErrNoURIField = errors.New("no row with a repository URI field")

// ParseRepositoryURI extracts the repository URI from the text output of
// `aws ecr create-repository`. Fields are split on runs of whitespace, so
// tabs and spaces are treated alike. The first row with at least six fields wins.
func ParseRepositoryURI(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= uriField {
			return fields[uriField-1], nil
		}
	}
	return "", ErrNoURIField
}

// RegistryHost returns the registry host of an image URI, that is everything
// before the first "/". Scheme prefixes such as https:// are stripped.
func RegistryHost(uri string) string {
	uri = strings.TrimPrefix(uri, "https://")
	uri = strings.TrimPrefix(uri, "http://")
	host, _, _ := strings.Cut(uri, "/")
	return host
}
