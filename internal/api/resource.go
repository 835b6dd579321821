package api

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Upstream endpoint paths, relative to the API base URL.
const (
	TokenPath       = "token/"
	SalesLatestPath = "ventas/?ordering=-fecha&limit=1"
)

// TokenURL returns the credential-exchange endpoint for the given base.
func TokenURL(base string) string {
	return base + TokenPath
}

// SalesURL returns the latest-sale collection endpoint for the given base.
// The server sorts descending by date and limits to one result.
func SalesURL(base string) string {
	return base + SalesLatestPath
}

// ResourceID extracts the numeric id from a resource's self-referential URL:
// the path segment immediately before the trailing slash. Both ".../42/" and
// ".../42" parse to 42. Non-numeric and non-positive ids are errors.
func ResourceID(rawurl string) (int64, error) {
	s := strings.TrimSpace(rawurl)
	s = strings.TrimSuffix(s, "/")

	i := strings.LastIndexByte(s, '/')
	if i < 0 || i == len(s)-1 {
		return 0, errors.Newf("no id segment in %q", rawurl)
	}

	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "id segment of %q", rawurl)
	}
	if id <= 0 {
		return 0, errors.Newf("non-positive id %d in %q", id, rawurl)
	}
	return id, nil
}
