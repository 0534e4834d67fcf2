package util

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	absoluteURLRoot      = regexp.MustCompile(`^https?://`)
	protocolRelativeRoot = regexp.MustCompile(`^//.`)
)

// DetermineFullURLRoot turns the configured URL root into an absolute URL
// that external programs such as media players can resolve.
func DetermineFullURLRoot(root, address string) (string, error) {
	// Handle "http://host:port/"
	if absoluteURLRoot.MatchString(root) {
		return root, nil
	}
	// Handle "//host:port/"
	if protocolRelativeRoot.MatchString(root) {
		// Assume plain HTTP. If you are smart enough to set up HTTPS you are
		// also smart enough to configure the URLRoot.
		return "http:" + root, nil
	}
	// Handle "/"
	if root == "/" {
		i := strings.LastIndex(address, ":")
		if i == -1 {
			return "", fmt.Errorf("unsupported bind address: %q", address)
		}
		host, port := address[:i], address[i+1:]
		if host == "" || host == "0.0.0.0" {
			host = "127.0.0.1"
		} else if host == "[::]" {
			host = "[::1]"
		}
		return fmt.Sprintf("http://%s:%s/", host, port), nil
	}
	// Give up
	return "", fmt.Errorf("unsupported URL root format: %q", root)
}
