package utils

import (
	"strings"
)

// NormalizeServerURL trims trailing slash and determines if TLS verification should be skipped
func NormalizeServerURL(serverURL string) (string, bool) {
	serverURL = strings.TrimSpace(serverURL)
	serverURL = strings.TrimSuffix(serverURL, "/")
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		serverURL = "http://" + serverURL
	}
	useHTTPS := strings.HasPrefix(serverURL, "https://")
	skipTLSVerify := useHTTPS && (strings.Contains(serverURL, "localhost") ||
		strings.Contains(serverURL, "127.0.0.1"))
	return serverURL, skipTLSVerify
}
