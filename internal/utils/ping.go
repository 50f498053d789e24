package utils

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

var schemePorts = map[string]string{"http": "80", "https": "443"}

// PingService dials the host of serviceURL, returning nil once a TCP connection opens
func PingService(serviceURL string, timeout time.Duration) error {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid URL: %q has no host", serviceURL)
	}
	port := u.Port()
	if port == "" {
		if port = schemePorts[u.Scheme]; port == "" {
			port = "80"
		}
	}

	address := net.JoinHostPort(host, port)
	conn, err := (&net.Dialer{Timeout: timeout}).Dial("tcp", address)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks the Authorizer that validates session tokens
func PingAuthorizer(authzURL string) error {
	return PingService(authzURL, 1500*time.Millisecond)
}

// PingDocumentService checks the remote favorites document service
func PingDocumentService(baseURL string) error {
	return PingService(baseURL, 3*time.Second)
}
