package utils

import (
	"net"
	"testing"
	"time"
)

func TestPingService_Reachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()

	if err := PingService("http://"+ln.Addr().String(), time.Second); err != nil {
		t.Errorf("Expected reachable service, got %v", err)
	}
}

func TestPingService_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if err := PingService("http://"+addr, 200*time.Millisecond); err == nil {
		t.Errorf("Expected error for closed port")
	}
}

func TestPingService_NoHost(t *testing.T) {
	if err := PingService("not a url", time.Second); err == nil {
		t.Errorf("Expected error for URL without host")
	}
}
