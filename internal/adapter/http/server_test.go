package http

import (
	"net"
	"testing"
)

func TestListenIncrementsPastBusyPort(t *testing.T) {
	// Occupy an ephemeral port, then ask Listen to start there.
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	base := busy.Addr().(*net.TCPAddr).Port

	ln, port, err := Listen(base)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if port == base {
		t.Errorf("Listen must not bind the busy port %d", base)
	}
	if port < base {
		t.Errorf("Listen should walk upward from %d, got %d", base, port)
	}
}

func TestListenBindsBasePortWhenFree(t *testing.T) {
	// Find a free port, release it, and expect Listen to take it directly.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := probe.Addr().(*net.TCPAddr).Port
	probe.Close()

	ln, port, err := Listen(base)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if port != base {
		t.Errorf("expected port %d, got %d", base, port)
	}
	if got := ln.Addr().(*net.TCPAddr).IP.String(); got != "127.0.0.1" {
		t.Errorf("listener must be loopback-only, got %s", got)
	}
}
