package probes

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/infrastructure/clock"
)

func TestDialHealthChecker_TCP_Healthy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	checker := NewDialHealthChecker(clock.NewFake(0, 0))
	result, err := checker.Check(context.Background(), ln.Addr().String(), domain.HealthCheckConfig{Protocol: domain.ProtocolTCP, TimeoutS: 2})
	require.NoError(t, err)
	assert.True(t, result.Healthy)
}

func TestDialHealthChecker_TCP_UnreachableIsUnhealthy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close() // nothing listening now

	checker := NewDialHealthChecker(clock.NewFake(0, 0))
	result, err := checker.Check(context.Background(), addr, domain.HealthCheckConfig{Protocol: domain.ProtocolTCP, TimeoutS: 1})
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.NotEmpty(t, result.Message)
}

func TestDialHealthChecker_HTTP_200IsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	endpoint := strings.TrimPrefix(server.URL, "http://")
	checker := NewDialHealthChecker(clock.NewFake(0, 0))
	result, err := checker.Check(context.Background(), endpoint, domain.HealthCheckConfig{Protocol: domain.ProtocolHTTP, Path: "/", TimeoutS: 2})
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestDialHealthChecker_HTTP_NonExact200IsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	endpoint := strings.TrimPrefix(server.URL, "http://")
	checker := NewDialHealthChecker(clock.NewFake(0, 0))
	result, err := checker.Check(context.Background(), endpoint, domain.HealthCheckConfig{Protocol: domain.ProtocolHTTP, Path: "/", TimeoutS: 2})
	require.NoError(t, err)
	assert.False(t, result.Healthy, "only status 200 counts as healthy, not any 2xx")
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestDialHealthChecker_HTTP_5xxIsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	endpoint := strings.TrimPrefix(server.URL, "http://")
	checker := NewDialHealthChecker(clock.NewFake(0, 0))
	result, err := checker.Check(context.Background(), endpoint, domain.HealthCheckConfig{Protocol: domain.ProtocolHTTP, Path: "/", TimeoutS: 2})
	require.NoError(t, err)
	assert.False(t, result.Healthy)
}
