package probes

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// DialHealthChecker implements ports.HealthChecker with a raw TCP connect
// for ProtocolTCP and an HTTP(S) GET for ProtocolHTTP/ProtocolHTTPS, each
// bounded by the config's timeout_seconds.
type DialHealthChecker struct {
	clock ports.Clock
}

// NewDialHealthChecker constructs a DialHealthChecker, timing each probe
// via clock.
func NewDialHealthChecker(clock ports.Clock) *DialHealthChecker {
	return &DialHealthChecker{clock: clock}
}

func (h *DialHealthChecker) Check(ctx context.Context, endpoint string, cfg domain.HealthCheckConfig) (domain.HealthCheckResult, error) {
	start := h.clock.Monotonic()
	timeout := time.Duration(cfg.TimeoutS) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var healthy bool
	var status int
	var message string

	switch cfg.Protocol {
	case domain.ProtocolHTTP, domain.ProtocolHTTPS:
		scheme := "http"
		if cfg.Protocol == domain.ProtocolHTTPS {
			scheme = "https"
		}
		url := scheme + "://" + endpoint + cfg.Path

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			message = err.Error()
			break
		}
		client := &http.Client{Timeout: timeout}
		resp, err := client.Do(req)
		if err != nil {
			message = err.Error()
			break
		}
		resp.Body.Close()
		status = resp.StatusCode
		healthy = status == http.StatusOK
		if !healthy {
			message = "unexpected status " + strconv.Itoa(status)
		}

	default: // ProtocolTCP
		dialer := &net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, "tcp", endpoint)
		if err != nil {
			message = err.Error()
			break
		}
		conn.Close()
		healthy = true
	}

	elapsed := time.Duration(h.clock.Monotonic() - start)
	return domain.HealthCheckResult{
		Healthy:     healthy,
		Protocol:    cfg.Protocol,
		Endpoint:    endpoint,
		Status:      status,
		Message:     message,
		TimeTakenMs: elapsed.Milliseconds(),
		ConfigHash:  cfg.Hash(),
	}, nil
}
