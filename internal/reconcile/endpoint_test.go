package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asgdns/reconciler/internal/core/domain"
)

func TestResolveHealthEndpoint(t *testing.T) {
	instance := domain.Instance{
		InstanceID: "i-1",
		Metadata:   domain.InstanceMetadata{PrivateIPv4: "10.0.0.5", PublicIPv4: "1.2.3.4"},
	}

	endpoint, err := ResolveHealthEndpoint(instance, "ip:v4:private", 8080)
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8080", endpoint)
}

func TestResolveHealthEndpoint_EmptyValueIsValueSourceError(t *testing.T) {
	instance := domain.Instance{InstanceID: "i-1"}

	_, err := ResolveHealthEndpoint(instance, "ip:v4:public", 443)
	assert.ErrorIs(t, err, domain.ErrValueSource)
}

func TestResolveHealthEndpoint_UnrecognizedSource(t *testing.T) {
	instance := domain.Instance{InstanceID: "i-1"}

	_, err := ResolveHealthEndpoint(instance, "bogus", 443)
	assert.ErrorIs(t, err, domain.ErrValueSource)
}
