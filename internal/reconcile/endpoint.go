package reconcile

import (
	"fmt"
	"net"
	"strconv"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/metadata"
)

// ResolveHealthEndpoint implements EndpointResolver by resolving
// endpointSource through the metadata resolver and joining the result with
// port, per §4.5 ("resolve the endpoint address using the metadata resolver
// against the loaded instance").
func ResolveHealthEndpoint(instance domain.Instance, endpointSource string, port int) (string, error) {
	resolved, err := metadata.Resolve(instance, endpointSource)
	if err != nil {
		return "", err
	}
	if resolved.Value == "" {
		return "", fmt.Errorf("%w: endpoint_source %q resolved to an empty value for instance %s", domain.ErrValueSource, endpointSource, instance.InstanceID)
	}
	return net.JoinHostPort(resolved.Value, strconv.Itoa(port)), nil
}
