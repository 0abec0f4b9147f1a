package reconcile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
)

// ConfigLoader implements ConfigProvider by fetching the IaC-required and
// external-optional configuration rows from a KVStore, merging IaC first,
// and caching the validated result for the process lifetime, per §4.2.
type ConfigLoader struct {
	kv         ports.KVStore
	iacKey     string
	externalKey string
	policy     domain.MultivaluePolicy

	once    sync.Once
	loadErr error
	bySG    map[string][]domain.SGConfiguration
}

// NewConfigLoader builds a loader against the IaC-required and
// external-optional KV keys. policy governs MULTIVALUE-eligibility
// downgrade/reject for record types outside the eligible set.
func NewConfigLoader(kv ports.KVStore, iacKey, externalKey string, policy domain.MultivaluePolicy) *ConfigLoader {
	return &ConfigLoader{kv: kv, iacKey: iacKey, externalKey: externalKey, policy: policy}
}

// ConfigurationsFor returns the validated SGConfigurations for sgName,
// loading and caching the full configuration set on first use.
func (l *ConfigLoader) ConfigurationsFor(sgName string) ([]domain.SGConfiguration, error) {
	l.once.Do(func() {
		l.bySG, l.loadErr = l.loadAll(context.Background())
	})
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.bySG[sgName], nil
}

func (l *ConfigLoader) loadAll(ctx context.Context) (map[string][]domain.SGConfiguration, error) {
	iac, err := l.loadRow(ctx, l.iacKey, true)
	if err != nil {
		return nil, err
	}
	external, err := l.loadRow(ctx, l.externalKey, false)
	if err != nil {
		return nil, err
	}

	merged := make([]domain.SGConfiguration, 0, len(iac)+len(external))
	merged = append(merged, iac...)
	merged = append(merged, external...)

	bySG := make(map[string][]domain.SGConfiguration)
	for _, cfg := range merged {
		normalized, err := cfg.Normalize(l.policy)
		if err != nil {
			return nil, fmt.Errorf("%w: normalizing configuration for %s: %v", domain.ErrConfig, cfg.SGName, err)
		}
		bySG[normalized.SGName] = append(bySG[normalized.SGName], normalized)
	}
	return bySG, nil
}

// loadRow reads, base64-decodes, and JSON-unmarshals one KV row into a
// list of SGConfiguration. required rows must exist and decode to at
// least one item; the external row is optional and degrades to an empty
// list when absent.
func (l *ConfigLoader) loadRow(ctx context.Context, key string, required bool) ([]domain.SGConfiguration, error) {
	raw, found, err := l.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading configuration key %s: %v", domain.ErrConfig, key, err)
	}
	if !found {
		if required {
			return nil, fmt.Errorf("%w: required configuration key %s not found", domain.ErrConfig, key)
		}
		return nil, nil
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(decoded, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: base64-decoding configuration key %s: %v", domain.ErrConfig, key, err)
	}
	decoded = decoded[:n]

	var items []domain.SGConfiguration
	if err := json.Unmarshal(decoded, &items); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling configuration key %s: %v", domain.ErrConfig, key, err)
	}

	if required && len(items) == 0 {
		return nil, fmt.Errorf("%w: required configuration key %s decoded to zero items", domain.ErrConfig, key)
	}

	return items, nil
}
