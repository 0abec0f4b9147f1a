package reconcile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/infrastructure/kv"
)

func sampleConfig(sgName string) domain.SGConfiguration {
	return domain.SGConfiguration{
		SGName: sgName,
		DNSConfig: domain.DNSRecordConfig{
			Provider: domain.ProviderMock, ZoneID: "z1", RecordName: "svc.example.com",
			RecordType: domain.RecordTypeA, RecordTTL: 60, Mode: domain.ModeMultivalue,
			EmptyMode: domain.EmptySetDelete, ValueSource: "ip:v4:private",
		},
	}
}

func putRow(t *testing.T, store *kv.MockStore, key string, cfgs []domain.SGConfiguration) {
	t.Helper()
	raw, err := json.Marshal(cfgs)
	require.NoError(t, err)
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(encoded, raw)
	require.NoError(t, store.Put(context.Background(), key, encoded))
}

func TestConfigLoader_MergesIaCAndExternalFirst(t *testing.T) {
	store := kv.NewMockStore()
	putRow(t, store, "iac", []domain.SGConfiguration{sampleConfig("sg-1")})
	putRow(t, store, "external", []domain.SGConfiguration{sampleConfig("sg-1"), sampleConfig("sg-2")})

	loader := NewConfigLoader(store, "iac", "external", domain.MultivalueDowngrade)

	sg1, err := loader.ConfigurationsFor("sg-1")
	require.NoError(t, err)
	assert.Len(t, sg1, 2, "iac row comes first, external appended")

	sg2, err := loader.ConfigurationsFor("sg-2")
	require.NoError(t, err)
	assert.Len(t, sg2, 1)
}

func TestConfigLoader_MissingRequiredRow(t *testing.T) {
	store := kv.NewMockStore()
	loader := NewConfigLoader(store, "iac", "external", domain.MultivalueDowngrade)

	_, err := loader.ConfigurationsFor("sg-1")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestConfigLoader_MissingOptionalRowDegradesToEmpty(t *testing.T) {
	store := kv.NewMockStore()
	putRow(t, store, "iac", []domain.SGConfiguration{sampleConfig("sg-1")})

	loader := NewConfigLoader(store, "iac", "external", domain.MultivalueDowngrade)

	cfgs, err := loader.ConfigurationsFor("sg-1")
	require.NoError(t, err)
	assert.Len(t, cfgs, 1)
}

func TestConfigLoader_CachesAcrossCalls(t *testing.T) {
	store := kv.NewMockStore()
	putRow(t, store, "iac", []domain.SGConfiguration{sampleConfig("sg-1")})
	loader := NewConfigLoader(store, "iac", "external", domain.MultivalueDowngrade)

	_, err := loader.ConfigurationsFor("sg-1")
	require.NoError(t, err)

	// Mutating the backing store after the first load must not affect the
	// cached result: the once.Do loads exactly once per process lifetime.
	require.NoError(t, store.Put(context.Background(), "iac", []byte("garbage")))

	cfgs, err := loader.ConfigurationsFor("sg-1")
	require.NoError(t, err)
	assert.Len(t, cfgs, 1)
}

func TestConfigLoader_UnknownScalingGroupReturnsEmpty(t *testing.T) {
	store := kv.NewMockStore()
	putRow(t, store, "iac", []domain.SGConfiguration{sampleConfig("sg-1")})
	loader := NewConfigLoader(store, "iac", "external", domain.MultivalueDowngrade)

	cfgs, err := loader.ConfigurationsFor("sg-missing")
	require.NoError(t, err)
	assert.Empty(t, cfgs)
}
