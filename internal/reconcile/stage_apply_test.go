package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/infrastructure/dns"
	"github.com/asgdns/reconciler/internal/infrastructure/kv"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/internal/reconcile"
)

func TestStageApplyDNS_AppliesChangeThroughProvider(t *testing.T) {
	store := kv.NewMockStore()
	provider := dns.NewMockProvider(store)
	providers := map[domain.DNSProviderKind]ports.DNSProvider{domain.ProviderMock: provider}

	instCtx := &domain.InstanceLifecycleContext{
		InstanceID: "i-1",
		SGConfig:   domain.SGConfiguration{DNSConfig: domain.DNSRecordConfig{Provider: domain.ProviderMock}},
	}
	sg := &domain.ScalingGroupLifecycleContext{
		Event: domain.LifecycleEvent{ScalingGroupName: "sg-1"},
		DNSChanges: []domain.DNSChangeEntry{{
			Context: instCtx,
			Change: domain.DNSChangeRequest{
				Action: domain.ActionCreate, ZoneID: "z1", RecordName: "svc.example.com.",
				RecordType: domain.RecordTypeA, TTL: 60, Values: []string{"10.0.0.1"},
			},
		}},
	}

	stage := reconcile.StageApplyDNS(providers, nil, nil)
	err := stage(context.Background(), sg)
	require.NoError(t, err)

	rr, err := provider.ReadRecord(context.Background(), "z1", "svc.example.com.", domain.RecordTypeA)
	require.NoError(t, err)
	require.NotNil(t, rr)
	assert.Equal(t, []string{"10.0.0.1"}, rr.Values)
}

func TestStageApplyDNS_WhatIfSkipsApply(t *testing.T) {
	provider := dns.NewMockProvider(kv.NewMockStore())
	providers := map[domain.DNSProviderKind]ports.DNSProvider{domain.ProviderMock: provider}

	instCtx := &domain.InstanceLifecycleContext{
		InstanceID: "i-1",
		SGConfig:   domain.SGConfiguration{WhatIf: true, DNSConfig: domain.DNSRecordConfig{Provider: domain.ProviderMock}},
	}
	sg := &domain.ScalingGroupLifecycleContext{
		DNSChanges: []domain.DNSChangeEntry{{
			Context: instCtx,
			Change: domain.DNSChangeRequest{
				Action: domain.ActionCreate, ZoneID: "z1", RecordName: "svc.example.com.",
				RecordType: domain.RecordTypeA, TTL: 60, Values: []string{"10.0.0.1"},
			},
		}},
	}

	stage := reconcile.StageApplyDNS(providers, nil, nil)
	err := stage(context.Background(), sg)
	require.NoError(t, err)

	rr, err := provider.ReadRecord(context.Background(), "z1", "svc.example.com.", domain.RecordTypeA)
	require.NoError(t, err)
	assert.Nil(t, rr, "what_if must not mutate the provider")
}

func TestStageApplyDNS_IgnoreActionIsSkipped(t *testing.T) {
	provider := dns.NewMockProvider(kv.NewMockStore())
	providers := map[domain.DNSProviderKind]ports.DNSProvider{domain.ProviderMock: provider}

	instCtx := &domain.InstanceLifecycleContext{InstanceID: "i-1", SGConfig: domain.SGConfiguration{DNSConfig: domain.DNSRecordConfig{Provider: domain.ProviderMock}}}
	sg := &domain.ScalingGroupLifecycleContext{
		DNSChanges: []domain.DNSChangeEntry{{Context: instCtx, Change: domain.IgnoreChange}},
	}

	stage := reconcile.StageApplyDNS(providers, nil, nil)
	err := stage(context.Background(), sg)
	require.NoError(t, err)
}
