package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asgdns/reconciler/internal/core/domain"
)

func TestWireValue_TXT_IsQuoted(t *testing.T) {
	req := domain.DNSChangeRequest{RecordType: domain.RecordTypeTXT}
	assert.Equal(t, `"hello"`, wireValue(req, "hello"))
}

func TestWireValue_SRV_ConcatenatesPriorityWeightPort(t *testing.T) {
	req := domain.DNSChangeRequest{RecordType: domain.RecordTypeSRV, SRVPriority: 10, SRVWeight: 20, SRVPort: 443}
	assert.Equal(t, "10 20 443 target.example.com", wireValue(req, "target.example.com"))
}

func TestWireValue_A_PassesThrough(t *testing.T) {
	req := domain.DNSChangeRequest{RecordType: domain.RecordTypeA}
	assert.Equal(t, "10.0.0.1", wireValue(req, "10.0.0.1"))
}

func TestUnwireValue_TXT_StripsQuotes(t *testing.T) {
	assert.Equal(t, "hello", unwireValue(domain.RecordTypeTXT, `"hello"`))
}

func TestUnwireValue_SRV_ExtractsTarget(t *testing.T) {
	assert.Equal(t, "target.example.com", unwireValue(domain.RecordTypeSRV, "10 20 443 target.example.com"))
}

func TestUnwireValue_RoundTripsThroughWireValue(t *testing.T) {
	req := domain.DNSChangeRequest{RecordType: domain.RecordTypeSRV, SRVPriority: 1, SRVWeight: 2, SRVPort: 3}
	wire := wireValue(req, "target.example.com")
	assert.Equal(t, "target.example.com", unwireValue(domain.RecordTypeSRV, wire))
}

func TestRoute53Action_MapsEachAction(t *testing.T) {
	create, err := route53Action(domain.ActionCreate)
	assert.NoError(t, err)
	assert.Equal(t, "CREATE", create)

	update, err := route53Action(domain.ActionUpdate)
	assert.NoError(t, err)
	assert.Equal(t, "UPSERT", update)

	del, err := route53Action(domain.ActionDelete)
	assert.NoError(t, err)
	assert.Equal(t, "DELETE", del)

	_, err = route53Action(domain.ActionIgnore)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
