package dns

import (
	"context"
	"fmt"
	"strings"

	cf "github.com/cloudflare/cloudflare-go"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/internal/reconcile"
)

// CloudflareProvider implements ports.DNSProvider over cloudflare-go.
// Cloudflare has no native SRV-as-single-string representation, so SRV
// target/port/weight/priority are carried in the client's structured
// SRVData rather than the Route 53-style concatenated string; this is the
// one place the wire format genuinely differs per provider.
type CloudflareProvider struct {
	client  *cf.API
	zoneID  string
	planner *reconcile.Planner
}

// NewCloudflareProvider wraps an already-configured cloudflare-go client.
func NewCloudflareProvider(client *cf.API, kv ports.KVStore) *CloudflareProvider {
	return &CloudflareProvider{client: client, planner: reconcile.NewPlanner(kv)}
}

func (p *CloudflareProvider) NormalizeName(name, zoneID string) string {
	return strings.TrimSuffix(name, ".")
}

func (p *CloudflareProvider) ReadRecord(ctx context.Context, zoneID, name string, recordType domain.RecordType) (*ports.ResourceRecordSet, error) {
	normalized := p.NormalizeName(name, zoneID)

	records, _, err := p.client.ListDNSRecords(ctx, cf.ZoneIdentifier(zoneID), cf.ListDNSRecordsParams{
		Name: normalized,
		Type: string(recordType),
	})
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(records))
	ttl := records[0].TTL
	for _, r := range records {
		values = append(values, cloudflareValue(recordType, r))
	}
	return &ports.ResourceRecordSet{Name: normalized, Type: recordType, TTL: ttl, Values: values}, nil
}

func (p *CloudflareProvider) GenerateChangeRequest(ctx context.Context, cmd domain.DnsChangeCommand) (domain.DNSChangeRequest, error) {
	return p.planner.GenerateChangeRequest(ctx, p.ReadRecord, cmd)
}

func (p *CloudflareProvider) ApplyChange(ctx context.Context, req domain.DNSChangeRequest) (ports.DNSChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, err
	}
	if req.Action == domain.ActionIgnore {
		return ports.DNSChangeResponse{Success: true, Message: "ignored"}, nil
	}

	zone := cf.ZoneIdentifier(req.ZoneID)
	name := p.NormalizeName(req.RecordName, req.ZoneID)

	existing, _, err := p.client.ListDNSRecords(ctx, zone, cf.ListDNSRecordsParams{Name: name, Type: string(req.RecordType)})
	if err != nil {
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: listing existing records: %v", domain.ErrAdapter, err)
	}

	switch req.Action {
	case domain.ActionDelete:
		for _, r := range existing {
			if _, err := p.client.DeleteDNSRecord(ctx, zone, r.ID); err != nil {
				return ports.DNSChangeResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: deleting record: %v", domain.ErrAdapter, err)
			}
		}
		return ports.DNSChangeResponse{Success: true, Message: "deleted"}, nil

	default: // CREATE, UPDATE: reconcile by deleting anything stale, then creating desired values
		existingByValue := make(map[string]string, len(existing))
		for _, r := range existing {
			existingByValue[cloudflareValue(req.RecordType, r)] = r.ID
		}

		desired := make(map[string]struct{}, len(req.Values))
		for _, v := range req.Values {
			desired[v] = struct{}{}
		}

		for value, id := range existingByValue {
			if _, keep := desired[value]; !keep {
				if _, err := p.client.DeleteDNSRecord(ctx, zone, id); err != nil {
					return ports.DNSChangeResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: removing stale record: %v", domain.ErrAdapter, err)
				}
			}
		}

		for _, v := range req.Values {
			if _, already := existingByValue[v]; already {
				continue
			}
			params := cf.CreateDNSRecordParams{
				Type:    string(req.RecordType),
				Name:    name,
				Content: v,
				TTL:     req.TTL,
			}
			if req.RecordType == domain.RecordTypeSRV {
				params.Data = cf.SRVData{
					Priority: uint16(req.SRVPriority),
					Weight:   uint16(req.SRVWeight),
					Port:     uint16(req.SRVPort),
					Target:   v,
				}
				params.Content = ""
			}
			if _, err := p.client.CreateDNSRecord(ctx, zone, params); err != nil {
				return ports.DNSChangeResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: creating record: %v", domain.ErrAdapter, err)
			}
		}
		return ports.DNSChangeResponse{Success: true, Message: fmt.Sprintf("applied %s", req.Action)}, nil
	}
}

func cloudflareValue(recordType domain.RecordType, r cf.DNSRecord) string {
	if recordType == domain.RecordTypeSRV {
		if srv, ok := r.Data.(map[string]interface{}); ok {
			if target, ok := srv["target"].(string); ok {
				return target
			}
		}
	}
	return r.Content
}
