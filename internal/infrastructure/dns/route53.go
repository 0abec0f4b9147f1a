package dns

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/route53/route53iface"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/core/resilience"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/internal/reconcile"
)

// Route53Provider implements ports.DNSProvider over the classic
// aws/aws-sdk-go v1 route53 client, matching the major version grounded in
// the pack's newrelic-forks-external-dns/go.mod. It embeds a
// *reconcile.Planner for the provider-agnostic half of plan generation and
// supplies only the Route 53 wire format: TXT value quoting, SRV
// "<priority> <weight> <port> <target>" concatenation, and trailing-dot
// name normalization.
type Route53Provider struct {
	client  route53iface.Route53API
	planner *reconcile.Planner
	retry   *resilience.RetryPolicy
}

// NewRoute53Provider wraps an already-configured Route 53 client. Reads and
// writes both retry under the same throttling-aware policy as EC2Discovery,
// since Route 53's ChangeResourceRecordSets is commonly rate-limited per
// hosted zone.
func NewRoute53Provider(client route53iface.Route53API, kv ports.KVStore) *Route53Provider {
	policy := resilience.DefaultRetryPolicy()
	policy.ErrorChecker = route53RetryChecker{}
	return &Route53Provider{client: client, planner: reconcile.NewPlanner(kv), retry: policy}
}

type route53RetryChecker struct{}

func (route53RetryChecker) IsRetryable(err error) bool {
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return true
	}
	switch awsErr.Code() {
	case "Throttling", "ThrottlingException", "PriorRequestNotComplete", "InternalError", "ServiceUnavailable":
		return true
	default:
		return false
	}
}

func (p *Route53Provider) NormalizeName(name, zoneID string) string {
	return strings.TrimSuffix(name, ".") + "."
}

func (p *Route53Provider) ReadRecord(ctx context.Context, zoneID, name string, recordType domain.RecordType) (*ports.ResourceRecordSet, error) {
	normalized := p.NormalizeName(name, zoneID)

	out, err := resilience.WithRetryFunc(ctx, p.retry, func() (*route53.ListResourceRecordSetsOutput, error) {
		return p.client.ListResourceRecordSetsWithContext(ctx, &route53.ListResourceRecordSetsInput{
			HostedZoneId:    aws.String(zoneID),
			StartRecordName: aws.String(normalized),
			StartRecordType: aws.String(string(recordType)),
			MaxItems:        aws.String("1"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing record sets: %w", err)
	}

	for _, rr := range out.ResourceRecordSets {
		if aws.StringValue(rr.Name) != normalized || aws.StringValue(rr.Type) != string(recordType) {
			continue
		}
		values := make([]string, 0, len(rr.ResourceRecords))
		for _, v := range rr.ResourceRecords {
			values = append(values, unwireValue(recordType, aws.StringValue(v.Value)))
		}
		return &ports.ResourceRecordSet{
			Name:   normalized,
			Type:   recordType,
			TTL:    int(aws.Int64Value(rr.TTL)),
			Values: values,
		}, nil
	}
	return nil, nil
}

func (p *Route53Provider) GenerateChangeRequest(ctx context.Context, cmd domain.DnsChangeCommand) (domain.DNSChangeRequest, error) {
	return p.planner.GenerateChangeRequest(ctx, p.ReadRecord, cmd)
}

func (p *Route53Provider) ApplyChange(ctx context.Context, req domain.DNSChangeRequest) (ports.DNSChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, err
	}
	if req.Action == domain.ActionIgnore {
		return ports.DNSChangeResponse{Success: true, Message: "ignored"}, nil
	}

	action, err := route53Action(req.Action)
	if err != nil {
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, err
	}

	records := make([]*route53.ResourceRecord, 0, len(req.Values))
	for _, v := range req.Values {
		records = append(records, &route53.ResourceRecord{Value: aws.String(wireValue(req, v))})
	}

	out, err := resilience.WithRetryFunc(ctx, p.retry, func() (*route53.ChangeResourceRecordSetsOutput, error) {
		return p.client.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
			HostedZoneId: aws.String(req.ZoneID),
			ChangeBatch: &route53.ChangeBatch{
				Changes: []*route53.Change{{
					Action: aws.String(action),
					ResourceRecordSet: &route53.ResourceRecordSet{
						Name:            aws.String(p.NormalizeName(req.RecordName, req.ZoneID)),
						Type:            aws.String(string(req.RecordType)),
						TTL:             aws.Int64(int64(req.TTL)),
						ResourceRecords: records,
					},
				}},
			},
		})
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return ports.DNSChangeResponse{Success: false, Message: aerr.Message()}, fmt.Errorf("%w: %s", domain.ErrAdapter, aerr.Message())
		}
		return ports.DNSChangeResponse{Success: false, Message: err.Error()}, fmt.Errorf("%w: %v", domain.ErrAdapter, err)
	}

	return ports.DNSChangeResponse{
		Success: true,
		Message: fmt.Sprintf("change submitted: %s", aws.StringValue(out.ChangeInfo.Id)),
		Metadata: map[string]string{
			"change_id": aws.StringValue(out.ChangeInfo.Id),
			"status":    aws.StringValue(out.ChangeInfo.Status),
		},
	}, nil
}

func route53Action(action domain.ChangeAction) (string, error) {
	switch action {
	case domain.ActionCreate:
		return route53.ChangeActionCreate, nil
	case domain.ActionUpdate:
		return route53.ChangeActionUpsert, nil
	case domain.ActionDelete:
		return route53.ChangeActionDelete, nil
	default:
		return "", fmt.Errorf("%w: unsupported route53 change action %s", domain.ErrValidation, action)
	}
}

// wireValue implements §6's wire format: an SRV value is the bare target
// from the planner's Values and is written as
// "<priority> <weight> <port> <target>" using the request's SRVPriority,
// SRVWeight and SRVPort; TXT values are quoted.
func wireValue(req domain.DNSChangeRequest, value string) string {
	switch req.RecordType {
	case domain.RecordTypeTXT:
		return fmt.Sprintf("%q", value)
	case domain.RecordTypeSRV:
		return fmt.Sprintf("%d %d %d %s", req.SRVPriority, req.SRVWeight, req.SRVPort, value)
	default:
		return value
	}
}

func unwireValue(recordType domain.RecordType, wire string) string {
	switch recordType {
	case domain.RecordTypeTXT:
		return strings.Trim(wire, `"`)
	case domain.RecordTypeSRV:
		parts := strings.SplitN(wire, " ", 4)
		if len(parts) == 4 {
			return parts[3]
		}
		return wire
	default:
		return wire
	}
}
