// Package discovery provides ports.InstanceDiscovery implementations: an
// EC2/AutoScaling adapter and an in-memory mock for tests.
package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/core/resilience"
)

// describeRateLimit self-throttles describe calls well under EC2/AutoScaling's
// default account-level request quotas, so a single reconciliation run never
// contributes to the throttling it also has to retry around.
const describeRateLimit = 20

// instanceCacheSize bounds the per-process DescribeInstances cache. A single
// reconciliation only ever touches one triggering instance plus its scaling
// group's members, so this comfortably covers the largest realistic SG.
const instanceCacheSize = 512

// EC2Discovery implements ports.InstanceDiscovery over the classic
// aws/aws-sdk-go v1 ec2/autoscaling clients, grounded on
// components/discovery/internal/aws/* for the shape of the query (describe
// instances by id, describe scaling groups by name) without porting its
// code literally.
type EC2Discovery struct {
	ec2Client ec2iface.EC2API
	asClient  autoscalingiface.AutoScalingAPI
	retry     *resilience.RetryPolicy
	cache     *lru.Cache[string, domain.Instance]
	limiter   *rate.Limiter
}

// NewEC2Discovery wraps already-configured EC2 and AutoScaling clients.
// Both describe calls are retried under resilience.DefaultRetryPolicy for
// AWS throttling/server errors and for errors that are not AWS API errors
// (see awsRetryChecker), since scaling-group describes
// run on every pipeline invocation and a single throttled call should not
// fail the whole reconciliation. DescribeInstances results are cached by
// instance id for the life of the EC2Discovery, since the same instance is
// routinely described more than once across the readiness, health, and
// metadata stages of a single reconciliation.
func NewEC2Discovery(ec2Client ec2iface.EC2API, asClient autoscalingiface.AutoScalingAPI) *EC2Discovery {
	policy := resilience.DefaultRetryPolicy()
	policy.ErrorChecker = awsRetryChecker{}
	cache, _ := lru.New[string, domain.Instance](instanceCacheSize)
	return &EC2Discovery{
		ec2Client: ec2Client,
		asClient:  asClient,
		retry:     policy,
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(describeRateLimit), describeRateLimit),
	}
}

// awsRetryChecker treats AWS throttling and server-side errors as
// retryable; request validation and auth errors are not. An error that is
// not an awserr.Error is treated as retryable.
type awsRetryChecker struct{}

func (awsRetryChecker) IsRetryable(err error) bool {
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return true
	}
	switch awsErr.Code() {
	case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException",
		"ProvisionedThroughputExceededException", "InternalError", "InternalFailure", "ServiceUnavailable":
		return true
	default:
		return false
	}
}

func (d *EC2Discovery) DescribeInstances(ctx context.Context, ids ...string) ([]domain.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	instances := make([]domain.Instance, 0, len(ids))
	var uncached []string
	for _, id := range ids {
		if inst, ok := d.cache.Get(id); ok {
			instances = append(instances, inst)
			continue
		}
		uncached = append(uncached, id)
	}
	if len(uncached) == 0 {
		return instances, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapter, err)
	}

	out, err := resilience.WithRetryFunc(ctx, d.retry, func() (*ec2.DescribeInstancesOutput, error) {
		return d.ec2Client.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
			InstanceIds: aws.StringSlice(uncached),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: describing instances: %v", domain.ErrAdapter, err)
	}

	for _, reservation := range out.Reservations {
		for _, inst := range reservation.Instances {
			described := instanceFromEC2(inst)
			d.cache.Add(described.InstanceID, described)
			instances = append(instances, described)
		}
	}
	return instances, nil
}

func (d *EC2Discovery) DescribeScalingGroup(ctx context.Context, names ...string) ([]domain.ScalingGroup, error) {
	if len(names) == 0 {
		return nil, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapter, err)
	}

	out, err := resilience.WithRetryFunc(ctx, d.retry, func() (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
		return d.asClient.DescribeAutoScalingGroupsWithContext(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
			AutoScalingGroupNames: aws.StringSlice(names),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: describing scaling groups: %v", domain.ErrAdapter, err)
	}

	groups := make([]domain.ScalingGroup, 0, len(out.AutoScalingGroups))
	for _, asg := range out.AutoScalingGroups {
		ids := make([]string, 0, len(asg.Instances))
		for _, member := range asg.Instances {
			ids = append(ids, aws.StringValue(member.InstanceId))
		}

		instances, err := d.DescribeInstances(ctx, ids...)
		if err != nil {
			return nil, err
		}

		groups = append(groups, domain.ScalingGroup{
			Name:      aws.StringValue(asg.AutoScalingGroupName),
			Instances: instances,
		})
	}
	return groups, nil
}

func instanceFromEC2(inst *ec2.Instance) domain.Instance {
	tags := make([]domain.Tag, 0, len(inst.Tags))
	sgName := ""
	for _, t := range inst.Tags {
		key := aws.StringValue(t.Key)
		val := aws.StringValue(t.Value)
		tags = append(tags, domain.Tag{Key: key, Value: val})
		if key == "aws:autoscaling:groupName" {
			sgName = val
		}
	}

	var launchTimestamp int64
	if inst.LaunchTime != nil {
		launchTimestamp = inst.LaunchTime.Unix()
	}

	return domain.Instance{
		InstanceID:      aws.StringValue(inst.InstanceId),
		SGName:          sgName,
		InstanceState:   aws.StringValue(inst.State.Name),
		LifecycleState:  "",
		LaunchTimestamp: launchTimestamp,
		Metadata: domain.InstanceMetadata{
			PublicIPv4:  aws.StringValue(inst.PublicIpAddress),
			PrivateIPv4: aws.StringValue(inst.PrivateIpAddress),
			PublicDNS:   aws.StringValue(inst.PublicDnsName),
			PrivateDNS:  aws.StringValue(inst.PrivateDnsName),
		},
		Tags: tags,
	}
}
