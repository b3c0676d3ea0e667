// Package aws holds the small set of AWS calls the infra commands need before handing
// over to Terraform: who am I, and which zones are available.
package aws

import (
	"context"
	"errors"
	"fmt"
	"slices"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

var (
	// ErrCallerIdentity is returned when the configured credentials cannot be resolved.
	ErrCallerIdentity = errors.New("unable to resolve AWS caller identity")
	// ErrNotEnoughZones is returned when the region offers fewer zones than requested.
	ErrNotEnoughZones = errors.New("not enough available zones in region")
)

// STSAPI is the STS surface used here.
type STSAPI interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// EC2API is the EC2 surface used here.
type EC2API interface {
	DescribeAvailabilityZones(
		ctx context.Context,
		params *ec2.DescribeAvailabilityZonesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeAvailabilityZonesOutput, error)
}

// Clients bundles the service clients for one region.
type Clients struct {
	Region string
	STS    STSAPI
	EC2    EC2API
}

// NewClients loads the default credential chain (env, shared config, SSO, IMDS) for region.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Clients{
		Region: region,
		STS:    sts.NewFromConfig(cfg),
		EC2:    ec2.NewFromConfig(cfg),
	}, nil
}

// Identity is the resolved caller.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}

// CallerIdentity asks STS who the configured credentials belong to.
func CallerIdentity(ctx context.Context, api STSAPI) (Identity, error) {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrCallerIdentity, describe(err))
	}

	return Identity{
		Account: awssdk.ToString(out.Account),
		ARN:     awssdk.ToString(out.Arn),
		UserID:  awssdk.ToString(out.UserId),
	}, nil
}

// AvailableZones returns the first count zones, by name, that are in state available.
func AvailableZones(ctx context.Context, api EC2API, count int) ([]string, error) {
	out, err := api.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: awssdk.String("state"), Values: []string{"available"}},
			{Name: awssdk.String("zone-type"), Values: []string{"availability-zone"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe availability zones: %s", describe(err))
	}

	var zones []string

	for _, zone := range out.AvailabilityZones {
		if zone.State != ec2types.AvailabilityZoneStateAvailable {
			continue
		}

		zones = append(zones, awssdk.ToString(zone.ZoneName))
	}

	slices.Sort(zones)

	if len(zones) < count {
		return nil, fmt.Errorf("%w: want %d, found %d", ErrNotEnoughZones, count, len(zones))
	}

	return zones[:count], nil
}

// describe prefers the service error code over the transport chain.
func describe(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}

	return err.Error()
}
