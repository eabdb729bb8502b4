package azs

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEC2API struct {
	describeAvailabilityZonesFunc func(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error)
}

func (m *mockEC2API) DescribeAvailabilityZones(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error) {
	return m.describeAvailabilityZonesFunc(ctx, params, optFns...)
}

func zone(name string, state types.AvailabilityZoneState, optIn types.AvailabilityZoneOptInStatus) types.AvailabilityZone {
	return types.AvailabilityZone{ZoneName: awssdk.String(name), State: state, OptInStatus: optIn}
}

func TestAvailable(t *testing.T) {
	var got *awsec2.DescribeAvailabilityZonesInput
	mock := &mockEC2API{
		describeAvailabilityZonesFunc: func(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error) {
			got = params
			return &awsec2.DescribeAvailabilityZonesOutput{
				AvailabilityZones: []types.AvailabilityZone{
					zone("us-east-1c", types.AvailabilityZoneStateAvailable, types.AvailabilityZoneOptInStatusOptInNotRequired),
					zone("us-east-1a", types.AvailabilityZoneStateAvailable, types.AvailabilityZoneOptInStatusOptInNotRequired),
					zone("us-east-1b", types.AvailabilityZoneStateImpaired, types.AvailabilityZoneOptInStatusOptInNotRequired),
					zone("us-east-1d", types.AvailabilityZoneStateAvailable, types.AvailabilityZoneOptInStatusNotOptedIn),
				},
			}, nil
		},
	}

	zones, err := NewClient(mock).Available(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1a", "us-east-1c"}, zones)

	require.NotNil(t, got)
	require.Len(t, got.Filters, 2)
	assert.Equal(t, "state", awssdk.ToString(got.Filters[0].Name))
	assert.Equal(t, []string{"available"}, got.Filters[0].Values)
	assert.Equal(t, "zone-type", awssdk.ToString(got.Filters[1].Name))
}

func TestAvailable_APIError(t *testing.T) {
	mock := &mockEC2API{
		describeAvailabilityZonesFunc: func(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	_, err := NewClient(mock).Available(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DescribeAvailabilityZones")
	assert.Contains(t, err.Error(), "access denied")
}

func TestAvailable_NoZones(t *testing.T) {
	mock := &mockEC2API{
		describeAvailabilityZonesFunc: func(ctx context.Context, params *awsec2.DescribeAvailabilityZonesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeAvailabilityZonesOutput, error) {
			return &awsec2.DescribeAvailabilityZonesOutput{}, nil
		},
	}

	_, err := NewClient(mock).Available(context.Background())
	assert.Error(t, err)
}
