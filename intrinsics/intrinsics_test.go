package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTo_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RefTo("VPC"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "VPC"}`, string(data))
}

func TestAttr_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Attr("NATGatewayEIP", "AllocationId"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["NATGatewayEIP", "AllocationId"]}`, string(data))
}

func TestRefs(t *testing.T) {
	data, err := json.Marshal(Refs("PublicSubnet1", "PublicSubnet2"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Ref": "PublicSubnet1"}, {"Ref": "PublicSubnet2"}]`, string(data))
	assert.Empty(t, Refs())
}

func TestImportList_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(ImportList("demo-PrivateSubnetIds"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Split": [",", {"Fn::ImportValue": "demo-PrivateSubnetIds"}]}`, string(data))
}

func TestStackName(t *testing.T) {
	data, err := json.Marshal(StackName("public-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "${AWS::StackName}-public-1"}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_STACK_NAME", AWS_STACK_NAME, `{"Ref": "AWS::StackName"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
			assert.True(t, IsPseudo(tt.param.LogicalName))
		})
	}
	assert.False(t, IsPseudo("VPC"))
}

func TestAssumeRole(t *testing.T) {
	data, err := json.Marshal(AssumeRole(ServicePrincipal{"eks.amazonaws.com"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{"Effect": "Allow", "Principal": {"Service": "eks.amazonaws.com"}, "Action": "sts:AssumeRole"}]
	}`, string(data))
}

func TestAccountRoot(t *testing.T) {
	data, err := json.Marshal(AccountRoot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"AWS": {"Fn::Sub": "arn:${AWS::Partition}:iam::${AWS::AccountId}:root"}}`, string(data))
}

func TestManagedPolicyArn(t *testing.T) {
	data, err := json.Marshal(ManagedPolicyArn("AmazonEKSClusterPolicy"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "arn:${AWS::Partition}:iam::aws:policy/AmazonEKSClusterPolicy"}`, string(data))
}
