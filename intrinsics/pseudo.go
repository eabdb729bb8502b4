package intrinsics

import (
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Pseudo parameters are defined by CloudFormation in every template and never
// appear as resources in a graph.
var (
	// AWS_ACCOUNT_ID returns the account in which the stack is created.
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID

	// AWS_PARTITION returns the partition the resource is in (aws, aws-cn, aws-us-gov).
	AWS_PARTITION = intrinsics.AWS_PARTITION

	// AWS_REGION returns the region in which the stack is created.
	AWS_REGION = intrinsics.AWS_REGION

	// AWS_STACK_NAME returns the name of the stack.
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME

	// AWS_URL_SUFFIX returns the domain suffix (usually amazonaws.com).
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX
)

// IsPseudo reports whether name is a pseudo parameter such as AWS::Region.
func IsPseudo(name string) bool {
	return strings.HasPrefix(name, "AWS::")
}
