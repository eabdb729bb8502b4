package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-network-go"
)

func TestAssignAZ_Rotates(t *testing.T) {
	azs := []string{"us-east-1a", "us-east-1b", "us-east-1c"}
	want := []string{"us-east-1a", "us-east-1b", "us-east-1c", "us-east-1a", "us-east-1b"}

	for i, expected := range want {
		az, err := AssignAZ(azs, i)
		require.NoError(t, err)
		assert.Equal(t, expected, az, "index %d", i)
	}
}

func TestAssignAZ_Empty(t *testing.T) {
	_, err := AssignAZ(nil, 0)
	var cfgErr *wetwire.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "availability_zones", cfgErr.Field)
}

func TestAssignAZ_Negative(t *testing.T) {
	_, err := AssignAZ([]string{"us-east-1a"}, -1)
	assert.Error(t, err)
}
