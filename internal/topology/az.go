package topology

import (
	"fmt"

	wetwire "github.com/lex00/wetwire-network-go"
)

// AssignAZ returns the zone for the subnet at index: azs[index mod len(azs)].
func AssignAZ(azs []string, index int) (string, error) {
	if len(azs) == 0 {
		return "", &wetwire.ConfigError{Field: "availability_zones", Reason: "empty availability zone list"}
	}
	if index < 0 {
		return "", fmt.Errorf("subnet index %d is negative", index)
	}
	return azs[index%len(azs)], nil
}
