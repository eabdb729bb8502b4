package stacks

import (
	"encoding/json"

	wetwire "github.com/lex00/wetwire-network-go"
	"github.com/lex00/wetwire-network-go/internal/emit"
	"github.com/lex00/wetwire-network-go/internal/graph"
	"github.com/lex00/wetwire-network-go/intrinsics"
)

// SecretID is the logical id of the generated secret.
const SecretID = "Secret"

// excludedCharacters never appear in a generated password.
const excludedCharacters = `/@"'`

// SecretConfig names a generated credential.
type SecretConfig struct {
	// Name defaults to {network}-secret.
	Name     string
	Username string
}

// BuildSecret creates a Secrets Manager secret holding Username and a
// generated password under the "password" key.
func BuildSecret(x emit.Exports, cfg SecretConfig) (*graph.Graph, error) {
	if cfg.Username == "" {
		return nil, &wetwire.ConfigError{Field: "secret.username", Reason: "required"}
	}
	b := newBuilder(x.Network+" application secret", x)
	if cfg.Name == "" {
		cfg.Name = b.name("secret")
	}

	template, err := json.Marshal(map[string]string{"username": cfg.Username})
	if err != nil {
		return nil, err
	}

	b.add(SecretID, graph.KindSecret, map[string]any{
		"Name":        cfg.Name,
		"Description": "Generated credentials for " + cfg.Username,
		"GenerateSecretString": map[string]any{
			"SecretStringTemplate": string(template),
			"GenerateStringKey":    "password",
			"ExcludeCharacters":    excludedCharacters,
		},
		"Tags": b.nameTag("secret"),
	})
	b.output("SecretArn", "Generated secret", intrinsics.RefTo(SecretID))

	return b.finish(Secret)
}
