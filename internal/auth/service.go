package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ServiceVerifier authenticates calling services. Each service (compute,
// storage, identity, ...) owns a clientkey plus a token whose bcrypt hash is
// held in config; the verified clientkey namespaces that service's
// commissions.
type ServiceVerifier struct {
	Tokens map[string]string // clientkey -> bcrypt token hash
}

// Verify checks the token for clientkey against the configured hash.
func (v *ServiceVerifier) Verify(clientkey, token string) error {
	if clientkey == "" || token == "" {
		return ErrTokenRequired
	}
	hash, ok := v.Tokens[clientkey]
	if !ok {
		return ErrUnknownClientKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return ErrIncorrectToken
	}
	return nil
}

// ParseServiceTokens parses the SERVICE_TOKENS config value, a
// comma-separated list of clientkey:bcrypt-hash pairs. Malformed pairs are
// skipped; bcrypt hashes contain no commas or colons beyond the separator,
// so splitting on the first colon is safe.
func ParseServiceTokens(s string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, hash, ok := strings.Cut(pair, ":")
		if !ok || key == "" || hash == "" {
			continue
		}
		tokens[key] = hash
	}
	return tokens
}
