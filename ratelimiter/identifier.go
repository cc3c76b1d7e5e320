package ratelimiter

// anonymous is substituted whenever a rule's key type names a field the
// caller didn't supply.
const anonymous = "anonymous"

// ClientIdentifier is the per-request, ephemeral description of the subject
// being rate limited. Exactly one field is consulted per request, selected
// by the matching Rule's KeyType.
type ClientIdentifier struct {
	UserID    string
	IPAddress string
	Endpoint  string
}

// valueFor selects the field named by keyType, falling back to the literal
// "anonymous" when that field is absent. No normalization is performed here;
// canonicalizing IPs or endpoints is the middleware's responsibility.
func (c ClientIdentifier) valueFor(keyType KeyType) string {
	var v string
	switch keyType {
	case KeyUserID:
		v = c.UserID
	case KeyIPAddress:
		v = c.IPAddress
	case KeyEndpoint:
		v = c.Endpoint
	}
	if v == "" {
		return anonymous
	}
	return v
}
