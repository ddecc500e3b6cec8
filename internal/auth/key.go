package auth

// SigningKey is the symmetric key material used to sign and verify tokens.
// It is derived once at construction, never mutated, and never logged.
type SigningKey []byte

// DeriveSigningKey produces the HMAC-SHA256 key for a configured secret. The
// secret's bytes are the key material; derivation is deterministic, so issuer
// and validator instances built from the same secret agree on the key even
// across processes. No minimum length or entropy is enforced: the deployment
// contract is that the operator supplies an adequately strong secret, since a
// weak one undermines the unforgeability of every issued token.
func DeriveSigningKey(secret string) SigningKey {
	return SigningKey(secret)
}
