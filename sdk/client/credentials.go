package client

import "context"

// CredentialProvider supplies the bearer credential attached to every policy
// store request. Acquisition and storage of the credential live outside the
// engine.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialProvider over a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
