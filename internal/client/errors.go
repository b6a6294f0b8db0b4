package client

import (
	"errors"
	"fmt"
)

// JSON-RPC error codes used by the Lattice server. Unauthorized and
// malformed-credential are deliberately distinct so a revoked token is
// distinguishable from a garbled one.
const (
	CodeUnauthorized        = -32001
	CodeMalformedCredential = -32002
	CodeForbidden           = -32003
	CodeNotFound            = -32004
)

// RPCError is the error variant of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func codeIs(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsUnauthorized reports whether err is a rejection of a valid-looking
// but unaccepted (e.g. revoked) credential.
func IsUnauthorized(err error) bool {
	return codeIs(err, CodeUnauthorized)
}

// IsMalformedCredential reports whether err is a rejection of a token
// the server could not even parse.
func IsMalformedCredential(err error) bool {
	return codeIs(err, CodeMalformedCredential)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return codeIs(err, CodeNotFound)
}
