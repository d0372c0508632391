// Package toolerr defines the error taxonomy shared by every ghostwriter-mcp
// operation.
//
// Every failure that reaches a tool caller is an *Error carrying one of five
// kinds:
//
//	REMOTE_UNAVAILABLE  transport, auth, or protocol failure talking to Ghostwriter
//	NOT_FOUND           a referenced id does not exist
//	INVALID_PAYLOAD     caller data failed validation; nothing was sent remotely
//	AMBIGUOUS_MATCH     several existing records matched; IDs lists them
//	CODENAME_EXHAUSTED  every codename candidate collided
//
// Match kinds with errors.Is against the package sentinels:
//
//	if errors.Is(err, toolerr.ErrAmbiguousMatch) {
//	    ids := toolerr.PayloadOf(err).IDs
//	}
//
// Errors are never retried by this module.
package toolerr
