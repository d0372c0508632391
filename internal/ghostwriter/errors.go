package ghostwriter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// Hasura error codes that mean the request itself was rejected.
var invalidPayloadCodes = map[string]bool{
	"validation-failed":    true,
	"constraint-violation": true,
	"data-exception":       true,
	"parse-failed":         true,
	"bad-request":          true,
}

// translateGraphQLErrors maps a GraphQL "errors" array to a typed error.
// The first error's code decides the kind; all messages are kept.
func translateGraphQLErrors(op string, errs gjson.Result) error {
	items := errs.Array()
	msgs := make([]string, 0, len(items))
	for _, e := range items {
		if m := e.Get("message").String(); m != "" {
			msgs = append(msgs, m)
		}
	}
	msg := strings.Join(msgs, "; ")
	if msg == "" {
		msg = "unknown GraphQL error"
	}

	code := items[0].Get("extensions.code").String()
	switch {
	case invalidPayloadCodes[code]:
		return toolerr.InvalidPayload(op, "ghostwriter rejected the request: %s", msg)
	case code == "not-found":
		return toolerr.New(toolerr.KindNotFound, op, msg)
	default:
		return toolerr.RemoteUnavailable(op, fmt.Errorf("graphql error (%s): %w", codeOrUnknown(code), errors.New(msg)))
	}
}

func codeOrUnknown(code string) string {
	if code == "" {
		return "unknown"
	}
	return code
}

var errNoRowReturned = errors.New("mutation returned no row")
