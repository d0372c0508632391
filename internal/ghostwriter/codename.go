package ghostwriter

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const generateCodenameMutation = `mutation GenerateCodename {
  generateCodename { codename }
}`

// GenerateCodename asks Ghostwriter for a fresh codename. Ghostwriter does
// not check it against existing records.
func (c *Client) GenerateCodename(ctx context.Context) (string, error) {
	var row *struct {
		Codename string `json:"codename"`
	}
	if err := c.do(ctx, "generate_codename", generateCodenameMutation, nil, "generateCodename", &row); err != nil {
		return "", err
	}
	if row == nil || row.Codename == "" {
		return "", toolerr.RemoteUnavailable("generate_codename", errors.New("empty codename"))
	}
	return row.Codename, nil
}
