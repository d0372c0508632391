package ghostwriter

import (
	"context"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

const clientFields = `id name shortName codename address note timezone`

const searchClientsQuery = `query SearchClients($term: String!) {
  client(where: {_or: [
    {name: {_ilike: $term}},
    {codename: {_ilike: $term}},
    {shortName: {_ilike: $term}}
  ]}, order_by: {id: asc}) { ` + clientFields + ` }
}`

const getClientQuery = `query GetClient($id: bigint!) {
  client_by_pk(id: $id) { ` + clientFields + ` }
}`

const clientsByCodenameQuery = `query ClientsByCodename($codename: String!) {
  client(where: {codename: {_ilike: $codename}}, order_by: {id: asc}) { ` + clientFields + ` }
}`

const createClientMutation = `mutation CreateClient($object: client_insert_input!) {
  insert_client_one(object: $object) { ` + clientFields + ` }
}`

// SearchClients returns clients whose name, codename or short name contains term.
func (c *Client) SearchClients(ctx context.Context, term string) ([]ClientRecord, error) {
	var rows []wireClient
	if err := c.do(ctx, "search_clients", searchClientsQuery, map[string]any{"term": ILikePattern(term)}, "client", &rows); err != nil {
		return nil, err
	}
	out := make([]ClientRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// GetClient fetches one client. A missing id is NOT_FOUND.
func (c *Client) GetClient(ctx context.Context, id int64) (ClientRecord, error) {
	var row *wireClient
	if err := c.do(ctx, "get_client", getClientQuery, map[string]any{"id": id}, "client_by_pk", &row); err != nil {
		return ClientRecord{}, err
	}
	if row == nil {
		return ClientRecord{}, toolerr.NotFound("get_client", "client", id)
	}
	return row.normalize(), nil
}

// ClientsByCodename returns clients whose codename equals codename, ignoring case.
func (c *Client) ClientsByCodename(ctx context.Context, codename string) ([]ClientRecord, error) {
	var rows []wireClient
	if err := c.do(ctx, "clients_by_codename", clientsByCodenameQuery, map[string]any{"codename": exactILike(codename)}, "client", &rows); err != nil {
		return nil, err
	}
	out := make([]ClientRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.normalize())
	}
	return out, nil
}

// CreateClient inserts a client and returns it as stored.
func (c *Client) CreateClient(ctx context.Context, in NewClient) (ClientRecord, error) {
	obj := object{"name": in.Name}.
		setString("shortName", in.ShortName).
		setString("codename", in.Codename).
		setString("address", in.Address).
		setString("note", in.Note).
		setString("timezone", in.Timezone)

	var row *wireClient
	if err := c.do(ctx, "create_client", createClientMutation, map[string]any{"object": obj}, "insert_client_one", &row); err != nil {
		return ClientRecord{}, err
	}
	if row == nil {
		return ClientRecord{}, toolerr.RemoteUnavailable("create_client", errNoRowReturned)
	}
	return row.normalize(), nil
}
