package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/sqlite/gen"
)

type clientsRepo struct {
	q *gen.Queries
}

func (r *clientsRepo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	row, err := r.q.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	var c domain.Client
	if err := json.Unmarshal([]byte(row.ClientData), &c); err != nil {
		return domain.Client{}, fmt.Errorf("decode client %s: %w", id, err)
	}
	return c, nil
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode client %s: %w", c.ID, err)
	}

	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	return r.q.UpsertClient(ctx, gen.UpsertClientParams{
		ClientID:   c.ID,
		ClientData: string(data),
		CreatedAt:  toMillis(created),
		UpdatedAt:  toMillis(time.Now()),
	})
}
