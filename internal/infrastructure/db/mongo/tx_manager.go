package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var _ ports.TxManager = (*TxManager)(nil)

// TxManager runs work inside a MongoDB session transaction. Transactions
// need a replica set; with enabled=false fn runs directly, which suits a
// standalone development server.
type TxManager struct {
	client  *mongo.Client
	enabled bool
}

func NewTxManager(client *mongo.Client, enabled bool) *TxManager {
	return &TxManager{client: client, enabled: enabled}
}

// RunInTx commits when fn returns nil and aborts otherwise. The driver may
// retry fn on transient transaction errors.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.enabled {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
