package ports

import "context"

// TxManager runs fn atomically. Repositories called with the ctx handed to
// fn take part in the transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
