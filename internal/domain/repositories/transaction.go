package repositories

import "context"

// TxFn is a function executed within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a single database transaction.
// Repositories participate by pulling the transaction out of the context.
// Used to keep a structural validation and the mutation it guards on one
// consistent snapshot; multi-mutation workflows (the processing pipeline)
// deliberately run untransacted.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
