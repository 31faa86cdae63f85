package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "tablebook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"

	maxTransactionAttempts = 3
	maxCommitAttempts      = 3
)

// TransactionFunc runs inside a transaction. ctx carries the session and must
// be passed to every repository call that should join the transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// RollbackError is returned when a transaction body failed and aborting the
// transaction failed too. Callers must log it as a double fault.
type RollbackError struct {
	Cause       error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (original error: %v)", e.RollbackErr, e.Cause)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}

// AsRollbackError reports whether err carries a failed rollback.
func AsRollbackError(err error) (*RollbackError, bool) {
	var rbErr *RollbackError
	if errors.As(err, &rbErr) {
		return rbErr, true
	}
	return nil, false
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	var txErr error
	for attempt := 1; attempt <= maxTransactionAttempts; attempt++ {
		txErr = mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
			return runOnce(sessCtx, fn)
		})
		if txErr == nil || !hasLabel(txErr, labelTransientTransaction) {
			break
		}
	}

	if txErr != nil {
		if apperrors.IsAppError(txErr) {
			return txErr
		}
		if _, ok := AsRollbackError(txErr); ok {
			return txErr
		}
		return fmt.Errorf("transaction failed: %w", txErr)
	}
	return nil
}

func runOnce(sessCtx mongo.SessionContext, fn TransactionFunc) error {
	if err := sessCtx.StartTransaction(); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(sessCtx); err != nil {
		if abortErr := sessCtx.AbortTransaction(context.WithoutCancel(sessCtx)); abortErr != nil {
			return &RollbackError{Cause: err, RollbackErr: abortErr}
		}
		return err
	}

	var commitErr error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		commitErr = sessCtx.CommitTransaction(sessCtx)
		if commitErr == nil || !hasLabel(commitErr, labelUnknownCommitResult) {
			break
		}
	}
	return commitErr
}

func hasLabel(err error, label string) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorLabel(label)
}
