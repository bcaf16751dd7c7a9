package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
)

func TestMapTimeoutConvertsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := MapTimeout(ctx, fmt.Errorf("query: %w", context.DeadlineExceeded))
	if !errors.Is(err, errs.ErrStoreTimeout) {
		t.Fatalf("expected store timeout, got %v", err)
	}
}

func TestMapTimeoutKeepsDomainErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	domainErr := errs.New(errs.KindConflict, "ALREADY_SWIPED", "already swiped")
	err := MapTimeout(ctx, domainErr)
	if !errors.Is(err, domainErr) || errors.Is(err, errs.ErrStoreTimeout) {
		t.Fatalf("domain error must pass through, got %v", err)
	}
}

func TestMapTimeoutPassesOtherErrors(t *testing.T) {
	plain := errors.New("connection refused")
	if got := MapTimeout(context.Background(), plain); got != plain {
		t.Fatalf("expected same error, got %v", got)
	}
}

func TestTxRunnerRequiresPool(t *testing.T) {
	var runner *TxRunner
	if err := runner.WithTx(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil runner")
	}
}
