package checkout

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/example/dairyshop/pkg/repository"
)

const idAttempts = 3

// newOrderID builds a date-scoped order id, ORD-YYYYMMDD-NNN.
func newOrderID(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("ORD-%s-%03d", now.Format("20060102"), suffix)
}

// generateOrderID re-rolls the random suffix when the candidate already
// exists in the store. After idAttempts the last candidate is used anyway;
// the store's unique key still rejects a true collision at write time.
func generateOrderID(ctx context.Context, orders repository.OrderRepository, now time.Time) string {
	id := newOrderID(now)
	for i := 1; i < idAttempts; i++ {
		exists, err := orders.Exists(ctx, id)
		if err != nil || !exists {
			break
		}
		id = newOrderID(now)
	}
	return id
}
