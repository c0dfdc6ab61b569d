package storage

import (
	"context"

	"poolquote/internal/model"
)

// QuoteSink persists computed quotes.
type QuoteSink interface {
	PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error
}
