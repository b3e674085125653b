package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/brushline/quotedesk/internal/models"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// QuotePublisher writes approved client views to object storage so they can
// be shared without hitting the API.
type QuotePublisher struct {
	up     Uploader
	prefix string
}

func NewQuotePublisher(up Uploader, prefix string) *QuotePublisher {
	if prefix == "" {
		prefix = "quotes"
	}
	return &QuotePublisher{up: up, prefix: prefix}
}

// ObjectName is stable per company, quote and revision, so republishing the
// same snapshot overwrites rather than duplicates.
func (p *QuotePublisher) ObjectName(companyID, quoteID string, revision int) string {
	return fmt.Sprintf("%s/%s/%s/r%d.json", p.prefix, companyID, quoteID, revision)
}

func (p *QuotePublisher) Publish(ctx context.Context, companyID string, revision int, view models.ClientQuote) (string, error) {
	b, err := json.Marshal(view)
	if err != nil {
		return "", err
	}
	return p.up.Upload(ctx, p.ObjectName(companyID, view.QuoteID, revision), "application/json", bytes.NewReader(b))
}
