package searchindex

import (
	"context"
	"fmt"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// BootstrapWeaviate ensures the Paper class exists. Safe to call on
// every startup.
func BootstrapWeaviate(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	paper := &models.Class{
		Class:      paperClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "paperId", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "abstract", DataType: []string{"text"}},
			{Name: "authorsText", DataType: []string{"text"}},
		},
	}

	ex, err := cl.Schema().ClassGetter().WithClassName(paper.Class).Do(cctx)
	if err == nil && ex != nil {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(paper).Do(cctx); err != nil {
		return fmt.Errorf("bootstrap %s class: %w", paper.Class, err)
	}
	return nil
}
