package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/paperdesk/paperdesk/internal/model"
)

const paperClass = "Paper"

// weaviateIndex implements Index over Weaviate's BM25 keyword search.
type weaviateIndex struct{ client *weaviate.Client }

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8081".
func NewWeaviateIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weaviateIndex{client: cl}, nil
}

func (w *weaviateIndex) SearchPapers(ctx context.Context, query string, topK int) ([]model.PaperHit, error) {
	bm := (&gql.BM25ArgumentBuilder{}).
		WithQuery(query).
		WithProperties("title", "abstract", "authorsText")

	resp, err := w.client.GraphQL().Get().
		WithClassName(paperClass).
		WithBM25(bm).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "paperId"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	raw, ok := getData[paperClass].([]interface{})
	if !ok {
		return []model.PaperHit{}, nil
	}
	out := make([]model.PaperHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := m["paperId"].(string)
		if id == "" {
			continue
		}
		var score float64
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["score"].(type) {
			case float64:
				score = v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					score = f
				}
			}
		}
		out = append(out, model.PaperHit{PaperID: id, Score: score})
	}
	return out, nil
}

func (w *weaviateIndex) IndexPaper(ctx context.Context, p *model.Paper) error {
	if p == nil || p.PaperID == "" {
		return nil
	}
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	props := map[string]interface{}{
		"paperId":     p.PaperID,
		"title":       p.Title,
		"abstract":    p.Abstract,
		"authorsText": strings.Join(names, " "),
	}
	// Deterministic object id so re-ingesting a paper replaces it.
	objID := objectID(p.PaperID)
	exists, err := w.client.Data().Checker().WithClassName(paperClass).WithID(objID).Do(ctx)
	if err == nil && exists {
		return w.client.Data().Updater().
			WithClassName(paperClass).WithID(objID).WithProperties(props).Do(ctx)
	}
	_, err = w.client.Data().Creator().
		WithClassName(paperClass).WithID(objID).WithProperties(props).Do(ctx)
	return err
}

func (w *weaviateIndex) DeletePaper(ctx context.Context, paperID string) error {
	if paperID == "" {
		return nil
	}
	_ = w.client.Data().Deleter().WithClassName(paperClass).WithID(objectID(paperID)).Do(ctx)
	return nil
}

// HealthPing reports readiness of the Weaviate instance.
func (w *weaviateIndex) HealthPing(ctx context.Context) error {
	ready, err := w.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("weaviate not ready")
	}
	return nil
}

func objectID(paperID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("paperdesk/"+paperID)).String()
}

func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
