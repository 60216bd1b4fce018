package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

// Document is the indexed shape of a product. Tenant scopes hits so one
// index can serve every store.
type Document struct {
	ID          uint    `json:"id"`
	Tenant      string  `json:"tenant"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	SKU         string  `json:"sku"`
	CategoryID  uint    `json:"category_id"`
	Price       float64 `json:"price"`
}

type ProductIndex struct {
	ES    *elasticsearch.Client
	Index string
}

const defaultTenant = "default"

func tenantKey(tenant string) string {
	if tenant == "" {
		return defaultTenant
	}
	return tenant
}

func docID(tenant string, id uint) string {
	return tenantKey(tenant) + ":" + strconv.FormatUint(uint64(id), 10)
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "tenant":      {"type": "keyword"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "brand":       {"type": "text"},
      "sku":         {"type": "text"},
      "category_id": {"type": "long"},
      "price":       {"type": "double"}
    }
  }
}`

// EnsureIndex creates the index with a keyword tenant field when missing.
func (p *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.ES.Indices.Exists([]string{p.Index}, p.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = p.ES.Indices.Create(p.Index,
		p.ES.Indices.Create.WithContext(ctx),
		p.ES.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index %s: %s: %s", p.Index, res.Status(), msg)
	}
	return nil
}

func (p *ProductIndex) Upsert(ctx context.Context, tenant string, prod *models.Product) error {
	body, err := json.Marshal(Document{
		ID:          prod.ID,
		Tenant:      tenantKey(tenant),
		Name:        prod.Name,
		Description: prod.Description,
		Brand:       prod.Brand,
		SKU:         prod.SKU,
		CategoryID:  prod.CategoryID,
		Price:       prod.Price,
	})
	if err != nil {
		return err
	}

	res, err := p.ES.Index(p.Index, bytes.NewReader(body),
		p.ES.Index.WithContext(ctx),
		p.ES.Index.WithDocumentID(docID(tenant, prod.ID)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", prod.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index product %d: %s: %s", prod.ID, res.Status(), msg)
	}
	return nil
}

func (p *ProductIndex) Remove(ctx context.Context, tenant string, id uint) error {
	res, err := p.ES.Delete(p.Index, docID(tenant, id), p.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete product %d: %s: %s", id, res.Status(), msg)
	}
	return nil
}

func searchBody(tenant, query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "brand", "sku", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"tenant": tenantKey(tenant)},
				},
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}
}

// Search returns matching product ids in relevance order.
func (p *ProductIndex) Search(ctx context.Context, tenant, query string, from, size int) (int64, []uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(tenant, query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := p.ES.Search(
		p.ES.Search.WithContext(ctx),
		p.ES.Search.WithIndex(p.Index),
		p.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}
