// internal/counseling/directory/elastic.go
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"seatsathi-workers/internal/common/database"
	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const collegeMapping = `{
  "mappings": {
    "properties": {
      "code":    {"type": "keyword"},
      "name":    {"type": "text"},
      "search":  {"type": "keyword"},
      "aliases": {"type": "keyword"}
    }
  }
}`

type collegeDoc struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Search  string   `json:"search"`
	Aliases []string `json:"aliases,omitempty"`
}

// ElasticResolver tries the in-memory directory first and, when it misses,
// asks Elasticsearch for a fuzzy name match so misspelt searches still land.
type ElasticResolver struct {
	es       *database.ElasticsearchClient
	index    string
	fallback Resolver
	logger   logger.Logger
}

func NewElasticResolver(es *database.ElasticsearchClient, index string, fallback Resolver, log logger.Logger) *ElasticResolver {
	if fallback == nil {
		fallback = New()
	}
	return &ElasticResolver{
		es:       es,
		index:    index,
		fallback: fallback,
		logger:   log.WithFields(map[string]interface{}{"component": "directory", "index": index}),
	}
}

func (r *ElasticResolver) Resolve(ctx context.Context, colleges map[string]models.RawCollege, search string) (string, bool) {
	if code, ok := r.fallback.Resolve(ctx, colleges, search); ok {
		return code, true
	}
	if strings.TrimSpace(search) == "" {
		return "", false
	}

	code, err := r.search(ctx, search)
	if err != nil {
		r.logger.Warn("college search failed", map[string]interface{}{
			"search": search,
			"error":  err.Error(),
		})
		return "", false
	}
	if _, present := colleges[code]; !present {
		return "", false
	}
	return code, true
}

func (r *ElasticResolver) search(ctx context.Context, search string) (string, error) {
	queryBody := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"aliases": normalize.ForSearch(search)}},
					map[string]interface{}{"match": map[string]interface{}{
						"name": map[string]interface{}{"query": search, "fuzziness": "AUTO"},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.es.Client)
	if err != nil {
		return "", apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return "", apperrors.NewIndexNotFoundError(r.index)
		}
		return "", apperrors.NewSearchQueryFailedError("college", fmt.Errorf("%s", res.String()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source collegeDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewSearchQueryFailedError("college", err)
	}
	if len(parsed.Hits.Hits) == 0 {
		return "", nil
	}
	return parsed.Hits.Hits[0].Source.Code, nil
}

// Sync replaces the college documents in the search index.
func (r *ElasticResolver) Sync(ctx context.Context, colleges map[string]models.RawCollege) error {
	if err := r.es.EnsureIndex(ctx, r.index, collegeMapping); err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for code, college := range colleges {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": r.index, "_id": code}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		doc := collegeDoc{
			Code:    code,
			Name:    college.Name,
			Search:  normalize.ForSearch(college.Name),
			Aliases: AliasesFor(code),
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	if buf.Len() == 0 {
		return nil
	}

	req := esapi.BulkRequest{
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, r.es.Client)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchQueryFailedError("bulk", fmt.Errorf("%s", res.String()))
	}

	r.logger.Info("college directory synced", map[string]interface{}{"colleges": len(colleges)})
	return nil
}
