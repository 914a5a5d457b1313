package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/omar-ramo/yawm/internal/domain"
)

// ESRepository implements Repository and Indexer on Elasticsearch.
type ESRepository struct {
	client       *elasticsearch.Client
	indexDiary   string
	indexProfile string
}

var (
	_ Repository = (*ESRepository)(nil)
	_ Indexer    = (*ESRepository)(nil)
)

// NewESRepository creates a new Elasticsearch-based search repository.
func NewESRepository(client *elasticsearch.Client, indexDiary, indexProfile string) *ESRepository {
	return &ESRepository{
		client:       client,
		indexDiary:   indexDiary,
		indexProfile: indexProfile,
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func contains(field, text string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + wildcardEscaper.Replace(text) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func (r *ESRepository) diaryQuery(viewer domain.Viewer, text string) map[string]interface{} {
	visible := term("visibility", string(domain.VisibilityAll))
	if !viewer.IsAnonymous() {
		visible = map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					visible,
					term("author_id", viewer.ProfileID),
				},
				"minimum_should_match": 1,
			},
		}
	}

	q := map[string]interface{}{"filter": []interface{}{visible}}
	if text != "" {
		q["must"] = []interface{}{contains("title", text)}
	}
	return map[string]interface{}{"bool": q}
}

func (r *ESRepository) profileQuery(text string) map[string]interface{} {
	if text == "" {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				contains("name", text),
				contains("username", text),
				contains("description", text),
			},
			"minimum_should_match": 1,
		},
	}
}

func (r *ESRepository) CountDiaries(ctx context.Context, viewer domain.Viewer, text string) (int64, error) {
	return r.count(ctx, r.indexDiary, r.diaryQuery(viewer, text))
}

func (r *ESRepository) SearchDiaries(ctx context.Context, viewer domain.Viewer, text string, offset, limit int) ([]string, error) {
	return r.search(ctx, r.indexDiary, map[string]interface{}{
		"from":    offset,
		"size":    limit,
		"query":   r.diaryQuery(viewer, text),
		"sort":    []interface{}{map[string]string{"created_at": "desc"}, map[string]string{"id": "desc"}},
		"_source": []string{"id"},
	})
}

func (r *ESRepository) CountProfiles(ctx context.Context, text string) (int64, error) {
	return r.count(ctx, r.indexProfile, r.profileQuery(text))
}

func (r *ESRepository) SearchProfiles(ctx context.Context, text string, offset, limit int) ([]string, error) {
	return r.search(ctx, r.indexProfile, map[string]interface{}{
		"from":    offset,
		"size":    limit,
		"query":   r.profileQuery(text),
		"sort":    []interface{}{map[string]string{"id": "asc"}},
		"_source": []string{"id"},
	})
}

func (r *ESRepository) count(ctx context.Context, index string, query map[string]interface{}) (int64, error) {
	data, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(index),
		r.client.Count.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Count, nil
}

func (r *ESRepository) search(ctx context.Context, index string, body map[string]interface{}) ([]string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ids := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// esResponse is the part of the search response the repository reads.
type esResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *ESRepository) IndexDiary(ctx context.Context, doc DiaryDocument) error {
	return r.put(ctx, r.indexDiary, doc.ID, doc)
}

func (r *ESRepository) DeleteDiary(ctx context.Context, id string) error {
	return r.remove(ctx, r.indexDiary, id)
}

func (r *ESRepository) IndexProfile(ctx context.Context, doc ProfileDocument) error {
	return r.put(ctx, r.indexProfile, doc.ID, doc)
}

func (r *ESRepository) DeleteProfile(ctx context.Context, id string) error {
	return r.remove(ctx, r.indexProfile, id)
}

func (r *ESRepository) put(ctx context.Context, index, id string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := r.client.Index(index, bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("failed to index %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (r *ESRepository) remove(ctx context.Context, index, id string) error {
	res, err := r.client.Delete(index, id, r.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

var (
	diaryMapping = `{"mappings":{"properties":{
		"id":{"type":"keyword"},
		"title":{"type":"keyword"},
		"author_id":{"type":"keyword"},
		"visibility":{"type":"keyword"},
		"created_at":{"type":"date"}}}}`
	profileMapping = `{"mappings":{"properties":{
		"id":{"type":"keyword"},
		"username":{"type":"keyword"},
		"name":{"type":"keyword"},
		"description":{"type":"keyword"}}}}`
)

// EnsureIndices creates the diary and profile indices when they are missing.
func (r *ESRepository) EnsureIndices(ctx context.Context) error {
	for index, mapping := range map[string]string{r.indexDiary: diaryMapping, r.indexProfile: profileMapping} {
		if err := r.ensureIndex(ctx, index, mapping); err != nil {
			return err
		}
	}
	return nil
}

func (r *ESRepository) ensureIndex(ctx context.Context, index, mapping string) error {
	res, err := r.client.Indices.Exists([]string{index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	created, err := r.client.Indices.Create(index,
		r.client.Indices.Create.WithContext(ctx),
		r.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer created.Body.Close()

	if created.IsError() {
		return fmt.Errorf("elasticsearch error: %s", created.String())
	}
	return nil
}
