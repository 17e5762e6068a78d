package search

import (
	"encoding/json"
	"fmt"

	"github.com/archenemy/domainhawk/internal/types"
)

type repositoryItem struct {
	FullName   string `json:"full_name"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	HTMLURL    string `json:"html_url"`
	Owner      struct {
		Login string `json:"login"`
	} `json:"owner"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
}

type codeItem struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	HTMLURL    string `json:"html_url"`
	Language   string `json:"language"`
	Repository struct {
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
		Description string `json:"description"`
	} `json:"repository"`
}

// parseItem tolerantly parses one search result item into a ResultRecord:
// missing optional fields default to zero values rather than failing the
// whole item.
func parseItem(raw json.RawMessage, kind types.ResourceKind) (types.ResultRecord, error) {
	switch kind {
	case types.ResourceCode:
		var item codeItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return types.ResultRecord{}, fmt.Errorf("decode code item: %w", err)
		}
		canonical := item.HTMLURL
		if canonical == "" {
			canonical = item.URL
		}
		return types.ResultRecord{
			Kind:         types.RecordCode,
			Name:         item.Name,
			CanonicalURL: canonical,
			Owner:        item.Repository.Owner.Login,
			Description:  item.Repository.Description,
			Language:     item.Language,
		}, nil

	default:
		var item repositoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return types.ResultRecord{}, fmt.Errorf("decode repository item: %w", err)
		}
		canonical := item.HTMLURL
		if canonical == "" {
			canonical = item.URL
		}
		name := item.FullName
		if name == "" {
			name = item.Name
		}
		return types.ResultRecord{
			Kind:         types.RecordRepository,
			Name:         name,
			CanonicalURL: canonical,
			Owner:        item.Owner.Login,
			Description:  item.Description,
			Language:     item.Language,
			StarCount:    item.StargazersCount,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		}, nil
	}
}
