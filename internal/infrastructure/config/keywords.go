package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
)

// keywordTableFile is the on-disk shape of a keyword table override.
type keywordTableFile struct {
	Categories []struct {
		Category string   `json:"category"`
		Keywords []string `json:"keywords"`
	} `json:"categories"`
}

// LoadKeywordTable reads a category keyword table from a JSON file. Table
// order is preserved; it breaks ties between keywords of equal length.
func LoadKeywordTable(path string) (fiscal.KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword table: %w", err)
	}

	var file keywordTableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing keyword table: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("keyword table %s defines no categories", path)
	}

	table := make(fiscal.KeywordTable, 0, len(file.Categories))
	for _, entry := range file.Categories {
		category := fiscal.CategoryID(entry.Category)
		if !category.IsValid() {
			return nil, fmt.Errorf("keyword table %s: unknown category %q", path, entry.Category)
		}
		keywords := make([]string, 0, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			keywords = append(keywords, kw)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("keyword table %s: category %q has no keywords", path, entry.Category)
		}
		table = append(table, fiscal.CategoryKeywords{Category: category, Keywords: keywords})
	}
	return table, nil
}
