package cms

import (
	"context"
	"strings"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/jsonapi"
)

// maxWalkPages caps an alias walk. An alias that has not shown up after
// this many pages is treated as absent instead of walking the archive
// forever.
const maxWalkPages = 20

// NormalizeAlias turns the alias forms links carry into the canonical
// path alias. A bare slug is assumed to live under the news section.
func NormalizeAlias(alias string) string {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return alias
	}
	if !strings.HasPrefix(alias, "/") {
		return "/news/" + alias
	}
	return alias
}

// GetArticleByAlias finds an article by its path alias. The collection
// endpoint cannot filter on the alias, so this walks the newest-first
// pages and matches client-side.
func (c *Client) GetArticleByAlias(ctx context.Context, alias string) (Article, error) {
	alias = NormalizeAlias(alias)

	offset := 0
	for page := 0; page < maxWalkPages; page++ {
		url := jsonapi.NewQuery().
			Include("field_media_article_image.field_media_image", "field_tags").
			Sort("-created").
			PageLimit(c.pageLimit).
			PageOffset(offset).
			BuildURL(c.baseURL, "/node/article")

		doc, err := c.getCollection(ctx, url)
		if err != nil {
			return Article{}, err
		}
		if len(doc.Data) == 0 {
			break
		}

		for _, res := range doc.Data {
			if pathAlias(res.Attributes) != alias {
				continue
			}
			article, err := ValidateArticle(res)
			if err != nil {
				return Article{}, err
			}
			return c.resolver.ResolveArticle(article, jsonapi.BuildIncludedSet(doc.Included)), nil
		}

		if !doc.Links.HasNext() {
			break
		}
		offset += c.pageLimit
	}
	return Article{}, fetch.NewNotFoundError(TypeArticle, alias)
}
