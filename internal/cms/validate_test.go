package cms

import (
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/jsonapi"
)

func decodeResource(t *testing.T, body string) jsonapi.Resource {
	t.Helper()
	doc, err := jsonapi.DecodeDocument([]byte(`{"data":` + body + `}`))
	if err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	return doc.Data
}

func TestValidateArticle_TypedRecord(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "node--article",
		"id": "a-1",
		"attributes": {
			"title": "Derbywinst",
			"created": "2026-08-20T18:30:00+02:00",
			"changed": "2026-08-21T09:00:00+02:00",
			"path": {"alias": "/news/derbywinst"},
			"body": {"value": "<p>Verslag</p>", "format": "basic_html"}
		},
		"relationships": {
			"field_media_article_image": {"data": {"type": "media--image", "id": "m-1"}},
			"field_tags": {"data": [
				{"type": "taxonomy_term--news_tags", "id": "t-1", "attributes": {"name": "Derby"}},
				{"type": "taxonomy_term--news_tags", "id": "t-2"}
			]}
		}
	}`)

	article, err := ValidateArticle(res)
	if err != nil {
		t.Fatalf("ValidateArticle: %v", err)
	}
	if article.Title != "Derbywinst" {
		t.Fatalf("title = %q, want %q", article.Title, "Derbywinst")
	}
	if article.PathAlias != "/news/derbywinst" {
		t.Fatalf("path alias = %q", article.PathAlias)
	}
	if article.Body == nil || article.Body.Value != "<p>Verslag</p>" {
		t.Fatalf("body = %+v", article.Body)
	}
	if article.Image.IsResolved() || article.Image.Ref == nil || article.Image.Ref.ID != "m-1" {
		t.Fatalf("image slot = %+v, want preserved media reference", article.Image)
	}
	if len(article.Tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(article.Tags))
	}
	if !article.Tags[0].IsResolved() || article.Tags[0].Term.Name != "Derby" {
		t.Fatalf("embedded tag not attributed: %+v", article.Tags[0])
	}
	if article.Tags[1].IsResolved() || article.Tags[1].Ref.ID != "t-2" {
		t.Fatalf("bare tag reference not preserved: %+v", article.Tags[1])
	}
}

func TestValidateArticle_WrongTypeAndMissingFields(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "node--page",
		"id": "a-2",
		"attributes": {"created": "not-a-date"}
	}`)

	_, err := ValidateArticle(res)
	if !crerr.Is(err, fetch.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
	details, ok := fetch.ValidationDetails(err)
	if !ok {
		t.Fatalf("no validation details in %v", err)
	}
	fields := map[string]bool{}
	for _, violation := range details.Violations {
		fields[violation.Field] = true
	}
	for _, want := range []string{"type", "title", "created"} {
		if !fields[want] {
			t.Fatalf("missing violation for %q in %v", want, details.Violations)
		}
	}
}

func TestValidateFile_MimeAllowList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mime string
		ok   bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"application/pdf", false},
		{"image/gif", false},
	}
	for _, tc := range cases {
		res := decodeResource(t, `{
			"type": "file--file",
			"id": "f-1",
			"attributes": {
				"filename": "logo.bin",
				"filemime": "`+tc.mime+`",
				"uri": {"url": "/sites/default/files/logo.bin"}
			}
		}`)
		_, err := ValidateFile(res)
		if tc.ok && err != nil {
			t.Fatalf("mime %s: unexpected error %v", tc.mime, err)
		}
		if !tc.ok && !crerr.Is(err, fetch.ErrValidation) {
			t.Fatalf("mime %s: err = %v, want validation failure", tc.mime, err)
		}
	}
}

func TestValidatePlayer_NumericStringShirtNumber(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "node--player",
		"id": "p-1",
		"attributes": {
			"field_firstname": "Ward",
			"field_lastname": "Kerremans",
			"field_position": "midfielder",
			"field_shirtnumber": "8"
		}
	}`)

	player, err := ValidatePlayer(res)
	if err != nil {
		t.Fatalf("ValidatePlayer: %v", err)
	}
	if player.ShirtNumber == nil || *player.ShirtNumber != 8 {
		t.Fatalf("shirt number = %v, want 8", player.ShirtNumber)
	}
	if player.Position != PositionMidfielder {
		t.Fatalf("position = %q", player.Position)
	}
}

func TestValidatePlayer_UnknownPosition(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "node--player",
		"id": "p-2",
		"attributes": {
			"field_firstname": "Jo",
			"field_lastname": "Peeters",
			"field_position": "libero"
		}
	}`)

	if _, err := ValidatePlayer(res); !crerr.Is(err, fetch.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestValidateMedia_RequiresFileReference(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "media--image",
		"id": "m-1",
		"attributes": {"name": "team photo"}
	}`)

	if _, err := ValidateMedia(res); !crerr.Is(err, fetch.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestValidateIncluded_UnknownFallback(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "paragraph--gallery",
		"id": "g-1",
		"attributes": {"weight": 3}
	}`)

	typed, err := ValidateIncluded(res)
	if err != nil {
		t.Fatalf("ValidateIncluded: %v", err)
	}
	unknown, ok := typed.(Unknown)
	if !ok {
		t.Fatalf("typed = %T, want Unknown", typed)
	}
	if unknown.Type != "paragraph--gallery" || unknown.Attributes["weight"] != float64(3) {
		t.Fatalf("unknown = %+v", unknown)
	}
}

func TestValidateTaxonomyTerm_AnyVocabulary(t *testing.T) {
	t.Parallel()

	res := decodeResource(t, `{
		"type": "taxonomy_term--sponsors_category",
		"id": "t-9",
		"attributes": {"name": "Hoofdsponsor"}
	}`)

	term, err := ValidateTaxonomyTerm(res)
	if err != nil {
		t.Fatalf("ValidateTaxonomyTerm: %v", err)
	}
	if term.Type != "taxonomy_term--sponsors_category" || term.Name != "Hoofdsponsor" {
		t.Fatalf("term = %+v", term)
	}
}
