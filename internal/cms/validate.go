package cms

import (
	"strconv"
	"strings"
	"time"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/jsonapi"
)

// Only these two image formats are served; everything else is rejected.
var allowedImageMimes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

var playerPositions = map[string]struct{}{
	PositionKeeper:     {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

type violations struct {
	entity string
	items  []fetch.Violation
}

func newViolations(entity string) *violations {
	return &violations{entity: entity}
}

func (v *violations) add(field, constraint string) {
	v.items = append(v.items, fetch.Violation{Field: field, Constraint: constraint})
}

func (v *violations) err() error {
	if len(v.items) == 0 {
		return nil
	}
	return fetch.NewValidationError(v.entity, v.items...)
}

func checkType(v *violations, res jsonapi.Resource, expected string) {
	if res.Type != expected {
		v.add("type", "must be "+expected+", got "+strconv.Quote(res.Type))
	}
	if strings.TrimSpace(res.ID) == "" {
		v.add("id", "required")
	}
}

// ValidateArticle checks one node--article resource and produces a typed
// record. Relationship slots keep their sparse references; resolution is a
// separate pass.
func ValidateArticle(res jsonapi.Resource) (Article, error) {
	v := newViolations(TypeArticle)
	checkType(v, res, TypeArticle)

	out := Article{
		ID:        res.ID,
		Title:     requiredString(v, res.Attributes, "title"),
		Created:   requiredTime(v, res.Attributes, "created"),
		Changed:   optionalTime(v, res.Attributes, "changed"),
		PathAlias: pathAlias(res.Attributes),
		Image:     relImage(res, "field_media_article_image"),
		Tags:      relTags(res, "field_tags"),
	}
	out.Body = optionalBody(v, res.Attributes, "body")

	if err := v.err(); err != nil {
		return Article{}, err
	}
	return out, nil
}

func ValidateTeam(res jsonapi.Resource) (Team, error) {
	v := newViolations(TypeTeam)
	checkType(v, res, TypeTeam)

	out := Team{
		ID:        res.ID,
		Title:     requiredString(v, res.Attributes, "title"),
		Division:  optionalString(v, res.Attributes, "field_division"),
		TeamRefID: int64(optionalInt(v, res.Attributes, "field_vv_id")),
		PathAlias: pathAlias(res.Attributes),
		Image:     relImage(res, "field_media_image"),
	}

	if err := v.err(); err != nil {
		return Team{}, err
	}
	return out, nil
}

func ValidatePlayer(res jsonapi.Resource) (Player, error) {
	v := newViolations(TypePlayer)
	checkType(v, res, TypePlayer)

	out := Player{
		ID:        res.ID,
		FirstName: requiredString(v, res.Attributes, "field_firstname"),
		LastName:  requiredString(v, res.Attributes, "field_lastname"),
		PathAlias: pathAlias(res.Attributes),
		Image:     relImage(res, "field_media_image"),
	}

	if position, ok, valid := stringAttr(res.Attributes, "field_position"); ok {
		if !valid {
			v.add("field_position", "must be a string")
		} else if position != "" {
			if _, known := playerPositions[position]; !known {
				v.add("field_position", "unknown position "+strconv.Quote(position))
			}
			out.Position = position
		}
	}

	if number, ok := intAttr(res.Attributes, "field_shirtnumber"); ok {
		if number < 0 {
			v.add("field_shirtnumber", "must not be negative")
		} else {
			n := number
			out.ShirtNumber = &n
		}
	}

	if err := v.err(); err != nil {
		return Player{}, err
	}
	return out, nil
}

func ValidateEvent(res jsonapi.Resource) (Event, error) {
	v := newViolations(TypeEvent)
	checkType(v, res, TypeEvent)

	out := Event{
		ID:        res.ID,
		Title:     requiredString(v, res.Attributes, "title"),
		Start:     requiredTime(v, res.Attributes, "field_event_date"),
		Location:  optionalString(v, res.Attributes, "field_location"),
		PathAlias: pathAlias(res.Attributes),
		Image:     relImage(res, "field_media_image"),
	}
	if end := optionalTime(v, res.Attributes, "field_event_date_end"); !end.IsZero() {
		out.End = &end
	}

	if err := v.err(); err != nil {
		return Event{}, err
	}
	return out, nil
}

func ValidateSponsor(res jsonapi.Resource) (Sponsor, error) {
	v := newViolations(TypeSponsor)
	checkType(v, res, TypeSponsor)

	out := Sponsor{
		ID:      res.ID,
		Title:   requiredString(v, res.Attributes, "title"),
		Website: optionalString(v, res.Attributes, "field_website"),
		Logo:    relImage(res, "field_logo"),
	}

	if err := v.err(); err != nil {
		return Sponsor{}, err
	}
	return out, nil
}

// ValidateTaxonomyTerm accepts any taxonomy_term--* vocabulary; the
// discriminator is checked by prefix, not an exact literal.
func ValidateTaxonomyTerm(res jsonapi.Resource) (TaxonomyTerm, error) {
	v := newViolations("taxonomy_term")
	if !strings.HasPrefix(res.Type, TaxonomyTypePrefix) {
		v.add("type", "must start with "+TaxonomyTypePrefix+", got "+strconv.Quote(res.Type))
	}
	if strings.TrimSpace(res.ID) == "" {
		v.add("id", "required")
	}

	out := TaxonomyTerm{
		ID:        res.ID,
		Type:      res.Type,
		Name:      requiredString(v, res.Attributes, "name"),
		PathAlias: pathAlias(res.Attributes),
	}

	if err := v.err(); err != nil {
		return TaxonomyTerm{}, err
	}
	return out, nil
}

func ValidateFile(res jsonapi.Resource) (File, error) {
	v := newViolations(TypeFile)
	checkType(v, res, TypeFile)

	out := File{
		ID:       res.ID,
		Filename: optionalString(v, res.Attributes, "filename"),
		FileMime: requiredString(v, res.Attributes, "filemime"),
		FileSize: optionalInt(v, res.Attributes, "filesize"),
	}

	if out.FileMime != "" {
		if _, ok := allowedImageMimes[out.FileMime]; !ok {
			v.add("filemime", "must be image/jpeg or image/png, got "+strconv.Quote(out.FileMime))
		}
	}

	uri, ok := objectAttr(res.Attributes, "uri")
	if !ok {
		v.add("uri", "required")
	} else {
		inner := newViolations(TypeFile)
		out.URI = FileURI{URL: requiredString(inner, uri, "url")}
		for _, item := range inner.items {
			v.add("uri."+item.Field, item.Constraint)
		}
	}

	if err := v.err(); err != nil {
		return File{}, err
	}
	return out, nil
}

func ValidateMedia(res jsonapi.Resource) (Media, error) {
	v := newViolations(TypeMediaImage)
	checkType(v, res, TypeMediaImage)

	out := Media{
		ID:   res.ID,
		Name: optionalString(v, res.Attributes, "name"),
	}

	ref, ok := relSingleRef(res, "field_media_image")
	if !ok {
		v.add("field_media_image", "required file reference")
	} else {
		out.File = *ref
	}

	if err := v.err(); err != nil {
		return Media{}, err
	}
	return out, nil
}

// ValidateIncluded dispatches one included resource to its validator. A
// resource type the system does not model explicitly falls back to the
// unconstrained Unknown shape instead of hard-failing the whole response.
func ValidateIncluded(res jsonapi.Resource) (any, error) {
	switch {
	case res.Type == TypeMediaImage:
		return ValidateMedia(res)
	case res.Type == TypeFile:
		return ValidateFile(res)
	case strings.HasPrefix(res.Type, TaxonomyTypePrefix):
		return ValidateTaxonomyTerm(res)
	default:
		return Unknown{
			ID:            res.ID,
			Type:          res.Type,
			Attributes:    res.Attributes,
			Relationships: res.Relationships,
		}, nil
	}
}

// --- attribute accessors -------------------------------------------------

// stringAttr returns (value, present, well-typed). Null and absent are both
// reported as not present; a consumer checking "is set" treats them alike.
func stringAttr(attrs map[string]any, key string) (string, bool, bool) {
	if attrs == nil {
		return "", false, false
	}
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return "", false, false
	}
	value, isString := raw.(string)
	return value, true, isString
}

func requiredString(v *violations, attrs map[string]any, key string) string {
	value, present, wellTyped := stringAttr(attrs, key)
	if !present {
		v.add(key, "required")
		return ""
	}
	if !wellTyped {
		v.add(key, "must be a string")
		return ""
	}
	if strings.TrimSpace(value) == "" {
		v.add(key, "must not be empty")
		return ""
	}
	return value
}

func optionalString(v *violations, attrs map[string]any, key string) string {
	value, present, wellTyped := stringAttr(attrs, key)
	if !present {
		return ""
	}
	if !wellTyped {
		v.add(key, "must be a string")
		return ""
	}
	return value
}

// intAttr accepts JSON numbers and numeric strings; the CMS transmits some
// counts as strings.
func intAttr(attrs map[string]any, key string) (int, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch typed := raw.(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func optionalInt(v *violations, attrs map[string]any, key string) int {
	if attrs == nil {
		return 0
	}
	if raw, ok := attrs[key]; !ok || raw == nil {
		return 0
	}
	n, parsed := intAttr(attrs, key)
	if !parsed {
		v.add(key, "must be a number")
		return 0
	}
	return n
}

func timeAttr(attrs map[string]any, key string) (time.Time, bool, error) {
	value, present, wellTyped := stringAttr(attrs, key)
	if !present {
		return time.Time{}, false, nil
	}
	if !wellTyped {
		return time.Time{}, true, strconv.ErrSyntax
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, true, err
	}
	return parsed, true, nil
}

func requiredTime(v *violations, attrs map[string]any, key string) time.Time {
	parsed, present, err := timeAttr(attrs, key)
	if !present {
		v.add(key, "required")
		return time.Time{}
	}
	if err != nil {
		v.add(key, "must be an RFC 3339 datetime")
		return time.Time{}
	}
	return parsed
}

func optionalTime(v *violations, attrs map[string]any, key string) time.Time {
	parsed, present, err := timeAttr(attrs, key)
	if !present {
		return time.Time{}
	}
	if err != nil {
		v.add(key, "must be an RFC 3339 datetime")
		return time.Time{}
	}
	return parsed
}

func objectAttr(attrs map[string]any, key string) (map[string]any, bool) {
	if attrs == nil {
		return nil, false
	}
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil, false
	}
	value, isObject := raw.(map[string]any)
	if !isObject {
		return nil, false
	}
	return value, true
}

func pathAlias(attrs map[string]any) string {
	path, ok := objectAttr(attrs, "path")
	if !ok {
		return ""
	}
	alias, _ := path["alias"].(string)
	return alias
}

func optionalBody(v *violations, attrs map[string]any, key string) *Body {
	if attrs == nil {
		return nil
	}
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil
	}
	obj, isObject := raw.(map[string]any)
	if !isObject {
		v.add(key, "must be an object")
		return nil
	}

	inner := newViolations(key)
	body := &Body{
		Value:     requiredString(inner, obj, "value"),
		Format:    optionalString(inner, obj, "format"),
		Processed: optionalString(inner, obj, "processed"),
		Summary:   optionalString(inner, obj, "summary"),
	}
	for _, item := range inner.items {
		v.add(key+"."+item.Field, item.Constraint)
	}
	if len(inner.items) > 0 {
		return nil
	}
	return body
}

// --- relationship extraction ---------------------------------------------

func relSingleRef(res jsonapi.Resource, name string) (*jsonapi.Reference, bool) {
	rel, ok := res.Relationships[name]
	if !ok || rel.Data.Kind != jsonapi.RelSingle || rel.Data.One.Ref == nil {
		return nil, false
	}
	ref := *rel.Data.One.Ref
	return &ref, true
}

func relImage(res jsonapi.Resource, name string) ImageRel {
	ref, ok := relSingleRef(res, name)
	if !ok {
		return ImageRel{}
	}
	return ImageRel{Ref: ref}
}

// relTags builds the tag slots. Members the server already embedded with
// attributes are validated in place; a member that cannot be validated
// degrades to its bare reference. Bare references stay references until the
// resolution pass.
func relTags(res jsonapi.Resource, name string) []TagRel {
	rel, ok := res.Relationships[name]
	if !ok || rel.Data.Kind != jsonapi.RelList {
		return nil
	}

	out := make([]TagRel, 0, len(rel.Data.Many))
	for _, item := range rel.Data.Many {
		switch {
		case item.Resource != nil:
			term, err := ValidateTaxonomyTerm(*item.Resource)
			if err != nil {
				out = append(out, TagRel{Ref: &jsonapi.Reference{Type: item.Resource.Type, ID: item.Resource.ID}})
				continue
			}
			out = append(out, TagRel{Term: &term})
		case item.Ref != nil:
			ref := *item.Ref
			out = append(out, TagRel{Ref: &ref})
		}
	}
	return out
}
