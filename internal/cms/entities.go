package cms

import (
	"time"

	"github.com/soniCaH/kcvv-data/internal/jsonapi"
)

// Entity type literals the CMS emits. Taxonomy terms are matched by prefix
// since the vocabulary set grows over time.
const (
	TypeArticle        = "node--article"
	TypeTeam           = "node--team"
	TypePlayer         = "node--player"
	TypeEvent          = "node--event"
	TypeSponsor        = "node--sponsor"
	TypeFile           = "file--file"
	TypeMediaImage     = "media--image"
	TaxonomyTypePrefix = "taxonomy_term--"
)

// Image is the resolved value of an image-bearing relationship: the final
// usable URL plus the display meta carried on the media-to-file reference.
type Image struct {
	URI    ImageURI `json:"uri"`
	Alt    string   `json:"alt,omitempty"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
}

type ImageURI struct {
	URL string `json:"url"`
}

// ImageRel is an image relationship slot: resolved value, preserved
// original reference, or absent. Resolution failure keeps Ref set and
// Image nil, never a partial object.
type ImageRel struct {
	Image *Image             `json:"image,omitempty"`
	Ref   *jsonapi.Reference `json:"ref,omitempty"`
}

func (r ImageRel) IsAbsent() bool {
	return r.Image == nil && r.Ref == nil
}

func (r ImageRel) IsResolved() bool {
	return r.Image != nil
}

// TagRel is one member of a tags relationship: a resolved term or the
// preserved reference. Members resolve independently of their siblings.
type TagRel struct {
	Term *TaxonomyTerm      `json:"term,omitempty"`
	Ref  *jsonapi.Reference `json:"ref,omitempty"`
}

func (r TagRel) IsResolved() bool {
	return r.Term != nil
}

// Body is the rich-text body of an article.
type Body struct {
	Value     string `json:"value"`
	Format    string `json:"format,omitempty"`
	Processed string `json:"processed,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// Article is a news item. Image resolves through the two-hop
// node → media → file chain, tags through the included taxonomy terms.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Created   time.Time `json:"created"`
	Changed   time.Time `json:"changed,omitempty"`
	Body      *Body     `json:"body,omitempty"`
	PathAlias string    `json:"path_alias,omitempty"`
	Image     ImageRel  `json:"image,omitempty"`
	Tags      []TagRel  `json:"tags,omitempty"`
}

// Team is one of the club's squads.
type Team struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Division  string   `json:"division,omitempty"`
	TeamRefID int64    `json:"team_ref_id,omitempty"`
	PathAlias string   `json:"path_alias,omitempty"`
	Image     ImageRel `json:"image,omitempty"`
}

// Player positions, the closed set the CMS editors pick from.
const (
	PositionKeeper     = "keeper"
	PositionDefender   = "defender"
	PositionMidfielder = "midfielder"
	PositionForward    = "forward"
)

type Player struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Position    string   `json:"position,omitempty"`
	ShirtNumber *int     `json:"shirt_number,omitempty"`
	PathAlias   string   `json:"path_alias,omitempty"`
	Image       ImageRel `json:"image,omitempty"`
}

type Event struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end,omitempty"`
	Location  string     `json:"location,omitempty"`
	PathAlias string     `json:"path_alias,omitempty"`
	Image     ImageRel   `json:"image,omitempty"`
}

// Sponsor logos reference their file directly, without a media wrapper.
type Sponsor struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Website string   `json:"website,omitempty"`
	Logo    ImageRel `json:"logo,omitempty"`
}

type TaxonomyTerm struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	PathAlias string `json:"path_alias,omitempty"`
}

// File is an uploaded file. Only two image formats pass validation; that
// restriction is a content-security constraint, not an oversight.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	URI      FileURI
	FileMime string `json:"filemime"`
	FileSize int    `json:"filesize,omitempty"`
}

type FileURI struct {
	URL string `json:"url"`
}

// Media wraps a file with editorial metadata; the alt/size meta consumers
// need sits on its file reference, not on the file entity.
type Media struct {
	ID   string
	Name string
	File jsonapi.Reference
}

// Unknown is the fallback shape for included resources the system does not
// model explicitly, so discriminated unions stay forward compatible.
type Unknown struct {
	ID            string
	Type          string
	Attributes    map[string]any
	Relationships map[string]jsonapi.Relationship
}
