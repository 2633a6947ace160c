package cms

import (
	"context"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/soniCaH/kcvv-data/internal/fetch"
	"github.com/soniCaH/kcvv-data/internal/jsonapi"
	"github.com/soniCaH/kcvv-data/internal/platform/logging"
)

const (
	mediaTypeJSONAPI = "application/vnd.api+json"
	defaultPageLimit = 10
	listPageLimit    = 50
)

// Config wires a Client to the CMS. BaseURL is the JSON:API root; SiteURL is
// the public origin used to absolutize relative file URLs.
type Config struct {
	BaseURL    string
	SiteURL    string
	PageLimit  int
	HTTPClient *http.Client
	MaxRetries int
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client reads typed, relationship-resolved content from the CMS.
type Client struct {
	fetch     *fetch.Client
	baseURL   string
	siteURL   string
	resolver  *Resolver
	log       *logging.Logger
	pageLimit int
}

func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}

	header := http.Header{}
	header.Set("Accept", mediaTypeJSONAPI)
	header.Set("Content-Type", mediaTypeJSONAPI)

	return &Client{
		fetch: fetch.NewClient(fetch.Config{
			HTTPClient: cfg.HTTPClient,
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout,
			Header:     header,
		}),
		baseURL:   cfg.BaseURL,
		siteURL:   strings.TrimRight(cfg.SiteURL, "/"),
		resolver:  NewResolver(cfg.SiteURL),
		log:       log,
		pageLimit: pageLimit,
	}
}

// GetArticle fetches one article with its image chain and tags included.
func (c *Client) GetArticle(ctx context.Context, id string) (Article, error) {
	url := jsonapi.NewQuery().
		Include("field_media_article_image.field_media_image", "field_tags").
		BuildURL(c.baseURL, "/node/article/"+id)

	doc, err := c.getDocument(ctx, url, TypeArticle, id)
	if err != nil {
		return Article{}, err
	}
	article, err := ValidateArticle(doc.Data)
	if err != nil {
		return Article{}, err
	}
	return c.resolver.ResolveArticle(article, jsonapi.BuildIncludedSet(doc.Included)), nil
}

// ListArticles returns one page of articles, newest first, and reports
// whether a further page exists.
func (c *Client) ListArticles(ctx context.Context, offset int) ([]Article, bool, error) {
	url := jsonapi.NewQuery().
		Include("field_media_article_image.field_media_image", "field_tags").
		Sort("-created").
		PageLimit(c.pageLimit).
		PageOffset(offset).
		BuildURL(c.baseURL, "/node/article")

	doc, err := c.getCollection(ctx, url)
	if err != nil {
		return nil, false, err
	}

	included := jsonapi.BuildIncludedSet(doc.Included)
	articles := make([]Article, 0, len(doc.Data))
	for _, res := range doc.Data {
		article, err := ValidateArticle(res)
		if err != nil {
			c.log.WarnContext(ctx, "skipping invalid article", "id", res.ID, "error", err)
			continue
		}
		articles = append(articles, c.resolver.ResolveArticle(article, included))
	}
	return articles, doc.Links.HasNext(), nil
}

func (c *Client) GetTeam(ctx context.Context, id string) (Team, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		BuildURL(c.baseURL, "/node/team/"+id)

	doc, err := c.getDocument(ctx, url, TypeTeam, id)
	if err != nil {
		return Team{}, err
	}
	team, err := ValidateTeam(doc.Data)
	if err != nil {
		return Team{}, err
	}
	return c.resolver.ResolveTeam(team, jsonapi.BuildIncludedSet(doc.Included)), nil
}

func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		Sort("title").
		PageLimit(listPageLimit).
		BuildURL(c.baseURL, "/node/team")

	doc, err := c.getCollection(ctx, url)
	if err != nil {
		return nil, err
	}

	included := jsonapi.BuildIncludedSet(doc.Included)
	teams := make([]Team, 0, len(doc.Data))
	for _, res := range doc.Data {
		team, err := ValidateTeam(res)
		if err != nil {
			c.log.WarnContext(ctx, "skipping invalid team", "id", res.ID, "error", err)
			continue
		}
		teams = append(teams, c.resolver.ResolveTeam(team, included))
	}
	return teams, nil
}

func (c *Client) GetPlayer(ctx context.Context, id string) (Player, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		BuildURL(c.baseURL, "/node/player/"+id)

	doc, err := c.getDocument(ctx, url, TypePlayer, id)
	if err != nil {
		return Player{}, err
	}
	player, err := ValidatePlayer(doc.Data)
	if err != nil {
		return Player{}, err
	}
	return c.resolver.ResolvePlayer(player, jsonapi.BuildIncludedSet(doc.Included)), nil
}

// ListPlayersByTeam returns the roster of one team, keepers first by shirt
// number left to the caller; the CMS orders by last name.
func (c *Client) ListPlayersByTeam(ctx context.Context, teamID string) ([]Player, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		Filter("field_team.id", teamID).
		Sort("field_lastname").
		PageLimit(listPageLimit).
		BuildURL(c.baseURL, "/node/player")

	doc, err := c.getCollection(ctx, url)
	if err != nil {
		return nil, err
	}

	included := jsonapi.BuildIncludedSet(doc.Included)
	players := make([]Player, 0, len(doc.Data))
	for _, res := range doc.Data {
		player, err := ValidatePlayer(res)
		if err != nil {
			c.log.WarnContext(ctx, "skipping invalid player", "id", res.ID, "error", err)
			continue
		}
		players = append(players, c.resolver.ResolvePlayer(player, included))
	}
	return players, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		BuildURL(c.baseURL, "/node/event/"+id)

	doc, err := c.getDocument(ctx, url, TypeEvent, id)
	if err != nil {
		return Event{}, err
	}
	event, err := ValidateEvent(doc.Data)
	if err != nil {
		return Event{}, err
	}
	return c.resolver.ResolveEvent(event, jsonapi.BuildIncludedSet(doc.Included)), nil
}

// ListEvents returns upcoming events in chronological order.
func (c *Client) ListEvents(ctx context.Context, from time.Time) ([]Event, error) {
	url := jsonapi.NewQuery().
		Include("field_media_image.field_media_image").
		FilterCondition("upcoming", "field_event_date", ">=", from.Format(time.RFC3339)).
		Sort("field_event_date").
		PageLimit(listPageLimit).
		BuildURL(c.baseURL, "/node/event")

	doc, err := c.getCollection(ctx, url)
	if err != nil {
		return nil, err
	}

	included := jsonapi.BuildIncludedSet(doc.Included)
	events := make([]Event, 0, len(doc.Data))
	for _, res := range doc.Data {
		event, err := ValidateEvent(res)
		if err != nil {
			c.log.WarnContext(ctx, "skipping invalid event", "id", res.ID, "error", err)
			continue
		}
		events = append(events, c.resolver.ResolveEvent(event, included))
	}
	return events, nil
}

func (c *Client) ListSponsors(ctx context.Context) ([]Sponsor, error) {
	url := jsonapi.NewQuery().
		Include("field_logo").
		Sort("title").
		PageLimit(listPageLimit).
		BuildURL(c.baseURL, "/node/sponsor")

	doc, err := c.getCollection(ctx, url)
	if err != nil {
		return nil, err
	}

	included := jsonapi.BuildIncludedSet(doc.Included)
	sponsors := make([]Sponsor, 0, len(doc.Data))
	for _, res := range doc.Data {
		sponsor, err := ValidateSponsor(res)
		if err != nil {
			c.log.WarnContext(ctx, "skipping invalid sponsor", "id", res.ID, "error", err)
			continue
		}
		sponsors = append(sponsors, c.resolver.ResolveSponsor(sponsor, included))
	}
	return sponsors, nil
}

func (c *Client) getDocument(ctx context.Context, url, kind, id string) (*jsonapi.Document, error) {
	var doc *jsonapi.Document
	err := c.fetch.GetJSON(ctx, url, func(raw []byte) error {
		decoded, err := jsonapi.DecodeDocument(raw)
		if err != nil {
			return markDecode(err)
		}
		doc = decoded
		return nil
	})
	if err != nil {
		if status, ok := fetch.StatusCode(err); ok && status == http.StatusNotFound {
			return nil, fetch.NewNotFoundError(kind, id)
		}
		return nil, err
	}
	return doc, nil
}

func (c *Client) getCollection(ctx context.Context, url string) (*jsonapi.CollectionDocument, error) {
	var doc *jsonapi.CollectionDocument
	err := c.fetch.GetJSON(ctx, url, func(raw []byte) error {
		decoded, err := jsonapi.DecodeCollection(raw)
		if err != nil {
			return markDecode(err)
		}
		doc = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// markDecode classifies an envelope decode failure. Wrong arity means the
// body was valid JSON of the wrong shape; retrying cannot fix it, so it is
// surfaced as a validation failure rather than a parse failure.
func markDecode(err error) error {
	if crerr.Is(err, jsonapi.ErrWrongArity) {
		return fetch.NewValidationError("document", fetch.Violation{Field: "data", Constraint: err.Error()})
	}
	return crerr.Mark(err, fetch.ErrParse)
}
