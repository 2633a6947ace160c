package cms

import (
	"context"
	"net/http"
	"net/url"

	"github.com/soniCaH/kcvv-data/internal/fetch"
)

// Entity kinds the path-resolution endpoint covers. Article aliases predate
// its deployment and still resolve by walking the collection; see
// GetArticleByAlias.
var pathEndpointKinds = map[string]bool{
	TypeTeam:   true,
	TypePlayer: true,
	TypeEvent:  true,
}

// PathEndpointCovers reports whether aliases of the given entity kind go
// through the path endpoint rather than a collection walk.
func PathEndpointCovers(kind string) bool {
	return pathEndpointKinds[kind]
}

// routedPath is the wire shape of the site's path translation endpoint.
type routedPath struct {
	Entity struct {
		Type   string `json:"type"`
		Bundle string `json:"bundle"`
		UUID   string `json:"uuid"`
	} `json:"entity"`
	JSONAPI struct {
		Individual   string `json:"individual"`
		ResourceName string `json:"resourceName"`
	} `json:"jsonapi"`
}

// ResolvePath translates a site path into the entity kind and id behind it.
// An unroutable path surfaces as not found.
func (c *Client) ResolvePath(ctx context.Context, path string) (kind, id string, err error) {
	query := url.Values{}
	query.Set("path", path)
	query.Set("_format", "json")
	fullURL := c.siteURL + "/router/translate-path?" + query.Encode()

	var routed routedPath
	err = c.fetch.GetJSON(ctx, fullURL, func(raw []byte) error {
		return fetch.DecodeJSON(raw, &routed)
	})
	if err != nil {
		if status, ok := fetch.StatusCode(err); ok && status == http.StatusNotFound {
			return "", "", fetch.NewNotFoundError("path", path)
		}
		return "", "", err
	}
	if routed.JSONAPI.ResourceName == "" || routed.Entity.UUID == "" {
		return "", "", fetch.NewNotFoundError("path", path)
	}
	return routed.JSONAPI.ResourceName, routed.Entity.UUID, nil
}

// GetTeamByAlias resolves a team path alias through the path endpoint and
// fetches the team it names.
func (c *Client) GetTeamByAlias(ctx context.Context, alias string) (Team, error) {
	kind, id, err := c.ResolvePath(ctx, alias)
	if err != nil {
		return Team{}, err
	}
	if kind != TypeTeam {
		return Team{}, fetch.NewNotFoundError(TypeTeam, alias)
	}
	return c.GetTeam(ctx, id)
}

// GetPlayerByAlias resolves a player path alias through the path endpoint.
func (c *Client) GetPlayerByAlias(ctx context.Context, alias string) (Player, error) {
	kind, id, err := c.ResolvePath(ctx, alias)
	if err != nil {
		return Player{}, err
	}
	if kind != TypePlayer {
		return Player{}, fetch.NewNotFoundError(TypePlayer, alias)
	}
	return c.GetPlayer(ctx, id)
}

// GetEventByAlias resolves an event path alias through the path endpoint.
func (c *Client) GetEventByAlias(ctx context.Context, alias string) (Event, error) {
	kind, id, err := c.ResolvePath(ctx, alias)
	if err != nil {
		return Event{}, err
	}
	if kind != TypeEvent {
		return Event{}, fetch.NewNotFoundError(TypeEvent, alias)
	}
	return c.GetEvent(ctx, id)
}
