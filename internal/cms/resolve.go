package cms

import (
	"strings"

	"github.com/soniCaH/kcvv-data/internal/jsonapi"
)

// Resolver upgrades sparse relationship references into attributed records
// using the included set of the same response. Resolution never fails a
// request: a slot whose chain cannot be completed keeps its original
// reference untouched.
type Resolver struct {
	siteURL string
}

func NewResolver(siteURL string) *Resolver {
	return &Resolver{siteURL: strings.TrimRight(siteURL, "/")}
}

func (r *Resolver) ResolveArticle(article Article, included jsonapi.IncludedSet) Article {
	out := article
	out.Image = r.resolveImage(article.Image, included)
	out.Tags = r.resolveTags(article.Tags, included)
	return out
}

func (r *Resolver) ResolveArticles(articles []Article, included jsonapi.IncludedSet) []Article {
	out := make([]Article, len(articles))
	for i, article := range articles {
		out[i] = r.ResolveArticle(article, included)
	}
	return out
}

func (r *Resolver) ResolveTeam(team Team, included jsonapi.IncludedSet) Team {
	out := team
	out.Image = r.resolveImage(team.Image, included)
	return out
}

func (r *Resolver) ResolveTeams(teams []Team, included jsonapi.IncludedSet) []Team {
	out := make([]Team, len(teams))
	for i, team := range teams {
		out[i] = r.ResolveTeam(team, included)
	}
	return out
}

func (r *Resolver) ResolvePlayer(player Player, included jsonapi.IncludedSet) Player {
	out := player
	out.Image = r.resolveImage(player.Image, included)
	return out
}

func (r *Resolver) ResolvePlayers(players []Player, included jsonapi.IncludedSet) []Player {
	out := make([]Player, len(players))
	for i, player := range players {
		out[i] = r.ResolvePlayer(player, included)
	}
	return out
}

func (r *Resolver) ResolveEvent(event Event, included jsonapi.IncludedSet) Event {
	out := event
	out.Image = r.resolveImage(event.Image, included)
	return out
}

func (r *Resolver) ResolveEvents(events []Event, included jsonapi.IncludedSet) []Event {
	out := make([]Event, len(events))
	for i, event := range events {
		out[i] = r.ResolveEvent(event, included)
	}
	return out
}

func (r *Resolver) ResolveSponsor(sponsor Sponsor, included jsonapi.IncludedSet) Sponsor {
	out := sponsor
	out.Logo = r.resolveImage(sponsor.Logo, included)
	return out
}

func (r *Resolver) ResolveSponsors(sponsors []Sponsor, included jsonapi.IncludedSet) []Sponsor {
	out := make([]Sponsor, len(sponsors))
	for i, sponsor := range sponsors {
		out[i] = r.ResolveSponsor(sponsor, included)
	}
	return out
}

// resolveImage walks an image slot to its file. Article, team, player and
// event images go through a media entity first; sponsor logos point at the
// file directly. Display meta rides on the reference closest to the file.
func (r *Resolver) resolveImage(rel ImageRel, included jsonapi.IncludedSet) ImageRel {
	if rel.Ref == nil || rel.IsResolved() {
		return rel
	}

	fileRef := *rel.Ref
	if fileRef.Type == TypeMediaImage {
		mediaRes, ok := included.Lookup(fileRef)
		if !ok {
			return rel
		}
		media, err := ValidateMedia(mediaRes)
		if err != nil {
			return rel
		}
		fileRef = media.File
		if fileRef.Meta == nil {
			fileRef.Meta = rel.Ref.Meta
		}
	}
	if fileRef.Type != TypeFile {
		return rel
	}

	fileRes, ok := included.Lookup(fileRef)
	if !ok {
		return rel
	}
	file, err := ValidateFile(fileRes)
	if err != nil {
		return rel
	}

	image := &Image{URI: ImageURI{URL: r.absoluteFileURL(file.URI.URL)}}
	if fileRef.Meta != nil {
		image.Alt = fileRef.Meta.Alt
		image.Width = int(fileRef.Meta.Width)
		image.Height = int(fileRef.Meta.Height)
	}
	return ImageRel{Image: image}
}

// resolveTags resolves each member on its own; one broken term does not
// taint its siblings. Members the validator already attributed pass through
// unchanged.
func (r *Resolver) resolveTags(tags []TagRel, included jsonapi.IncludedSet) []TagRel {
	if len(tags) == 0 {
		return tags
	}
	out := make([]TagRel, len(tags))
	for i, tag := range tags {
		if tag.IsResolved() || tag.Ref == nil {
			out[i] = tag
			continue
		}
		termRes, ok := included.Lookup(*tag.Ref)
		if !ok {
			out[i] = tag
			continue
		}
		term, err := ValidateTaxonomyTerm(termRes)
		if err != nil {
			out[i] = tag
			continue
		}
		out[i] = TagRel{Term: &term}
	}
	return out
}

func (r *Resolver) absoluteFileURL(url string) string {
	if url == "" || strings.Contains(url, "://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return r.siteURL + url
}
