package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/soniCaH/kcvv-data/internal/fetch"
)

// providerDateLayout is the provider's date format: local wall-clock time
// with no zone designator. It must be parsed in the local zone; parsing as
// UTC shifts every kickoff by the zone offset.
const providerDateLayout = "2006-01-02 15:04"

// MapStatus folds a provider status code onto the internal vocabulary.
// The provider occasionally emits undocumented codes; those read as
// scheduled rather than failing the whole payload.
func MapStatus(code int) MatchStatus {
	switch code {
	case 0:
		return StatusScheduled
	case 1:
		return StatusFinished
	case 2:
		return StatusLive
	case 3:
		return StatusPostponed
	case 4:
		return StatusCancelled
	default:
		return StatusScheduled
	}
}

// MapLineupStatus maps the provider's Dutch lineup word together with the
// changed flag. The same word means different things depending on whether
// the player was involved in a substitution.
func MapLineupStatus(word string, changed bool) LineupStatus {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "basis":
		if changed {
			return LineupSubstituted
		}
		return LineupStarter
	case "invaller":
		if changed {
			return LineupSubbedIn
		}
		return LineupSubstitute
	case "wissel":
		return LineupSubstituted
	default:
		return LineupUnknown
	}
}

// ParseLocalDateTime parses the provider's zoneless datetime as wall-clock
// local time.
func ParseLocalDateTime(raw string) (time.Time, error) {
	return time.ParseInLocation(providerDateLayout, strings.TrimSpace(raw), time.Local)
}

// LogoURL derives a club crest URL from the club id against the CDN path
// template. A template without a %d verb gets the id appended.
func LogoURL(template string, clubID int64) string {
	if clubID <= 0 {
		return ""
	}
	if strings.Contains(template, "%d") {
		return fmt.Sprintf(template, clubID)
	}
	return fmt.Sprintf("%s/%d.jpg", strings.TrimRight(template, "/"), clubID)
}

// --- wire-to-internal normalizers ----------------------------------------

func normalizeMatch(w wireMatch, logoTemplate string) (Match, error) {
	var violations []fetch.Violation
	if w.ID <= 0 {
		violations = append(violations, fetch.Violation{Field: "id", Constraint: "required positive id"})
	}

	date, err := ParseLocalDateTime(w.Date)
	if err != nil {
		violations = append(violations, fetch.Violation{Field: "date", Constraint: "must be YYYY-MM-DD HH:MM"})
	}
	if len(violations) > 0 {
		return Match{}, fetch.NewValidationError("match", violations...)
	}

	return Match{
		ID:          w.ID,
		Date:        date,
		Status:      MapStatus(w.Status),
		Competition: w.Competition,
		Home:        normalizeClub(w.HomeClub, logoTemplate),
		Away:        normalizeClub(w.AwayClub, logoTemplate),
		HomeGoals:   w.HomeGoals,
		AwayGoals:   w.AwayGoals,
	}, nil
}

func normalizeClub(w wireClub, logoTemplate string) ClubRef {
	return ClubRef{
		ID:      w.ID,
		Name:    w.Name,
		LogoURL: LogoURL(logoTemplate, w.ID),
	}
}

func normalizeMatches(wires []wireMatch, logoTemplate string) ([]Match, error) {
	matches := make([]Match, 0, len(wires))
	for _, w := range wires {
		match, err := normalizeMatch(w, logoTemplate)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func normalizeMatchDetail(w wireMatchDetail, logoTemplate string) (MatchDetail, error) {
	if w.General == nil {
		return MatchDetail{}, fetch.NewValidationError("match_detail",
			fetch.Violation{Field: "general", Constraint: "required"})
	}
	general, err := normalizeMatch(*w.General, logoTemplate)
	if err != nil {
		return MatchDetail{}, err
	}

	detail := MatchDetail{General: general}
	if w.Lineup != nil {
		detail.Lineup = Lineup{
			Home: normalizeLineupSide(w.Lineup.Home),
			Away: normalizeLineupSide(w.Lineup.Away),
		}
	}
	for _, event := range w.Events {
		detail.Events = append(detail.Events, MatchEvent{
			Minute: event.Minute,
			Type:   event.Type,
			Player: event.Player,
			Side:   event.Side,
		})
	}
	return detail, nil
}

func normalizeLineupSide(wires []wireLineupPlayer) []LineupPlayer {
	if len(wires) == 0 {
		return nil
	}
	players := make([]LineupPlayer, 0, len(wires))
	for _, w := range wires {
		players = append(players, LineupPlayer{
			Name:          w.Name,
			Number:        w.Number,
			Status:        MapLineupStatus(w.Status, w.Changed),
			MinuteChanged: w.MinuteChanged,
		})
	}
	return players
}

func normalizeRanking(wires []wireRankingEntry, logoTemplate string) ([]RankingEntry, error) {
	ranking := make([]RankingEntry, 0, len(wires))
	for _, w := range wires {
		if w.Position <= 0 {
			return nil, fetch.NewValidationError("ranking",
				fetch.Violation{Field: "position", Constraint: "required positive position"})
		}
		ranking = append(ranking, RankingEntry{
			Position:     w.Position,
			Club:         normalizeClub(w.Team, logoTemplate),
			Played:       w.Played,
			Wins:         w.Wins,
			Draws:        w.Draws,
			Losses:       w.Losses,
			GoalsFor:     w.GoalsFor,
			GoalsAgainst: w.GoalsAgainst,
			Points:       w.Points,
		})
	}
	return ranking, nil
}

func normalizeTeamStats(w wireTeamStats) TeamStats {
	return TeamStats{
		TeamID:       w.TeamID,
		Played:       w.Played,
		Wins:         w.Wins,
		Draws:        w.Draws,
		Losses:       w.Losses,
		GoalsFor:     w.GoalsFor,
		GoalsAgainst: w.GoalsAgainst,
		CleanSheets:  w.CleanSheets,
	}
}
