package stats

import "time"

// MatchStatus is the closed internal status vocabulary. The provider
// transmits numeric codes; MapStatus folds them onto this set.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusFinished  MatchStatus = "finished"
	StatusLive      MatchStatus = "live"
	StatusPostponed MatchStatus = "postponed"
	StatusCancelled MatchStatus = "cancelled"
)

// LineupStatus is the internal lineup vocabulary mapped from the provider's
// Dutch status words plus the changed flag.
type LineupStatus string

const (
	LineupStarter     LineupStatus = "starter"
	LineupSubstitute  LineupStatus = "substitute"
	LineupSubstituted LineupStatus = "substituted"
	LineupSubbedIn    LineupStatus = "subbed_in"
	LineupUnknown     LineupStatus = "unknown"
)

// ClubRef identifies one club in a match or ranking row, logo URL already
// derived from the club id.
type ClubRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// Match is one normalized fixture.
type Match struct {
	ID          int64       `json:"id"`
	Date        time.Time   `json:"date"`
	Status      MatchStatus `json:"status"`
	Competition string      `json:"competition,omitempty"`
	Home        ClubRef     `json:"home"`
	Away        ClubRef     `json:"away"`
	HomeGoals   *int        `json:"home_goals,omitempty"`
	AwayGoals   *int        `json:"away_goals,omitempty"`
}

// LineupPlayer is one player slot in a match detail lineup.
type LineupPlayer struct {
	Name          string       `json:"name"`
	Number        int          `json:"number,omitempty"`
	Status        LineupStatus `json:"status"`
	MinuteChanged int          `json:"minute_changed,omitempty"`
}

// Lineup splits the named squads of both sides.
type Lineup struct {
	Home []LineupPlayer `json:"home,omitempty"`
	Away []LineupPlayer `json:"away,omitempty"`
}

// MatchEvent is one timeline entry of a match detail.
type MatchEvent struct {
	Minute int    `json:"minute"`
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	Side   string `json:"side,omitempty"`
}

// MatchDetail is the normalized match-detail envelope. Lineup and events
// are optional upstream; a missing section stays empty rather than failing.
type MatchDetail struct {
	General Match        `json:"general"`
	Lineup  Lineup       `json:"lineup,omitempty"`
	Events  []MatchEvent `json:"events,omitempty"`
}

// RankingEntry is one row of a league table.
type RankingEntry struct {
	Position     int     `json:"position"`
	Club         ClubRef `json:"club"`
	Played       int     `json:"played"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     int     `json:"goals_for"`
	GoalsAgainst int     `json:"goals_against"`
	Points       int     `json:"points"`
}

// TeamStats is the aggregate season line of one team.
type TeamStats struct {
	TeamID       int64 `json:"team_id"`
	Played       int   `json:"played"`
	Wins         int   `json:"wins"`
	Draws        int   `json:"draws"`
	Losses       int   `json:"losses"`
	GoalsFor     int   `json:"goals_for"`
	GoalsAgainst int   `json:"goals_against"`
	CleanSheets  int   `json:"clean_sheets"`
}

// TeamOverview bundles the per-team reads the frontend shows on one page.
type TeamOverview struct {
	Matches []Match        `json:"matches"`
	Ranking []RankingEntry `json:"ranking"`
	Stats   TeamStats      `json:"stats"`
}

// --- provider wire shapes -------------------------------------------------

type wireClub struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireMatch struct {
	ID          int64    `json:"id"`
	Date        string   `json:"date"`
	Status      int      `json:"status"`
	Competition string   `json:"competitionType"`
	HomeClub    wireClub `json:"homeClub"`
	AwayClub    wireClub `json:"awayClub"`
	HomeGoals   *int     `json:"goalsHomeTeam"`
	AwayGoals   *int     `json:"goalsAwayTeam"`
}

type wireLineupPlayer struct {
	Name          string `json:"name"`
	Number        int    `json:"number"`
	Status        string `json:"status"`
	Changed       bool   `json:"changed"`
	MinuteChanged int    `json:"minuteChanged"`
}

type wireLineup struct {
	Home []wireLineupPlayer `json:"home"`
	Away []wireLineupPlayer `json:"away"`
}

type wireEvent struct {
	Minute int    `json:"minute"`
	Type   string `json:"type"`
	Player string `json:"player"`
	Side   string `json:"team"`
}

type wireMatchDetail struct {
	General *wireMatch  `json:"general"`
	Lineup  *wireLineup `json:"lineup"`
	Events  []wireEvent `json:"events"`
}

type wireRankingEntry struct {
	Position     int      `json:"position"`
	Team         wireClub `json:"team"`
	Played       int      `json:"matches"`
	Wins         int      `json:"wins"`
	Draws        int      `json:"draws"`
	Losses       int      `json:"losses"`
	GoalsFor     int      `json:"goalsFor"`
	GoalsAgainst int      `json:"goalsAgainst"`
	Points       int      `json:"points"`
}

type wireTeamStats struct {
	TeamID       int64 `json:"teamId"`
	Played       int   `json:"matchesPlayed"`
	Wins         int   `json:"wins"`
	Draws        int   `json:"draws"`
	Losses       int   `json:"losses"`
	GoalsFor     int   `json:"goalsFor"`
	GoalsAgainst int   `json:"goalsAgainst"`
	CleanSheets  int   `json:"cleanSheets"`
}
