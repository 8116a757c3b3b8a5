package models

import (
	"strings"

	"nhl_sync/ingestion/internal/store"
)

const (
	defaultTeamName = "Unknown Team"
	defaultTeamCity = "Unknown City"
)

// Team is the normalized standings record for one franchise
type Team struct {
	ID       string
	Name     string
	City     string
	FullName string
	Logo     *string

	Conference *string
	Division   *string

	Wins           int
	Losses         int
	OvertimeLosses int
	Points         int
	TotalGames     int

	WinPercentage    float64
	PointsPercentage float64

	Raw Payload
}

// StandingInput is one entry of the upstream standings list. Only the
// abbreviation is required; every other field falls back to its default
// when absent or of the wrong type.
type StandingInput struct {
	TeamAbbrev     DefaultText   `json:"teamAbbrev"`
	TeamName       DefaultText   `json:"teamName"`
	PlaceName      DefaultText   `json:"placeName"`
	TeamLogo       OptionalText  `json:"teamLogo"`
	ConferenceName OptionalText  `json:"conferenceName"`
	DivisionName   OptionalText  `json:"divisionName"`
	Wins           OptionalInt   `json:"wins"`
	Losses         OptionalInt   `json:"losses"`
	OTLosses       OptionalInt   `json:"otLosses"`
	Points         OptionalInt   `json:"points"`
	GamesPlayed    OptionalInt   `json:"gamesPlayed"`
	WinPctg        OptionalFloat `json:"winPctg"`
	PointPctg      OptionalFloat `json:"pointPctg"`
}

// ToTeam converts StandingInput (from API) to Team model.
// FullName is left empty; see ComputeFullName.
func (si *StandingInput) ToTeam(raw Payload) *Team {
	team := &Team{
		ID:               si.TeamAbbrev.Value,
		Name:             si.TeamName.Or(defaultTeamName),
		City:             si.PlaceName.Or(defaultTeamCity),
		Logo:             si.TeamLogo.Ptr(),
		Wins:             si.Wins.Int(),
		Losses:           si.Losses.Int(),
		OvertimeLosses:   si.OTLosses.Int(),
		Points:           si.Points.Int(),
		TotalGames:       si.GamesPlayed.Int(),
		WinPercentage:    si.WinPctg.Value,
		PointsPercentage: si.PointPctg.Value,
		Raw:              raw,
	}
	if si.ConferenceName.Valid {
		team.Conference = &si.ConferenceName.Value
	}
	if si.DivisionName.Valid {
		team.Division = &si.DivisionName.Value
	}
	return team
}

// TransformTeam maps one raw standings entry onto a Team. It fails only when
// the team abbreviation is missing.
func TransformTeam(raw Payload) (*Team, error) {
	var input StandingInput
	if err := decodePayload(raw, &input); err != nil {
		return nil, &TransformError{Entity: "team", Field: "standing", Err: err}
	}
	if input.TeamAbbrev.Value == "" {
		return nil, &TransformError{Entity: "team", Field: "teamAbbrev.default"}
	}
	return input.ToTeam(raw), nil
}

// ComputeFullName sets FullName from the already transformed city and name.
func (t *Team) ComputeFullName() {
	t.FullName = strings.TrimSpace(t.City + " " + t.Name)
}

// Document renders the persisted shape of the team.
func (t *Team) Document() store.Document {
	doc := store.Document{
		"id":               t.ID,
		"name":             t.Name,
		"city":             t.City,
		"fullName":         t.FullName,
		"wins":             t.Wins,
		"losses":           t.Losses,
		"overtimeLosses":   t.OvertimeLosses,
		"points":           t.Points,
		"totalGames":       t.TotalGames,
		"winPercentage":    t.WinPercentage,
		"pointsPercentage": t.PointsPercentage,
		"raw":              t.Raw,
		"updatedAt":        store.ServerTimestamp,
	}

	if t.Logo != nil {
		doc["logo"] = *t.Logo
	} else {
		doc["logo"] = nil
	}

	// Absent classification is left out so a merge keeps the stored value
	if t.Conference != nil {
		doc["conference"] = *t.Conference
	}
	if t.Division != nil {
		doc["division"] = *t.Division
	}

	return doc
}
