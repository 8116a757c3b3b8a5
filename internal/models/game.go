package models

import (
	"fmt"
	"strconv"
	"time"

	"nhl_sync/ingestion/internal/store"
)

// Upstream game states
const (
	GameStateFuture   = "FUT"
	GameStatePregame  = "PRE"
	GameStateLive     = "LIVE"
	GameStateCritical = "CRIT"
	GameStateFinal    = "FINAL"
	GameStateOfficial = "OFF"

	GameStateUnknown = "UNKNOWN"
)

const unknownTeamName = "UNKNOWN_TEAM"

// detailEligibleStates are states in which the game has started, so a
// boxscore exists upstream.
var detailEligibleStates = map[string]bool{
	GameStateLive:     true,
	GameStateCritical: true,
	GameStateFinal:    true,
	GameStateOfficial: true,
}

// IsDetailEligible returns true if a boxscore should be fetched for state
func IsDetailEligible(state string) bool {
	return detailEligibleStates[state]
}

// IsFinalState returns true if the game is completed and its detail will
// not change anymore
func IsFinalState(state string) bool {
	return state == GameStateFinal || state == GameStateOfficial
}

// TeamSummary is the per-side team block embedded in a game
type TeamSummary struct {
	ID          int64
	Name        string
	Abbrev      string
	Score       int
	LogoURL     *string
	DarkLogoURL *string
}

// Game is the normalized schedule/result record for one game
type Game struct {
	GameID    int64
	StartTime time.Time
	Status    string
	HomeTeam  TeamSummary
	AwayTeam  TeamSummary

	RawSchedule Payload
	RawBoxscore Payload
}

// ScheduleGameInput is the game level of one upstream schedule entry. The
// two sides are decoded separately so a malformed side is reported against
// the game id.
type ScheduleGameInput struct {
	ID           OptionalInt  `json:"id"`
	GameState    OptionalText `json:"gameState"`
	StartTimeUTC OptionalText `json:"startTimeUTC"`
}

// ScheduleTeamInput is one side of a scheduled game
type ScheduleTeamInput struct {
	ID       OptionalInt     `json:"id"`
	Name     LocalizedString `json:"name"`
	Abbrev   OptionalText    `json:"abbrev"`
	Score    OptionalInt     `json:"score"`
	Logo     OptionalText    `json:"logo"`
	DarkLogo OptionalText    `json:"darkLogo"`
}

// BoxscoreInput holds the parts of the game detail payload we read
type BoxscoreInput struct {
	HomeTeam *BoxscoreTeamInput
	AwayTeam *BoxscoreTeamInput
}

// BoxscoreTeamInput is one side of a boxscore
type BoxscoreTeamInput struct {
	Score OptionalInt `json:"score"`
}

// TeamName resolves the display name, falling back to the abbreviation and
// then to a sentinel.
func (ti *ScheduleTeamInput) TeamName() string {
	if ti.Name.Valid {
		return ti.Name.Value
	}
	if ti.Abbrev.Value != "" {
		return ti.Abbrev.Value
	}
	return unknownTeamName
}

func (ti *ScheduleTeamInput) toSummary(detail *BoxscoreTeamInput) TeamSummary {
	return TeamSummary{
		ID:          ti.ID.Value,
		Name:        ti.TeamName(),
		Abbrev:      ti.Abbrev.Value,
		Score:       resolveScore(detail, ti.Score),
		LogoURL:     ti.Logo.Ptr(),
		DarkLogoURL: ti.DarkLogo.Ptr(),
	}
}

// resolveScore prefers the detail score, then the schedule score, then 0.
func resolveScore(detail *BoxscoreTeamInput, scheduled OptionalInt) int {
	if detail != nil && detail.Score.Valid {
		return detail.Score.Int()
	}
	return scheduled.Int()
}

// decodeScheduleSide reads one side of game gameID. A missing side, or one
// that is not an object, is a TransformError.
func decodeScheduleSide(schedule Payload, field, gameID string) (*ScheduleTeamInput, error) {
	var side *ScheduleTeamInput
	if err := decodeValue(schedule[field], &side); err != nil {
		return nil, &TransformError{Entity: "game", Field: field, EntityID: gameID, Err: err}
	}
	if side == nil {
		return nil, &TransformError{Entity: "game", Field: field, EntityID: gameID}
	}
	return side, nil
}

// decodeBoxscoreSide reads one side of a boxscore. Anything unreadable is
// treated as absent.
func decodeBoxscoreSide(boxscore Payload, field string) *BoxscoreTeamInput {
	var side *BoxscoreTeamInput
	if err := decodeValue(boxscore[field], &side); err != nil {
		return nil
	}
	return side
}

// TransformGame maps one raw schedule game, plus its boxscore when one was
// fetched, onto a Game. A nil or malformed boxscore is treated as absent.
func TransformGame(schedule, boxscore Payload) (*Game, error) {
	var input ScheduleGameInput
	if err := decodePayload(schedule, &input); err != nil {
		return nil, &TransformError{Entity: "game", Field: "schedule", Err: err}
	}
	if !input.ID.Valid || input.ID.Value == 0 {
		transformErr := &TransformError{Entity: "game", Field: "id"}
		if raw, ok := schedule["id"]; ok && raw != nil {
			transformErr.Err = fmt.Errorf("not a game id: %v", raw)
		}
		return nil, transformErr
	}

	gameID := strconv.FormatInt(input.ID.Value, 10)
	home, err := decodeScheduleSide(schedule, "homeTeam", gameID)
	if err != nil {
		return nil, err
	}
	away, err := decodeScheduleSide(schedule, "awayTeam", gameID)
	if err != nil {
		return nil, err
	}

	if boxscore == nil {
		boxscore = Payload{}
	}
	var detail BoxscoreInput
	if len(boxscore) > 0 {
		detail.HomeTeam = decodeBoxscoreSide(boxscore, "homeTeam")
		detail.AwayTeam = decodeBoxscoreSide(boxscore, "awayTeam")
	}

	status := input.GameState.Value
	if status == "" {
		status = GameStateUnknown
	}

	game := &Game{
		GameID:      input.ID.Value,
		Status:      status,
		HomeTeam:    home.toSummary(detail.HomeTeam),
		AwayTeam:    away.toSummary(detail.AwayTeam),
		RawSchedule: schedule,
		RawBoxscore: boxscore,
	}

	// Parse start time
	if startTime, err := time.Parse(time.RFC3339, input.StartTimeUTC.Value); err == nil {
		game.StartTime = startTime.UTC()
	}

	return game, nil
}

// Key returns the document id of the game
func (g *Game) Key() string {
	return strconv.FormatInt(g.GameID, 10)
}

// Document renders the persisted shape of the game.
func (g *Game) Document() store.Document {
	boxscore := g.RawBoxscore
	if boxscore == nil {
		boxscore = Payload{}
	}

	doc := store.Document{
		"gameId":   g.GameID,
		"status":   g.Status,
		"homeTeam": g.HomeTeam.document(),
		"awayTeam": g.AwayTeam.document(),
		"raw": store.Document{
			"schedule": g.RawSchedule,
			"boxscore": boxscore,
		},
		"updatedAt": store.ServerTimestamp,
	}
	if !g.StartTime.IsZero() {
		doc["startTime"] = g.StartTime
	}
	return doc
}

func (ts TeamSummary) document() store.Document {
	doc := store.Document{
		"id":          ts.ID,
		"name":        ts.Name,
		"abbrev":      ts.Abbrev,
		"score":       ts.Score,
		"logoUrl":     nil,
		"darkLogoUrl": nil,
	}
	if ts.LogoURL != nil {
		doc["logoUrl"] = *ts.LogoURL
	}
	if ts.DarkLogoURL != nil {
		doc["darkLogoUrl"] = *ts.DarkLogoURL
	}
	return doc
}
