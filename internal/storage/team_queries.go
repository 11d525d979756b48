package storage

import (
	"fmt"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// TeamRecord holds one team's results across stored games.
type TeamRecord struct {
	TeamID       model.TeamID
	GamesPlayed  int
	GoalsFor     int
	GoalsAgainst int
	Wins         int
	Losses       int
}

// TeamRecords returns per-team results for games played on or after since
// ("YYYY-MM-DD", empty for all). When teamIDs is non-empty only those teams
// are returned. Rows are ordered by goal differential descending.
func (db *DB) TeamRecords(teamIDs []model.TeamID, since string) ([]TeamRecord, error) {
	args := []any{since, since}
	filter := ""
	if len(teamIDs) > 0 {
		filter = fmt.Sprintf("WHERE team_id IN (%s)", placeholders(len(teamIDs)))
		for _, id := range teamIDs {
			args = append(args, int64(id))
		}
	}

	query := fmt.Sprintf(`
		SELECT team_id, COUNT(*), SUM(gf), SUM(ga),
		       SUM(CASE WHEN gf > ga THEN 1 ELSE 0 END),
		       SUM(CASE WHEN gf < ga THEN 1 ELSE 0 END)
		FROM (
			SELECT home_team_id AS team_id, home_goals AS gf, away_goals AS ga
			FROM games WHERE game_date >= ?
			UNION ALL
			SELECT away_team_id, away_goals, home_goals
			FROM games WHERE game_date >= ?
		) t
		%s
		GROUP BY team_id
		ORDER BY SUM(gf) - SUM(ga) DESC, team_id`, filter)

	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamRecord
	for rows.Next() {
		var (
			r  TeamRecord
			id int64
		)
		if err := rows.Scan(&id, &r.GamesPlayed, &r.GoalsFor, &r.GoalsAgainst, &r.Wins, &r.Losses); err != nil {
			return nil, err
		}
		r.TeamID = model.TeamID(id)
		out = append(out, r)
	}
	return out, rows.Err()
}
