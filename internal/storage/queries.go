package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// GameExists returns true if a game with the given id is already stored.
func (db *DB) GameExists(gameID string) (bool, error) {
	var count int
	err := db.queryRow("SELECT COUNT(1) FROM games WHERE game_id = ?", gameID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertGame upserts a game summary row.
func (db *DB) InsertGame(s model.GameSummary) error {
	_, err := db.exec(`
		INSERT INTO games(game_id, game_date, home_team_id, away_team_id, home_goals, away_goals, shots, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			game_date = excluded.game_date,
			home_team_id = excluded.home_team_id,
			away_team_id = excluded.away_team_id,
			home_goals = excluded.home_goals,
			away_goals = excluded.away_goals,
			shots = excluded.shots,
			skipped = excluded.skipped`,
		s.GameID, s.Date, int64(s.HomeTeamID), int64(s.AwayTeamID),
		s.HomeGoals, s.AwayGoals, s.Shots, s.Skipped,
	)
	return err
}

const gameColumns = `game_id, game_date, home_team_id, away_team_id, home_goals, away_goals, shots, skipped`

func scanGame(sc interface{ Scan(...any) error }) (model.GameSummary, error) {
	var (
		s          model.GameSummary
		home, away int64
	)
	err := sc.Scan(&s.GameID, &s.Date, &home, &away, &s.HomeGoals, &s.AwayGoals, &s.Shots, &s.Skipped)
	s.HomeTeamID, s.AwayTeamID = model.TeamID(home), model.TeamID(away)
	return s, err
}

// ListGames returns all stored game summaries, newest first.
func (db *DB) ListGames() ([]model.GameSummary, error) {
	rows, err := db.query(`SELECT ` + gameColumns + ` FROM games ORDER BY game_date DESC, game_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameSummary
	for rows.Next() {
		s, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetGameByPrefix finds the first game whose id starts with prefix. It
// returns nil, nil when nothing matches.
func (db *DB) GetGameByPrefix(prefix string) (*model.GameSummary, error) {
	s, err := scanGame(db.queryRow(`
		SELECT `+gameColumns+` FROM games
		WHERE substr(game_id, 1, ?) = ?
		ORDER BY game_id LIMIT 1`, len(prefix), prefix))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteGame removes a game and its per-player rows.
func (db *DB) DeleteGame(gameID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(db.rebind("DELETE FROM player_game_metrics WHERE game_id = ?"), gameID); err != nil {
		return fmt.Errorf("delete player_game_metrics for %s: %w", gameID, err)
	}
	if _, err := tx.Exec(db.rebind("DELETE FROM games WHERE game_id = ?"), gameID); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	return tx.Commit()
}

// InsertPlayerGameMetrics upserts per-game rows in a transaction.
func (db *DB) InsertPlayerGameMetrics(rows []model.GameMetrics) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(db.rebind(`
		INSERT INTO player_game_metrics(
			game_id, player_id, team_id, game_date,
			goals, assists, points,
			cf, ca, ff, fa, sf, sa, gf, ga, xgf, xga
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(game_id, player_id) DO UPDATE SET
			team_id = excluded.team_id, game_date = excluded.game_date,
			goals = excluded.goals, assists = excluded.assists, points = excluded.points,
			cf = excluded.cf, ca = excluded.ca, ff = excluded.ff, fa = excluded.fa,
			sf = excluded.sf, sa = excluded.sa, gf = excluded.gf, ga = excluded.ga,
			xgf = excluded.xgf, xga = excluded.xga`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range rows {
		_, err = stmt.Exec(
			m.GameID, int64(m.PlayerID), int64(m.TeamID), m.Date,
			m.Goals, m.Assists, m.Points,
			m.CF, m.CA, m.FF, m.FA, m.SF, m.SA, m.GF, m.GA, m.XGF, m.XGA,
		)
		if err != nil {
			return fmt.Errorf("insert player_game_metrics for %s/%d: %w", m.GameID, m.PlayerID, err)
		}
	}
	return tx.Commit()
}

const metricsColumns = `game_id, player_id, team_id, game_date,
		       goals, assists, points,
		       cf, ca, ff, fa, sf, sa, gf, ga, xgf, xga`

func scanMetrics(rows *sql.Rows) ([]model.GameMetrics, error) {
	defer rows.Close()
	var out []model.GameMetrics
	for rows.Next() {
		var (
			m            model.GameMetrics
			player, team int64
		)
		if err := rows.Scan(
			&m.GameID, &player, &team, &m.Date,
			&m.Goals, &m.Assists, &m.Points,
			&m.CF, &m.CA, &m.FF, &m.FA, &m.SF, &m.SA, &m.GF, &m.GA, &m.XGF, &m.XGA,
		); err != nil {
			return nil, err
		}
		m.PlayerID, m.TeamID = model.PlayerID(player), model.TeamID(team)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetPlayerGameMetrics returns every player's row for one game, ordered by
// player id.
func (db *DB) GetPlayerGameMetrics(gameID string) ([]model.GameMetrics, error) {
	rows, err := db.query(`
		SELECT `+metricsColumns+`
		FROM player_game_metrics WHERE game_id = ?
		ORDER BY player_id`, gameID)
	if err != nil {
		return nil, err
	}
	return scanMetrics(rows)
}

// GetPlayerSeries returns one player's rows across all stored games in
// chronological order, the input of the rolling engine.
func (db *DB) GetPlayerSeries(playerID model.PlayerID) ([]model.GameMetrics, error) {
	rows, err := db.query(`
		SELECT `+metricsColumns+`
		FROM player_game_metrics WHERE player_id = ?
		ORDER BY game_date, game_id`, int64(playerID))
	if err != nil {
		return nil, err
	}
	return scanMetrics(rows)
}

// QueryRaw runs an arbitrary query and returns column names and rows
// rendered as strings. NULL renders as an empty string.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
