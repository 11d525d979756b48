package storage

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/pable/go-nhl-metrics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGameInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	summary := model.GameSummary{
		GameID: "2023020001", Date: "2023-10-10",
		HomeTeamID: 10, AwayTeamID: 20, HomeGoals: 3, AwayGoals: 2, Shots: 61,
	}
	if err := db.InsertGame(summary); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}

	exists, err := db.GameExists("2023020001")
	if err != nil {
		t.Fatalf("GameExists: %v", err)
	}
	if !exists {
		t.Error("expected game to exist after insert")
	}
	if exists2, _ := db.GameExists("nonexistent"); exists2 {
		t.Error("expected non-existent game to not exist")
	}

	// Second insert is an upsert.
	summary.HomeGoals = 4
	if err := db.InsertGame(summary); err != nil {
		t.Errorf("second InsertGame should succeed (idempotent): %v", err)
	}
	list, _ := db.ListGames()
	if len(list) != 1 || list[0].HomeGoals != 4 {
		t.Errorf("want one upserted row with 4 home goals, got %+v", list)
	}
}

func TestListGames(t *testing.T) {
	db := openMemDB(t)
	for _, s := range []model.GameSummary{
		{GameID: "g1", Date: "2024-01-01", HomeTeamID: 1, AwayTeamID: 2},
		{GameID: "g2", Date: "2024-02-01", HomeTeamID: 3, AwayTeamID: 4},
	} {
		if err := db.InsertGame(s); err != nil {
			t.Fatalf("InsertGame: %v", err)
		}
	}

	list, err := db.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games, got %d", len(list))
	}
	// Ordered by date DESC: g2 first.
	if list[0].GameID != "g2" || list[0].HomeTeamID != 3 {
		t.Errorf("expected g2 first (newest), got %+v", list[0])
	}
}

func TestGetGameByPrefix(t *testing.T) {
	db := openMemDB(t)
	db.InsertGame(model.GameSummary{GameID: "2023020417", Date: "2023-12-01", HomeTeamID: 1, AwayTeamID: 2})

	s, err := db.GetGameByPrefix("2023020")
	if err != nil {
		t.Fatalf("GetGameByPrefix: %v", err)
	}
	if s == nil || s.GameID != "2023020417" {
		t.Fatalf("expected match for prefix, got %+v", s)
	}

	s2, err := db.GetGameByPrefix("2019")
	if err != nil {
		t.Fatalf("GetGameByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestPlayerGameMetricsRoundTrip(t *testing.T) {
	db := openMemDB(t)

	rows := []model.GameMetrics{
		{GameID: "g2", Date: "2024-01-05", PlayerID: 8478402, TeamID: 22, Goals: 1, Assists: 2, Points: 3, CF: 20, CA: 11, FF: 15, FA: 9, SF: 11, SA: 6, GF: 2, GA: 1, XGF: 1.2345, XGA: 0.6789},
		{GameID: "g1", Date: "2024-01-02", PlayerID: 8478402, TeamID: 22, Goals: 0, CF: 8, CA: 14},
		{GameID: "g2", Date: "2024-01-05", PlayerID: 8477934, TeamID: 22, CF: 18, CA: 12},
	}
	if err := db.InsertPlayerGameMetrics(rows); err != nil {
		t.Fatalf("InsertPlayerGameMetrics: %v", err)
	}

	game, err := db.GetPlayerGameMetrics("g2")
	if err != nil {
		t.Fatalf("GetPlayerGameMetrics: %v", err)
	}
	if len(game) != 2 || game[0].PlayerID != 8477934 {
		t.Fatalf("want 2 rows ordered by player, got %+v", game)
	}
	if !reflect.DeepEqual(game[1], rows[0]) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", game[1], rows[0])
	}

	series, err := db.GetPlayerSeries(8478402)
	if err != nil {
		t.Fatalf("GetPlayerSeries: %v", err)
	}
	if len(series) != 2 || series[0].GameID != "g1" || series[1].GameID != "g2" {
		t.Errorf("series must be chronological, got %+v", series)
	}

	// Re-ingesting a game replaces its rows.
	rows[0].Goals = 2
	if err := db.InsertPlayerGameMetrics(rows[:1]); err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	game, _ = db.GetPlayerGameMetrics("g2")
	if game[1].Goals != 2 {
		t.Errorf("upsert did not replace goals: %+v", game[1])
	}
}

func TestDeleteGame(t *testing.T) {
	db := openMemDB(t)
	db.InsertGame(model.GameSummary{GameID: "g1", HomeTeamID: 1, AwayTeamID: 2})
	db.InsertPlayerGameMetrics([]model.GameMetrics{{GameID: "g1", PlayerID: 5, TeamID: 1}})

	if err := db.DeleteGame("g1"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if ok, _ := db.GameExists("g1"); ok {
		t.Error("game still present")
	}
	if rows, _ := db.GetPlayerGameMetrics("g1"); len(rows) != 0 {
		t.Errorf("metrics rows still present: %+v", rows)
	}
}

func TestCacheEntries(t *testing.T) {
	db := openMemDB(t)
	now := time.UnixMilli(1_700_000_000_000)

	for _, k := range []string{"game_1", "game_2", "gameXfoo", "aggregate_20232024_min3"} {
		err := db.PutCacheEntry(CacheEntry{Key: k, Payload: []byte(k), CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
		if err != nil {
			t.Fatalf("PutCacheEntry %s: %v", k, err)
		}
	}

	e, err := db.GetCacheEntry("game_1")
	if err != nil || e == nil {
		t.Fatalf("GetCacheEntry: %v %v", e, err)
	}
	if !bytes.Equal(e.Payload, []byte("game_1")) || !e.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("entry mismatch: %+v", e)
	}
	if miss, _ := db.GetCacheEntry("nope"); miss != nil {
		t.Error("expected nil for missing key")
	}

	// "_" is literal, so gameXfoo must not match.
	games, err := db.ListCacheEntries("game_")
	if err != nil {
		t.Fatalf("ListCacheEntries: %v", err)
	}
	if len(games) != 2 || games[0].Key != "game_1" || games[1].Key != "game_2" {
		t.Errorf("ListCacheEntries(game_): %+v", games)
	}

	info, _ := db.ListCacheEntries("aggregate_")
	if len(info) != 1 || info[0].Size != len("aggregate_20232024_min3") {
		t.Errorf("ListCacheEntries: %+v", info)
	}

	db.PutCacheEntry(CacheEntry{Key: "old", Payload: []byte("x"), CreatedAt: now, ExpiresAt: now.Add(-time.Minute)})
	n, err := db.PurgeExpiredCache(now)
	if err != nil || n != 1 {
		t.Errorf("PurgeExpiredCache: n=%d err=%v", n, err)
	}

	gone, err := db.DeleteExpiredCacheEntry("game_1", now)
	if err != nil || gone {
		t.Errorf("unexpired entry evicted: gone=%v err=%v", gone, err)
	}
	db.PutCacheEntry(CacheEntry{Key: "stale", Payload: []byte("x"), CreatedAt: now, ExpiresAt: now.Add(-time.Minute)})
	if gone, err := db.DeleteExpiredCacheEntry("stale", now); err != nil || !gone {
		t.Errorf("expired entry kept: gone=%v err=%v", gone, err)
	}

	if err := db.DeleteCacheEntry("game_2"); err != nil {
		t.Fatalf("DeleteCacheEntry: %v", err)
	}
	if err := db.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if left, _ := db.ListCacheEntries(""); len(left) != 0 {
		t.Errorf("cache not cleared: %+v", left)
	}
}

func TestTeamRecords(t *testing.T) {
	db := openMemDB(t)
	db.InsertGame(model.GameSummary{GameID: "g1", Date: "2024-01-01", HomeTeamID: 1, AwayTeamID: 2, HomeGoals: 4, AwayGoals: 1})
	db.InsertGame(model.GameSummary{GameID: "g2", Date: "2024-01-03", HomeTeamID: 2, AwayTeamID: 1, HomeGoals: 3, AwayGoals: 2})

	recs, err := db.TeamRecords(nil, "")
	if err != nil {
		t.Fatalf("TeamRecords: %v", err)
	}
	if len(recs) != 2 || recs[0].TeamID != 1 {
		t.Fatalf("want team 1 first, got %+v", recs)
	}
	if r := recs[0]; r.GamesPlayed != 2 || r.GoalsFor != 6 || r.GoalsAgainst != 4 || r.Wins != 1 || r.Losses != 1 {
		t.Errorf("team 1 record: %+v", r)
	}

	recs, _ = db.TeamRecords([]model.TeamID{2}, "2024-01-02")
	if len(recs) != 1 || recs[0].GamesPlayed != 1 || recs[0].Wins != 1 {
		t.Errorf("filtered record: %+v", recs)
	}
}

func TestRebind(t *testing.T) {
	db := &DB{dialect: Postgres}
	got := db.rebind(`SELECT '?' FROM t WHERE a = ? AND b IN (?,?)`)
	want := `SELECT '?' FROM t WHERE a = $1 AND b IN ($2,$3)`
	if got != want {
		t.Errorf("rebind:\n got %s\nwant %s", got, want)
	}
	if lite := (&DB{dialect: SQLite}).rebind("a = ?"); lite != "a = ?" {
		t.Errorf("sqlite queries must be untouched, got %s", lite)
	}
}
