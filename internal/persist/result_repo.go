package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/snackarena/server/internal/core/event"
)

// preyRole is the winning role stored for rounds the prey won.
const preyRole = "PREY"

type ResultRow struct {
	ID          int64
	LobbyID     string
	LobbyName   string
	WinningRole string
	TimePlayed  int64
	Calories    int
	FinishedAt  time.Time
}

// ResultRepo stores finished rounds and serves the leaderboard.
type ResultRepo struct {
	db  *DB
	now func() time.Time
}

func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db, now: time.Now}
}

// RecordRound inserts one finished round.
func (r *ResultRepo) RecordRound(ctx context.Context, lobbyName string, res event.RoundEnded) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO round_results (lobby_id, lobby_name, winning_role, time_played, calories, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.LobbyID, lobbyName, res.WinningRole, res.TimePlayed, res.Calories, r.now(),
	)
	if err != nil {
		return fmt.Errorf("insert round result: %w", err)
	}
	return nil
}

// Top returns the n best prey wins: shortest time first, earlier rounds
// break ties.
func (r *ResultRepo) Top(ctx context.Context, n int) ([]ResultRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, lobby_id, lobby_name, winning_role, time_played, calories, finished_at
		 FROM round_results
		 WHERE winning_role = $1
		 ORDER BY time_played ASC, finished_at ASC, id ASC
		 LIMIT $2`, preyRole, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ResultRow, error) {
		var res ResultRow
		err := row.Scan(&res.ID, &res.LobbyID, &res.LobbyName, &res.WinningRole,
			&res.TimePlayed, &res.Calories, &res.FinishedAt)
		return res, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard: %w", err)
	}
	return out, nil
}
