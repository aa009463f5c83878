package parquet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// MoveRow is one ply of a self-play game.
//
// Board is the row-major position before the move (0 empty, 1 X, 2 O).
// Outcome is the final result from the mover's side: 1 win, 0 draw, -1 loss.
type MoveRow struct {
	GameID     string  `parquet:"game_id,dict"`
	Ply        int32   `parquet:"ply"`
	Player     int32   `parquet:"player"`
	Difficulty string  `parquet:"difficulty,dict"`
	BoardSize  int32   `parquet:"board_size"`
	Board      []int32 `parquet:"board"`
	Cell       int32   `parquet:"cell"`
	Outcome    int32   `parquet:"outcome"`
}

const schemaName = "selfplay_move_v1"

// WriteMoves writes rows to outPath through a temp file renamed into place.
func WriteMoves(outPath string, rows []MoveRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

func ReadMoves(path string) ([]MoveRow, error) {
	rows, err := parquet.ReadFile[MoveRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
