package services

import "github.com/google/uuid"

// clampPosition bounds pos to [0, n]. A nil pos means the end.
func clampPosition(pos *int, n int) int {
	if pos == nil || *pos > n {
		return n
	}
	if *pos < 0 {
		return 0
	}
	return *pos
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertID(ids []uuid.UUID, id uuid.UUID, pos int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids)+1)
	out = append(out, ids[:pos]...)
	out = append(out, id)
	return append(out, ids[pos:]...)
}

// moveID removes id from ids and reinserts it at the clamped position.
func moveID(ids []uuid.UUID, id uuid.UUID, pos *int) []uuid.UUID {
	rest := removeID(ids, id)
	return insertID(rest, id, clampPosition(pos, len(rest)))
}
