package psql

import (
	"context"
	"fmt"

	"profchat/profchat/sources/psql/dao"
	"profchat/profchat/sources/psql/models"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"
)

// VectorIndex answers nearest-neighbour queries from a pgvector table.
type VectorIndex struct {
	reviews *dao.ReviewDAO
}

func NewVectorIndex(db *Database, table string) *VectorIndex {
	return &VectorIndex{reviews: dao.NewReviewDAO(db.DB, table)}
}

func (ix *VectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]types.Match, error) {
	defer logging.LogDuration(ctx, "pgvector_query")()

	if topK <= 0 {
		topK = 3
	}
	rows, err := ix.reviews.Nearest(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}
	return toMatches(rows), nil
}

func toMatches(rows []models.ProfessorReview) []types.Match {
	matches := make([]types.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, types.Match{
			ID:      r.Professor,
			Subject: r.Subject,
			Stars:   r.Stars,
			Score:   1 - r.Distance,
		})
	}
	return matches
}
