// profchat/sources/psql/dao/dao.review.go
package dao

import (
	"context"
	"strconv"
	"strings"

	"profchat/profchat/sources/psql/models"

	"gorm.io/gorm"
)

type ReviewDAO struct {
	DB    *gorm.DB
	Table string
}

func NewReviewDAO(db *gorm.DB, table string) *ReviewDAO {
	if table == "" {
		table = "professor_reviews"
	}
	return &ReviewDAO{DB: db, Table: table}
}

// Nearest returns the limit rows closest to vector by cosine distance.
func (dao *ReviewDAO) Nearest(ctx context.Context, vector []float32, limit int) ([]models.ProfessorReview, error) {
	var rows []models.ProfessorReview
	if err := dao.nearestQuery(ctx, vector, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (dao *ReviewDAO) nearestQuery(ctx context.Context, vector []float32, limit int) *gorm.DB {
	return dao.DB.WithContext(ctx).
		Table(dao.Table).
		Select("professor, subject, stars::text AS stars, embedding <=> ?::vector AS distance", VectorLiteral(vector)).
		Order("distance").
		Limit(limit)
}

// VectorLiteral formats v the way pgvector parses it: "[0.1,0.2,...]".
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
