package dao

import (
	"context"
	"fmt"
	"testing"

	"profchat/profchat/sources/psql/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestVectorLiteral(t *testing.T) {
	cases := []struct {
		in   []float32
		want string
	}{
		{nil, "[]"},
		{[]float32{1}, "[1]"},
		{[]float32{0.5, -2, 0.25}, "[0.5,-2,0.25]"},
	}
	for _, c := range cases {
		if got := VectorLiteral(c.in); got != c.want {
			t.Errorf("VectorLiteral(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewReviewDAODefaultTable(t *testing.T) {
	if got := NewReviewDAO(nil, "").Table; got != "professor_reviews" {
		t.Errorf("Table = %q", got)
	}
	if got := NewReviewDAO(nil, "reviews_v2").Table; got != "reviews_v2" {
		t.Errorf("Table = %q", got)
	}
}

func TestNearestQuerySQL(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=profchat dbname=profchat sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var rows []models.ProfessorReview
	stmt := NewReviewDAO(db, "").nearestQuery(context.Background(), []float32{0.5, 1}, 3).Find(&rows).Statement

	want := `SELECT professor, subject, stars::text AS stars, embedding <=> $1::vector AS distance FROM "professor_reviews" ORDER BY distance LIMIT $2`
	if got := stmt.SQL.String(); got != want {
		t.Errorf("sql = %s\nwant  %s", got, want)
	}
	if len(stmt.Vars) != 2 {
		t.Fatalf("vars = %v", stmt.Vars)
	}
	if stmt.Vars[0] != "[0.5,1]" || fmt.Sprint(stmt.Vars[1]) != "3" {
		t.Errorf("vars = %v", stmt.Vars)
	}
}
