// profchat/sources/psql/models/review.go
package models

// ProfessorReview is one row of the review table. The embedding column is
// only used in ORDER BY, so it is not mapped.
type ProfessorReview struct {
	Professor string  `gorm:"column:professor"`
	Subject   string  `gorm:"column:subject"`
	Stars     string  `gorm:"column:stars"`
	Distance  float32 `gorm:"column:distance"`
}
