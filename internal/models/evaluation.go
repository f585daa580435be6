package models

import "time"

// Evaluation is a per-user score sheet for a completed class. One evaluation
// per (class, user); the service enforces the uniqueness before insert and the
// composite index backs it up.
type Evaluation struct {
	ID        uint   `json:"evaluation_id" gorm:"primaryKey;column:evaluation_id"`
	ClassID   string `json:"class_id" gorm:"not null;size:6;index:idx_eval_class_user,unique" validate:"required,len=6"`
	UserEmail string `json:"user_email" gorm:"not null;size:255;index:idx_eval_class_user,unique" validate:"required,email"`

	ScoreContent  int `json:"score_content" gorm:"not null" validate:"required,min=1,max=5"`
	ScoreMaterial int `json:"score_material" gorm:"not null" validate:"required,min=1,max=5"`
	ScoreDuration int `json:"score_duration" gorm:"not null" validate:"required,min=1,max=5"`
	ScoreFormat   int `json:"score_format" gorm:"not null" validate:"required,min=1,max=5"`
	ScoreSpeaker  int `json:"score_speaker" gorm:"not null" validate:"required,min=1,max=5"`

	Comments *string `json:"comments" gorm:"type:text" validate:"omitempty,max=2000"`

	CreatedAt time.Time `json:"created_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
