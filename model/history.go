package model

import "time"

// PlayRecord is one entry of the play history, written when a track starts playing.
type PlayRecord struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID    string    `json:"trackId" gorm:"type:varchar(1024);not null"`
	ProviderID string    `json:"providerId" gorm:"type:varchar(64);index"`
	Title      string    `json:"title" gorm:"type:varchar(255)"`
	ArtistName string    `json:"artistName" gorm:"type:varchar(255)"`
	AlbumName  string    `json:"albumName" gorm:"type:varchar(255)"`
	DurationMs int64     `json:"durationMs"`
	PlayedAt   time.Time `json:"playedAt" gorm:"index"`
}

// TableName 指定表名
func (PlayRecord) TableName() string {
	return "play_history"
}
