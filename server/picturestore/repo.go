package picturestore

import "time"

// Picture is an uploaded profile picture held by the dev backend
type Picture struct {
	Name        string // file name under /uploads/
	ContentType string
	Data        []byte

	OwnerID   string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(picture Picture) error
	Get(name string) (Picture, error)
	Delete(name string) error
}
