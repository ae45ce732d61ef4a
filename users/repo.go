package users

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List() ([]*User, error)
	// SetProfilePic swaps the picture URL atomically and returns the URL it replaced
	SetProfilePic(ID, url string) (updated *User, previous string, err error)
}
