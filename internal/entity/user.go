package entity

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Admin        bool
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
