package domain

type Course struct {
	ID             int64
	Title          string
	Price          Money
	ThumbnailURL   string
	InstructorName string
}

type User struct {
	ID            int64
	Email         string
	EmailVerified bool
	Name          string
	Phone         string
	PostalCode    string
}

// ContactFields holds optional contact updates; empty fields leave the stored value unchanged.
type ContactFields struct {
	Name       string
	Phone      string
	PostalCode string
}

func (c ContactFields) IsEmpty() bool {
	return c.Name == "" && c.Phone == "" && c.PostalCode == ""
}
