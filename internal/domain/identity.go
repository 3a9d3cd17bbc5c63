package domain

// Identity is the signed-in shopper. The zero value is an anonymous guest.
type Identity struct {
	ID string
}

func (i Identity) IsGuest() bool {
	return i.ID == ""
}
