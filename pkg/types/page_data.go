package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
}

type NavbarDataSetter interface {
	SetNavbarData(NavbarData)
}

type BasePageData struct {
	Title       string
	Notice      string
	Error       string
	FieldErrors map[string]string
	Navbar      NavbarData
}

func (b *BasePageData) SetNavbarData(data NavbarData) {
	b.Navbar = data
}
