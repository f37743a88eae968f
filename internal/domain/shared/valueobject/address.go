package valueobject

import (
	"fmt"
	"strings"
)

// Address is a shipping address value object
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// NewAddress creates a validated address
func NewAddress(street, city, zip, country string) (Address, error) {
	a := Address{
		Street:  strings.TrimSpace(street),
		City:    strings.TrimSpace(city),
		Zip:     strings.TrimSpace(zip),
		Country: strings.TrimSpace(country),
	}
	if a.Street == "" || a.City == "" || a.Zip == "" || a.Country == "" {
		return Address{}, fmt.Errorf("address requires street, city, zip and country")
	}
	return a, nil
}

// String formats the address on one line
func (a Address) String() string {
	return fmt.Sprintf("%s, %s %s, %s", a.Street, a.Zip, a.City, a.Country)
}
