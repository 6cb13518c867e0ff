package domain

import (
	"errors"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// Principal is a human operator of the system. Principals are deactivated,
// never deleted; documents keep referencing the staff that issued them.
type Principal struct {
	AuditFields
	Username  string
	Email     string
	FirstName string
	LastName  string
	Trigram   string // optional three-letter code, uppercase
	Phone     string
	Position  string
	IsActive  bool
	IsAdmin   bool
}

// Normalize lowercases the username and email and uppercases the trigram.
func (p *Principal) Normalize() error {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	var err error
	if p.Email, err = validate.Email("email", p.Email); err != nil {
		return err
	}
	if p.Trigram, err = validate.Trigram("trigram", p.Trigram); err != nil {
		return err
	}
	if p.Phone, err = validate.Phone("phone", p.Phone); err != nil {
		return err
	}
	return nil
}

// Validate requires a username.
func (p *Principal) Validate() error {
	_, err := validate.Required("username", p.Username)
	return err
}

// FullName returns the display name, falling back to the username.
func (p *Principal) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Company is a counterparty: a client, a supplier or both. The trigram is
// globally unique and doubles as the prefix of document numbers issued for
// the company.
type Company struct {
	AuditFields
	Name          string
	Trigram       string
	MainAddress   string
	Phone         string
	Website       string
	IntraEUVAT    string // EU intracommunity VAT string, free-form
	CompanyTypeID int64
	CountryID     int64 // 0 means unset
	CityID        int64 // 0 means unset
	IsActive      bool

	// Ruts are the company's Chilean tax identifiers, filled by the
	// specialized finders; the row mapper ignores the field.
	Ruts []*CompanyRut
}

// Normalize canonicalizes trigram, phone and website.
func (c *Company) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.MainAddress = strings.TrimSpace(c.MainAddress)
	c.IntraEUVAT = strings.ToUpper(strings.TrimSpace(c.IntraEUVAT))
	var err error
	if c.Trigram, err = validate.Trigram("trigram", c.Trigram); err != nil {
		return err
	}
	if c.Phone, err = validate.Phone("phone", c.Phone); err != nil {
		return err
	}
	if c.Website, err = validate.URL("website", c.Website); err != nil {
		return err
	}
	return nil
}

// Validate requires a legal name of at least two characters, a trigram and
// a company type.
func (c *Company) Validate() error {
	if _, err := validate.Required("name", c.Name); err != nil {
		return err
	}
	if _, err := validate.MinLen("name", c.Name, 2); err != nil {
		return err
	}
	if _, err := validate.Required("trigram", c.Trigram); err != nil {
		return err
	}
	return validate.PositiveID("company_type_id", c.CompanyTypeID)
}

// MainRut returns the RUT flagged as main, or nil.
func (c *Company) MainRut() *CompanyRut {
	for _, r := range c.Ruts {
		if r.IsMain {
			return r
		}
	}
	return nil
}

// CompanyRut is one Chilean tax identifier of a company. The rut value is
// normalized to NNNNNNNN-D and globally unique; at most one per company is
// flagged main, a convention the company service enforces.
type CompanyRut struct {
	AuditFields
	CompanyID int64
	Rut       string
	IsMain    bool
}

// Normalize validates and canonicalizes the rut value.
func (r *CompanyRut) Normalize() error {
	var err error
	r.Rut, err = validate.RUT("rut", r.Rut)
	return err
}

// Validate requires the rut and the owning company.
func (r *CompanyRut) Validate() error {
	if _, err := validate.Required("rut", r.Rut); err != nil {
		return err
	}
	return validate.PositiveID("company_id", r.CompanyID)
}

// Plant is a physical site of a company. Plants follow their company on
// delete.
type Plant struct {
	AuditFields
	CompanyID int64
	Name      string
	Address   string
	Phone     string
	Email     string
	CityID    int64 // 0 means unset
	IsActive  bool
}

// Normalize canonicalizes phone and email.
func (p *Plant) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	var err error
	if p.Phone, err = validate.Phone("phone", p.Phone); err != nil {
		return err
	}
	if p.Email, err = validate.Email("email", p.Email); err != nil {
		return err
	}
	return nil
}

// Validate requires a name of at least two characters and the owning
// company.
func (p *Plant) Validate() error {
	if _, err := validate.Required("name", p.Name); err != nil {
		return err
	}
	if _, err := validate.MinLen("name", p.Name, 2); err != nil {
		return err
	}
	return validate.PositiveID("company_id", p.CompanyID)
}

// Contact is a person at a company. Contacts follow their company on
// delete; their department reference is cleared when the department goes.
type Contact struct {
	AuditFields
	CompanyID    int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Mobile       string
	Position     string
	DepartmentID int64 // 0 means unset
	IsActive     bool
}

// Normalize canonicalizes email, phone and mobile.
func (c *Contact) Normalize() error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Position = strings.TrimSpace(c.Position)
	var err error
	if c.Email, err = validate.Email("email", c.Email); err != nil {
		return err
	}
	if c.Phone, err = validate.Phone("phone", c.Phone); err != nil {
		return err
	}
	if c.Mobile, err = validate.Phone("mobile", c.Mobile); err != nil {
		return err
	}
	return nil
}

// Validate requires a name and the owning company.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return folio.NewValidationError("first_name", errors.New("contact needs at least one name"))
	}
	return validate.PositiveID("company_id", c.CompanyID)
}

// FullName returns the contact's display name.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Department is a company-internal department ("Ventas", "Adquisiciones").
// Names are globally unique.
type Department struct {
	AuditFields
	Name     string
	IsActive bool
}

// Normalize trims the name.
func (d *Department) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	return nil
}

// Validate requires the name.
func (d *Department) Validate() error {
	_, err := validate.Required("name", d.Name)
	return err
}

// AddressType classifies a company address.
type AddressType string

// Address classifications.
const (
	AddressDelivery     AddressType = "DELIVERY"
	AddressBilling      AddressType = "BILLING"
	AddressHeadquarters AddressType = "HEADQUARTERS"
	AddressBranch       AddressType = "BRANCH"
)

// ParseAddressType normalizes s to the canonical uppercase code and
// rejects unknown values.
func ParseAddressType(s string) (AddressType, error) {
	switch t := AddressType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AddressDelivery, AddressBilling, AddressHeadquarters, AddressBranch:
		return t, nil
	default:
		return "", folio.NewValidationError("address_type", errors.New("unknown address type "+s))
	}
}

// Valid reports whether t is a known address type.
func (t AddressType) Valid() bool {
	_, err := ParseAddressType(string(t))
	return err == nil
}

// Address is a postal address of a company. At most one address per
// company is flagged default; setting another clears the previous one in
// the same transaction, a convention the company service enforces.
type Address struct {
	AuditFields
	CompanyID  int64
	Type       AddressType
	Street     string
	CityID     int64 // 0 means unset
	PostalCode string
	IsDefault  bool
	IsActive   bool
}

// Normalize canonicalizes the address type.
func (a *Address) Normalize() error {
	a.Street = strings.TrimSpace(a.Street)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	t, err := ParseAddressType(string(a.Type))
	if err != nil {
		return err
	}
	a.Type = t
	return nil
}

// Validate requires the street and the owning company.
func (a *Address) Validate() error {
	if _, err := validate.Required("street", a.Street); err != nil {
		return err
	}
	return validate.PositiveID("company_id", a.CompanyID)
}
