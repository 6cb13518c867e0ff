package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
)

func TestCompanyNormalize(t *testing.T) {
	c := &domain.Company{
		Name:       "  Acme SpA ",
		Trigram:    "acm",
		Phone:      "+56 2 2345 6789",
		Website:    " https://acme.cl ",
		IntraEUVAT: " fr12345678901 ",
	}
	require.NoError(t, c.Normalize())

	assert.Equal(t, "Acme SpA", c.Name)
	assert.Equal(t, "ACM", c.Trigram)
	assert.Equal(t, "+56 2 2345 6789", c.Phone)
	assert.Equal(t, "https://acme.cl", c.Website)
	assert.Equal(t, "FR12345678901", c.IntraEUVAT)

	c.Trigram = "ACME"
	require.Error(t, c.Normalize(), "trigram must be exactly three letters")

	c.Trigram = "ACM"
	c.Website = "acme.cl"
	require.Error(t, c.Normalize(), "website needs an http(s) scheme")
}

func TestCompanyValidate(t *testing.T) {
	valid := func() *domain.Company {
		return &domain.Company{Name: "Acme SpA", Trigram: "ACM", CompanyTypeID: 1}
	}

	require.NoError(t, valid().Validate())

	t.Run("one_char_name", func(t *testing.T) {
		c := valid()
		c.Name = "A"
		require.Error(t, c.Validate())
	})

	t.Run("missing_trigram", func(t *testing.T) {
		c := valid()
		c.Trigram = ""
		require.Error(t, c.Validate())
	})

	t.Run("missing_company_type", func(t *testing.T) {
		c := valid()
		c.CompanyTypeID = 0
		require.Error(t, c.Validate())
	})
}

func TestCompanyMainRut(t *testing.T) {
	c := &domain.Company{}
	assert.Nil(t, c.MainRut())

	c.Ruts = []*domain.CompanyRut{
		{Rut: "11111111-1"},
		{Rut: "12345678-5", IsMain: true},
	}
	main := c.MainRut()
	require.NotNil(t, main)
	assert.Equal(t, "12345678-5", main.Rut)
}

func TestCompanyRutNormalize(t *testing.T) {
	r := &domain.CompanyRut{CompanyID: 1, Rut: "12.345.678-5"}
	require.NoError(t, r.Normalize())
	assert.Equal(t, "12345678-5", r.Rut)
	require.NoError(t, r.Validate())

	r.Rut = "12.345.678-9"
	err := r.Normalize()
	require.Error(t, err, "wrong check digit")
	assert.True(t, folio.IsValidationError(err))
}

func TestContactValidate(t *testing.T) {
	c := &domain.Contact{CompanyID: 1, FirstName: "Ana"}
	require.NoError(t, c.Validate())

	c = &domain.Contact{CompanyID: 1, LastName: "Rojas"}
	require.NoError(t, c.Validate())

	c = &domain.Contact{CompanyID: 1}
	err := c.Validate()
	require.Error(t, err, "a contact needs at least one name")
	assert.True(t, folio.IsValidationError(err))
}

func TestContactNormalize(t *testing.T) {
	c := &domain.Contact{
		CompanyID: 1,
		FirstName: " Ana ",
		LastName:  "Rojas",
		Email:     "ANA.ROJAS@Acme.CL",
		Mobile:    "+56 9 8765 4321",
	}
	require.NoError(t, c.Normalize())
	assert.Equal(t, "ana.rojas@acme.cl", c.Email)
	assert.Equal(t, "Ana Rojas", c.FullName())

	c.Mobile = "not-a-number"
	require.Error(t, c.Normalize())
}

func TestPrincipal(t *testing.T) {
	p := &domain.Principal{Username: " MRIVERA ", Email: "M.Rivera@Austral.CL", Trigram: "mrv"}
	require.NoError(t, p.Normalize())
	assert.Equal(t, "mrivera", p.Username)
	assert.Equal(t, "m.rivera@austral.cl", p.Email)
	assert.Equal(t, "MRV", p.Trigram)

	assert.Equal(t, "mrivera", p.FullName(), "falls back to the username")
	p.FirstName, p.LastName = "María", "Rivera"
	assert.Equal(t, "María Rivera", p.FullName())

	p.Username = ""
	require.Error(t, p.Validate())
}

func TestPlantValidate(t *testing.T) {
	p := &domain.Plant{CompanyID: 1, Name: "Planta Norte"}
	require.NoError(t, p.Validate())

	p.Name = "P"
	require.Error(t, p.Validate())

	p.Name = "Planta Norte"
	p.CompanyID = 0
	require.Error(t, p.Validate())
}

func TestParseAddressType(t *testing.T) {
	for in, want := range map[string]domain.AddressType{
		"delivery":      domain.AddressDelivery,
		"BILLING":       domain.AddressBilling,
		" headquarters": domain.AddressHeadquarters,
		"Branch":        domain.AddressBranch,
	} {
		got, err := domain.ParseAddressType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := domain.ParseAddressType("warehouse")
	require.Error(t, err)
	assert.False(t, domain.AddressType("warehouse").Valid())
}

func TestAddressNormalizeValidate(t *testing.T) {
	a := &domain.Address{CompanyID: 1, Type: "delivery", Street: " Av. Las Condes 1234 "}
	require.NoError(t, a.Normalize())
	assert.Equal(t, domain.AddressDelivery, a.Type)
	assert.Equal(t, "Av. Las Condes 1234", a.Street)
	require.NoError(t, a.Validate())

	a.Street = "  "
	require.Error(t, a.Validate())
}

func TestLookupNormalize(t *testing.T) {
	l := &domain.Lookup{Code: " clp ", Name: " Peso chileno "}
	require.NoError(t, l.Normalize())
	assert.Equal(t, "CLP", l.Code)
	assert.Equal(t, "Peso chileno", l.Name)
	require.NoError(t, l.Validate())

	l.Name = ""
	require.Error(t, l.Validate())
}

func TestDocumentStatusNormalize(t *testing.T) {
	s := &domain.DocumentStatus{Family: " Quote ", Code: " draft ", Name: "Borrador"}
	require.NoError(t, s.Normalize())
	assert.Equal(t, "quote", s.Family)
	assert.Equal(t, "DRAFT", s.Code)
	require.NoError(t, s.Validate())
}

func TestCurrencyValidate(t *testing.T) {
	c := &domain.Currency{
		Lookup:        domain.Lookup{Code: "CLP", Name: "Peso chileno"},
		Symbol:        "$",
		DecimalPlaces: 0,
	}
	require.NoError(t, c.Validate())

	c.DecimalPlaces = -1
	require.Error(t, c.Validate())
}
