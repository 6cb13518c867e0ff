package store

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

func companyMeta() meta[*domain.Company] {
	return meta[*domain.Company]{
		label: "company",
		table: TableFor("Company"),
		columns: []string{"name", "trigram", "main_address", "phone", "website", "intra_eu_vat",
			"company_type_id", "country_id", "city_id", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Company, error) {
			c := new(domain.Company)
			var country, city sql.NullInt64
			err := rows.Scan(&c.ID, &c.Name, &c.Trigram, &c.MainAddress, &c.Phone, &c.Website, &c.IntraEUVAT,
				&c.CompanyTypeID, &country, &city, &c.IsActive,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			c.CountryID = country.Int64
			c.CityID = city.Int64
			return c, err
		},
		values: func(c *domain.Company) []any {
			return []any{c.Name, c.Trigram, c.MainAddress, c.Phone, c.Website, c.IntraEUVAT,
				c.CompanyTypeID, nullID(c.CountryID), nullID(c.CityID), c.IsActive,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// CompanyRepo serves the companies table.
type CompanyRepo struct {
	*Repository[*domain.Company]
}

// ByTrigram returns the company with the trigram, NotFound when absent.
func (r *CompanyRepo) ByTrigram(ctx context.Context, trigram string) (*domain.Company, error) {
	trigram = strings.ToUpper(strings.TrimSpace(trigram))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Trigram.EQ(trigram)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, trigram)
	}
	return rows[0], nil
}

// Search returns active companies whose name contains q, case-insensitive,
// ordered by name.
func (r *CompanyRepo) Search(ctx context.Context, q string, limit int) ([]*domain.Company, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{Name.ContainsFold(strings.TrimSpace(q)), IsActive.EQ(true)},
		OrderBy:    "name",
		Limit:      limit,
	})
}

// HasDocuments reports whether any commercial document references the
// company. Soft-deleted documents count: their rows still hold the
// foreign key, so the company cannot be removed under them.
func (r *CompanyRepo) HasDocuments(ctx context.Context, companyID int64) (bool, error) {
	for _, entity := range []string{"Quote", "Order", "DeliveryOrder", "SIIInvoice", "ExportInvoice"} {
		s := sql.Dialect(r.s.Dialect()).
			Select(sql.Count("*")).
			From(sql.Table(TableFor(entity))).
			Where(sql.EQ("company_id", companyID))
		query, args := s.Query()
		var rows sql.Rows
		if err := r.s.tx.Query(r.s.prepare(ctx), query, args, &rows); err != nil {
			return false, mapError(r.meta.label, err)
		}
		var n int
		if rows.Next() {
			if err := rows.Scan(&n); err != nil {
				rows.Close()
				return false, folio.NewInternalError(err)
			}
		}
		if err := rows.Close(); err != nil {
			return false, folio.NewInternalError(err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

func rutMeta() meta[*domain.CompanyRut] {
	return meta[*domain.CompanyRut]{
		label: "company rut",
		table: TableFor("CompanyRut"),
		columns: []string{"company_id", "rut", "is_main",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.CompanyRut, error) {
			c := new(domain.CompanyRut)
			err := rows.Scan(&c.ID, &c.CompanyID, &c.Rut, &c.IsMain,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			return c, err
		},
		values: func(c *domain.CompanyRut) []any {
			return []any{c.CompanyID, c.Rut, c.IsMain,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// RutRepo serves the company_ruts table.
type RutRepo struct {
	*Repository[*domain.CompanyRut]
}

// ForCompany returns a company's ruts, main first.
func (r *RutRepo) ForCompany(ctx context.Context, companyID int64) ([]*domain.CompanyRut, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID)},
		OrderBy:    "is_main",
		Descending: true,
	})
}

// Main returns the company's main rut, NotFound when none is flagged.
func (r *RutRepo) Main(ctx context.Context, companyID int64) (*domain.CompanyRut, error) {
	rows, err := r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID), IsMain.EQ(true)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundError("main rut")
	}
	return rows[0], nil
}

// ClearMain drops the main flag from every rut of the company except the
// given one. The company service calls it before flagging a new main, so
// at most one main survives the transaction.
func (r *RutRepo) ClearMain(ctx context.Context, companyID, exceptID int64) (int, error) {
	return r.UpdateMany(ctx, Query{Predicates: []Predicate{
		CompanyID.EQ(companyID),
		IsMain.EQ(true),
		ID.NEQ(exceptID),
	}}, map[string]any{"is_main": false})
}

func plantMeta() meta[*domain.Plant] {
	return meta[*domain.Plant]{
		label: "plant",
		table: TableFor("Plant"),
		columns: []string{"company_id", "name", "address", "phone", "email", "city_id", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Plant, error) {
			p := new(domain.Plant)
			var city sql.NullInt64
			err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Address, &p.Phone, &p.Email, &city, &p.IsActive,
				&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy)
			p.CityID = city.Int64
			return p, err
		},
		values: func(p *domain.Plant) []any {
			return []any{p.CompanyID, p.Name, p.Address, p.Phone, p.Email, nullID(p.CityID), p.IsActive,
				p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy}
		},
	}
}

// PlantRepo serves the plants table.
type PlantRepo struct {
	*Repository[*domain.Plant]
}

// ForCompany returns a company's plants ordered by name. Inactive plants
// are included; callers filter when they care.
func (r *PlantRepo) ForCompany(ctx context.Context, companyID int64) ([]*domain.Plant, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID)},
		OrderBy:    "name",
	})
}

func contactMeta() meta[*domain.Contact] {
	return meta[*domain.Contact]{
		label: "contact",
		table: TableFor("Contact"),
		columns: []string{"company_id", "first_name", "last_name", "email", "phone", "mobile",
			"position", "department_id", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Contact, error) {
			c := new(domain.Contact)
			var dept sql.NullInt64
			err := rows.Scan(&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Mobile,
				&c.Position, &dept, &c.IsActive,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			c.DepartmentID = dept.Int64
			return c, err
		},
		values: func(c *domain.Contact) []any {
			return []any{c.CompanyID, c.FirstName, c.LastName, c.Email, c.Phone, c.Mobile,
				c.Position, nullID(c.DepartmentID), c.IsActive,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// ContactRepo serves the contacts table.
type ContactRepo struct {
	*Repository[*domain.Contact]
}

// ForCompany returns a company's active contacts ordered by last name.
func (r *ContactRepo) ForCompany(ctx context.Context, companyID int64) ([]*domain.Contact, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID), IsActive.EQ(true)},
		OrderBy:    "last_name",
	})
}

func departmentMeta() meta[*domain.Department] {
	return meta[*domain.Department]{
		label: "department",
		table: TableFor("Department"),
		columns: []string{"name", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Department, error) {
			d := new(domain.Department)
			err := rows.Scan(&d.ID, &d.Name, &d.IsActive,
				&d.CreatedAt, &d.UpdatedAt, &d.CreatedBy, &d.UpdatedBy)
			return d, err
		},
		values: func(d *domain.Department) []any {
			return []any{d.Name, d.IsActive,
				d.CreatedAt, d.UpdatedAt, d.CreatedBy, d.UpdatedBy}
		},
	}
}

// DepartmentRepo serves the departments table.
type DepartmentRepo struct {
	*Repository[*domain.Department]
}

// ByName returns the department with the exact name, NotFound when absent.
func (r *DepartmentRepo) ByName(ctx context.Context, name string) (*domain.Department, error) {
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Name.EQ(strings.TrimSpace(name))}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, name)
	}
	return rows[0], nil
}

func addressMeta() meta[*domain.Address] {
	return meta[*domain.Address]{
		label: "address",
		table: TableFor("Address"),
		columns: []string{"company_id", "address_type", "street", "city_id", "postal_code",
			"is_default", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Address, error) {
			a := new(domain.Address)
			var city sql.NullInt64
			err := rows.Scan(&a.ID, &a.CompanyID, &a.Type, &a.Street, &city, &a.PostalCode,
				&a.IsDefault, &a.IsActive,
				&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy)
			a.CityID = city.Int64
			return a, err
		},
		values: func(a *domain.Address) []any {
			return []any{a.CompanyID, a.Type, a.Street, nullID(a.CityID), a.PostalCode,
				a.IsDefault, a.IsActive,
				a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy}
		},
	}
}

// AddressRepo serves the addresses table.
type AddressRepo struct {
	*Repository[*domain.Address]
}

// ForCompany returns a company's addresses, default first.
func (r *AddressRepo) ForCompany(ctx context.Context, companyID int64) ([]*domain.Address, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID)},
		OrderBy:    "is_default",
		Descending: true,
	})
}

// Default returns the company's default address, NotFound when none is
// flagged.
func (r *AddressRepo) Default(ctx context.Context, companyID int64) (*domain.Address, error) {
	rows, err := r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID), IsDefault.EQ(true)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundError("default address")
	}
	return rows[0], nil
}

// ClearDefault drops the default flag from every address of the company
// except the given one.
func (r *AddressRepo) ClearDefault(ctx context.Context, companyID, exceptID int64) (int, error) {
	return r.UpdateMany(ctx, Query{Predicates: []Predicate{
		CompanyID.EQ(companyID),
		IsDefault.EQ(true),
		ID.NEQ(exceptID),
	}}, map[string]any{"is_default": false})
}

func principalMeta() meta[*domain.Principal] {
	return meta[*domain.Principal]{
		label: "principal",
		table: TableFor("Principal"),
		columns: []string{"username", "email", "first_name", "last_name", "trigram",
			"phone", "position", "is_active", "is_admin",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Principal, error) {
			p := new(domain.Principal)
			err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.FirstName, &p.LastName, &p.Trigram,
				&p.Phone, &p.Position, &p.IsActive, &p.IsAdmin,
				&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy)
			return p, err
		},
		values: func(p *domain.Principal) []any {
			return []any{p.Username, p.Email, p.FirstName, p.LastName, p.Trigram,
				p.Phone, p.Position, p.IsActive, p.IsAdmin,
				p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy}
		},
	}
}

// PrincipalRepo serves the principals table.
type PrincipalRepo struct {
	*Repository[*domain.Principal]
}

// ByUsername returns the principal with the username, NotFound when
// absent. Usernames are stored lowercase.
func (r *PrincipalRepo) ByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Username.EQ(username)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, username)
	}
	return rows[0], nil
}

// nullID maps the 0-means-unset foreign keys to NULL.
func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
