package service

import (
	"context"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// CompanyService manages trading partners and their satellite records:
// tax identifiers, addresses, and the guards around removal.
type CompanyService struct {
	s *Services
}

// Create persists a company.
func (s *CompanyService) Create(ctx context.Context, sess *store.Session, c *domain.Company) (*domain.Company, error) {
	if err := sess.Companies.Create(ctx, c); err != nil {
		return nil, err
	}
	s.s.log.Info("company created", "name", c.Name, "trigram", c.Trigram)
	return c, nil
}

// Get returns the company with its tax identifiers loaded.
func (s *CompanyService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.Company, error) {
	c, err := sess.Companies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ruts, err := sess.Ruts.ForCompany(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Ruts = ruts
	return c, nil
}

// ByTrigram returns the company with the trigram.
func (s *CompanyService) ByTrigram(ctx context.Context, sess *store.Session, trigram string) (*domain.Company, error) {
	return sess.Companies.ByTrigram(ctx, trigram)
}

// Search returns up to limit active companies matching q by name or
// trigram.
func (s *CompanyService) Search(ctx context.Context, sess *store.Session, q string, limit int) ([]*domain.Company, error) {
	return sess.Companies.Search(ctx, q, limit)
}

// AttachRut registers a tax identifier for the company. The first
// identifier a company gets becomes its main one regardless of the flag;
// attaching with main set takes the flag over from the previous holder.
func (s *CompanyService) AttachRut(ctx context.Context, sess *store.Session, companyID int64, rut string, main bool) (*domain.CompanyRut, error) {
	if !main {
		if _, err := sess.Ruts.Main(ctx, companyID); folio.IsNotFound(err) {
			main = true
		} else if err != nil {
			return nil, err
		}
	}
	cr := &domain.CompanyRut{CompanyID: companyID, Rut: rut, IsMain: main}
	if err := sess.Ruts.Create(ctx, cr); err != nil {
		return nil, err
	}
	if main {
		if _, err := sess.Ruts.ClearMain(ctx, companyID, cr.ID); err != nil {
			return nil, err
		}
	}
	s.s.log.Info("rut attached", "company_id", companyID, "rut", cr.Rut, "main", main)
	return cr, nil
}

// SetMainRut makes the given identifier the company's main one. An
// identifier belonging to another company reads as NotFound.
func (s *CompanyService) SetMainRut(ctx context.Context, sess *store.Session, companyID, rutID int64) error {
	cr, err := sess.Ruts.Get(ctx, rutID)
	if err != nil {
		return err
	}
	if cr.CompanyID != companyID {
		return folio.NewNotFoundErrorWithID("company rut", rutID)
	}
	cr.IsMain = true
	if err := sess.Ruts.Update(ctx, cr); err != nil {
		return err
	}
	_, err = sess.Ruts.ClearMain(ctx, companyID, rutID)
	return err
}

// AddAddress registers an address for the company. Adding with the
// default flag set takes it over from the previous default.
func (s *CompanyService) AddAddress(ctx context.Context, sess *store.Session, companyID int64, addr *domain.Address) (*domain.Address, error) {
	addr.CompanyID = companyID
	if err := sess.Addresses.Create(ctx, addr); err != nil {
		return nil, err
	}
	if addr.IsDefault {
		if _, err := sess.Addresses.ClearDefault(ctx, companyID, addr.ID); err != nil {
			return nil, err
		}
	}
	return addr, nil
}

// SetDefaultAddress makes the given address the company's default. An
// address belonging to another company reads as NotFound.
func (s *CompanyService) SetDefaultAddress(ctx context.Context, sess *store.Session, companyID, addressID int64) error {
	addr, err := sess.Addresses.Get(ctx, addressID)
	if err != nil {
		return err
	}
	if addr.CompanyID != companyID {
		return folio.NewNotFoundErrorWithID("address", addressID)
	}
	addr.IsDefault = true
	if err := sess.Addresses.Update(ctx, addr); err != nil {
		return err
	}
	_, err = sess.Addresses.ClearDefault(ctx, companyID, addressID)
	return err
}

// Deactivate takes the company out of circulation without touching its
// history.
func (s *CompanyService) Deactivate(ctx context.Context, sess *store.Session, id int64) error {
	c, err := sess.Companies.Get(ctx, id)
	if err != nil {
		return err
	}
	c.IsActive = false
	return sess.Companies.Update(ctx, c)
}

// Delete removes a company along with its identifiers, plants, contacts,
// addresses and notes. A company referenced by any document, even a
// soft-deleted one, is refused with a conflict.
func (s *CompanyService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	has, err := sess.Companies.HasDocuments(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return folio.NewConflictError("company has documents", nil)
	}
	if err := sess.Companies.Delete(ctx, id); err != nil {
		return err
	}
	// Notes point at companies without a foreign key, so the cascade
	// does not reach them.
	if _, err := sess.Notes.DeleteForTarget(ctx, domain.TargetCompany(id)); err != nil {
		return err
	}
	s.s.log.Info("company deleted", "company_id", id)
	return nil
}
