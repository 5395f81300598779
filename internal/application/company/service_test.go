package company

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	corecompany "3tcapital/ms_fiscal_receipts/internal/core/company"
	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	"3tcapital/ms_fiscal_receipts/internal/testutil"
)

var issuer = invoice.Issuer{
	TaxID:              "100000001",
	LocationName:       "Maxi 42",
	BusinessName:       "Maxi DOO",
	City:               "Beograd",
	AdministrativeUnit: "Vračar",
	Address:            "Njegoševa 1",
}

func TestResolver_Resolve_Existing(t *testing.T) {
	existingID := uuid.New()
	repo := &testutil.MockCompanyRepository{
		FindByTaxIDAndLocationFunc: func(ctx context.Context, taxID, locationName string) (*corecompany.Company, error) {
			if taxID != issuer.TaxID || locationName != issuer.LocationName {
				t.Errorf("unexpected key (%q, %q)", taxID, locationName)
			}
			return &corecompany.Company{ID: existingID, TaxID: taxID, LocationName: locationName, BusinessName: "Old name"}, nil
		},
		CreateFunc: func(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
			t.Error("expected no insert for an existing company")
			return uuid.Nil, nil
		},
	}

	id, err := NewResolver(repo, testutil.NewTestLogger()).Resolve(context.Background(), issuer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != existingID {
		t.Errorf("expected %s, got %s", existingID, id)
	}
}

func TestResolver_Resolve_Creates(t *testing.T) {
	newID := uuid.New()
	var created corecompany.Company
	repo := &testutil.MockCompanyRepository{
		CreateFunc: func(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
			created = c
			return newID, nil
		},
	}

	id, err := NewResolver(repo, testutil.NewTestLogger()).Resolve(context.Background(), issuer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != newID {
		t.Errorf("expected %s, got %s", newID, id)
	}
	if created.TaxID != issuer.TaxID || created.LocationName != issuer.LocationName ||
		created.BusinessName != issuer.BusinessName || created.City != issuer.City ||
		created.AdministrativeUnit != issuer.AdministrativeUnit || created.Address != issuer.Address {
		t.Errorf("issuer not copied to company: %+v", created)
	}
}

func TestResolver_Resolve_ConflictReadsWinner(t *testing.T) {
	winnerID := uuid.New()
	finds := 0
	repo := &testutil.MockCompanyRepository{
		FindByTaxIDAndLocationFunc: func(ctx context.Context, taxID, locationName string) (*corecompany.Company, error) {
			finds++
			if finds == 1 {
				return nil, nil
			}
			return &corecompany.Company{ID: winnerID}, nil
		},
		CreateFunc: func(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
			return uuid.Nil, fmt.Errorf("insert company: %w", corecompany.ErrAlreadyExists)
		},
	}

	id, err := NewResolver(repo, testutil.NewTestLogger()).Resolve(context.Background(), issuer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != winnerID {
		t.Errorf("expected winner %s, got %s", winnerID, id)
	}
	if finds != 2 {
		t.Errorf("expected 2 lookups, got %d", finds)
	}
}

func TestResolver_Resolve_Failures(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name string
		repo *testutil.MockCompanyRepository
	}{
		{
			name: "lookup fails",
			repo: &testutil.MockCompanyRepository{
				FindByTaxIDAndLocationFunc: func(ctx context.Context, taxID, locationName string) (*corecompany.Company, error) {
					return nil, dbErr
				},
			},
		},
		{
			name: "insert fails",
			repo: &testutil.MockCompanyRepository{
				CreateFunc: func(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
					return uuid.Nil, dbErr
				},
			},
		},
		{
			name: "winner not found after conflict",
			repo: &testutil.MockCompanyRepository{
				CreateFunc: func(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
					return uuid.Nil, corecompany.ErrAlreadyExists
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewResolver(tt.repo, testutil.NewTestLogger()).Resolve(context.Background(), issuer)
			if !errors.Is(err, invoice.ErrCompanyResolutionFailed) {
				t.Errorf("expected ErrCompanyResolutionFailed, got %v", err)
			}
			if id != uuid.Nil {
				t.Errorf("expected nil id, got %s", id)
			}
		})
	}
}

// memoryCompanyRepository enforces the (tax id, location name) uniqueness the
// way the database constraint does.
type memoryCompanyRepository struct {
	mu   sync.Mutex
	rows map[[2]string]uuid.UUID
}

func (m *memoryCompanyRepository) FindByTaxIDAndLocation(ctx context.Context, taxID, locationName string) (*corecompany.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.rows[[2]string{taxID, locationName}]; ok {
		return &corecompany.Company{ID: id, TaxID: taxID, LocationName: locationName}, nil
	}
	return nil, nil
}

func (m *memoryCompanyRepository) Create(ctx context.Context, c corecompany.Company) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{c.TaxID, c.LocationName}
	if _, ok := m.rows[key]; ok {
		return uuid.Nil, corecompany.ErrAlreadyExists
	}
	id := uuid.New()
	m.rows[key] = id
	return id, nil
}

func TestResolver_Resolve_ConcurrentCallersAgree(t *testing.T) {
	repo := &memoryCompanyRepository{rows: make(map[[2]string]uuid.UUID)}
	resolver := NewResolver(repo, testutil.NewNullLogger())

	const callers = 16
	ids := make([]uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := resolver.Resolve(context.Background(), issuer)
			if err != nil {
				t.Errorf("caller %d: unexpected error: %v", i, err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		if id != ids[0] {
			t.Errorf("caller %d resolved %s, expected %s", i, id, ids[0])
		}
	}
	if len(repo.rows) != 1 {
		t.Errorf("expected exactly one company row, got %d", len(repo.rows))
	}
}
