package entity

import (
	"context"
	"errors"
	"testing"

	"jobtrack_server/core/domain"

	"github.com/google/uuid"
)

// fakeCompanyRepo serves a fixed candidate set and records creations.
type fakeCompanyRepo struct {
	companies []*domain.Company
	created   []*domain.Company
	failAll   bool
	nextID    int64
}

func (f *fakeCompanyRepo) GetByDomain(ctx context.Context, userID uuid.UUID, domainName string) (*domain.Company, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	for _, c := range f.companies {
		if c.Domain == domainName {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanyRepo) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Company, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	for _, c := range f.companies {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanyRepo) ListForMatching(ctx context.Context, userID uuid.UUID) ([]*domain.Company, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.companies, nil
}

func (f *fakeCompanyRepo) Create(ctx context.Context, company *domain.Company) (int64, error) {
	if f.failAll {
		return 0, errors.New("db down")
	}
	f.nextID++
	company.ID = f.nextID
	f.created = append(f.created, company)
	return f.nextID, nil
}

type fakeContactRepo struct {
	contacts []*domain.Contact
	created  []*domain.Contact
	nextID   int64
}

func (f *fakeContactRepo) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.Contact, error) {
	for _, c := range f.contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) ListByCompany(ctx context.Context, userID uuid.UUID, companyID *int64) ([]*domain.Contact, error) {
	return f.contacts, nil
}

func (f *fakeContactRepo) Create(ctx context.Context, contact *domain.Contact) (int64, error) {
	f.nextID++
	contact.ID = f.nextID
	f.created = append(f.created, contact)
	return f.nextID, nil
}

func company(id int64, name, dom string) *domain.Company {
	return &domain.Company{ID: id, Name: name, Domain: dom}
}

func TestFindOrCreateCompanyCascade(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		existing   []*domain.Company
		signals    domain.CompanySignals
		wantID     int64
		wantNew    bool
		wantMethod domain.MatchMethod
		wantConf   float64
	}{
		{
			name:       "exact domain wins over exact name",
			existing:   []*domain.Company{company(1, "Acme", "acme.com"), company(2, "Acme", "other.com")},
			signals:    domain.CompanySignals{Name: "Acme", Domain: "acme.com"},
			wantID:     1,
			wantMethod: domain.MatchExactDomain,
			wantConf:   1.0,
		},
		{
			name:       "exact name when domain misses",
			existing:   []*domain.Company{company(3, "Globex", "globex.com")},
			signals:    domain.CompanySignals{Name: "Globex", Domain: "mail.unrelated-sender.net"},
			wantID:     3,
			wantMethod: domain.MatchExactName,
			wantConf:   0.9,
		},
		{
			name:       "fuzzy name ignores legal suffix",
			existing:   []*domain.Company{company(4, "Initech Inc", "")},
			signals:    domain.CompanySignals{Name: "Initech Corporation"},
			wantID:     4,
			wantMethod: domain.MatchFuzzyName,
		},
		{
			name:       "fuzzy domain matches subdomain root",
			existing:   []*domain.Company{company(5, "Hooli", "hooli.com")},
			signals:    domain.CompanySignals{Domain: "careers.hooli.com"},
			wantID:     5,
			wantMethod: domain.MatchFuzzyDomain,
			wantConf:   0.9,
		},
		{
			name:       "no match creates",
			existing:   []*domain.Company{company(6, "Hooli", "hooli.com")},
			signals:    domain.CompanySignals{Name: "Pied Piper", Domain: "piedpiper.io"},
			wantNew:    true,
			wantMethod: domain.MatchCreated,
			wantConf:   0.8,
		},
		{
			name:       "weak name overlap creates instead of merging",
			existing:   []*domain.Company{company(7, "Acme Robotics Division", "")},
			signals:    domain.CompanySignals{Name: "Acme"},
			wantNew:    true,
			wantMethod: domain.MatchCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCompanyRepo{companies: tt.existing, nextID: 100}
			r := NewResolver(repo, &fakeContactRepo{})

			match := r.FindOrCreateCompany(context.Background(), userID, tt.signals)

			if match.Method != tt.wantMethod {
				t.Fatalf("method = %s, want %s", match.Method, tt.wantMethod)
			}
			if match.IsNew != tt.wantNew {
				t.Errorf("is_new = %v, want %v", match.IsNew, tt.wantNew)
			}
			if tt.wantID != 0 {
				if match.ID == nil || *match.ID != tt.wantID {
					t.Errorf("id = %v, want %d", match.ID, tt.wantID)
				}
			}
			if tt.wantConf != 0 && match.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", match.Confidence, tt.wantConf)
			}
		})
	}
}

func TestFindOrCreateCompanyDBErrorYieldsEmptyMatch(t *testing.T) {
	r := NewResolver(&fakeCompanyRepo{failAll: true}, &fakeContactRepo{})

	match := r.FindOrCreateCompany(context.Background(), uuid.New(),
		domain.CompanySignals{Name: "Acme", Domain: "acme.com"})

	if match.ID != nil {
		t.Errorf("id = %v, want nil on db error", match.ID)
	}
	if match.Method != domain.MatchNone {
		t.Errorf("method = %s, want none", match.Method)
	}
}

func TestFindOrCreateCompanyNoSignals(t *testing.T) {
	repo := &fakeCompanyRepo{}
	r := NewResolver(repo, &fakeContactRepo{})

	match := r.FindOrCreateCompany(context.Background(), uuid.New(), domain.CompanySignals{})

	if match.ID != nil || match.Method != domain.MatchNone {
		t.Errorf("match = %+v, want empty", match)
	}
	if len(repo.created) != 0 {
		t.Errorf("created %d companies from empty signals", len(repo.created))
	}
}

func TestCreatedCompanyNameInferredFromDomain(t *testing.T) {
	repo := &fakeCompanyRepo{}
	r := NewResolver(repo, &fakeContactRepo{})

	match := r.FindOrCreateCompany(context.Background(), uuid.New(),
		domain.CompanySignals{Domain: "stripe.com"})

	if !match.IsNew {
		t.Fatalf("match = %+v, want created", match)
	}
	if len(repo.created) != 1 || repo.created[0].Name != "Stripe" {
		t.Errorf("created = %+v, want name Stripe", repo.created)
	}
}

func TestFindOrCreateContactCascade(t *testing.T) {
	userID := uuid.New()
	companyID := int64(1)

	existing := []*domain.Contact{
		{ID: 10, Name: "Jordan Lee", Email: "jordan@acme.com"},
		{ID: 11, Name: "Sam Park", Email: "sam@acme.com"},
	}

	tests := []struct {
		name       string
		signals    domain.ContactSignals
		wantID     int64
		wantNew    bool
		wantMethod domain.MatchMethod
	}{
		{
			name:       "exact email",
			signals:    domain.ContactSignals{Name: "J. Lee", Email: "jordan@acme.com"},
			wantID:     10,
			wantMethod: domain.MatchExactEmail,
		},
		{
			name:       "exact name ignoring title prefix",
			signals:    domain.ContactSignals{Name: "Mr. Sam Park"},
			wantID:     11,
			wantMethod: domain.MatchExactName,
		},
		{
			name:       "unknown person creates",
			signals:    domain.ContactSignals{Name: "Alex Kim", Email: "alex@acme.com", Title: "Technical Recruiter"},
			wantNew:    true,
			wantMethod: domain.MatchCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := &fakeContactRepo{contacts: existing, nextID: 100}
			r := NewResolver(&fakeCompanyRepo{}, contacts)

			match := r.FindOrCreateContact(context.Background(), userID, tt.signals, &companyID)

			if match.Method != tt.wantMethod {
				t.Fatalf("method = %s, want %s", match.Method, tt.wantMethod)
			}
			if match.IsNew != tt.wantNew {
				t.Errorf("is_new = %v, want %v", match.IsNew, tt.wantNew)
			}
			if tt.wantID != 0 && (match.ID == nil || *match.ID != tt.wantID) {
				t.Errorf("id = %v, want %d", match.ID, tt.wantID)
			}
		})
	}
}

func TestCreatedContactRoleInferredFromTitle(t *testing.T) {
	contacts := &fakeContactRepo{}
	r := NewResolver(&fakeCompanyRepo{}, contacts)

	r.FindOrCreateContact(context.Background(), uuid.New(),
		domain.ContactSignals{Name: "Alex Kim", Title: "Senior Talent Partner"}, nil)

	if len(contacts.created) != 1 {
		t.Fatalf("created %d contacts, want 1", len(contacts.created))
	}
	if contacts.created[0].RoleType != domain.RoleRecruiter {
		t.Errorf("role = %s, want recruiter", contacts.created[0].RoleType)
	}
}

func TestFindOrCreateContactNoSignals(t *testing.T) {
	contacts := &fakeContactRepo{}
	r := NewResolver(&fakeCompanyRepo{}, contacts)

	match := r.FindOrCreateContact(context.Background(), uuid.New(), domain.ContactSignals{}, nil)

	if match.ID != nil || len(contacts.created) != 0 {
		t.Errorf("empty signals produced a contact: %+v", match)
	}
}
