package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CompanyAdapter implements out.CompanyRepository using PostgreSQL.
type CompanyAdapter struct {
	db *sqlx.DB
}

// NewCompanyAdapter creates a new CompanyAdapter.
func NewCompanyAdapter(db *sqlx.DB) *CompanyAdapter {
	return &CompanyAdapter{db: db}
}

type companyRow struct {
	ID        int64          `db:"id"`
	UserID    uuid.UUID      `db:"user_id"`
	Name      string         `db:"name"`
	Domain    sql.NullString `db:"domain"`
	Industry  sql.NullString `db:"industry"`
	Website   sql.NullString `db:"website"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *companyRow) toDomain() *domain.Company {
	return &domain.Company{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Domain:    r.Domain.String,
		Industry:  r.Industry.String,
		Website:   r.Website.String,
		Notes:     r.Notes.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const companySelectColumns = `id, user_id, name, domain, industry, website, notes, created_at, updated_at`

// GetByDomain finds a company by exact domain match.
func (a *CompanyAdapter) GetByDomain(ctx context.Context, userID uuid.UUID, domainName string) (*domain.Company, error) {
	if domainName == "" {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM companies WHERE user_id = $1 AND LOWER(domain) = LOWER($2)`, companySelectColumns)

	var row companyRow
	if err := a.db.QueryRowxContext(ctx, query, userID, domainName).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByName finds a company by case-insensitive name match.
func (a *CompanyAdapter) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Company, error) {
	if name == "" {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM companies WHERE user_id = $1 AND LOWER(name) = LOWER($2)`, companySelectColumns)

	var row companyRow
	if err := a.db.QueryRowxContext(ctx, query, userID, name).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListForMatching returns every company of the user for fuzzy matching.
// The set is expected to stay small (hundreds, not millions) so the full
// scan is cheaper than shipping similarity logic into SQL.
func (a *CompanyAdapter) ListForMatching(ctx context.Context, userID uuid.UUID) ([]*domain.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE user_id = $1 ORDER BY id`, companySelectColumns)

	rows, err := a.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var result []*domain.Company
	for rows.Next() {
		var row companyRow
		if err := rows.StructScan(&row); err != nil {
			continue
		}
		result = append(result, row.toDomain())
	}
	return result, rows.Err()
}

// Create inserts a company and returns its id.
func (a *CompanyAdapter) Create(ctx context.Context, company *domain.Company) (int64, error) {
	if company == nil || company.Name == "" {
		return 0, ErrInvalidInput
	}

	query := `
		INSERT INTO companies (user_id, name, domain, industry, website, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := a.db.QueryRowxContext(ctx, query,
		company.UserID, company.Name, nullStr(company.Domain),
		nullStr(company.Industry), nullStr(company.Website), nullStr(company.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", err)
	}
	return id, nil
}

// ContactAdapter implements out.ContactRepository using PostgreSQL.
type ContactAdapter struct {
	db *sqlx.DB
}

// NewContactAdapter creates a new ContactAdapter.
func NewContactAdapter(db *sqlx.DB) *ContactAdapter {
	return &ContactAdapter{db: db}
}

type contactRow struct {
	ID        int64          `db:"id"`
	UserID    uuid.UUID      `db:"user_id"`
	CompanyID sql.NullInt64  `db:"company_id"`
	Name      string         `db:"name"`
	Email     sql.NullString `db:"email"`
	Title     sql.NullString `db:"title"`
	RoleType  sql.NullString `db:"role_type"`
	Phone     sql.NullString `db:"phone"`
	LinkedIn  sql.NullString `db:"linkedin"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *contactRow) toDomain() *domain.Contact {
	c := &domain.Contact{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email.String,
		Title:     r.Title.String,
		RoleType:  domain.RoleType(r.RoleType.String),
		Phone:     r.Phone.String,
		LinkedIn:  r.LinkedIn.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.CompanyID.Valid {
		c.CompanyID = &r.CompanyID.Int64
	}
	return c
}

const contactSelectColumns = `id, user_id, company_id, name, email, title, role_type, phone, linkedin, created_at, updated_at`

// GetByEmail finds a contact by exact email address.
func (a *ContactAdapter) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.Contact, error) {
	if email == "" {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE user_id = $1 AND LOWER(email) = LOWER($2)`, contactSelectColumns)

	var row contactRow
	if err := a.db.QueryRowxContext(ctx, query, userID, email).StructScan(&row); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByCompany returns contacts scoped to a company. A nil companyID returns
// contacts not yet linked to any company.
func (a *ContactAdapter) ListByCompany(ctx context.Context, userID uuid.UUID, companyID *int64) ([]*domain.Contact, error) {
	var (
		query string
		args  []interface{}
	)
	if companyID != nil {
		query = fmt.Sprintf(`SELECT %s FROM contacts WHERE user_id = $1 AND company_id = $2 ORDER BY id`, contactSelectColumns)
		args = []interface{}{userID, *companyID}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM contacts WHERE user_id = $1 AND company_id IS NULL ORDER BY id`, contactSelectColumns)
		args = []interface{}{userID}
	}

	rows, err := a.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Contact
	for rows.Next() {
		var row contactRow
		if err := rows.StructScan(&row); err != nil {
			continue
		}
		result = append(result, row.toDomain())
	}
	return result, rows.Err()
}

// Create inserts a contact and returns its id.
func (a *ContactAdapter) Create(ctx context.Context, contact *domain.Contact) (int64, error) {
	if contact == nil || contact.Name == "" {
		return 0, ErrInvalidInput
	}

	query := `
		INSERT INTO contacts (user_id, company_id, name, email, title, role_type, phone, linkedin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := a.db.QueryRowxContext(ctx, query,
		contact.UserID, contact.CompanyID, contact.Name, nullStr(contact.Email),
		nullStr(contact.Title), nullStr(string(contact.RoleType)),
		nullStr(contact.Phone), nullStr(contact.LinkedIn),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact: %w", err)
	}
	return id, nil
}

var (
	_ out.CompanyRepository = (*CompanyAdapter)(nil)
	_ out.ContactRepository = (*ContactAdapter)(nil)
)
