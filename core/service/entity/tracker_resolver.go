// Package entity implements fuzzy find-or-create resolution for companies
// and contacts.
package entity

import (
	"context"
	"strings"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/logger"

	"github.com/google/uuid"
)

// Matching thresholds. Deliberately conservative: a false split is cheaper to
// fix than a false merge, so anything below the floor creates a new record.
// Tunable, not load-bearing.
const (
	fuzzyNameFloor   = 0.8
	fuzzyDomainFloor = 0.7

	confExactDomain = 1.0
	confExactName   = 0.9
	confExactEmail  = 1.0
	confRootEqual   = 0.9
	confRootContain = 0.8
	confCreated     = 0.8
)

// Resolver finds or creates company and contact rows for extracted signals.
type Resolver struct {
	companies out.CompanyRepository
	contacts  out.ContactRepository
	log       *logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(companies out.CompanyRepository, contacts out.ContactRepository) *Resolver {
	return &Resolver{
		companies: companies,
		contacts:  contacts,
		log:       logger.Default().WithField("component", "entity_resolver"),
	}
}

// =============================================================================
// Company resolution
// =============================================================================

// FindOrCreateCompany resolves signals through a strict priority cascade:
// exact domain, exact name, fuzzy name, fuzzy domain, create. The first
// strategy that hits wins. DB errors yield an empty match (nil ID); callers
// must tolerate the missing link.
func (r *Resolver) FindOrCreateCompany(ctx context.Context, userID uuid.UUID, signals domain.CompanySignals) domain.CompanyMatch {
	signals.Domain = strings.ToLower(strings.TrimSpace(signals.Domain))
	signals.Name = strings.TrimSpace(signals.Name)

	if signals.Domain != "" {
		company, err := r.companies.GetByDomain(ctx, userID, signals.Domain)
		if err != nil {
			return r.companyLookupFailed("get_by_domain", err)
		}
		if company != nil {
			return domain.CompanyMatch{ID: &company.ID, Confidence: confExactDomain, Method: domain.MatchExactDomain}
		}
	}

	if signals.Name != "" {
		company, err := r.companies.GetByName(ctx, userID, signals.Name)
		if err != nil {
			return r.companyLookupFailed("get_by_name", err)
		}
		if company != nil {
			return domain.CompanyMatch{ID: &company.ID, Confidence: confExactName, Method: domain.MatchExactName}
		}
	}

	candidates, err := r.companies.ListForMatching(ctx, userID)
	if err != nil {
		return r.companyLookupFailed("list_for_matching", err)
	}

	if match, ok := r.fuzzyNameMatch(signals.Name, candidates); ok {
		return match
	}
	if match, ok := r.fuzzyDomainMatch(signals.Domain, candidates); ok {
		return match
	}

	return r.createCompany(ctx, userID, signals)
}

func (r *Resolver) fuzzyNameMatch(name string, candidates []*domain.Company) (domain.CompanyMatch, bool) {
	if name == "" {
		return domain.CompanyMatch{}, false
	}
	target := companyWordSet(name)
	if len(target) == 0 {
		return domain.CompanyMatch{}, false
	}

	var best *domain.Company
	bestScore := 0.0
	for _, c := range candidates {
		score := jaccard(target, companyWordSet(c.Name))
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best != nil && bestScore > fuzzyNameFloor {
		return domain.CompanyMatch{ID: &best.ID, Confidence: bestScore, Method: domain.MatchFuzzyName}, true
	}
	return domain.CompanyMatch{}, false
}

func (r *Resolver) fuzzyDomainMatch(domainName string, candidates []*domain.Company) (domain.CompanyMatch, bool) {
	if domainName == "" {
		return domain.CompanyMatch{}, false
	}
	root := rootDomain(domainName)
	if root == "" {
		return domain.CompanyMatch{}, false
	}

	var best *domain.Company
	bestScore := 0.0
	for _, c := range candidates {
		candidateRoot := rootDomain(c.Domain)
		if candidateRoot == "" {
			continue
		}
		var score float64
		switch {
		case candidateRoot == root:
			score = confRootEqual
		case strings.Contains(candidateRoot, root) || strings.Contains(root, candidateRoot):
			score = confRootContain
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best != nil && bestScore > fuzzyDomainFloor {
		return domain.CompanyMatch{ID: &best.ID, Confidence: bestScore, Method: domain.MatchFuzzyDomain}, true
	}
	return domain.CompanyMatch{}, false
}

func (r *Resolver) createCompany(ctx context.Context, userID uuid.UUID, signals domain.CompanySignals) domain.CompanyMatch {
	name := signals.Name
	if name == "" {
		name = nameFromDomain(signals.Domain)
	}
	if name == "" {
		// Nothing to anchor a record on.
		return domain.CompanyMatch{Method: domain.MatchNone}
	}

	id, err := r.companies.Create(ctx, &domain.Company{
		UserID:   userID,
		Name:     name,
		Domain:   signals.Domain,
		Industry: inferIndustry(signals.Domain),
	})
	if err != nil {
		r.log.WithError(err).Error("company create failed")
		return domain.CompanyMatch{Method: domain.MatchNone}
	}
	return domain.CompanyMatch{ID: &id, IsNew: true, Confidence: confCreated, Method: domain.MatchCreated}
}

func (r *Resolver) companyLookupFailed(op string, err error) domain.CompanyMatch {
	r.log.WithError(err).Error("company lookup failed: %s", op)
	return domain.CompanyMatch{Method: domain.MatchNone}
}

// =============================================================================
// Contact resolution
// =============================================================================

// FindOrCreateContact resolves a contact, scoped to companyID when known.
// Cascade: exact email, exact name within company, fuzzy name within company,
// create with an inferred role type.
func (r *Resolver) FindOrCreateContact(ctx context.Context, userID uuid.UUID, signals domain.ContactSignals, companyID *int64) domain.ContactMatch {
	signals.Email = strings.ToLower(strings.TrimSpace(signals.Email))
	signals.Name = strings.TrimSpace(signals.Name)

	if signals.Email != "" {
		contact, err := r.contacts.GetByEmail(ctx, userID, signals.Email)
		if err != nil {
			r.log.WithError(err).Error("contact lookup failed: get_by_email")
			return domain.ContactMatch{Method: domain.MatchNone}
		}
		if contact != nil {
			return domain.ContactMatch{ID: &contact.ID, Confidence: confExactEmail, Method: domain.MatchExactEmail}
		}
	}

	if signals.Name != "" {
		candidates, err := r.contacts.ListByCompany(ctx, userID, companyID)
		if err != nil {
			r.log.WithError(err).Error("contact lookup failed: list_by_company")
			return domain.ContactMatch{Method: domain.MatchNone}
		}

		target := personWordSet(signals.Name)
		var best *domain.Contact
		bestScore := 0.0
		for _, c := range candidates {
			set := personWordSet(c.Name)
			if len(target) > 0 && len(set) > 0 && setsEqual(target, set) {
				return domain.ContactMatch{ID: &c.ID, Confidence: confExactName, Method: domain.MatchExactName}
			}
			if score := jaccard(target, set); score > bestScore {
				bestScore = score
				best = c
			}
		}
		if best != nil && bestScore > fuzzyNameFloor {
			return domain.ContactMatch{ID: &best.ID, Confidence: bestScore, Method: domain.MatchFuzzyName}
		}
	}

	return r.createContact(ctx, userID, signals, companyID)
}

func (r *Resolver) createContact(ctx context.Context, userID uuid.UUID, signals domain.ContactSignals, companyID *int64) domain.ContactMatch {
	if signals.Name == "" && signals.Email == "" {
		return domain.ContactMatch{Method: domain.MatchNone}
	}
	name := signals.Name
	if name == "" {
		name = signals.Email
	}

	id, err := r.contacts.Create(ctx, &domain.Contact{
		UserID:    userID,
		CompanyID: companyID,
		Name:      name,
		Email:     signals.Email,
		Title:     signals.Title,
		RoleType:  inferRoleType(signals.Title),
	})
	if err != nil {
		r.log.WithError(err).Error("contact create failed")
		return domain.ContactMatch{Method: domain.MatchNone}
	}
	return domain.ContactMatch{ID: &id, IsNew: true, Confidence: confCreated, Method: domain.MatchCreated}
}
