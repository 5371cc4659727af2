package entity

import (
	"strings"

	"jobtrack_server/core/domain"
)

// legalSuffixes are stripped from company names before word-set comparison so
// "Acme Corp" and "Acme Inc." compare as the same name.
var legalSuffixes = map[string]struct{}{
	"inc": {}, "llc": {}, "corp": {}, "ltd": {}, "co": {},
	"corporation": {}, "incorporated": {}, "company": {}, "limited": {},
	"gmbh": {}, "plc": {}, "group": {}, "holdings": {},
}

// personTitles are stripped from contact names.
var personTitles = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {},
}

// freeMailDomains never identify an employer; a sender at one of these is a
// person, not a company signal.
var freeMailDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "outlook.com": {},
	"hotmail.com": {}, "live.com": {}, "icloud.com": {}, "me.com": {},
	"aol.com": {}, "proton.me": {}, "protonmail.com": {},
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func companyWordSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range tokenize(name) {
		if _, skip := legalSuffixes[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func personWordSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range tokenize(name) {
		if _, skip := personTitles[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// jaccard returns |a∩b| / |a∪b| over word sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for w := range a {
		if _, ok := b[w]; !ok {
			return false
		}
	}
	return true
}

// rootDomain extracts the registrable label: "careers.acme.com" -> "acme".
func rootDomain(domainName string) string {
	domainName = strings.ToLower(strings.TrimSpace(domainName))
	parts := strings.Split(domainName, ".")
	if len(parts) < 2 {
		return domainName
	}
	return parts[len(parts)-2]
}

// nameFromDomain infers a display name: "acme.com" -> "Acme".
func nameFromDomain(domainName string) string {
	root := rootDomain(domainName)
	if root == "" {
		return ""
	}
	return strings.ToUpper(root[:1]) + root[1:]
}

// industryKeywords maps domain substrings to coarse industry buckets.
var industryKeywords = []struct {
	industry string
	keywords []string
}{
	{domain.IndustryTech, []string{"tech", "soft", "dev", "cloud", "data", "cyber", "digital", "labs", "systems"}},
	{domain.IndustryFinance, []string{"bank", "capital", "financ", "invest", "pay", "fund", "insur"}},
	{domain.IndustryHealthcare, []string{"health", "med", "pharma", "bio", "care", "clinic"}},
	{domain.IndustryRetail, []string{"shop", "store", "retail", "market", "commerce"}},
	{domain.IndustryEducation, []string{"edu", "school", "university", "academy", "learn"}},
}

// inferIndustry guesses an industry bucket from domain keywords. Coarse by
// design; empty when nothing matches.
func inferIndustry(domainName string) string {
	domainName = strings.ToLower(domainName)
	for _, bucket := range industryKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(domainName, kw) {
				return bucket.industry
			}
		}
	}
	return domain.IndustryUnknown
}

// inferRoleType guesses a contact's hiring role from their title.
func inferRoleType(title string) domain.RoleType {
	title = strings.ToLower(title)
	switch {
	case strings.Contains(title, "recruit") || strings.Contains(title, "talent") || strings.Contains(title, "sourc"):
		return domain.RoleRecruiter
	case strings.Contains(title, "hr") || strings.Contains(title, "people") || strings.Contains(title, "human resources"):
		return domain.RoleHR
	case strings.Contains(title, "hiring manager") || strings.Contains(title, "manager") ||
		strings.Contains(title, "director") || strings.Contains(title, "head of") || strings.Contains(title, "lead"):
		return domain.RoleHiringManager
	default:
		return domain.RoleEmployee
	}
}

// senderDomain extracts the employer domain from a sender address, skipping
// free-mail providers.
func senderDomain(sender string) string {
	addr := sender
	if start := strings.LastIndex(sender, "<"); start >= 0 {
		end := strings.LastIndex(sender, ">")
		if end > start {
			addr = sender[start+1 : end]
		}
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	d := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	if _, free := freeMailDomains[d]; free {
		return ""
	}
	return d
}

// SignalsFromResult derives the company and contact signals for a finished
// processing result: the merged company name plus the sender's domain, and
// the recruiter identified by structured extraction when present.
func SignalsFromResult(res *domain.ProcessingResult) (domain.CompanySignals, domain.ContactSignals) {
	company := domain.CompanySignals{
		Name:   res.Company,
		Domain: senderDomain(res.Email.Sender),
	}

	contact := domain.ContactSignals{}
	if res.StructuredData != nil && res.StructuredData.ContactInfo != nil {
		contact.Name = res.StructuredData.ContactInfo.RecruiterName
		contact.Email = res.StructuredData.ContactInfo.RecruiterEmail
	}
	if contact.Email == "" {
		if addrStart := strings.LastIndex(res.Email.Sender, "<"); addrStart >= 0 {
			if addrEnd := strings.LastIndex(res.Email.Sender, ">"); addrEnd > addrStart {
				contact.Email = strings.ToLower(res.Email.Sender[addrStart+1 : addrEnd])
			}
		} else if strings.Contains(res.Email.Sender, "@") {
			contact.Email = strings.ToLower(strings.TrimSpace(res.Email.Sender))
		}
	}
	return company, contact
}
