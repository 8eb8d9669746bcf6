package model

import "time"

// DomainStatus is the upstream verification state of a domain.
type DomainStatus string

const (
	DomainPending  DomainStatus = "pending"
	DomainVerified DomainStatus = "verified"
	DomainFailed   DomainStatus = "failed"
)

// DNSRecord is one record the user must publish for a domain.
type DNSRecord struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Value      string `json:"value"`
	IsRequired bool   `json:"isRequired"`
	IsVerified bool   `json:"isVerified"`
}

// Domain is the payload returned by the domains endpoints.
type Domain struct {
	ID              string       `json:"id"`
	Domain          string       `json:"domain"`
	Status          DomainStatus `json:"status"`
	DNSRecords      []DNSRecord  `json:"dnsRecords"`
	HasMXRecords    bool         `json:"hasMxRecords"`
	IsFullyVerified bool         `json:"isFullyVerified"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Verified reports whether the domain finished verification.
func (d Domain) Verified() bool {
	return d.IsFullyVerified || d.Status == DomainVerified
}

// CreateDomainRequest is the body of POST /domains.
type CreateDomainRequest struct {
	Domain string `json:"domain"`
}
