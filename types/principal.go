package types

import "fmt"

// PrincipalKind tags which identity table a principal belongs to.
type PrincipalKind string

const (
	PrincipalCustomer PrincipalKind = "customer"
	PrincipalWorker   PrincipalKind = "worker"
	PrincipalAdmin    PrincipalKind = "admin"
)

// Valid reports whether k is a known principal kind.
func (k PrincipalKind) Valid() bool {
	switch k {
	case PrincipalCustomer, PrincipalWorker, PrincipalAdmin:
		return true
	default:
		return false
	}
}

// Principal is the authenticated identity making a request.
type Principal struct {
	Kind PrincipalKind `json:"type"`
	ID   uint          `json:"id"`
}

func (p Principal) IsCustomer() bool { return p.Kind == PrincipalCustomer }
func (p Principal) IsWorker() bool   { return p.Kind == PrincipalWorker }
func (p Principal) IsAdmin() bool    { return p.Kind == PrincipalAdmin }

func (p Principal) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}
