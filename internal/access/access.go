// Package access models what a user may do: a permission is a
// "resource:action" pair, with "*" accepted in either position.
package access

import (
	"fmt"
	"strings"
)

type Resource string

const (
	ResourceClient         Resource = "client"
	ResourceSupplier       Resource = "supplier"
	ResourceBillboard      Resource = "billboard"
	ResourceProductService Resource = "product_service"
	ResourceQuote          Resource = "quote"
	ResourceDeliveryNote   Resource = "delivery_note"
	ResourceInvoice        Resource = "invoice"
	ResourcePurchaseOrder  Resource = "purchase_order"
	ResourcePayment        Resource = "payment"
	ResourceTransaction    Resource = "transaction"
	ResourceProject        Resource = "project"
	ResourceContract       Resource = "contract"
	ResourceDeletion       Resource = "deletion"
	ResourceUser           Resource = "user"
	ResourceCompany        Resource = "company"
	ResourceReport         Resource = "report"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

const wildcard = "*"

var (
	resources = map[Resource]bool{
		ResourceClient: true, ResourceSupplier: true, ResourceBillboard: true, ResourceProductService: true,
		ResourceQuote: true, ResourceDeliveryNote: true, ResourceInvoice: true, ResourcePurchaseOrder: true,
		ResourcePayment: true, ResourceTransaction: true, ResourceProject: true, ResourceContract: true,
		ResourceDeletion: true, ResourceUser: true, ResourceCompany: true, ResourceReport: true,
	}
	actions = map[Action]bool{
		ActionRead: true, ActionCreate: true, ActionUpdate: true, ActionDelete: true, ActionApprove: true,
	}
)

// Roles stored on users.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Permission string

// PermissionAll grants every action on every resource.
const PermissionAll Permission = "*:*"

func NewPermission(r Resource, a Action) Permission {
	return Permission(string(r) + ":" + string(a))
}

// Parse splits a permission into its resource and action.
func (p Permission) Parse() (Resource, Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return Resource(parts[0]), Action(parts[1])
}

// Matches reports whether p grants the requested permission.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == wildcard || res == reqRes
	actOK := act == wildcard || act == reqAct
	return resOK && actOK
}

// Validate rejects unknown resources and actions.
func (p Permission) Validate() error {
	res, act := p.Parse()
	if res == "" {
		return fmt.Errorf("permission %q: format attendu ressource:action", p)
	}
	if res != wildcard && !resources[res] {
		return fmt.Errorf("permission %q: ressource inconnue", p)
	}
	if act != wildcard && !actions[act] {
		return fmt.Errorf("permission %q: action inconnue", p)
	}
	return nil
}

// Set is the effective permission list of a user.
type Set []Permission

// Parse builds a Set from stored strings, failing on the first invalid entry.
func Parse(values []string) (Set, error) {
	set := make(Set, 0, len(values))
	for _, v := range values {
		p := Permission(strings.TrimSpace(v))
		if err := p.Validate(); err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// ForRole returns the permissions a role grants. Admins get everything,
// other users get their explicit list.
func ForRole(role string, explicit []string) Set {
	if role == RoleAdmin {
		return Set{PermissionAll}
	}
	set := make(Set, 0, len(explicit))
	for _, v := range explicit {
		p := Permission(v)
		if p.Validate() == nil {
			set = append(set, p)
		}
	}
	return set
}

func (s Set) Can(r Resource, a Action) bool {
	requested := NewPermission(r, a)
	for _, p := range s {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings, as carried in tokens.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = string(p)
	}
	return out
}
