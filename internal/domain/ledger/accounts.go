package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// AccountSet is a set of accounts resolved by code
type AccountSet struct {
	byCode map[string]*Account
	byID   map[uuid.UUID]*Account
}

// ResolveAccounts loads every account named by codes. A missing code fails
// with NOT_FOUND naming the code.
func ResolveAccounts(ctx context.Context, repo AccountRepository, codes ...string) (*AccountSet, error) {
	set := &AccountSet{byCode: make(map[string]*Account, len(codes)), byID: make(map[uuid.UUID]*Account, len(codes))}
	for _, code := range codes {
		if _, ok := set.byCode[code]; ok {
			continue
		}
		acc, err := repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.Newf(shared.CodeNotFound, "Account %s not found", code)
			}
			return nil, err
		}
		set.add(acc)
	}
	return set, nil
}

// LoadAccountSet loads the whole chart
func LoadAccountSet(ctx context.Context, repo AccountRepository) (*AccountSet, error) {
	all, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	set := &AccountSet{byCode: make(map[string]*Account, len(all)), byID: make(map[uuid.UUID]*Account, len(all))}
	for i := range all {
		set.add(&all[i])
	}
	return set, nil
}

func (s *AccountSet) add(a *Account) {
	s.byCode[a.Code] = a
	s.byID[a.ID] = a
}

// ID returns the ID of the account with code, or uuid.Nil when absent
func (s *AccountSet) ID(code string) uuid.UUID {
	if a, ok := s.byCode[code]; ok {
		return a.ID
	}
	return uuid.Nil
}

// ByCode returns the account with code
func (s *AccountSet) ByCode(code string) (*Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// CodeOf returns the code of the account with id, or "" when absent
func (s *AccountSet) CodeOf(id uuid.UUID) string {
	if a, ok := s.byID[id]; ok {
		return a.Code
	}
	return ""
}

// Require returns the account ID for code or NOT_FOUND
func (s *AccountSet) Require(code string) (uuid.UUID, error) {
	a, ok := s.byCode[code]
	if !ok {
		return uuid.Nil, shared.Newf(shared.CodeNotFound, "Account %s not found", code)
	}
	return a.ID, nil
}
