package accounts

import "context"

// CodeResolver adapts the repository to id-by-code lookups used when binding
// posting maps at startup.
type CodeResolver struct {
	Repo Repository
}

func (r CodeResolver) AccountIDByCode(ctx context.Context, code string) (int64, error) {
	acc, err := r.Repo.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return acc.ID, nil
}
