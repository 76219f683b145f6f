package repository

import (
	"context"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/pgconv"
	"alumni-reserve/internal/usecase/shared"
)

type AccessPolicyRepository struct {
	db db.DBTX
}

func NewAccessPolicyRepository(dbtx db.DBTX) *AccessPolicyRepository {
	return &AccessPolicyRepository{db: dbtx}
}

const selectPolicySQL = `
SELECT policy
FROM access_policies
WHERE resource_class = $1`

// PolicyFor resolves a missing row to members-only so an unconfigured
// resource class never becomes accidentally public.
func (r *AccessPolicyRepository) PolicyFor(ctx context.Context, resourceClass string) (shared.AccessPolicy, error) {
	var policy string
	err := r.db.QueryRow(ctx, selectPolicySQL, resourceClass).Scan(&policy)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return shared.PolicyMembersOnly, nil
		}
		return "", infra.WrapRepoErr("failed to find access policy", err)
	}
	return shared.AccessPolicy(policy), nil
}
