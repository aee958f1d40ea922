package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

type ListAuditInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"500" doc:"Page size, defaults to 100"`
	Offset int `query:"offset" minimum:"0" doc:"Rows to skip"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterAuditRoutes(api huma.API, guard *Guard, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List audit entries visible to the caller, newest first",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceAudit)
		if err != nil {
			return nil, err
		}

		entries, err := store.Audit().List(ctx, scope, input.Limit, input.Offset)
		if err != nil {
			return nil, mapDomainError(err, "audit entries")
		}

		return &ListAuditOutput{Body: entries}, nil
	})
}
