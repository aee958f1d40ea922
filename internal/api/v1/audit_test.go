package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/komunta/komunta/internal/api/v1"
	"github.com/komunta/komunta/internal/domain"
)

func TestListAudit(t *testing.T) {
	t.Parallel()

	t.Run("admin_reads_own_partition", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		_, api := humatest.New(t)
		store := &mockDataStore{
			audit: &mockAuditRepo{
				listFunc: func(_ context.Context, scope domain.Scope, limit, offset int) ([]*domain.AuditEntry, error) {
					require.Equal(t, domain.ScopeTenant, scope.Kind)
					require.Equal(t, tid, scope.TenantID)
					return []*domain.AuditEntry{{
						ID:        uuid.New(),
						TenantID:  tid,
						ActorID:   uuid.New(),
						Role:      domain.RoleAdmin,
						Action:    "create",
						Resource:  "property",
						Outcome:   "allow",
						CreatedAt: time.Now(),
					}}, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, &v1.Guard{}, store)

		resp := api.GetCtx(adminCtx(tid), "/audit")

		require.Equal(t, http.StatusOK, resp.Code)

		var got []*domain.AuditEntry
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, tid, got[0].TenantID)
	})

	t.Run("pagination_passed_through", func(t *testing.T) {
		t.Parallel()

		var gotLimit, gotOffset int
		_, api := humatest.New(t)
		store := &mockDataStore{
			audit: &mockAuditRepo{
				listFunc: func(_ context.Context, _ domain.Scope, limit, offset int) ([]*domain.AuditEntry, error) {
					gotLimit, gotOffset = limit, offset
					return nil, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, &v1.Guard{}, store)

		resp := api.GetCtx(superadminCtx(), "/audit?limit=25&offset=50")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 25, gotLimit)
		assert.Equal(t, 50, gotOffset)
	})

	t.Run("manager_denied", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &v1.Guard{}, &mockDataStore{})

		resp := api.GetCtx(managerCtx(uuid.New()), "/audit")

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
