// Command tokengen mints a signed token pair for an actor, for bootstrap
// and operational use. Production tokens normally come from the external
// identity service; this tool exists so a fresh deployment can mint its
// first superadmin credential.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/auth"
	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		actorFlag    = flag.String("actor", "", "actor UUID (defaults to a fresh one)")
		roleFlag     = flag.String("role", "superadmin", "role: superadmin, admin, manager or tenant")
		tenantFlag   = flag.String("tenant", "", "partition UUID (required for every role but superadmin)")
		propertyFlag = flag.String("property", "", "property UUID (occupants only)")
		ttlFlag      = flag.Duration("ttl", time.Hour, "access token lifetime")
	)
	flag.Parse()

	secret := os.Getenv("KOMUNTA_JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("KOMUNTA_JWT_SECRET is not set")
	}

	actorID := uuid.New()
	if *actorFlag != "" {
		var err error
		actorID, err = uuid.Parse(*actorFlag)
		if err != nil {
			return fmt.Errorf("parse actor: %w", err)
		}
	}

	tenantID := uuid.Nil
	if *tenantFlag != "" {
		var err error
		tenantID, err = uuid.Parse(*tenantFlag)
		if err != nil {
			return fmt.Errorf("parse tenant: %w", err)
		}
	}

	propertyID := uuid.Nil
	if *propertyFlag != "" {
		var err error
		propertyID, err = uuid.Parse(*propertyFlag)
		if err != nil {
			return fmt.Errorf("parse property: %w", err)
		}
	}

	actor := authz.Resolve(actorID, domain.Role(*roleFlag), tenantID, propertyID)
	if !actor.Valid() {
		return fmt.Errorf("role %q with tenant %q does not form a valid actor", *roleFlag, *tenantFlag)
	}

	access, err := auth.IssueAccessToken(secret, actor, *ttlFlag)
	if err != nil {
		return err
	}
	refresh, err := auth.IssueRefreshToken(secret, actor, 30*24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Println("actor:        ", actorID)
	fmt.Println("access token: ", access)
	fmt.Println("refresh token:", refresh)
	return nil
}
