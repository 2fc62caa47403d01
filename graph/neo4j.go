package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const relF = "FOLLOWS"

type Recommendation struct {
	Username string `json:"username"`
	Mutuals  int64  `json:"mutuals"`
}

// Neo4j mirrors follow edges as (:User)-[:FOLLOWS]->(:User).
type Neo4j struct {
	driver neo4j.DriverWithContext
}

func Connect(ctx context.Context, uri, user, pass string, log *slog.Logger) (*Neo4j, error) {
	if uri == "" || user == "" || pass == "" {
		return nil, errors.New("NEO4J env variables not set")
	}

	var err error
	maxRetries := 5
	retryDelay := 3 * time.Second

	for i := 1; i <= maxRetries; i++ {
		var drv neo4j.DriverWithContext
		drv, err = neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
		if err == nil {
			verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = drv.VerifyConnectivity(verifyCtx)
			cancel()
			if err == nil {
				log.Info("Neo4j connected", slog.String("uri", uri))
				return &Neo4j{driver: drv}, nil
			}
			_ = drv.Close(ctx)
		}
		log.Warn("Neo4j not reachable", slog.Int("attempt", i), slog.String("error", err.Error()))

		if i < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connect to Neo4j after %d attempts: %w", maxRetries, err)
}

func (g *Neo4j) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *Neo4j) AddFollow(ctx context.Context, from, to string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
		MERGE (a:User {username:$from})
		MERGE (b:User {username:$to})
		MERGE (a)-[:` + relF + `]->(b)`
		_, err := tx.Run(ctx, q, map[string]any{"from": from, "to": to})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mirror follow %s -> %s: %w", from, to, err)
	}
	return nil
}

func (g *Neo4j) RemoveFollow(ctx context.Context, from, to string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
		MATCH (a:User {username:$from})-[r:` + relF + `]->(b:User {username:$to})
		DELETE r`
		_, err := tx.Run(ctx, q, map[string]any{"from": from, "to": to})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mirror unfollow %s -> %s: %w", from, to, err)
	}
	return nil
}

// Recommend returns authors followed by the people username follows, ranked by
// how many of them do so.
func (g *Neo4j) Recommend(ctx context.Context, username string, limit int) ([]Recommendation, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	data, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
		MATCH (me:User {username:$u})-[:` + relF + `]->(m:User)-[:` + relF + `]->(rec:User)
		WHERE NOT (me)-[:` + relF + `]->(rec) AND me <> rec
		RETURN rec.username AS username, COUNT(DISTINCT m) AS mutuals
		ORDER BY mutuals DESC, username ASC
		LIMIT $limit`
		res, err := tx.Run(ctx, q, map[string]any{"u": username, "limit": limit})
		if err != nil {
			return nil, err
		}
		recs := make([]Recommendation, 0)
		for res.Next(ctx) {
			rec := res.Record()
			name, _ := rec.Get("username")
			mutuals, _ := rec.Get("mutuals")
			s, ok1 := name.(string)
			n, ok2 := mutuals.(int64)
			if !ok1 || !ok2 {
				return nil, errors.New("invalid data format")
			}
			recs = append(recs, Recommendation{Username: s, Mutuals: n})
		}
		return recs, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("recommend for %s: %w", username, err)
	}
	return data.([]Recommendation), nil
}

// Reset removes every mirrored node. Used by the backfill command and tests.
func (g *Neo4j) Reset(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MATCH (u:User) DETACH DELETE u`, nil)
		return nil, err
	})
	return err
}
