package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cppla/blogfeed/utils"
)

const relFollows = "FOLLOWS"

// Neo4jGraph keeps follow edges as (:User {id})-[:FOLLOWS]->(:User {id}) relationships.
type Neo4jGraph struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jGraph wraps an already connected driver.
func NewNeo4jGraph(driver neo4j.DriverWithContext) *Neo4jGraph {
	return &Neo4jGraph{driver: driver}
}

// ConnectNeo4j dials uri and verifies connectivity, retrying a few times while the server starts.
func ConnectNeo4j(ctx context.Context, uri, user, pass string) (neo4j.DriverWithContext, error) {
	if uri == "" {
		return nil, errors.New("neo4j uri not set")
	}
	const maxRetries = 5
	retryDelay := 3 * time.Second

	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		drv, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
		if err != nil {
			return nil, fmt.Errorf("create neo4j driver: %w", err)
		}
		vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = drv.VerifyConnectivity(vctx)
		cancel()
		if lastErr == nil {
			utils.Sugar.Infof("neo4j connected at %s", uri)
			return drv, nil
		}
		_ = drv.Close(ctx)
		utils.Sugar.Warnf("neo4j attempt %d/%d not reachable: %v", i, maxRetries, lastErr)
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("neo4j unreachable after %d attempts: %w", maxRetries, lastErr)
}

// Follow merges both nodes and the edge, so repeated calls leave one relationship.
func (g *Neo4jGraph) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
		MERGE (a:User {id:$from})
		MERGE (b:User {id:$to})
		MERGE (a)-[:` + relFollows + `]->(b)`
		_, err := tx.Run(ctx, q, map[string]any{"from": int64(followerID), "to": int64(followedID)})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("follow %d->%d: %w", followerID, followedID, err)
	}
	return nil
}

// Unfollow deletes the relationship when it exists.
func (g *Neo4jGraph) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return nil
	}
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `MATCH (:User {id:$from})-[r:` + relFollows + `]->(:User {id:$to}) DELETE r`
		_, err := tx.Run(ctx, q, map[string]any{"from": int64(followerID), "to": int64(followedID)})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("unfollow %d->%d: %w", followerID, followedID, err)
	}
	return nil
}

// IsFollowing reports whether the relationship exists.
func (g *Neo4jGraph) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 || followerID == followedID {
		return false, nil
	}
	q := `MATCH (:User {id:$from})-[r:` + relFollows + `]->(:User {id:$to}) RETURN COUNT(r) AS n`
	n, err := g.count(ctx, q, map[string]any{"from": int64(followerID), "to": int64(followedID)})
	if err != nil {
		return false, fmt.Errorf("is following %d->%d: %w", followerID, followedID, err)
	}
	return n > 0, nil
}

// FollowedAuthorIDs returns the ids followerID follows, ascending.
func (g *Neo4jGraph) FollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	data, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `MATCH (:User {id:$u})-[:` + relFollows + `]->(f:User) RETURN DISTINCT f.id AS id ORDER BY id`
		res, err := tx.Run(ctx, q, map[string]any{"u": int64(followerID)})
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0)
		for res.Next(ctx) {
			v, ok := res.Record().Values[0].(int64)
			if !ok {
				return nil, errors.New("unexpected id type")
			}
			ids = append(ids, uint(v))
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("followed authors of %d: %w", followerID, err)
	}
	ids, ok := data.([]uint)
	if !ok {
		return nil, errors.New("invalid data format")
	}
	return ids, nil
}

// FollowerCount counts incoming relationships.
func (g *Neo4jGraph) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	q := `MATCH (f:User)-[:` + relFollows + `]->(:User {id:$u}) RETURN COUNT(f) AS n`
	return g.count(ctx, q, map[string]any{"u": int64(userID)})
}

// FollowingCount counts outgoing relationships.
func (g *Neo4jGraph) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	q := `MATCH (:User {id:$u})-[:` + relFollows + `]->(f:User) RETURN COUNT(f) AS n`
	return g.count(ctx, q, map[string]any{"u": int64(userID)})
}

// RemoveUser detaches and deletes a user's node, mirroring the relational cascade.
func (g *Neo4jGraph) RemoveUser(ctx context.Context, userID uint) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MATCH (u:User {id:$u}) DETACH DELETE u`, map[string]any{"u": int64(userID)})
		return nil, err
	})
	return err
}

func (g *Neo4jGraph) count(ctx context.Context, q string, params map[string]any) (int64, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	data, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0], nil
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("no result")
	})
	if err != nil {
		return 0, err
	}
	n, ok := data.(int64)
	if !ok {
		return 0, errors.New("invalid data format")
	}
	return n, nil
}
