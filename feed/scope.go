// Package feed decides which posts a viewer sees for a scope, in what order,
// and how they are split into pages.
package feed

import "fmt"

// Kind identifies how a feed's candidate posts are selected.
type Kind int

const (
	KindGlobal Kind = iota
	KindGroup
	KindAuthor
	KindFollowing
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindGroup:
		return "group"
	case KindAuthor:
		return "author"
	case KindFollowing:
		return "following"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scope selects a feed. Build one with Global, ByGroup, ByAuthor or ByFollowing.
type Scope struct {
	Kind     Kind
	Slug     string
	Username string
	ViewerID uint
}

// Global is every post on the site.
func Global() Scope { return Scope{Kind: KindGlobal} }

// ByGroup is the posts filed under the group with slug.
func ByGroup(slug string) Scope { return Scope{Kind: KindGroup, Slug: slug} }

// ByAuthor is the posts written by username.
func ByAuthor(username string) Scope { return Scope{Kind: KindAuthor, Username: username} }

// ByFollowing is the posts of every author viewerID follows.
func ByFollowing(viewerID uint) Scope { return Scope{Kind: KindFollowing, ViewerID: viewerID} }

func (s Scope) String() string {
	switch s.Kind {
	case KindGroup:
		return "group:" + s.Slug
	case KindAuthor:
		return "author:" + s.Username
	case KindFollowing:
		return fmt.Sprintf("following:%d", s.ViewerID)
	default:
		return s.Kind.String()
	}
}
