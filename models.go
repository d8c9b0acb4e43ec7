package blog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Email is the login identifier; accounts are
// created inactive and flip active once the activation link is followed.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Phone         string     `bun:"phone_number,notnull,unique" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsStaff       bool       `bun:"is_staff" json:"is_staff,omitempty"`
	IsActive      bool       `bun:"is_active" json:"is_active"`
	IsSuperuser   bool       `bun:"is_superuser" json:"is_superuser,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Owns reports whether the given id is this user's id
func (u *User) Owns(id uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.ID == id
}

// Post is owned content. The author is stamped from the acting principal at
// creation and never changes afterwards.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	Author        *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Body          string     `bun:"body" json:"body,omitempty"`
	PublishedAt   *time.Time `bun:"published_at,nullzero,default:current_timestamp" json:"published_at,omitempty"`
	Tags          []*Tag     `bun:"m2m:post_tags,join:Post=Tag" json:"tags,omitempty"`
}

// Tag is a shared label. Names carry a single leading marker character that is
// applied exactly once when the tag is created.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tag"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull,unique" json:"name,omitempty"`
}

// TagMarker prefixes tag names in storage.
const TagMarker = "#"

// NormalizeTagName applies the marker prefix. Idempotent: an already marked
// name comes back unchanged, so re-saving a tag never double-prefixes it.
func NormalizeTagName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if strings.HasPrefix(name, TagMarker) {
		return name
	}
	return TagMarker + name
}

// PostTag is the join model backing the posts<->tags m2m relation
type PostTag struct {
	bun.BaseModel `bun:"table:post_tags,alias:ptg"`
	PostID        uuid.UUID `bun:"post_id,pk,type:uuid" json:"post_id,omitempty"`
	Post          *Post     `bun:"rel:belongs-to,join:post_id=id" json:"-"`
	TagID         uuid.UUID `bun:"tag_id,pk,type:uuid" json:"tag_id,omitempty"`
	Tag           *Tag      `bun:"rel:belongs-to,join:tag_id=id" json:"-"`
}
